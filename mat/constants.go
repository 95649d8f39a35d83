package mat

// Data element types (the "mi" types of the Level 5 MAT-File format).
const (
	miINT8       uint32 = 1
	miUINT8      uint32 = 2
	miINT16      uint32 = 3
	miUINT16     uint32 = 4
	miINT32      uint32 = 5
	miUINT32     uint32 = 6
	miSINGLE     uint32 = 7
	miDOUBLE     uint32 = 9
	miINT64      uint32 = 12
	miUINT64     uint32 = 13
	miMATRIX     uint32 = 14
	miCOMPRESSED uint32 = 15
	miUTF8       uint32 = 16
	miUTF16      uint32 = 17
	miUTF32      uint32 = 18
)

// Class is the array class stored in the array-flags subelement.
type Class uint8

const (
	ClassCell   Class = 1
	ClassStruct Class = 2
	ClassObject Class = 3
	ClassChar   Class = 4
	ClassSparse Class = 5
	ClassDouble Class = 6
	ClassSingle Class = 7
	ClassInt8   Class = 8
	ClassUint8  Class = 9
	ClassInt16  Class = 10
	ClassUint16 Class = 11
	ClassInt32  Class = 12
	ClassUint32 Class = 13
	ClassInt64  Class = 14
	ClassUint64 Class = 15
)

var classNames = [...]string{
	ClassCell:   "cell",
	ClassStruct: "struct",
	ClassObject: "object",
	ClassChar:   "char",
	ClassSparse: "sparse",
	ClassDouble: "double",
	ClassSingle: "single",
	ClassInt8:   "int8",
	ClassUint8:  "uint8",
	ClassInt16:  "int16",
	ClassUint16: "uint16",
	ClassInt32:  "int32",
	ClassUint32: "uint32",
	ClassInt64:  "int64",
	ClassUint64: "uint64",
}

func (c Class) String() string {
	if int(c) < len(classNames) && classNames[c] != "" {
		return classNames[c]
	}
	return "unknown"
}

// IsNumeric reports whether the class holds plain numeric data.
func (c Class) IsNumeric() bool {
	return c >= ClassDouble && c <= ClassUint64
}

// Array-flags bits, second byte of the first flags word.
const (
	flagComplex uint32 = 0x0800
	flagGlobal  uint32 = 0x0400
	flagLogical uint32 = 0x0200
)

// Field names are stored in fixed-width slots. savemat's long_field_names
// option raises the limit from 32 to 64 including the terminating NUL;
// the writer always uses the long form.
const maxFieldNameLen = 64

// headerTextLen is the length of the descriptive text in the file header.
const headerTextLen = 116

// headerVersion is the MAT-file version word (0x0100 for Level 5).
const headerVersion uint16 = 0x0100

// headerEndian is the endian indicator; "IM" when written little-endian.
const headerEndian uint16 = 0x4D49
