package mat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf16"

	"github.com/klauspost/compress/zlib"

	"github.com/blink1073/octmat/errors"
	matbin "github.com/blink1073/octmat/mat/internal/binary"
)

// ReadFile loads all top-level variables from a MAT file. Variables are
// returned in file order.
func ReadFile(path string) ([]Var, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindProcess, err, "read mat file")
	}
	return Read(data)
}

// Read parses a complete MAT file held in memory.
func Read(data []byte) ([]Var, error) {
	if len(data) < 128 {
		return nil, errors.InvalidData(errors.PhaseParse, nil, "file shorter than MAT header")
	}
	endian := binary.LittleEndian.Uint16(data[126:128])
	if endian != headerEndian {
		return nil, errors.InvalidData(errors.PhaseParse, nil,
			fmt.Sprintf("unsupported endian indicator 0x%04x", endian))
	}
	version := binary.LittleEndian.Uint16(data[124:126])
	if version != headerVersion {
		return nil, errors.InvalidData(errors.PhaseParse, nil,
			fmt.Sprintf("unsupported MAT version 0x%04x", version))
	}

	r := matbin.NewReader(data[128:])
	var vars []Var
	for r.Remaining() >= 8 {
		elementType, payload, err := r.ReadElement()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "read element")
		}
		if elementType == miCOMPRESSED {
			payload, err = inflate(payload)
			if err != nil {
				return nil, err
			}
			inner := matbin.NewReader(payload)
			elementType, payload, err = inner.ReadElement()
			if err != nil {
				return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "read compressed element")
			}
		}
		if elementType != miMATRIX {
			return nil, errors.InvalidData(errors.PhaseParse, nil,
				fmt.Sprintf("unexpected top-level element type %d", elementType))
		}
		arr, name, err := parseMatrix(payload, nil)
		if err != nil {
			return nil, err
		}
		vars = append(vars, Var{Name: name, Value: arr})
	}
	return vars, nil
}

func inflate(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "open compressed element")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "inflate element")
	}
	return out, nil
}

// parseMatrix decodes the payload of one miMATRIX element.
func parseMatrix(data []byte, path []string) (*Array, string, error) {
	r := matbin.NewReader(data)

	flagType, flagData, err := r.ReadElement()
	if err != nil {
		return nil, "", parseErr(path, "read array flags", err)
	}
	if flagType != miUINT32 || len(flagData) < 8 {
		return nil, "", errors.InvalidData(errors.PhaseParse, path, "malformed array flags")
	}
	flags := binary.LittleEndian.Uint32(flagData[0:4])
	nzmax := binary.LittleEndian.Uint32(flagData[4:8])

	a := &Array{
		Class:   Class(flags & 0xff),
		Complex: flags&flagComplex != 0,
		Logical: flags&flagLogical != 0,
		Global:  flags&flagGlobal != 0,
		Nzmax:   int(nzmax),
	}

	dimType, dimData, err := r.ReadElement()
	if err != nil {
		return nil, "", parseErr(path, "read dimensions", err)
	}
	if dimType != miINT32 {
		return nil, "", errors.InvalidData(errors.PhaseParse, path, "malformed dimensions element")
	}
	a.Dims = make([]int, len(dimData)/4)
	for i := range a.Dims {
		a.Dims[i] = int(int32(binary.LittleEndian.Uint32(dimData[4*i:])))
	}

	_, nameData, err := r.ReadElement()
	if err != nil {
		return nil, "", parseErr(path, "read name", err)
	}
	name := string(nameData)
	if len(path) == 0 {
		path = []string{name}
	}

	switch a.Class {
	case ClassCell:
		err = parseCells(r, a, path)
	case ClassStruct:
		err = parseStruct(r, a, path)
	case ClassObject:
		var classData []byte
		_, classData, err = r.ReadElement()
		if err != nil {
			return nil, "", parseErr(path, "read class name", err)
		}
		a.ClassName = string(classData)
		err = parseStruct(r, a, path)
	case ClassChar:
		err = parseChars(r, a, path)
	case ClassSparse:
		err = parseSparse(r, a, path)
	default:
		if !a.Class.IsNumeric() {
			return nil, "", errors.InvalidData(errors.PhaseParse, path,
				fmt.Sprintf("unknown array class %d", int(a.Class)))
		}
		err = parseNumeric(r, a, path)
	}
	if err != nil {
		return nil, "", err
	}
	return a, name, nil
}

func parseCells(r *matbin.Reader, a *Array, path []string) error {
	n := a.Size()
	a.Cells = make([]*Array, 0, n)
	for i := 0; i < n; i++ {
		elemType, payload, err := r.ReadElement()
		if err != nil {
			return parseErr(path, "read cell element", err)
		}
		if elemType != miMATRIX {
			return errors.InvalidData(errors.PhaseParse, path,
				fmt.Sprintf("cell element %d has type %d, want matrix", i, elemType))
		}
		c, _, err := parseMatrix(payload, childPath(path, fmt.Sprintf("{%d}", i)))
		if err != nil {
			return err
		}
		a.Cells = append(a.Cells, c)
	}
	return nil
}

func parseStruct(r *matbin.Reader, a *Array, path []string) error {
	_, lenData, err := r.ReadElement()
	if err != nil {
		return parseErr(path, "read field name length", err)
	}
	if len(lenData) < 4 {
		return errors.InvalidData(errors.PhaseParse, path, "malformed field name length")
	}
	nameLen := int(int32(binary.LittleEndian.Uint32(lenData)))
	if nameLen <= 0 {
		return errors.InvalidData(errors.PhaseParse, path, "invalid field name length")
	}

	_, nameData, err := r.ReadElement()
	if err != nil {
		return parseErr(path, "read field names", err)
	}
	nfields := len(nameData) / nameLen
	a.Fields = make([]string, nfields)
	for i := range a.Fields {
		slot := nameData[i*nameLen : (i+1)*nameLen]
		if j := bytes.IndexByte(slot, 0); j >= 0 {
			slot = slot[:j]
		}
		a.Fields[i] = string(slot)
	}

	n := a.Size()
	a.Records = make([][]*Array, 0, n)
	for i := 0; i < n; i++ {
		rec := make([]*Array, 0, nfields)
		for f := 0; f < nfields; f++ {
			elemType, payload, err := r.ReadElement()
			if err != nil {
				return parseErr(path, "read struct field", err)
			}
			if elemType != miMATRIX {
				return errors.InvalidData(errors.PhaseParse, path,
					fmt.Sprintf("field %q has element type %d, want matrix", a.Fields[f], elemType))
			}
			v, _, err := parseMatrix(payload, childPath(path, a.Fields[f]))
			if err != nil {
				return err
			}
			rec = append(rec, v)
		}
		a.Records = append(a.Records, rec)
	}
	return nil
}

func parseChars(r *matbin.Reader, a *Array, path []string) error {
	elemType, payload, err := r.ReadElement()
	if err != nil {
		return parseErr(path, "read char data", err)
	}
	switch elemType {
	case miUINT16, miUTF16:
		a.Chars = make([]uint16, len(payload)/2)
		for i := range a.Chars {
			a.Chars[i] = binary.LittleEndian.Uint16(payload[2*i:])
		}
	case miUINT8, miINT8:
		a.Chars = make([]uint16, len(payload))
		for i, b := range payload {
			a.Chars[i] = uint16(b)
		}
	case miUTF8:
		runes := []rune(string(payload))
		a.Chars = utf16.Encode(runes)
		// UTF-8 storage does not carry per-cell padding, so the element
		// count may disagree with Dims for non-BMP text.
	default:
		return errors.InvalidData(errors.PhaseParse, path,
			fmt.Sprintf("unsupported char storage type %d", elemType))
	}
	return nil
}

func parseSparse(r *matbin.Reader, a *Array, path []string) error {
	_, irData, err := r.ReadElement()
	if err != nil {
		return parseErr(path, "read sparse row indices", err)
	}
	a.RowIndex = make([]int32, len(irData)/4)
	for i := range a.RowIndex {
		a.RowIndex[i] = int32(binary.LittleEndian.Uint32(irData[4*i:]))
	}

	_, jcData, err := r.ReadElement()
	if err != nil {
		return parseErr(path, "read sparse column pointers", err)
	}
	a.ColPtr = make([]int32, len(jcData)/4)
	for i := range a.ColPtr {
		a.ColPtr[i] = int32(binary.LittleEndian.Uint32(jcData[4*i:]))
	}

	return parseNumeric(r, a, path)
}

func parseNumeric(r *matbin.Reader, a *Array, path []string) error {
	elemType, payload, err := r.ReadElement()
	if err != nil {
		return parseErr(path, "read real data", err)
	}
	a.Real, err = storageToClass(elemType, payload, a.Class, path)
	if err != nil {
		return err
	}
	if a.Complex {
		elemType, payload, err = r.ReadElement()
		if err != nil {
			return parseErr(path, "read imaginary data", err)
		}
		a.Imag, err = storageToClass(elemType, payload, a.Class, path)
		if err != nil {
			return err
		}
	}
	return nil
}

func parseErr(path []string, detail string, cause error) error {
	return errors.New(errors.PhaseParse, errors.KindInvalidData).
		Path(path...).
		Detail("%s", detail).
		Cause(cause).
		Build()
}

// number covers the storage kinds a numeric element may hold.
type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// storageToClass converts the stored bytes, tagged with their storage
// element type, into a typed slice matching the array class. Writers may
// store data narrower than the class; this widening is lossless.
func storageToClass(elemType uint32, data []byte, class Class, path []string) (any, error) {
	src, err := decodeStorage(elemType, data, path)
	if err != nil {
		return nil, err
	}
	// For sparse arrays the class is ClassSparse; values are doubles.
	switch class {
	case ClassDouble, ClassSparse:
		return castSlice[float64](src), nil
	case ClassSingle:
		return castSlice[float32](src), nil
	case ClassInt8:
		return castSlice[int8](src), nil
	case ClassUint8:
		return castSlice[uint8](src), nil
	case ClassInt16:
		return castSlice[int16](src), nil
	case ClassUint16:
		return castSlice[uint16](src), nil
	case ClassInt32:
		return castSlice[int32](src), nil
	case ClassUint32:
		return castSlice[uint32](src), nil
	case ClassInt64:
		return castSlice[int64](src), nil
	case ClassUint64:
		return castSlice[uint64](src), nil
	default:
		return nil, errors.InvalidData(errors.PhaseParse, path,
			fmt.Sprintf("class %s has no numeric storage", class))
	}
}

func decodeStorage(elemType uint32, data []byte, path []string) (any, error) {
	switch elemType {
	case miDOUBLE:
		out := make([]float64, len(data)/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
		}
		return out, nil
	case miSINGLE:
		out := make([]float32, len(data)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
		}
		return out, nil
	case miINT8:
		out := make([]int8, len(data))
		for i, b := range data {
			out[i] = int8(b)
		}
		return out, nil
	case miUINT8:
		out := make([]uint8, len(data))
		copy(out, data)
		return out, nil
	case miINT16:
		out := make([]int16, len(data)/2)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
		}
		return out, nil
	case miUINT16:
		out := make([]uint16, len(data)/2)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(data[2*i:])
		}
		return out, nil
	case miINT32:
		out := make([]int32, len(data)/4)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(data[4*i:]))
		}
		return out, nil
	case miUINT32:
		out := make([]uint32, len(data)/4)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[4*i:])
		}
		return out, nil
	case miINT64:
		out := make([]int64, len(data)/8)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(data[8*i:]))
		}
		return out, nil
	case miUINT64:
		out := make([]uint64, len(data)/8)
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(data[8*i:])
		}
		return out, nil
	default:
		return nil, errors.InvalidData(errors.PhaseParse, path,
			fmt.Sprintf("unsupported numeric storage type %d", elemType))
	}
}

// castSlice converts any decoded storage slice into the target element
// type. Identity conversions return the source slice unchanged.
func castSlice[T number](src any) []T {
	if same, ok := src.([]T); ok {
		return same
	}
	switch s := src.(type) {
	case []float64:
		return convert[T](s)
	case []float32:
		return convert[T](s)
	case []int8:
		return convert[T](s)
	case []uint8:
		return convert[T](s)
	case []int16:
		return convert[T](s)
	case []uint16:
		return convert[T](s)
	case []int32:
		return convert[T](s)
	case []uint32:
		return convert[T](s)
	case []int64:
		return convert[T](s)
	case []uint64:
		return convert[T](s)
	}
	return nil
}

func convert[T number, S number](src []S) []T {
	out := make([]T, len(src))
	for i, v := range src {
		out[i] = T(v)
	}
	return out
}
