package mat

// Array is the in-memory form of one miMATRIX element. Numeric data is
// held in column-major order exactly as stored in the file; higher
// layers are responsible for axis-order conversion.
type Array struct {
	Class Class
	Dims  []int
	Name  string

	Complex bool
	Logical bool
	Global  bool

	// Numeric payloads. Real holds a typed slice matching the class
	// ([]float64 for ClassDouble, []int16 for ClassInt16, ...); Imag is
	// nil unless Complex is set. For sparse arrays the slices hold only
	// the stored nonzeros.
	Real any
	Imag any

	// Chars holds UTF-16 code units for ClassChar, column-major.
	Chars []uint16

	// Cells holds the elements of a ClassCell array in column-major order.
	Cells []*Array

	// Struct and object payloads: Fields names each record slot and
	// Records holds one value slice per array element (column-major),
	// parallel to Fields.
	Fields  []string
	Records [][]*Array

	// ClassName is set for ClassObject arrays.
	ClassName string

	// Sparse payloads (ClassSparse): compressed sparse column layout.
	RowIndex []int32 // row index of each stored nonzero
	ColPtr   []int32 // length cols+1, offsets into RowIndex
	Nzmax    int
}

// Size returns the total number of elements described by Dims.
func (a *Array) Size() int {
	if len(a.Dims) == 0 {
		return 0
	}
	n := 1
	for _, d := range a.Dims {
		n *= d
	}
	return n
}

// Rows returns the extent of the first dimension.
func (a *Array) Rows() int {
	if len(a.Dims) == 0 {
		return 0
	}
	return a.Dims[0]
}

// Cols returns the product of all dimensions after the first.
func (a *Array) Cols() int {
	if len(a.Dims) < 2 {
		return 1
	}
	n := 1
	for _, d := range a.Dims[1:] {
		n *= d
	}
	return n
}

// Var is one named top-level binding in a MAT file.
type Var struct {
	Name  string
	Value *Array
}

// Lookup returns the variable with the given name, if present.
func Lookup(vars []Var, name string) (*Array, bool) {
	for _, v := range vars {
		if v.Name == name {
			return v.Value, true
		}
	}
	return nil, false
}

// childPath extends an error path without sharing the parent's backing
// array, so a captured path is not rewritten by a later sibling append.
func childPath(path []string, elem string) []string {
	child := make([]string, len(path), len(path)+1)
	copy(child, path)
	return append(child, elem)
}
