package octave

import "fmt"

// Tuple is an ordered heterogeneous sequence that always encodes as a
// cell array, with no attempt to unify a common numeric type.
type Tuple []any

// Set is an unordered collection; it encodes exactly like a list.
type Set []any

// Object is a value tagged with an Octave class name, the transport form
// of a user-defined class instance.
type Object struct {
	ClassName string
	Value     *Struct
}

func (o *Object) String() string {
	return fmt.Sprintf("<%s instance>", o.ClassName)
}

// VarPtr refers to a variable living in the remote workspace. Encoding a
// VarPtr unwraps it: the referenced value is fetched through the
// encoder's VarResolver and encoded in its place.
type VarPtr struct {
	Name    string
	Address string
}

func (p VarPtr) String() string {
	return fmt.Sprintf("%q Octave variable", p.Name)
}

// FuncPtr refers to a function in the remote workspace. Function handles
// have no data representation and are rejected by the encoder.
type FuncPtr struct {
	Name string
}

// Address returns the handle expression for the function.
func (p FuncPtr) Address() string {
	return "@" + p.Name
}

func (p FuncPtr) String() string {
	return fmt.Sprintf("%q Octave function", p.Name)
}

// Marshaler lets user types supply their own transport value. The
// encoder recurses on the returned value.
type Marshaler interface {
	MarshalOctave() (any, error)
}

// ClassFactory rebuilds a user-defined class instance from its decoded
// transport value.
type ClassFactory interface {
	FromValue(className string, value *Struct) (any, error)
}

// ClassResolver maps a remote class name to its factory. A live session
// provides one; a nil resolver makes the decoder return the raw struct,
// which keeps offline inspection of response files working.
type ClassResolver interface {
	ResolveClass(name string) (ClassFactory, bool)
}

// VarResolver fetches the current value of a remote variable, used to
// unwrap VarPtr arguments at encode time.
type VarResolver interface {
	ResolveVar(address string) (any, error)
}

// Table is a minimal columnar value: ordered, named, equal-length
// numeric columns. It stands in for dataframe-like inputs and flattens
// to its underlying matrix when encoded.
type Table struct {
	Names   []string
	Columns [][]float64
}

// Values returns the table body as a rows-by-columns array.
func (t *Table) Values() (*NDArray, error) {
	rows := 0
	if len(t.Columns) > 0 {
		rows = len(t.Columns[0])
	}
	out := make([]float64, 0, rows*len(t.Columns))
	for r := 0; r < rows; r++ {
		for c := range t.Columns {
			if len(t.Columns[c]) != rows {
				return nil, fmt.Errorf("table column %d has %d rows, want %d", c, len(t.Columns[c]), rows)
			}
			out = append(out, t.Columns[c][r])
		}
	}
	return NewNDArray(out, rows, len(t.Columns))
}
