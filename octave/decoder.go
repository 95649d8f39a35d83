package octave

import (
	"fmt"
	"unicode/utf16"

	"github.com/blink1073/octmat/errors"
	"github.com/blink1073/octmat/mat"
)

// Decoder reconstructs Go values from container arrays, inverting the
// encoder's axis-order transform and re-expanding the container's
// aggregate encodings into Struct, StructArray and Cell values.
//
// A nil Resolver is valid: tagged class instances then decode to their
// raw struct payload, which keeps offline inspection of response files
// working without a live session.
type Decoder struct {
	Resolver ClassResolver
}

// NewDecoder returns a decoder with no class resolver.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode converts a container value into its Go representation.
func (d *Decoder) Decode(value any) (any, error) {
	return d.decode(value, nil)
}

func (d *Decoder) decode(value any, path []string) (any, error) {
	// Lists arrive from unwrapped struct fields; map decode over them.
	if list, ok := value.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			dec, err := d.decode(item, childPath(path, fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil
	}

	arr, ok := value.(*mat.Array)
	if !ok {
		// Terminal scalar already in Go form.
		return value, nil
	}

	switch {
	case arr.Class == mat.ClassObject:
		return d.decodeObject(arr, path)

	case len(arr.Fields) > 0 || arr.Class == mat.ClassStruct:
		if arr.Size() == 1 {
			if len(arr.Records) == 0 {
				return NewStruct(), nil
			}
			return d.decodeStruct(arr.Fields, arr.Records[0], path)
		}
		return d.decodeStructArray(arr, path)

	case arr.Class == mat.ClassCell:
		return d.decodeCell(arr, path)

	case arr.Class == mat.ClassChar:
		return decodeChars(arr, path)

	case arr.Class == mat.ClassSparse:
		return decodeSparse(arr), nil

	case arr.Size() == 1:
		return scalarFromArray(arr, path)

	case arr.Size() == 0:
		return []any{}, nil

	default:
		return ndarrayFromArray(arr, path)
	}
}

func (d *Decoder) decodeObject(arr *mat.Array, path []string) (any, error) {
	if arr.Size() != 1 || len(arr.Records) != 1 {
		return nil, errors.Malformed(path,
			fmt.Sprintf("class %q instance with %d records", arr.ClassName, len(arr.Records)))
	}
	payload, err := d.decodeStruct(arr.Fields, arr.Records[0], path)
	if err != nil {
		return nil, err
	}
	if d.Resolver != nil {
		if factory, ok := d.Resolver.ResolveClass(arr.ClassName); ok {
			return factory.FromValue(arr.ClassName, payload)
		}
	}
	// No live session: hand back the raw payload for inspection.
	return payload, nil
}

// decodeStruct builds a single Struct from one record. Cell-valued
// fields come back doubly wrapped by the container format; they are
// unwrapped exactly once: a size-1 cell yields its lone element and a
// larger cell yields a plain list.
func (d *Decoder) decodeStruct(fields []string, record []*mat.Array, path []string) (*Struct, error) {
	out := NewStruct()
	for i, name := range fields {
		item, err := d.decodeStructField(record[i], childPath(path, name))
		if err != nil {
			return nil, err
		}
		out.Set(name, item)
	}
	return out, nil
}

func (d *Decoder) decodeStructField(val *mat.Array, path []string) (any, error) {
	if val.Class == mat.ClassCell {
		if len(val.Cells) == 1 {
			return d.decode(val.Cells[0], path)
		}
		items := make([]any, len(val.Cells))
		rowMajor := permute(val.Cells, val.Dims, false)
		for i, c := range rowMajor {
			dec, err := d.decode(c, childPath(path, fmt.Sprintf("{%d}", i)))
			if err != nil {
				return nil, err
			}
			items[i] = dec
		}
		return items, nil
	}
	return d.decode(val, path)
}

func (d *Decoder) decodeStructArray(arr *mat.Array, path []string) (*StructArray, error) {
	rowMajor := permute(arr.Records, arr.Dims, false)
	records := make([]*Struct, len(rowMajor))
	for i, rec := range rowMajor {
		s := NewStruct()
		for f, name := range arr.Fields {
			if f >= len(rec) {
				return nil, errors.Malformed(path,
					fmt.Sprintf("record %d missing field %q", i, name))
			}
			item, err := d.decode(rec[f], childPath(path, name))
			if err != nil {
				return nil, err
			}
			s.Set(name, item)
		}
		records[i] = s
	}
	return NewStructArray(arr.Fields, records, arr.Dims...)
}

func (d *Decoder) decodeCell(arr *mat.Array, path []string) (*Cell, error) {
	rowMajor := permute(arr.Cells, arr.Dims, false)
	items := make([]any, len(rowMajor))
	for i, c := range rowMajor {
		dec, err := d.decode(c, childPath(path, fmt.Sprintf("{%d}", i)))
		if err != nil {
			return nil, err
		}
		items[i] = dec
	}
	return NewCell(items, arr.Dims...)
}

// decodeChars maps a char matrix to a string (one row) or one string
// per row. Padding is preserved; Octave pads string matrices with
// spaces and stripping them would lose data.
func decodeChars(arr *mat.Array, path []string) (any, error) {
	rows := arr.Rows()
	cols := arr.Cols()
	if arr.Size() == 0 {
		return "", nil
	}
	if len(arr.Chars) != arr.Size() {
		return nil, errors.Malformed(path,
			fmt.Sprintf("char data has %d units for dims %v", len(arr.Chars), arr.Dims))
	}
	if rows == 1 {
		return string(utf16.Decode(arr.Chars)), nil
	}
	out := make([]string, rows)
	for r := 0; r < rows; r++ {
		units := make([]uint16, cols)
		for c := 0; c < cols; c++ {
			units[c] = arr.Chars[c*rows+r]
		}
		out[r] = string(utf16.Decode(units))
	}
	return out, nil
}

func decodeSparse(arr *mat.Array) *Sparse {
	s := &Sparse{
		RowCount: arr.Rows(),
		ColCount: arr.Cols(),
		RowIndex: make([]int, len(arr.RowIndex)),
		ColPtr:   make([]int, len(arr.ColPtr)),
	}
	for i, v := range arr.RowIndex {
		s.RowIndex[i] = int(v)
	}
	for i, v := range arr.ColPtr {
		s.ColPtr[i] = int(v)
	}
	if re, ok := arr.Real.([]float64); ok {
		s.Data = append([]float64{}, re...)
	}
	if arr.Complex {
		if im, ok := arr.Imag.([]float64); ok {
			s.Imag = append([]float64{}, im...)
		}
	}
	// The stored-entry count, not nzmax, bounds the index slices.
	if len(s.RowIndex) > len(s.Data) {
		s.RowIndex = s.RowIndex[:len(s.Data)]
	}
	return s
}

// scalarFromArray unwraps a size-1 array to its bare Go value,
// preserving the element dtype.
func scalarFromArray(arr *mat.Array, path []string) (any, error) {
	if err := checkPayload(arr, path); err != nil {
		return nil, err
	}
	if arr.Logical {
		// Octave can flag any numeric class logical, not just int8.
		return nonzero(elemAt(arr.Real, 0)), nil
	}
	if arr.Complex {
		switch re := arr.Real.(type) {
		case []float64:
			im := arr.Imag.([]float64)
			return complex(re[0], im[0]), nil
		case []float32:
			im := arr.Imag.([]float32)
			return complex(re[0], im[0]), nil
		}
		return nil, errors.Malformed(path, "complex scalar with non-float storage")
	}
	return elemAt(arr.Real, 0), nil
}

// ndarrayFromArray restores row-major order and compresses trailing
// singleton dimensions.
func ndarrayFromArray(arr *mat.Array, path []string) (*NDArray, error) {
	dims := arr.Dims
	data := arr.Real
	if err := checkPayload(arr, path); err != nil {
		return nil, err
	}

	if arr.Logical {
		bs := make([]bool, arr.Size())
		for i := range bs {
			bs[i] = nonzero(elemAt(data, i))
		}
		data = bs
	} else if arr.Complex {
		switch re := data.(type) {
		case []float64:
			im := arr.Imag.([]float64)
			cs := make([]complex128, len(re))
			for i := range re {
				cs[i] = complex(re[i], im[i])
			}
			data = cs
		case []float32:
			im := arr.Imag.([]float32)
			cs := make([]complex64, len(re))
			for i := range re {
				cs[i] = complex(re[i], im[i])
			}
			data = cs
		default:
			return nil, errors.Malformed(path, "complex array with non-float storage")
		}
	}

	rowMajor := toRowMajor(data, dims)
	return NewNDArray(rowMajor, squeezeTrailing(dims)...)
}

// checkPayload verifies the dense data payload covers every element the
// dims promise. A truncated file parses tag-correctly, so this is the
// first place the damage is visible; indexing before the check would
// panic instead of reporting the file.
func checkPayload(arr *mat.Array, path []string) error {
	_, n, err := sliceInfo(arr.Real)
	if err != nil {
		return errors.Malformed(path, "numeric array with no data")
	}
	if n != arr.Size() {
		return errors.Malformed(path,
			fmt.Sprintf("data has %d elements for dims %v", n, arr.Dims))
	}
	if arr.Complex {
		_, ni, err := sliceInfo(arr.Imag)
		if err != nil || ni != arr.Size() {
			return errors.Malformed(path,
				fmt.Sprintf("imaginary part has %d elements for dims %v", ni, arr.Dims))
		}
	}
	return nil
}

func nonzero(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0
	case float64:
		return x != 0
	case complex64:
		return x != 0
	case complex128:
		return x != 0
	}
	return false
}

// childPath extends an error path without sharing the parent's backing
// array, so a path captured in one branch is not rewritten by a later
// sibling append.
func childPath(path []string, elem string) []string {
	child := make([]string, len(path), len(path)+1)
	copy(child, path)
	return append(child, elem)
}
