package octave

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf16"

	"github.com/blink1073/octmat/errors"
	"github.com/blink1073/octmat/mat"
)

// epsilon injected into the imaginary part of all-real complex data.
// Octave would otherwise coerce the value to a real matrix on load and
// the round trip would silently lose the complex type.
const imagEpsilon = 1e-9

// Encoder converts Go values into container arrays, applying the
// type-narrowing and axis-order rules the transport requires.
//
// Dispatch order matters: several checks are narrower subsets of later
// ones. The documented quirks are contract, not accident: plain int
// always widens to float64 even when ConvertToFloat is off, nil becomes
// NaN, and all-real complex data gets a tiny imaginary part injected.
type Encoder struct {
	// ConvertToFloat widens integer and bool array data to float64,
	// matching the numeric type Octave uses for most math. On by default.
	ConvertToFloat bool
	// OnedAs orients rank-1 arrays: "row" encodes as 1xN, "column" as Nx1.
	OnedAs string
	// Resolver unwraps VarPtr arguments. Optional; encoding a VarPtr
	// without one fails.
	Resolver VarResolver
}

// NewEncoder returns an encoder with the transport defaults.
func NewEncoder() *Encoder {
	return &Encoder{ConvertToFloat: true, OnedAs: "row"}
}

// Encode converts one value into its container representation.
func (e *Encoder) Encode(value any) (*mat.Array, error) {
	return e.encode(value, nil)
}

func (e *Encoder) encode(value any, path []string) (*mat.Array, error) {
	switch v := value.(type) {
	case VarPtr:
		if e.Resolver == nil {
			return nil, errors.InvalidData(errors.PhaseEncode, path,
				fmt.Sprintf("cannot resolve remote variable %q without a session", v.Name))
		}
		resolved, err := e.Resolver.ResolveVar(v.Address)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err,
				fmt.Sprintf("resolve remote variable %q", v.Name))
		}
		return e.encode(resolved, path)

	case Marshaler:
		inner, err := v.MarshalOctave()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "marshal user value")
		}
		return e.encode(inner, path)

	case FuncPtr:
		return nil, errors.Unsupported(path, "octave.FuncPtr", "cannot write Octave functions")

	case *Object:
		arr, err := e.encodeStruct(v.Value, path)
		if err != nil {
			return nil, err
		}
		arr.Class = mat.ClassObject
		arr.ClassName = v.ClassName
		return arr, nil

	// Plain int widens to float64 unconditionally, ConvertToFloat or
	// not. Octave treats bare numbers as double.
	case int:
		return e.scalarDouble(float64(v)), nil
	case uint:
		return e.scalarDouble(float64(v)), nil

	case *Table:
		body, err := v.Values()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseEncode, errors.KindInvalidData, err, "flatten table")
		}
		return e.encode(body, path)

	case *Struct:
		return e.encodeStruct(v, path)

	case map[string]any:
		s := NewStruct()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.Set(k, v[k])
		}
		return e.encodeStruct(s, path)

	case nil:
		return e.scalarDouble(math.NaN()), nil

	case Set:
		return e.encode([]any(v), path)

	case []any:
		if arr, ok := e.listAsArray(v); ok {
			return e.encode(arr, path)
		}
		return e.encode(Tuple(v), path)

	case Tuple:
		return e.encodeTuple(v, path)

	case *Sparse:
		return e.encodeSparse(v, path)

	case *Cell:
		return e.encodeCell(v, path)

	case *StructArray:
		return e.encodeStructArray(v, path)

	case *NDArray:
		return e.encodeArray(v, path)

	case bool:
		if e.ConvertToFloat {
			var f float64
			if v {
				f = 1
			}
			return e.scalarDouble(f), nil
		}
		var b int8
		if v {
			b = 1
		}
		return e.encodeArray(MustNDArray([]int8{b}, 1, 1), path)

	case string:
		return e.encodeString(v), nil
	case []string:
		return e.encodeStringRows(v, path)

	case float64:
		return e.scalarDouble(v), nil
	case float32:
		return e.encodeArray(MustNDArray([]float32{v}, 1, 1), path)
	case complex128:
		return e.encodeArray(MustNDArray([]complex128{v}, 1, 1), path)
	case complex64:
		return e.encodeArray(MustNDArray([]complex64{v}, 1, 1), path)

	case int8:
		return e.encodeArray(MustNDArray([]int8{v}, 1, 1), path)
	case int16:
		return e.encodeArray(MustNDArray([]int16{v}, 1, 1), path)
	case int32:
		return e.encodeArray(MustNDArray([]int32{v}, 1, 1), path)
	case int64:
		return e.encodeArray(MustNDArray([]int64{v}, 1, 1), path)
	case uint8:
		return e.encodeArray(MustNDArray([]uint8{v}, 1, 1), path)
	case uint16:
		return e.encodeArray(MustNDArray([]uint16{v}, 1, 1), path)
	case uint32:
		return e.encodeArray(MustNDArray([]uint32{v}, 1, 1), path)
	case uint64:
		return e.encodeArray(MustNDArray([]uint64{v}, 1, 1), path)

	default:
		// Typed numeric slices are one-dimensional arrays.
		if nd, err := NewNDArray(value); err == nil {
			return e.encodeArray(nd, path)
		}
		return nil, errors.New(errors.PhaseEncode, errors.KindUnsupportedValue).
			Path(path...).
			GoType(fmt.Sprintf("%T", value)).
			Detail("no MAT representation for this type").
			Build()
	}
}

func (e *Encoder) scalarDouble(v float64) *mat.Array {
	return &mat.Array{Class: mat.ClassDouble, Dims: []int{1, 1}, Real: []float64{v}}
}

// listAsArray converts a list whose elements are all simple numeric
// values, or consistently sized nested lists of them, into an NDArray.
// Lists that fail the test encode as cells instead.
func (e *Encoder) listAsArray(items []any) (*NDArray, bool) {
	if len(items) == 0 {
		return nil, false
	}
	if !isSimpleNumeric(items) {
		return nil, false
	}
	shape, ok := nestedShape(items)
	if !ok {
		return nil, false
	}
	flat := make([]any, 0, prod(shape))
	flattenNested(items, &flat)

	hasComplex := false
	hasFloat := false
	for _, it := range flat {
		switch it.(type) {
		case complex64, complex128:
			hasComplex = true
		case float32, float64:
			hasFloat = true
		}
	}
	switch {
	case hasComplex:
		out := make([]complex128, len(flat))
		for i, it := range flat {
			out[i] = asComplex(it)
		}
		return MustNDArray(out, shape...), true
	case hasFloat:
		out := make([]float64, len(flat))
		for i, it := range flat {
			out[i] = asFloat(it)
		}
		return MustNDArray(out, shape...), true
	default:
		out := make([]int64, len(flat))
		for i, it := range flat {
			out[i] = asInt(it)
		}
		return MustNDArray(out, shape...), true
	}
}

func isSimpleNumeric(items []any) bool {
	length := -1
	for _, item := range items {
		if set, ok := item.(Set); ok {
			item = []any(set)
		}
		switch it := item.(type) {
		case []any:
			if !isSimpleNumeric(it) {
				return false
			}
			if length == -1 {
				length = len(it)
			}
			if len(it) != length {
				return false
			}
		case int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64, complex64, complex128, bool:
		default:
			return false
		}
	}
	return true
}

func nestedShape(items []any) ([]int, bool) {
	if len(items) == 0 {
		return []int{0}, true
	}
	if inner, ok := items[0].([]any); ok {
		innerShape, ok := nestedShape(inner)
		if !ok {
			return nil, false
		}
		for _, item := range items[1:] {
			next, ok := item.([]any)
			if !ok || len(next) != len(inner) {
				return nil, false
			}
		}
		return append([]int{len(items)}, innerShape...), true
	}
	for _, item := range items {
		if _, ok := item.([]any); ok {
			return nil, false
		}
	}
	return []int{len(items)}, true
}

func flattenNested(items []any, out *[]any) {
	for _, item := range items {
		if inner, ok := item.([]any); ok {
			flattenNested(inner, out)
			continue
		}
		*out = append(*out, item)
	}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

func asInt(v any) int64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	}
	return 0
}

func asComplex(v any) complex128 {
	switch x := v.(type) {
	case complex64:
		return complex128(x)
	case complex128:
		return x
	default:
		return complex(asFloat(v), 0)
	}
}

// encodeTuple always produces a cell array, one element per item, with
// no common-type unification. A single-item tuple nests one level
// deeper; the extra wrapping is what forces Octave to see a cell rather
// than unwrapping the lone value.
func (e *Encoder) encodeTuple(t Tuple, path []string) (*mat.Array, error) {
	cells := make([]*mat.Array, len(t))
	for i, item := range t {
		enc, err := e.encode(item, childPath(path, fmt.Sprintf("{%d}", i)))
		if err != nil {
			return nil, err
		}
		cells[i] = enc
	}
	if len(cells) == 1 {
		inner := &mat.Array{Class: mat.ClassCell, Dims: []int{1, 1}, Cells: cells}
		return &mat.Array{Class: mat.ClassCell, Dims: []int{1, 1}, Cells: []*mat.Array{inner}}, nil
	}
	return &mat.Array{Class: mat.ClassCell, Dims: []int{1, len(cells)}, Cells: cells}, nil
}

func (e *Encoder) encodeCell(c *Cell, path []string) (*mat.Array, error) {
	dims := c.Shape()
	if len(dims) < 2 {
		dims = append(dims, 1)
	}
	encoded := make([]*mat.Array, c.Len())
	for i, item := range c.Items() {
		enc, err := e.encode(item, childPath(path, fmt.Sprintf("{%d}", i)))
		if err != nil {
			return nil, err
		}
		encoded[i] = enc
	}
	return &mat.Array{
		Class: mat.ClassCell,
		Dims:  dims,
		Cells: permute(encoded, dims, true),
	}, nil
}

func (e *Encoder) encodeStruct(s *Struct, path []string) (*mat.Array, error) {
	fields := s.Fields()
	record := make([]*mat.Array, len(fields))
	for i, f := range fields {
		v, _ := s.Get(f)
		enc, err := e.encode(v, childPath(path, f))
		if err != nil {
			return nil, err
		}
		record[i] = enc
	}
	return &mat.Array{
		Class:   mat.ClassStruct,
		Dims:    []int{1, 1},
		Fields:  fields,
		Records: [][]*mat.Array{record},
	}, nil
}

func (e *Encoder) encodeStructArray(sa *StructArray, path []string) (*mat.Array, error) {
	dims := sa.Shape()
	if len(dims) < 2 {
		dims = append(dims, 1)
	}
	fields := sa.Fields()
	records := make([][]*mat.Array, sa.Len())
	for r := 0; r < sa.Len(); r++ {
		rec := sa.Index(r)
		row := make([]*mat.Array, len(fields))
		for i, f := range fields {
			v, _ := rec.Get(f)
			enc, err := e.encode(v, childPath(path, f))
			if err != nil {
				return nil, err
			}
			row[i] = enc
		}
		records[r] = row
	}
	return &mat.Array{
		Class:   mat.ClassStruct,
		Dims:    dims,
		Fields:  fields,
		Records: permute(records, dims, true),
	}, nil
}

func (e *Encoder) encodeSparse(s *Sparse, path []string) (*mat.Array, error) {
	ri := make([]int32, len(s.RowIndex))
	for i, v := range s.RowIndex {
		ri[i] = int32(v)
	}
	cp := make([]int32, len(s.ColPtr))
	for i, v := range s.ColPtr {
		cp[i] = int32(v)
	}
	arr := &mat.Array{
		Class:    mat.ClassSparse,
		Dims:     []int{s.RowCount, s.ColCount},
		RowIndex: ri,
		ColPtr:   cp,
		Nzmax:    max(len(s.Data), 1),
		Real:     append([]float64{}, s.Data...),
	}
	if s.Imag != nil {
		arr.Complex = true
		arr.Imag = append([]float64{}, s.Imag...)
	}
	return arr, nil
}

// encodeArray applies the dtype-cleaning rules and converts to
// column-major container order.
func (e *Encoder) encodeArray(a *NDArray, path []string) (*mat.Array, error) {
	dims := a.Shape()
	if len(dims) == 1 {
		if e.OnedAs == "column" {
			dims = []int{dims[0], 1}
		} else {
			dims = []int{1, dims[0]}
		}
	}

	dtype := a.Dtype()
	data := a.Data()

	// Logical data is narrowed before transport.
	if dtype == Bool {
		bs := data.([]bool)
		out := make([]int8, len(bs))
		for i, b := range bs {
			if b {
				out[i] = 1
			}
		}
		dtype, data = Int8, out
	}

	if e.ConvertToFloat && dtype.IsInteger() {
		data = integerToFloat(data)
		dtype = Float64
	}

	if dtype.IsComplex() {
		return e.encodeComplex(dtype, data, dims), nil
	}

	return &mat.Array{
		Class: dtype.class(),
		Dims:  dims,
		Real:  toColumnMajor(data, dims),
	}, nil
}

func (e *Encoder) encodeComplex(dtype Dtype, data any, dims []int) *mat.Array {
	if dtype == Complex128 {
		src := data.([]complex128)
		re := make([]float64, len(src))
		im := make([]float64, len(src))
		allRealInput := true
		for i, c := range src {
			re[i] = real(c)
			im[i] = imag(c)
			if imag(c) != 0 {
				allRealInput = false
			}
		}
		if allRealInput {
			for i := range im {
				im[i] = imagEpsilon
			}
		}
		return &mat.Array{
			Class:   mat.ClassDouble,
			Dims:    dims,
			Complex: true,
			Real:    toColumnMajor(re, dims),
			Imag:    toColumnMajor(im, dims),
		}
	}

	src := data.([]complex64)
	re := make([]float32, len(src))
	im := make([]float32, len(src))
	allRealInput := true
	for i, c := range src {
		re[i] = real(c)
		im[i] = imag(c)
		if imag(c) != 0 {
			allRealInput = false
		}
	}
	if allRealInput {
		for i := range im {
			im[i] = float32(imagEpsilon)
		}
	}
	return &mat.Array{
		Class:   mat.ClassSingle,
		Dims:    dims,
		Complex: true,
		Real:    toColumnMajor(re, dims),
		Imag:    toColumnMajor(im, dims),
	}
}

func (e *Encoder) encodeString(s string) *mat.Array {
	units := utf16.Encode([]rune(s))
	if len(units) == 0 {
		return &mat.Array{Class: mat.ClassChar, Dims: []int{0, 0}}
	}
	return &mat.Array{Class: mat.ClassChar, Dims: []int{1, len(units)}, Chars: units}
}

// encodeStringRows builds a rectangular char matrix, space-padding each
// row to the widest, the way Octave's char() builds string matrices.
func (e *Encoder) encodeStringRows(rows []string, path []string) (*mat.Array, error) {
	encoded := make([][]uint16, len(rows))
	width := 0
	for i, r := range rows {
		encoded[i] = utf16.Encode([]rune(r))
		if len(encoded[i]) > width {
			width = len(encoded[i])
		}
	}
	chars := make([]uint16, len(rows)*width)
	for i := range chars {
		chars[i] = ' '
	}
	// Column-major layout: element (r, c) lives at c*rows + r.
	for r, row := range encoded {
		for c, u := range row {
			chars[c*len(rows)+r] = u
		}
	}
	return &mat.Array{Class: mat.ClassChar, Dims: []int{len(rows), width}, Chars: chars}, nil
}

func integerToFloat(data any) []float64 {
	switch d := data.(type) {
	case []int8:
		return convertFloats(d)
	case []int16:
		return convertFloats(d)
	case []int32:
		return convertFloats(d)
	case []int64:
		return convertFloats(d)
	case []uint8:
		return convertFloats(d)
	case []uint16:
		return convertFloats(d)
	case []uint32:
		return convertFloats(d)
	case []uint64:
		return convertFloats(d)
	}
	return nil
}

func convertFloats[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64](src []T) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}
