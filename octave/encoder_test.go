package octave

import (
	"errors"
	"math"
	"reflect"
	"testing"

	octerrors "github.com/blink1073/octmat/errors"
	"github.com/blink1073/octmat/mat"
)

func TestEncode_PlainIntAlwaysDouble(t *testing.T) {
	// Plain int widens to double even with widening disabled.
	enc := NewEncoder()
	enc.ConvertToFloat = false
	arr, err := enc.Encode(7)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassDouble {
		t.Errorf("class = %s, want double", arr.Class)
	}
	if !reflect.DeepEqual(arr.Real, []float64{7}) {
		t.Errorf("data = %v", arr.Real)
	}
}

func TestEncode_SizedIntegers(t *testing.T) {
	enc := NewEncoder()
	enc.ConvertToFloat = false
	tests := []struct {
		name  string
		value any
		class mat.Class
	}{
		{"int8", int8(1), mat.ClassInt8},
		{"int16", int16(1), mat.ClassInt16},
		{"int32", int32(1), mat.ClassInt32},
		{"int64", int64(1), mat.ClassInt64},
		{"uint8", uint8(1), mat.ClassUint8},
		{"uint16", uint16(1), mat.ClassUint16},
		{"uint32", uint32(1), mat.ClassUint32},
		{"uint64", uint64(1), mat.ClassUint64},
		{"float32", float32(1), mat.ClassSingle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, err := enc.Encode(tt.value)
			if err != nil {
				t.Fatal(err)
			}
			if arr.Class != tt.class {
				t.Errorf("class = %s, want %s", arr.Class, tt.class)
			}
			if !reflect.DeepEqual(arr.Dims, []int{1, 1}) {
				t.Errorf("dims = %v", arr.Dims)
			}
		})
	}
}

func TestEncode_IntegerWidening(t *testing.T) {
	arr, err := NewEncoder().Encode(int32(5))
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassDouble {
		t.Errorf("class = %s, want double with widening on", arr.Class)
	}
}

func TestEncode_Bool(t *testing.T) {
	arr, err := NewEncoder().Encode(true)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassDouble || !reflect.DeepEqual(arr.Real, []float64{1}) {
		t.Errorf("widened bool = %s %v", arr.Class, arr.Real)
	}

	enc := NewEncoder()
	enc.ConvertToFloat = false
	arr, err = enc.Encode(true)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassInt8 || !reflect.DeepEqual(arr.Real, []int8{1}) {
		t.Errorf("narrow bool = %s %v", arr.Class, arr.Real)
	}
}

func TestEncode_NilIsNaN(t *testing.T) {
	arr, err := NewEncoder().Encode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassDouble {
		t.Fatalf("class = %s", arr.Class)
	}
	if !math.IsNaN(arr.Real.([]float64)[0]) {
		t.Errorf("nil encoded as %v, want NaN", arr.Real)
	}
}

func TestEncode_String(t *testing.T) {
	arr, err := NewEncoder().Encode("hi")
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassChar {
		t.Fatalf("class = %s", arr.Class)
	}
	if !reflect.DeepEqual(arr.Dims, []int{1, 2}) {
		t.Errorf("dims = %v", arr.Dims)
	}
	if !reflect.DeepEqual(arr.Chars, []uint16{'h', 'i'}) {
		t.Errorf("chars = %v", arr.Chars)
	}
}

func TestEncode_EmptyString(t *testing.T) {
	arr, err := NewEncoder().Encode("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(arr.Dims, []int{0, 0}) {
		t.Errorf("dims = %v, want [0 0]", arr.Dims)
	}
}

func TestEncode_StringRows(t *testing.T) {
	arr, err := NewEncoder().Encode([]string{"ab", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(arr.Dims, []int{2, 2}) {
		t.Fatalf("dims = %v", arr.Dims)
	}
	// Column-major with the short row space-padded.
	want := []uint16{'a', 'c', 'b', ' '}
	if !reflect.DeepEqual(arr.Chars, want) {
		t.Errorf("chars = %v, want %v", arr.Chars, want)
	}
}

func TestEncode_OnedOrientation(t *testing.T) {
	enc := NewEncoder()
	arr, _ := enc.Encode([]float64{1, 2, 3})
	if !reflect.DeepEqual(arr.Dims, []int{1, 3}) {
		t.Errorf("row orientation dims = %v", arr.Dims)
	}

	enc.OnedAs = "column"
	arr, _ = enc.Encode([]float64{1, 2, 3})
	if !reflect.DeepEqual(arr.Dims, []int{3, 1}) {
		t.Errorf("column orientation dims = %v", arr.Dims)
	}
}

func TestEncode_Matrix(t *testing.T) {
	enc := NewEncoder()
	arr, err := enc.Encode(MustNDArray([]float64{1, 2, 3, 4, 5, 6}, 2, 3))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(arr.Dims, []int{2, 3}) {
		t.Fatalf("dims = %v", arr.Dims)
	}
	if !reflect.DeepEqual(arr.Real, []float64{1, 4, 2, 5, 3, 6}) {
		t.Errorf("column-major data = %v", arr.Real)
	}
}

func TestEncode_BoolArray(t *testing.T) {
	enc := NewEncoder()
	enc.ConvertToFloat = false
	arr, err := enc.Encode([]bool{true, false, true})
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassInt8 {
		t.Errorf("class = %s", arr.Class)
	}
	if !reflect.DeepEqual(arr.Real, []int8{1, 0, 1}) {
		t.Errorf("data = %v", arr.Real)
	}
}

func TestEncode_ComplexEpsilon(t *testing.T) {
	// All-real complex data gets a tiny imaginary part so it stays
	// complex on the other side.
	arr, err := NewEncoder().Encode([]complex128{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !arr.Complex {
		t.Fatal("complex flag not set")
	}
	im := arr.Imag.([]float64)
	if im[0] != 1e-9 || im[1] != 1e-9 {
		t.Errorf("imag = %v, want epsilon", im)
	}

	// A single nonzero imaginary part disables the injection.
	arr, _ = NewEncoder().Encode([]complex128{1, 2 + 3i})
	im = arr.Imag.([]float64)
	if im[0] != 0 || im[1] != 3 {
		t.Errorf("imag = %v, want [0 3]", im)
	}
}

func TestEncode_NumericList(t *testing.T) {
	arr, err := NewEncoder().Encode([]any{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassDouble {
		t.Fatalf("class = %s", arr.Class)
	}
	if !reflect.DeepEqual(arr.Real, []float64{1, 2, 3}) {
		t.Errorf("data = %v", arr.Real)
	}
}

func TestEncode_NestedNumericList(t *testing.T) {
	arr, err := NewEncoder().Encode([]any{[]any{1, 2}, []any{3, 4}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(arr.Dims, []int{2, 2}) {
		t.Fatalf("dims = %v", arr.Dims)
	}
	if !reflect.DeepEqual(arr.Real, []float64{1, 3, 2, 4}) {
		t.Errorf("column-major data = %v", arr.Real)
	}
}

func TestEncode_MixedListIsCell(t *testing.T) {
	arr, err := NewEncoder().Encode([]any{"spam", []any{1, 2, 3, 4}})
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassCell {
		t.Fatalf("class = %s, want cell", arr.Class)
	}
	if len(arr.Cells) != 2 {
		t.Fatalf("cell count = %d", len(arr.Cells))
	}
	if arr.Cells[0].Class != mat.ClassChar {
		t.Errorf("first element class = %s", arr.Cells[0].Class)
	}
	if arr.Cells[1].Class != mat.ClassDouble {
		t.Errorf("second element class = %s", arr.Cells[1].Class)
	}
}

func TestEncode_SingleTupleDoubleWraps(t *testing.T) {
	arr, err := NewEncoder().Encode(Tuple{5})
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassCell || len(arr.Cells) != 1 {
		t.Fatalf("outer = %s with %d cells", arr.Class, len(arr.Cells))
	}
	inner := arr.Cells[0]
	if inner.Class != mat.ClassCell || len(inner.Cells) != 1 {
		t.Fatalf("inner = %s with %d cells", inner.Class, len(inner.Cells))
	}
	if inner.Cells[0].Class != mat.ClassDouble {
		t.Errorf("payload class = %s", inner.Cells[0].Class)
	}
}

func TestEncode_TupleNeverUnifies(t *testing.T) {
	arr, err := NewEncoder().Encode(Tuple{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassCell {
		t.Errorf("class = %s, want cell even for homogeneous items", arr.Class)
	}
}

func TestEncode_MapSortsKeys(t *testing.T) {
	arr, err := NewEncoder().Encode(map[string]any{"zebra": 1, "apple": 2})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(arr.Fields, []string{"apple", "zebra"}) {
		t.Errorf("fields = %v", arr.Fields)
	}
}

func TestEncode_Struct(t *testing.T) {
	s := StructOf("x", 1, "y", []float64{1, 2, 3})
	arr, err := NewEncoder().Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassStruct {
		t.Fatalf("class = %s", arr.Class)
	}
	if !reflect.DeepEqual(arr.Dims, []int{1, 1}) {
		t.Errorf("dims = %v", arr.Dims)
	}
	if !reflect.DeepEqual(arr.Fields, []string{"x", "y"}) {
		t.Errorf("fields = %v", arr.Fields)
	}
	if len(arr.Records) != 1 {
		t.Fatalf("records = %d", len(arr.Records))
	}
}

func TestEncode_Object(t *testing.T) {
	obj := &Object{ClassName: "polynomial", Value: StructOf("poly", []float64{1, -1})}
	arr, err := NewEncoder().Encode(obj)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassObject {
		t.Errorf("class = %s", arr.Class)
	}
	if arr.ClassName != "polynomial" {
		t.Errorf("class name = %q", arr.ClassName)
	}
}

func TestEncode_Sparse(t *testing.T) {
	s, _ := NewSparse(2, 2, []int{0, 1}, []int{0, 1}, []float64{1, 2})
	arr, err := NewEncoder().Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassSparse {
		t.Fatalf("class = %s", arr.Class)
	}
	if !reflect.DeepEqual(arr.RowIndex, []int32{0, 1}) {
		t.Errorf("row index = %v", arr.RowIndex)
	}
	if !reflect.DeepEqual(arr.ColPtr, []int32{0, 1, 2}) {
		t.Errorf("col ptr = %v", arr.ColPtr)
	}
}

func TestEncode_FuncPtrRejected(t *testing.T) {
	_, err := NewEncoder().Encode(FuncPtr{Name: "sin"})
	if err == nil {
		t.Fatal("expected error")
	}
	var oe *octerrors.Error
	if !errors.As(err, &oe) {
		t.Fatalf("error type = %T", err)
	}
	if oe.Kind != octerrors.KindUnsupportedValue {
		t.Errorf("kind = %s", oe.Kind)
	}
}

func TestEncode_VarPtrNeedsResolver(t *testing.T) {
	if _, err := NewEncoder().Encode(VarPtr{Name: "x", Address: "x"}); err == nil {
		t.Error("expected error without a resolver")
	}
}

type staticResolver struct{ value any }

func (r staticResolver) ResolveVar(string) (any, error) { return r.value, nil }

func TestEncode_VarPtrResolved(t *testing.T) {
	enc := NewEncoder()
	enc.Resolver = staticResolver{value: 4.5}
	arr, err := enc.Encode(VarPtr{Name: "x", Address: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(arr.Real, []float64{4.5}) {
		t.Errorf("resolved value = %v", arr.Real)
	}
}

type pointValue struct{ x, y float64 }

func (p pointValue) MarshalOctave() (any, error) {
	return StructOf("x", p.x, "y", p.y), nil
}

func TestEncode_Marshaler(t *testing.T) {
	arr, err := NewEncoder().Encode(pointValue{x: 1, y: 2})
	if err != nil {
		t.Fatal(err)
	}
	if arr.Class != mat.ClassStruct {
		t.Errorf("class = %s", arr.Class)
	}
	if !reflect.DeepEqual(arr.Fields, []string{"x", "y"}) {
		t.Errorf("fields = %v", arr.Fields)
	}
}

func TestEncode_Table(t *testing.T) {
	tbl := &Table{
		Names:   []string{"a", "b"},
		Columns: [][]float64{{1, 2}, {10, 20}},
	}
	arr, err := NewEncoder().Encode(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(arr.Dims, []int{2, 2}) {
		t.Fatalf("dims = %v", arr.Dims)
	}
	if !reflect.DeepEqual(arr.Real, []float64{1, 2, 10, 20}) {
		t.Errorf("column-major body = %v", arr.Real)
	}
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := NewEncoder().Encode(make(chan int))
	if err == nil {
		t.Fatal("expected error")
	}
	var oe *octerrors.Error
	if !errors.As(err, &oe) || oe.Kind != octerrors.KindUnsupportedValue {
		t.Errorf("error = %v", err)
	}
}
