package octave

import (
	"fmt"

	"github.com/blink1073/octmat/errors"
)

// NDArray is a rank-N homogeneous array with an explicit element dtype.
// Data is stored row-major; the encoder and decoder convert to and from
// the container's column-major order at the boundary.
type NDArray struct {
	dtype Dtype
	shape []int
	data  any
}

// NewNDArray builds an array from a typed slice. The dtype is inferred
// from the slice element type. With no shape the array is rank 1; the
// shape's element count must match the slice length.
func NewNDArray(data any, shape ...int) (*NDArray, error) {
	dtype, n, err := sliceInfo(data)
	if err != nil {
		return nil, err
	}
	if len(shape) == 0 {
		shape = []int{n}
	}
	if prod(shape) != n {
		return nil, errors.InvalidData(errors.PhaseEncode, nil,
			fmt.Sprintf("shape %v does not match %d elements", shape, n))
	}
	return &NDArray{dtype: dtype, shape: append([]int{}, shape...), data: data}, nil
}

// MustNDArray is NewNDArray for static data; it panics on mismatch.
func MustNDArray(data any, shape ...int) *NDArray {
	a, err := NewNDArray(data, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// Dtype returns the element type.
func (a *NDArray) Dtype() Dtype {
	return a.dtype
}

// Shape returns a copy of the array shape.
func (a *NDArray) Shape() []int {
	return append([]int{}, a.shape...)
}

// Size returns the total element count.
func (a *NDArray) Size() int {
	return prod(a.shape)
}

// Data returns the backing slice in row-major order.
func (a *NDArray) Data() any {
	return a.data
}

// Item returns the sole element of a size-1 array.
func (a *NDArray) Item() (any, error) {
	if a.Size() != 1 {
		return nil, errors.InvalidData(errors.PhaseDecode, nil,
			fmt.Sprintf("Item on array of size %d", a.Size()))
	}
	return elemAt(a.data, 0), nil
}

func (a *NDArray) String() string {
	return fmt.Sprintf("NDArray<%s>%v", a.dtype, a.shape)
}

func sliceInfo(data any) (Dtype, int, error) {
	switch d := data.(type) {
	case []bool:
		return Bool, len(d), nil
	case []int8:
		return Int8, len(d), nil
	case []int16:
		return Int16, len(d), nil
	case []int32:
		return Int32, len(d), nil
	case []int64:
		return Int64, len(d), nil
	case []uint8:
		return Uint8, len(d), nil
	case []uint16:
		return Uint16, len(d), nil
	case []uint32:
		return Uint32, len(d), nil
	case []uint64:
		return Uint64, len(d), nil
	case []float32:
		return Float32, len(d), nil
	case []float64:
		return Float64, len(d), nil
	case []complex64:
		return Complex64, len(d), nil
	case []complex128:
		return Complex128, len(d), nil
	default:
		return 0, 0, errors.New(errors.PhaseEncode, errors.KindUnsupportedValue).
			GoType(fmt.Sprintf("%T", data)).
			Detail("not a supported element slice").
			Build()
	}
}

func elemAt(data any, i int) any {
	switch d := data.(type) {
	case []bool:
		return d[i]
	case []int8:
		return d[i]
	case []int16:
		return d[i]
	case []int32:
		return d[i]
	case []int64:
		return d[i]
	case []uint8:
		return d[i]
	case []uint16:
		return d[i]
	case []uint32:
		return d[i]
	case []uint64:
		return d[i]
	case []float32:
		return d[i]
	case []float64:
		return d[i]
	case []complex64:
		return d[i]
	case []complex128:
		return d[i]
	}
	return nil
}

func prod(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// squeezeTrailing drops size-1 axes from the end of a shape but never
// degrades below rank 1.
func squeezeTrailing(dims []int) []int {
	out := append([]int{}, dims...)
	for len(out) > 1 && out[len(out)-1] == 1 {
		out = out[:len(out)-1]
	}
	return out
}

// squeezeAll drops every size-1 axis but never degrades below rank 1.
func squeezeAll(dims []int) []int {
	out := make([]int, 0, len(dims))
	for _, d := range dims {
		if d != 1 {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = []int{1}
	}
	return out
}

// Axis-order conversion. The container stores elements column-major
// (first axis fastest); Go slices are row-major (last axis fastest).
// The same index permutation drives both directions.

func toColumnMajor(data any, dims []int) any {
	return reorder(data, dims, true)
}

func toRowMajor(data any, dims []int) any {
	return reorder(data, dims, false)
}

func reorder(data any, dims []int, toCol bool) any {
	switch d := data.(type) {
	case []bool:
		return permute(d, dims, toCol)
	case []int8:
		return permute(d, dims, toCol)
	case []int16:
		return permute(d, dims, toCol)
	case []int32:
		return permute(d, dims, toCol)
	case []int64:
		return permute(d, dims, toCol)
	case []uint8:
		return permute(d, dims, toCol)
	case []uint16:
		return permute(d, dims, toCol)
	case []uint32:
		return permute(d, dims, toCol)
	case []uint64:
		return permute(d, dims, toCol)
	case []float32:
		return permute(d, dims, toCol)
	case []float64:
		return permute(d, dims, toCol)
	case []complex64:
		return permute(d, dims, toCol)
	case []complex128:
		return permute(d, dims, toCol)
	}
	return data
}

// permute maps element positions between row-major and column-major
// linearizations of the same shape. Rank 0 and rank 1 data is returned
// as is.
func permute[T any](src []T, dims []int, toCol bool) []T {
	if len(dims) < 2 || len(src) < 2 {
		return src
	}
	dst := make([]T, len(src))
	idx := make([]int, len(dims))
	colStride := make([]int, len(dims))
	stride := 1
	for k := 0; k < len(dims); k++ {
		colStride[k] = stride
		stride *= dims[k]
	}
	// Walk the row-major order, tracking the matching column-major index.
	col := 0
	for row := 0; row < len(src); row++ {
		if toCol {
			dst[col] = src[row]
		} else {
			dst[row] = src[col]
		}
		// Increment the multi-index, last axis fastest.
		for k := len(dims) - 1; k >= 0; k-- {
			idx[k]++
			col += colStride[k]
			if idx[k] < dims[k] {
				break
			}
			idx[k] = 0
			col -= colStride[k] * dims[k]
		}
	}
	return dst
}
