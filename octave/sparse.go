package octave

import (
	"fmt"
	"sort"

	"github.com/blink1073/octmat/errors"
)

// Sparse is a 2-D sparse matrix in compressed sparse column layout, the
// storage order the container uses. Values are float64, optionally with
// a parallel imaginary part: sparse data is always sent as double.
type Sparse struct {
	RowCount int
	ColCount int
	RowIndex []int // row of each stored entry
	ColPtr   []int // length ColCount+1
	Data     []float64
	Imag     []float64 // nil for real matrices
}

// NewSparse builds a sparse matrix from coordinate triplets. Duplicate
// coordinates are summed, matching Octave's sparse() builder.
func NewSparse(rows, cols int, ri, ci []int, vals []float64) (*Sparse, error) {
	if len(ri) != len(ci) || len(ri) != len(vals) {
		return nil, errors.InvalidData(errors.PhaseEncode, nil, "triplet slices disagree in length")
	}
	acc := make(map[[2]int]float64, len(vals))
	for k, v := range vals {
		if ri[k] < 0 || ri[k] >= rows || ci[k] < 0 || ci[k] >= cols {
			return nil, errors.InvalidData(errors.PhaseEncode, nil,
				fmt.Sprintf("entry (%d,%d) outside %dx%d", ri[k], ci[k], rows, cols))
		}
		acc[[2]int{ri[k], ci[k]}] += v
	}

	s := &Sparse{
		RowCount: rows,
		ColCount: cols,
		ColPtr:   make([]int, cols+1),
	}
	perCol := make([][]int, cols)
	for coord := range acc {
		perCol[coord[1]] = append(perCol[coord[1]], coord[0])
	}
	for c := 0; c < cols; c++ {
		sort.Ints(perCol[c])
		s.ColPtr[c+1] = s.ColPtr[c] + len(perCol[c])
		for _, r := range perCol[c] {
			s.RowIndex = append(s.RowIndex, r)
			s.Data = append(s.Data, acc[[2]int{r, c}])
		}
	}
	return s, nil
}

// Nnz returns the stored entry count.
func (s *Sparse) Nnz() int {
	return len(s.Data)
}

// At returns the value at (row, col), zero when not stored.
func (s *Sparse) At(row, col int) float64 {
	if col < 0 || col >= s.ColCount {
		return 0
	}
	for k := s.ColPtr[col]; k < s.ColPtr[col+1]; k++ {
		if s.RowIndex[k] == row {
			return s.Data[k]
		}
	}
	return 0
}

// Dense expands the matrix into a row-major float64 NDArray.
func (s *Sparse) Dense() *NDArray {
	out := make([]float64, s.RowCount*s.ColCount)
	for c := 0; c < s.ColCount; c++ {
		for k := s.ColPtr[c]; k < s.ColPtr[c+1]; k++ {
			out[s.RowIndex[k]*s.ColCount+c] = s.Data[k]
		}
	}
	return MustNDArray(out, s.RowCount, s.ColCount)
}

func (s *Sparse) String() string {
	return fmt.Sprintf("Sparse[%dx%d, %d stored]", s.RowCount, s.ColCount, s.Nnz())
}
