package octave

import (
	"fmt"
	"strings"

	"github.com/blink1073/octmat/errors"
)

// Cell is an ordered heterogeneous aggregate, the decode-side form of
// an Octave cell array. Items are stored row-major.
//
// On construction the last axis is squeezed when its extent is 1, which
// keeps indexing ergonomic for the common "column of results" case, and
// the result is never below rank 1.
type Cell struct {
	shape []int
	items []any
}

// NewCell builds a cell array. With no shape the cell is rank 1.
func NewCell(items []any, shape ...int) (*Cell, error) {
	if len(shape) == 0 {
		shape = []int{len(items)}
	}
	if prod(shape) != len(items) {
		return nil, errors.InvalidData(errors.PhaseDecode, nil,
			fmt.Sprintf("shape %v does not match %d items", shape, len(items)))
	}
	return &Cell{shape: squeezeTrailing(shape), items: items}, nil
}

// CellOf builds a rank-1 cell from its arguments.
func CellOf(items ...any) *Cell {
	c, _ := NewCell(items)
	return c
}

// Shape returns a copy of the cell shape.
func (c *Cell) Shape() []int {
	return append([]int{}, c.shape...)
}

// Len returns the total item count.
func (c *Cell) Len() int {
	return len(c.items)
}

// At returns the item at the given row-major linear index.
func (c *Cell) At(i int) any {
	return c.items[i]
}

// Items returns the backing items in row-major order.
func (c *Cell) Items() []any {
	return c.items
}

func (c *Cell) String() string {
	var b strings.Builder
	b.WriteString("Cell[")
	for i, it := range c.items {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v", it)
	}
	b.WriteByte(']')
	return b.String()
}
