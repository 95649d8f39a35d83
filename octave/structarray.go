package octave

import (
	"fmt"
	"strings"

	"github.com/blink1073/octmat/errors"
)

// StructArray is an ordered aggregate of records sharing one field-name
// set, the decode-side form of an Octave struct array. Records are
// stored row-major. A field name indexes across records and yields a
// Cell of per-record values; a positional index yields one record.
//
// Like Cell, construction squeezes a trailing size-1 axis and keeps the
// result at least rank 1.
type StructArray struct {
	fields  []string
	shape   []int
	records []*Struct
}

// NewStructArray builds a struct array. Every record must carry exactly
// the given fields.
func NewStructArray(fields []string, records []*Struct, shape ...int) (*StructArray, error) {
	if len(shape) == 0 {
		shape = []int{len(records)}
	}
	if prod(shape) != len(records) {
		return nil, errors.InvalidData(errors.PhaseDecode, nil,
			fmt.Sprintf("shape %v does not match %d records", shape, len(records)))
	}
	for i, rec := range records {
		if rec.Len() != len(fields) {
			return nil, errors.InvalidData(errors.PhaseDecode, nil,
				fmt.Sprintf("record %d has %d fields, want %d", i, rec.Len(), len(fields)))
		}
		for _, f := range fields {
			if _, ok := rec.Get(f); !ok {
				return nil, errors.NotFound(errors.PhaseDecode, "record field", f)
			}
		}
	}
	return &StructArray{
		fields:  append([]string{}, fields...),
		shape:   squeezeTrailing(shape),
		records: records,
	}, nil
}

// Fields returns the shared field names in order.
func (sa *StructArray) Fields() []string {
	return append([]string{}, sa.fields...)
}

// Shape returns a copy of the array shape.
func (sa *StructArray) Shape() []int {
	return append([]int{}, sa.shape...)
}

// Len returns the record count.
func (sa *StructArray) Len() int {
	return len(sa.records)
}

// Index returns the record at the given row-major linear index.
func (sa *StructArray) Index(i int) *Struct {
	return sa.records[i]
}

// Field collects the named field across all records into a Cell with the
// array's shape.
func (sa *StructArray) Field(name string) (*Cell, error) {
	found := false
	for _, f := range sa.fields {
		if f == name {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.NotFound(errors.PhaseDecode, "struct array field", name)
	}
	items := make([]any, len(sa.records))
	for i, rec := range sa.records {
		items[i], _ = rec.Get(name)
	}
	return NewCell(items, sa.shape...)
}

func (sa *StructArray) String() string {
	dims := make([]string, len(sa.shape))
	for i, d := range sa.shape {
		dims[i] = fmt.Sprint(d)
	}
	var b strings.Builder
	b.WriteString(strings.Join(dims, "x"))
	b.WriteString(" StructArray containing the fields:")
	for _, f := range sa.fields {
		b.WriteString("\n    ")
		b.WriteString(f)
	}
	return b.String()
}
