package octave

import (
	"fmt"
	"strings"

	"github.com/blink1073/octmat/errors"
)

// reservedPrefix marks keys that deep-construction helpers refuse to
// create implicitly.
const reservedPrefix = "_"

// Struct is an Octave-style struct: a string-keyed mapping that keeps
// its field order. Field order matters because the container format
// stores struct fields positionally.
//
// Deep construction of nested structs goes through Ensure, which builds
// intermediate levels on demand:
//
//	s := octave.NewStruct()
//	s.Ensure("a", "b").Set("c", 1.5) // s.a.b.c == 1.5
type Struct struct {
	fields map[string]any
	order  []string
}

// NewStruct creates an empty struct.
func NewStruct() *Struct {
	return &Struct{fields: make(map[string]any)}
}

// StructOf creates a struct from alternating key/value pairs, keeping
// the given order.
func StructOf(pairs ...any) *Struct {
	if len(pairs)%2 != 0 {
		panic("StructOf: odd pair count")
	}
	s := NewStruct()
	for i := 0; i < len(pairs); i += 2 {
		s.Set(pairs[i].(string), pairs[i+1])
	}
	return s
}

// Set stores a field value, appending to the field order on first use.
func (s *Struct) Set(key string, value any) *Struct {
	if _, ok := s.fields[key]; !ok {
		s.order = append(s.order, key)
	}
	s.fields[key] = value
	return s
}

// Get returns the field value and whether the field exists. A plain read
// of an absent field never creates it.
func (s *Struct) Get(key string) (any, bool) {
	v, ok := s.fields[key]
	return v, ok
}

// MustGet returns the field value or an error when absent.
func (s *Struct) MustGet(key string) (any, error) {
	v, ok := s.fields[key]
	if !ok {
		return nil, errors.NotFound(errors.PhaseDecode, "struct field", key)
	}
	return v, nil
}

// Ensure walks the given key path, creating empty nested Structs for
// absent levels, and returns the innermost struct. Keys with the
// reserved "_" prefix are never created implicitly, and a non-struct
// value already present along the path stops the walk.
func (s *Struct) Ensure(path ...string) *Struct {
	cur := s
	for _, key := range path {
		if strings.HasPrefix(key, reservedPrefix) {
			return cur
		}
		next, ok := cur.fields[key]
		if !ok {
			child := NewStruct()
			cur.Set(key, child)
			cur = child
			continue
		}
		child, ok := next.(*Struct)
		if !ok {
			return cur
		}
		cur = child
	}
	return cur
}

// Delete removes a field, preserving the order of the rest.
func (s *Struct) Delete(key string) {
	if _, ok := s.fields[key]; !ok {
		return
	}
	delete(s.fields, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Fields returns the field names in insertion order.
func (s *Struct) Fields() []string {
	return append([]string{}, s.order...)
}

// Len returns the field count.
func (s *Struct) Len() int {
	return len(s.order)
}

// Copy returns a shallow copy with the same field order.
func (s *Struct) Copy() *Struct {
	out := NewStruct()
	for _, k := range s.order {
		out.Set(k, s.fields[k])
	}
	return out
}

func (s *Struct) String() string {
	var b strings.Builder
	b.WriteString("Struct{")
	for i, k := range s.order {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, s.fields[k])
	}
	b.WriteByte('}')
	return b.String()
}
