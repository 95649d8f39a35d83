package octave

import (
	"reflect"
	"testing"
)

func TestStruct_OrderPreserved(t *testing.T) {
	s := NewStruct()
	s.Set("zebra", 1)
	s.Set("apple", 2)
	s.Set("mango", 3)
	if !reflect.DeepEqual(s.Fields(), []string{"zebra", "apple", "mango"}) {
		t.Errorf("fields = %v", s.Fields())
	}

	// Re-setting keeps the original position.
	s.Set("zebra", 9)
	if !reflect.DeepEqual(s.Fields(), []string{"zebra", "apple", "mango"}) {
		t.Errorf("fields after re-set = %v", s.Fields())
	}
	if v, _ := s.Get("zebra"); v != 9 {
		t.Errorf("zebra = %v", v)
	}
}

func TestStruct_GetAbsent(t *testing.T) {
	s := NewStruct()
	if _, ok := s.Get("missing"); ok {
		t.Error("Get on absent field returned ok")
	}
	if s.Len() != 0 {
		t.Error("Get created a field")
	}
	if _, err := s.MustGet("missing"); err == nil {
		t.Error("MustGet on absent field returned no error")
	}
}

func TestStruct_Ensure(t *testing.T) {
	s := NewStruct()
	s.Ensure("a", "b").Set("c", 1.5)

	a, _ := s.Get("a")
	b, _ := a.(*Struct).Get("b")
	c, _ := b.(*Struct).Get("c")
	if c != 1.5 {
		t.Errorf("a.b.c = %v", c)
	}

	// Ensure over an existing level reuses it.
	s.Ensure("a", "b").Set("d", 2)
	if b.(*Struct).Len() != 2 {
		t.Errorf("b has %d fields", b.(*Struct).Len())
	}
}

func TestStruct_EnsureReservedPrefix(t *testing.T) {
	s := NewStruct()
	got := s.Ensure("_hidden")
	if got != s {
		t.Error("Ensure created a reserved-prefix field")
	}
	if s.Len() != 0 {
		t.Errorf("struct has %d fields", s.Len())
	}
}

func TestStruct_EnsureStopsAtNonStruct(t *testing.T) {
	s := NewStruct()
	s.Set("leaf", 42)
	got := s.Ensure("leaf", "deeper")
	if got != s {
		t.Error("Ensure walked through a non-struct value")
	}
	if v, _ := s.Get("leaf"); v != 42 {
		t.Errorf("leaf overwritten: %v", v)
	}
}

func TestStruct_Delete(t *testing.T) {
	s := StructOf("a", 1, "b", 2, "c", 3)
	s.Delete("b")
	if !reflect.DeepEqual(s.Fields(), []string{"a", "c"}) {
		t.Errorf("fields = %v", s.Fields())
	}
	s.Delete("nope")
	if s.Len() != 2 {
		t.Errorf("len = %d", s.Len())
	}
}

func TestStruct_Copy(t *testing.T) {
	s := StructOf("x", 1, "y", 2)
	c := s.Copy()
	c.Set("z", 3)
	if s.Len() != 2 {
		t.Error("copy shares field table with original")
	}
	if !reflect.DeepEqual(c.Fields(), []string{"x", "y", "z"}) {
		t.Errorf("copy fields = %v", c.Fields())
	}
}

func TestCell_TrailingSqueeze(t *testing.T) {
	c, err := NewCell([]any{1, 2, 3}, 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Shape(), []int{3}) {
		t.Errorf("shape = %v, want [3]", c.Shape())
	}

	c2, err := NewCell([]any{1, 2, 3}, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c2.Shape(), []int{1, 3}) {
		t.Errorf("shape = %v, want [1 3]", c2.Shape())
	}
}

func TestCell_ShapeMismatch(t *testing.T) {
	if _, err := NewCell([]any{1, 2}, 3); err == nil {
		t.Error("expected shape mismatch error")
	}
}

func TestCellOf(t *testing.T) {
	c := CellOf("a", 1, 2.5)
	if c.Len() != 3 {
		t.Fatalf("len = %d", c.Len())
	}
	if c.At(0) != "a" || c.At(2) != 2.5 {
		t.Errorf("items = %v", c.Items())
	}
}

func TestStructArray(t *testing.T) {
	recs := []*Struct{
		StructOf("name", "ann", "age", 31.0),
		StructOf("name", "bob", "age", 27.0),
	}
	sa, err := NewStructArray([]string{"name", "age"}, recs, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if sa.Len() != 2 {
		t.Fatalf("len = %d", sa.Len())
	}
	if !reflect.DeepEqual(sa.Shape(), []int{1, 2}) {
		t.Errorf("shape = %v", sa.Shape())
	}
	if v, _ := sa.Index(1).Get("name"); v != "bob" {
		t.Errorf("record 1 name = %v", v)
	}

	names, err := sa.Field("name")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names.Items(), []any{"ann", "bob"}) {
		t.Errorf("Field(name) = %v", names.Items())
	}

	if _, err := sa.Field("salary"); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestNewStructArray_FieldMismatch(t *testing.T) {
	recs := []*Struct{
		StructOf("a", 1),
		StructOf("b", 2),
	}
	if _, err := NewStructArray([]string{"a"}, recs); err == nil {
		t.Error("expected error for record with wrong fields")
	}
}

func TestStructArray_String(t *testing.T) {
	sa, _ := NewStructArray([]string{"x"}, []*Struct{StructOf("x", 1), StructOf("x", 2)}, 2, 1)
	got := sa.String()
	want := "2 StructArray containing the fields:\n    x"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
