package document

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestRecord_KeyOrder(t *testing.T) {
	r := NewRecord("code", "name")
	r.Set("zeta", 1)
	r.Set("code", "GBR")
	r.Set("alpha", true)

	got := mustJSON(t, r)
	want := `{"code":"GBR","name":null,"zeta":1,"alpha":true}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestRecord_NestedPaths(t *testing.T) {
	r := NewRecord("code")
	r.Set("superpopulation", NewRecord("code", "name"))

	if err := r.SetPath("superpopulation.code", "EUR"); err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	v, ok := r.Lookup("superpopulation.code")
	if !ok || v != "EUR" {
		t.Errorf("Lookup = %v, %v", v, ok)
	}
	if err := r.SetPath("missing.code", 1); !errors.Is(err, ErrPath) {
		t.Errorf("expected ErrPath, got %v", err)
	}
	if err := r.SetPath("code.inner", 1); !errors.Is(err, ErrPath) {
		t.Errorf("expected ErrPath for scalar parent, got %v", err)
	}
	if _, err := r.RecordAt("code"); !errors.Is(err, ErrPath) {
		t.Errorf("expected ErrPath for RecordAt scalar, got %v", err)
	}
	if rec, err := r.RecordAt(""); err != nil || rec != r {
		t.Errorf("RecordAt(\"\") should return the record itself")
	}
}

func TestList_SetDiscipline(t *testing.T) {
	l := NewList()
	if !l.Add("s1", "s1") {
		t.Error("first add should append")
	}
	if l.Add("s1", "s1") {
		t.Error("second add with same key should not append")
	}
	l.Add("s2", "s2")

	if got := mustJSON(t, l); got != `["s1","s2"]` {
		t.Errorf("got %s", got)
	}
	if v, ok := l.Find("s2"); !ok || v != "s2" {
		t.Errorf("Find = %v, %v", v, ok)
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	if got := mustJSON(t, NewList()); got != "[]" {
		t.Errorf("empty list = %s, want []", got)
	}
}

func TestCompositeKey(t *testing.T) {
	if CompositeKey("a", nil) == CompositeKey("a", "") {
		t.Error("null and empty string must differ")
	}
	if CompositeKey("a", "b") == CompositeKey("ab") {
		t.Error("separator must keep parts distinct")
	}
	if CompositeKey(int64(1)) == CompositeKey("1") {
		t.Error("type must be part of the key")
	}
	if CompositeKey("x", "y") != CompositeKey("x", "y") {
		t.Error("key must be deterministic")
	}
}

func TestCategories_InsertIfAbsent(t *testing.T) {
	host := NewRecord(TypesKey, "title")
	c, err := NewCategories(host)
	if err != nil {
		t.Fatalf("NewCategories: %v", err)
	}

	for _, p := range [][2]string{
		{"sequence", "Low coverage WGS"},
		{"alignment", "Low coverage WGS"},
		{"sequence", "Low coverage WGS"},
		{"sequence", "Exome"},
	} {
		if err := c.Add(p[0], p[1]); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	got := mustJSON(t, host)
	want := `{"dataTypes":["sequence","alignment"],"title":null,` +
		`"sequence":["Low coverage WGS","Exome"],"alignment":["Low coverage WGS"]}`
	if got != want {
		t.Errorf("got %s\nwant %s", got, want)
	}
}

func TestCategories_NilValueRegistersCategory(t *testing.T) {
	host := NewRecord()
	c, err := NewCategories(host)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Add("variants", nil); err != nil {
		t.Fatal(err)
	}
	if got := c.Types(); len(got) != 1 || got[0] != "variants" {
		t.Errorf("Types() = %v", got)
	}
	if vals := c.Values("variants"); len(vals) != 0 {
		t.Errorf("Values() = %v, want empty", vals)
	}
}

func TestCategories_Reserved(t *testing.T) {
	host := NewRecord(TypesKey, "title")
	c, err := NewCategories(host)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Add("title", "x"); !errors.Is(err, ErrReservedCategory) {
		t.Errorf("expected ErrReservedCategory, got %v", err)
	}
	if err := c.Add(TypesKey, "x"); !errors.Is(err, ErrReservedCategory) {
		t.Errorf("expected ErrReservedCategory for dataTypes, got %v", err)
	}
}

func TestCategories_TypesKeyWrongType(t *testing.T) {
	host := NewRecord()
	host.Set(TypesKey, "oops")
	if _, err := NewCategories(host); !errors.Is(err, ErrReservedCategory) {
		t.Errorf("expected ErrReservedCategory, got %v", err)
	}
}

func TestDocument_MarshalJSON(t *testing.T) {
	d := Document{ID: "GBR", Body: NewRecord("code")}
	if got := mustJSON(t, d); got != `{"code":null}` {
		t.Errorf("got %s", got)
	}
	if got := mustJSON(t, Document{ID: "x"}); got != `{}` {
		t.Errorf("nil body got %s", got)
	}
}
