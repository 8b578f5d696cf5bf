package region

import (
	"reflect"
	"testing"
)

func testResolver() *Resolver {
	return NewResolver([]Entry{
		{Name: "Texas", Code: "TX"},
		{Name: "California", Code: "CA"},
		{Name: "District of Columbia", Code: "DC"},
	})
}

func TestResolver_Resolve(t *testing.T) {
	r := testResolver()

	tests := []struct {
		name     string
		wantCode string
		wantOK   bool
	}{
		{"Texas", "TX", true},
		{"District of Columbia", "DC", true},
		{"texas", "", false},  // Case-sensitive
		{"Texas ", "", false}, // No trimming
		{"Atlantis", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		code, ok := r.Resolve(tt.name)
		if code != tt.wantCode || ok != tt.wantOK {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.name, code, ok, tt.wantCode, tt.wantOK)
		}
	}
}

func TestResolver_NilResolver(t *testing.T) {
	var r *Resolver
	if code, ok := r.Resolve("Texas"); ok || code != "" {
		t.Errorf("Resolve on nil resolver = %q, %v", code, ok)
	}
	if r.Name("TX") != "" || r.Known("TX") || r.Len() != 0 || r.Codes() != nil {
		t.Error("nil resolver should be empty")
	}
}

func TestResolver_CodesAndNames(t *testing.T) {
	r := testResolver()

	if got, want := r.Codes(), []string{"CA", "DC", "TX"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Codes() = %v, want %v", got, want)
	}
	if r.Name("DC") != "District of Columbia" {
		t.Errorf("Name(DC) = %q", r.Name("DC"))
	}
	if !r.Known("CA") || r.Known("ZZ") {
		t.Error("Known() mismatch")
	}

	// Codes returns a copy
	codes := r.Codes()
	codes[0] = "XX"
	if r.Codes()[0] != "CA" {
		t.Error("Codes() leaked internal slice")
	}
}

func TestNewResolver_SkipsIncompleteEntries(t *testing.T) {
	r := NewResolver([]Entry{{Name: "", Code: "XX"}, {Name: "Nowhere", Code: ""}, {Name: "Ohio", Code: "OH"}})
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}
