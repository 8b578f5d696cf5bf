package region

import (
	"slices"
)

// Entry pairs a jurisdiction's full name with its two-letter code.
type Entry struct {
	Name string `yaml:"name" json:"name"`
	Code string `yaml:"code" json:"code"`
}

// Resolver maps full jurisdiction names to canonical codes. Lookups are exact
// and case-sensitive. A nil Resolver resolves nothing.
type Resolver struct {
	byName map[string]string
	byCode map[string]string
	codes  []string
}

// NewResolver builds a resolver from the given entries. Later entries win on
// conflicting names.
func NewResolver(entries []Entry) *Resolver {
	r := &Resolver{
		byName: make(map[string]string, len(entries)),
		byCode: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" || e.Code == "" {
			continue
		}
		r.byName[e.Name] = e.Code
		if _, seen := r.byCode[e.Code]; !seen {
			r.codes = append(r.codes, e.Code)
		}
		r.byCode[e.Code] = e.Name
	}
	slices.Sort(r.codes)
	return r
}

// Resolve returns the code for a full name.
func (r *Resolver) Resolve(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	code, ok := r.byName[name]
	return code, ok
}

// Name returns the full name for a code, or "" if unknown.
func (r *Resolver) Name(code string) string {
	if r == nil {
		return ""
	}
	return r.byCode[code]
}

// Known reports whether code belongs to the table.
func (r *Resolver) Known(code string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byCode[code]
	return ok
}

// Codes returns every known code in ascending order.
func (r *Resolver) Codes() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.codes)
}

// Len returns the number of distinct codes.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.codes)
}
