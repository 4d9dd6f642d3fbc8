// Package schema models the reference constraint tree: named acquisitions
// holding acquisition-level field constraints and named series holding
// series-level constraints, plus the JSON wire format for loading and
// saving reference documents.
package schema

import (
	"fmt"
	"sort"
)

// Field is one wire-format field entry. A field with no tolerance or
// contains and a string value holding * or ? is a wildcard pattern;
// otherwise it is an exact (or list-exact) constraint.
type Field struct {
	Name      string   `json:"field"`
	Value     any      `json:"value,omitempty"`
	Tolerance *float64 `json:"tolerance,omitempty"`
	Contains  any      `json:"contains,omitempty"`
}

// Series is a named sub-grouping of constraints within an acquisition,
// intended to match a subset of an input acquisition's records.
type Series struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Acquisition holds acquisition-level fields and zero or more named series.
type Acquisition struct {
	Fields []Field  `json:"fields,omitempty"`
	Series []Series `json:"series,omitempty"`
}

// Schema is the constraint tree keyed by reference acquisition name.
type Schema struct {
	Acquisitions map[string]*Acquisition `json:"acquisitions"`
}

func New() *Schema {
	return &Schema{Acquisitions: map[string]*Acquisition{}}
}

// SortedNames returns acquisition names in sorted order. All deterministic
// iteration over the tree goes through this.
func (s *Schema) SortedNames() []string {
	names := make([]string, 0, len(s.Acquisitions))
	for name := range s.Acquisitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks tree-level invariants: series names unique within each
// acquisition and every field entry carrying a name.
func (s *Schema) Validate() error {
	if s.Acquisitions == nil {
		return fmt.Errorf("schema has no acquisitions")
	}
	for _, name := range s.SortedNames() {
		acquisition := s.Acquisitions[name]
		if acquisition == nil {
			return fmt.Errorf("acquisition %q is empty", name)
		}
		for _, field := range acquisition.Fields {
			if field.Name == "" {
				return fmt.Errorf("acquisition %q has a field entry without a field name", name)
			}
		}
		seen := map[string]struct{}{}
		for _, series := range acquisition.Series {
			if series.Name == "" {
				return fmt.Errorf("acquisition %q has an unnamed series", name)
			}
			if _, exists := seen[series.Name]; exists {
				return fmt.Errorf("acquisition %q has duplicate series %q", name, series.Name)
			}
			seen[series.Name] = struct{}{}
			for _, field := range series.Fields {
				if field.Name == "" {
					return fmt.Errorf("series %q of acquisition %q has a field entry without a field name", series.Name, name)
				}
			}
		}
	}
	return nil
}

// FieldNames returns the union of acquisition-level and series-level field
// names across the tree, sorted.
func (s *Schema) FieldNames() []string {
	seen := map[string]struct{}{}
	for _, acquisition := range s.Acquisitions {
		for _, field := range acquisition.Fields {
			seen[field.Name] = struct{}{}
		}
		for _, series := range acquisition.Series {
			for _, field := range series.Fields {
				seen[field.Name] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
