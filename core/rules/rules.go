// Package rules is the programmatic validation path: validators registered
// against the tuple of field names they read, invoked once per acquisition
// on a field-restricted view of its records. A validator signals violation
// by returning a ValidationError; any other non-nil error is structural and
// propagates.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/protoqa/scanqc/core/session"
)

// ValidationError is the typed violation a validator raises. The carried
// message, when present, overrides the rule's registered message in the
// report.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "validation failed"
	}
	return e.Message
}

func Violation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// View is the field-restricted record subset handed to a validator: the
// unique combinations of exactly the rule's fields within one acquisition.
type View struct {
	Fields []string
	Rows   []session.Record
}

// Values returns the column of one field across the view's rows.
func (v View) Values(field string) []any {
	values := make([]any, 0, len(v.Rows))
	for _, row := range v.Rows {
		values = append(values, row[field])
	}
	return values
}

// Validator checks one acquisition's restricted view and returns a
// ValidationError on violation.
type Validator func(view View) error

type rule struct {
	name    string
	message string
	fields  []string
	check   Validator
}

// Result reports one rule outcome for one acquisition.
type Result struct {
	Rule    string
	Fields  []string
	Value   any
	Message string
}

// Model is an explicit rule registry for one reference acquisition,
// populated at schema-load time.
type Model struct {
	rules []rule
}

func NewModel() *Model {
	return &Model{}
}

// Register adds a validator keyed by the (sorted) field names it reads.
func (m *Model) Register(fields []string, name, message string, check Validator) {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	m.rules = append(m.rules, rule{name: name, message: message, fields: sorted, check: check})
}

// Validate runs every registered rule against the acquisition's records.
// It returns overall success plus the failed and passed results; a non-nil
// error means a validator failed structurally, not a data violation.
func (m *Model) Validate(records []session.Record) (bool, []Result, []Result, error) {
	var failures, passes []Result
	for _, r := range m.rules {
		view := restrict(records, r.fields)
		err := r.check(view)
		if err == nil {
			passes = append(passes, Result{
				Rule:    r.name,
				Fields:  r.fields,
				Value:   viewValues(view),
				Message: r.message,
			})
			continue
		}
		var violation *ValidationError
		if !errors.As(err, &violation) {
			return false, nil, nil, fmt.Errorf("rule %q: %w", r.name, err)
		}
		message := violation.Message
		if message == "" {
			message = r.message
		}
		failures = append(failures, Result{
			Rule:    r.name,
			Fields:  r.fields,
			Value:   viewValues(view),
			Message: message,
		})
	}
	return len(failures) == 0, failures, passes, nil
}

// restrict reduces records to the unique combinations of exactly the given
// fields; values outside the key set are dropped so the combination stays
// deterministic.
func restrict(records []session.Record, fields []string) View {
	seen := map[string]struct{}{}
	view := View{Fields: fields}
	for _, record := range records {
		projected := session.Record{}
		for _, field := range fields {
			if value, ok := record[field]; ok {
				projected[field] = value
			}
		}
		key := session.CompositeKey(projected, fields)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		view.Rows = append(view.Rows, projected)
	}
	return view
}

// viewValues renders the restricted view compactly for report records.
func viewValues(view View) any {
	if len(view.Fields) == 1 {
		return view.Values(view.Fields[0])
	}
	rows := make([]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		parts := make([]string, 0, len(view.Fields))
		for _, field := range view.Fields {
			parts = append(parts, field+"="+session.FormatValue(row[field]))
		}
		rows = append(rows, strings.Join(parts, ", "))
	}
	return rows
}
