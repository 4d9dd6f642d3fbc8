package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/protoqa/scanqc/core/session"
)

// ConstraintKind tags the static constraint union. Dispatch happens on the
// tag; the tree is interpreted once at load time.
type ConstraintKind int

const (
	KindExact ConstraintKind = iota
	KindTolerance
	KindContains
	KindPattern
	KindListExact
)

func (k ConstraintKind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindTolerance:
		return "tolerance"
	case KindContains:
		return "contains"
	case KindPattern:
		return "pattern"
	case KindListExact:
		return "list-exact"
	default:
		return "unknown"
	}
}

// Constraint is the interpreted form of a Field entry.
type Constraint struct {
	Kind      ConstraintKind
	Field     string
	Value     any
	Tolerance float64
	Contains  any
	pattern   *regexp.Regexp
}

// Interpret classifies a wire field entry into its constraint kind.
func Interpret(field Field) Constraint {
	constraint := Constraint{Field: field.Name, Value: field.Value, Contains: field.Contains}
	switch {
	case field.Contains != nil:
		constraint.Kind = KindContains
	case field.Tolerance != nil:
		constraint.Kind = KindTolerance
		constraint.Tolerance = *field.Tolerance
	default:
		if s, ok := field.Value.(string); ok && strings.ContainsAny(s, "*?") {
			constraint.Kind = KindPattern
			constraint.pattern = wildcardPattern(s)
			break
		}
		if _, ok := field.Value.([]any); ok {
			constraint.Kind = KindListExact
			break
		}
		constraint.Kind = KindExact
	}
	return constraint
}

// wildcardPattern translates a *?-wildcard into an anchored expression.
func wildcardPattern(wildcard string) *regexp.Regexp {
	var builder strings.Builder
	builder.WriteString("^")
	for _, r := range wildcard {
		switch r {
		case '*':
			builder.WriteString(".*")
		case '?':
			builder.WriteString(".")
		default:
			builder.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	builder.WriteString("$")
	return regexp.MustCompile(builder.String())
}

// Satisfies reports whether one actual value meets the constraint. String
// comparisons trim whitespace and ignore case; a single-element list
// unwraps against a scalar expectation; ints and floats compare as floats.
func (c Constraint) Satisfies(actual any) bool {
	switch c.Kind {
	case KindPattern:
		return c.pattern.MatchString(session.FormatValue(unwrapSingle(actual)))
	case KindContains:
		return containsElement(actual, c.Contains)
	case KindTolerance:
		return withinTolerance(c.Value, actual, c.Tolerance)
	case KindListExact:
		return listsEqual(c.Value, actual)
	default:
		return valuesEqual(c.Value, actual)
	}
}

// Validate evaluates the constraint against every distinct value, returning
// the violating values.
func (c Constraint) Validate(values []any) (bool, []any) {
	var invalid []any
	for _, value := range values {
		if !c.Satisfies(value) {
			invalid = append(invalid, value)
		}
	}
	return len(invalid) == 0, invalid
}

// Describe renders the human constraint description used in report records,
// e.g. "2300 ± 100", "contains 'NORM'", "pattern 'T1*'".
func (c Constraint) Describe() string {
	switch c.Kind {
	case KindTolerance:
		return fmt.Sprintf("%s ± %s", session.FormatValue(c.Value), formatFloat(c.Tolerance))
	case KindContains:
		return fmt.Sprintf("contains '%s'", session.FormatValue(c.Contains))
	case KindPattern:
		return fmt.Sprintf("pattern '%s'", session.FormatValue(c.Value))
	default:
		return session.FormatValue(c.Value)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// unwrapSingle unwraps a one-element list so it can compare against a
// scalar expectation.
func unwrapSingle(value any) any {
	if list, ok := value.([]any); ok && len(list) == 1 {
		return list[0]
	}
	return value
}

func normalizeString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func valuesEqual(expected, actual any) bool {
	expected = unwrapSingle(expected)
	actual = unwrapSingle(actual)

	if expectedList, ok := expected.([]any); ok {
		return listsEqual(expectedList, actual)
	}
	if _, ok := actual.([]any); ok {
		return false
	}

	expectedNum, expectedOK := session.AsFloat(expected)
	actualNum, actualOK := session.AsFloat(actual)
	if expectedOK && actualOK {
		return expectedNum == actualNum
	}
	if expectedOK != actualOK {
		return false
	}

	expectedStr, expectedIsStr := expected.(string)
	actualStr, actualIsStr := actual.(string)
	if expectedIsStr && actualIsStr {
		return normalizeString(expectedStr) == normalizeString(actualStr)
	}
	return expected == actual
}

func listsEqual(expected, actual any) bool {
	expectedList, ok := expected.([]any)
	if !ok {
		expectedList = []any{expected}
	}
	actualList, ok := actual.([]any)
	if !ok {
		actualList = []any{actual}
	}
	if len(expectedList) != len(actualList) {
		return false
	}
	for i := range expectedList {
		if !valuesEqual(expectedList[i], actualList[i]) {
			return false
		}
	}
	return true
}

func withinTolerance(expected, actual any, tolerance float64) bool {
	expectedList, expectedIsList := expected.([]any)
	actualList, actualIsList := actual.([]any)
	if expectedIsList || actualIsList {
		if !expectedIsList {
			expectedList = []any{expected}
		}
		if !actualIsList {
			actualList = []any{actual}
		}
		if len(expectedList) != len(actualList) {
			return false
		}
		for i := range expectedList {
			if !withinTolerance(expectedList[i], actualList[i], tolerance) {
				return false
			}
		}
		return true
	}

	expectedNum, expectedOK := session.AsFloat(unwrapSingle(expected))
	actualNum, actualOK := session.AsFloat(unwrapSingle(actual))
	if !expectedOK || !actualOK {
		return false
	}
	diff := expectedNum - actualNum
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// containsElement checks substring membership for strings and element
// membership for ordered collections, both normalized.
func containsElement(actual, required any) bool {
	switch v := actual.(type) {
	case string:
		requiredStr, ok := required.(string)
		if !ok {
			return false
		}
		return strings.Contains(normalizeString(v), normalizeString(requiredStr))
	case []any:
		for _, element := range v {
			if valuesEqual(required, element) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
