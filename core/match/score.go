package match

import (
	"math"
	"regexp"
	"strings"

	"github.com/protoqa/scanqc/core/schema"
	"github.com/protoqa/scanqc/core/session"
)

// MaxFieldScore caps the influence any single field can have on a pair's
// aggregate dissimilarity.
const MaxFieldScore = 10

// patternPenalty is the fixed cost of a failed wildcard or contains check.
const patternPenalty = 5

// FieldScore computes the dissimilarity between an expected and an actual
// value in [0, MaxFieldScore]. Dispatch order mirrors the constraint
// semantics: wildcard pattern, contains, ordered collections (numeric with
// tolerance, then general edit distance), numbers, then stringified edit
// distance.
func FieldScore(expected, actual any, tolerance *float64, contains any) float64 {
	if s, ok := expected.(string); ok && strings.ContainsAny(s, "*?") {
		if wildcardMatch(s, session.FormatValue(actual)) {
			return 0
		}
		return patternPenalty
	}

	if hasContains(contains) {
		if containsValue(actual, contains) {
			return 0
		}
		return patternPenalty
	}

	expectedList, expectedIsList := expected.([]any)
	actualList, actualIsList := actual.([]any)
	if expectedIsList || actualIsList {
		if !expectedIsList {
			expectedList = []any{expected}
		}
		if !actualIsList {
			actualList = []any{actual}
		}
		if tolerance != nil && len(expectedList) == len(actualList) && allNumeric(expectedList) && allNumeric(actualList) {
			return cap10(numericListScore(expectedList, actualList, *tolerance))
		}
		return cap10(paddedEditScore(expectedList, actualList))
	}

	expectedNum, expectedOK := session.AsFloat(expected)
	actualNum, actualOK := session.AsFloat(actual)
	if expectedOK && actualOK {
		diff := math.Abs(expectedNum - actualNum)
		if tolerance != nil && diff <= *tolerance {
			return 0
		}
		return cap10(diff)
	}

	return cap10(float64(levenshtein(session.FormatValue(expected), session.FormatValue(actual))))
}

// PairScore sums FieldScore over every field defined on the reference side.
// Actual values come from the input summary's fields by name; fields absent
// from the reference contribute nothing. The result is rounded to two
// decimals.
func PairScore(reference, input []schema.Field) float64 {
	actualByName := make(map[string]any, len(input))
	for _, field := range input {
		actualByName[field.Name] = field.Value
	}

	total := 0.0
	for _, field := range reference {
		total += FieldScore(field.Value, actualByName[field.Name], field.Tolerance, field.Contains)
	}
	return math.Round(total*100) / 100
}

func cap10(score float64) float64 {
	if score > MaxFieldScore {
		return MaxFieldScore
	}
	return score
}

func allNumeric(values []any) bool {
	for _, value := range values {
		if _, ok := session.AsFloat(value); !ok {
			return false
		}
	}
	return true
}

// numericListScore sums the per-element absolute differences that exceed
// the tolerance.
func numericListScore(expected, actual []any, tolerance float64) float64 {
	total := 0.0
	for i := range expected {
		e, _ := session.AsFloat(expected[i])
		a, _ := session.AsFloat(actual[i])
		diff := math.Abs(e - a)
		if diff > tolerance {
			total += diff
		}
	}
	return total
}

// paddedEditScore pads the shorter collection with an empty placeholder and
// sums pairwise edit distance over stringified elements.
func paddedEditScore(expected, actual []any) float64 {
	length := len(expected)
	if len(actual) > length {
		length = len(actual)
	}
	total := 0
	for i := 0; i < length; i++ {
		var e, a string
		if i < len(expected) {
			e = session.FormatValue(expected[i])
		}
		if i < len(actual) {
			a = session.FormatValue(actual[i])
		}
		total += levenshtein(e, a)
	}
	return float64(total)
}

func wildcardMatch(wildcard, actual string) bool {
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
	expression, err := regexp.Compile(builder.String())
	if err != nil {
		return false
	}
	return expression.MatchString(actual)
}

// hasContains treats an empty contains requirement as no requirement.
func hasContains(contains any) bool {
	switch v := contains.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

func containsValue(actual, required any) bool {
	switch v := actual.(type) {
	case string:
		requiredStr, ok := required.(string)
		if !ok {
			return false
		}
		return strings.Contains(v, requiredStr)
	case []any:
		requiredKey := session.Key(required)
		for _, element := range v {
			if session.Key(element) == requiredKey {
				return true
			}
		}
		return false
	default:
		return false
	}
}
