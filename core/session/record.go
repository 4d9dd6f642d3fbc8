package session

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Reserved computed fields written by the grouper.
const (
	FieldAcquisition = "Acquisition"
	FieldRunNumber   = "RunNumber"
)

// Well-known identifying fields supplied by the record extractor.
const (
	FieldProtocolName      = "ProtocolName"
	FieldSeriesDescription = "SeriesDescription"
	FieldSeriesTime        = "SeriesTime"
	FieldSeriesInstanceUID = "SeriesInstanceUID"
)

// Record maps a field name to a scalar number, a string, or an ordered list
// of scalars. Values are produced once by the external extractor; the core
// only adds the computed Acquisition and RunNumber fields.
type Record map[string]any

// Table is a fully materialized session: one record per scanned instance.
type Table struct {
	Rows []Record
}

func NewTable(rows []Record) *Table {
	return &Table{Rows: rows}
}

// HasField reports whether any row carries a non-nil value for the field.
func (t *Table) HasField(name string) bool {
	for _, row := range t.Rows {
		if value, ok := row[name]; ok && value != nil {
			return true
		}
	}
	return false
}

// Acquisitions returns the distinct acquisition labels in sorted order.
func (t *Table) Acquisitions() []string {
	seen := map[string]struct{}{}
	for _, row := range t.Rows {
		label, ok := row[FieldAcquisition].(string)
		if !ok || label == "" {
			continue
		}
		seen[label] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// AcquisitionRows returns the rows labeled with the acquisition, in table order.
func (t *Table) AcquisitionRows(label string) []Record {
	var rows []Record
	for _, row := range t.Rows {
		if row[FieldAcquisition] == label {
			rows = append(rows, row)
		}
	}
	return rows
}

// AsFloat normalizes the numeric types a record value can carry to float64.
func AsFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Key renders a value as a canonical grouping key. Lists become bracketed
// element keys so ordered collections compare by content, mirroring the
// tuple conversion the extractor contract requires for hashable grouping.
func Key(value any) string {
	switch v := value.(type) {
	case nil:
		return "na"
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, element := range v {
			parts[i] = Key(element)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		if f, ok := AsFloat(value); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strconv.Quote(FormatValue(value))
	}
}

// CompositeKey renders the canonical key of the named fields of a record.
// Absent fields render as the nil key rather than failing.
func CompositeKey(row Record, fields []string) string {
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + "=" + Key(row[field])
	}
	return strings.Join(parts, "|")
}

// FormatValue renders a value for labels and report messages.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, len(v))
		for i, element := range v {
			parts[i] = FormatValue(element)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		if f, ok := AsFloat(value); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return fmt.Sprintf("%v", v)
	}
}

// SortValues orders values numerically when both sides are numeric and by
// canonical key otherwise. Used wherever a deterministic enumeration of
// distinct values is required.
func SortValues(values []any) {
	sort.SliceStable(values, func(i, j int) bool {
		a, aOK := AsFloat(values[i])
		b, bOK := AsFloat(values[j])
		if aOK && bOK {
			return a < b
		}
		return Key(values[i]) < Key(values[j])
	})
}

// CleanLabel lowercases a label fragment and strips separator and symbol
// characters so acquisition labels stay filesystem and report friendly.
func CleanLabel(s string) string {
	const forbidden = "`~!@#$%^&*()_+=[]{}|;':,.<>?/\\\" "
	var builder strings.Builder
	for _, r := range strings.ToLower(s) {
		if strings.ContainsRune(forbidden, r) {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
