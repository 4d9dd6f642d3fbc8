// Package compliance evaluates a mapped session against the reference
// constraint tree. Data-level mismatches are recovered locally into
// Records; the engine only returns an error in the opt-in strict mode.
package compliance

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/protoqa/scanqc/core/errors"
	"github.com/protoqa/scanqc/core/schema"
	"github.com/protoqa/scanqc/core/session"
)

// Engine checks mapped acquisition pairs in two phases: acquisition-level
// constraints against the distinct values of the whole input acquisition,
// then series-level constraints with the filter-then-validate pass.
type Engine struct {
	// Strict surfaces the first violation as a hard failure instead of a
	// recorded result. Opt-in; the default records everything.
	Strict bool
	Logger *zap.Logger
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Check validates the input table against the reference tree using the
// acquisition map (reference name -> input acquisition label). Unmapped
// reference acquisitions are reported first.
func (e *Engine) Check(table *session.Table, reference *schema.Schema, acquisitionMap map[string]string) ([]Record, error) {
	var records []Record

	for _, referenceName := range reference.SortedNames() {
		if _, mapped := acquisitionMap[referenceName]; mapped {
			continue
		}
		records = append(records, Record{
			ReferenceAcquisition: referenceName,
			Expected:             "(mapped acquisition required)",
			Message:              fmt.Sprintf("Reference acquisition '%s' not mapped.", referenceName),
			Passed:               false,
		})
	}

	for _, referenceName := range reference.SortedNames() {
		inputName, mapped := acquisitionMap[referenceName]
		if !mapped {
			continue
		}
		acquisition := reference.Acquisitions[referenceName]
		rows := table.AcquisitionRows(inputName)
		e.logger().Debug("checking mapped acquisition",
			zap.String("reference", referenceName),
			zap.String("input", inputName),
			zap.Int("rows", len(rows)))

		acqRecords, err := e.checkAcquisitionFields(referenceName, inputName, acquisition.Fields, rows)
		records = append(records, acqRecords...)
		if err != nil {
			return records, err
		}

		for _, series := range acquisition.Series {
			seriesRecords, err := e.checkSeries(referenceName, inputName, series, rows)
			records = append(records, seriesRecords...)
			if err != nil {
				return records, err
			}
		}
	}

	return records, nil
}

// checkAcquisitionFields evaluates each acquisition-level constraint
// against the distinct values of the field across the whole input
// acquisition.
func (e *Engine) checkAcquisitionFields(referenceName, inputName string, fields []schema.Field, rows []session.Record) ([]Record, error) {
	var records []Record
	for _, field := range fields {
		constraint := schema.Interpret(field)

		if !session.RowsHaveField(rows, field.Name) {
			record := Record{
				ReferenceAcquisition: referenceName,
				InputAcquisition:     inputName,
				Field:                field.Name,
				Expected:             constraint.Describe(),
				Message:              "Field not found in input session.",
				Passed:               false,
			}
			records = append(records, record)
			if e.Strict {
				return records, strictFailure(referenceName, record.Message)
			}
			continue
		}

		values := session.DistinctValues(rows, field.Name)
		passed, invalid := constraint.Validate(values)
		record := Record{
			ReferenceAcquisition: referenceName,
			InputAcquisition:     inputName,
			Field:                field.Name,
			Expected:             constraint.Describe(),
			Value:                singleOrSlice(values),
			Passed:               passed,
		}
		if passed {
			record.Message = "Passed"
		} else {
			record.Message = fmt.Sprintf("Value(s) %s do not satisfy %s.", formatValues(invalid), constraint.Describe())
		}
		records = append(records, record)
		if e.Strict && !passed {
			return records, strictFailure(referenceName, record.Message)
		}
	}
	return records, nil
}

// checkSeries runs the two-pass series check: first filter the acquisition
// rows to those satisfying every series constraint (a row-selection filter,
// not a value check), then re-validate each field against the distinct
// values of the surviving subset and emit one aggregated record.
func (e *Engine) checkSeries(referenceName, inputName string, series schema.Series, rows []session.Record) ([]Record, error) {
	// Field presence is judged against the whole acquisition: a column that
	// exists but is nil in the filtered subset is a filtering miss, not a
	// missing field.
	for _, field := range series.Fields {
		if session.RowsHaveField(rows, field.Name) {
			continue
		}
		record := Record{
			ReferenceAcquisition: referenceName,
			InputAcquisition:     inputName,
			Series:               series.Name,
			Field:                field.Name,
			Expected:             schema.Interpret(field).Describe(),
			Message:              fmt.Sprintf("Field '%s' not found in input for series '%s'.", field.Name, series.Name),
			Passed:               false,
		}
		if e.Strict {
			return []Record{record}, strictFailure(referenceName, record.Message)
		}
		return []Record{record}, nil
	}

	surviving := rows
	for _, field := range series.Fields {
		constraint := schema.Interpret(field)
		surviving = filterRows(surviving, func(row session.Record) bool {
			value, ok := row[field.Name]
			return ok && value != nil && constraint.Satisfies(value)
		})
		if len(surviving) == 0 {
			break
		}
	}

	if len(surviving) == 0 {
		record := Record{
			ReferenceAcquisition: referenceName,
			InputAcquisition:     inputName,
			Series:               series.Name,
			Field:                fieldNames(series.Fields),
			Expected:             describeAll(series.Fields),
			Message:              fmt.Sprintf("Series '%s' not found with the specified constraints.", series.Name),
			Passed:               false,
		}
		if e.Strict {
			return []Record{record}, strictFailure(referenceName, record.Message)
		}
		return []Record{record}, nil
	}

	expected := map[string]string{}
	observed := map[string]any{}
	var failureMessages []string
	for _, field := range series.Fields {
		constraint := schema.Interpret(field)
		values := session.DistinctValues(surviving, field.Name)
		expected[field.Name] = constraint.Describe()
		observed[field.Name] = singleOrSlice(values)
		if passed, invalid := constraint.Validate(values); !passed {
			failureMessages = append(failureMessages,
				fmt.Sprintf("Field '%s': value(s) %s do not satisfy %s", field.Name, formatValues(invalid), constraint.Describe()))
		}
	}

	record := Record{
		ReferenceAcquisition: referenceName,
		InputAcquisition:     inputName,
		Series:               series.Name,
		Field:                fieldNames(series.Fields),
		Expected:             expected,
		Value:                observed,
		Passed:               len(failureMessages) == 0,
	}
	if record.Passed {
		record.Message = "Passed"
	} else {
		record.Message = strings.Join(failureMessages, "; ")
	}
	if e.Strict && !record.Passed {
		return []Record{record}, strictFailure(referenceName, record.Message)
	}
	return []Record{record}, nil
}

func strictFailure(referenceName, message string) error {
	return errors.Wrap(
		fmt.Errorf("strict mode: %s (reference acquisition %q)", message, referenceName),
		errors.CategoryRuleFailed, "compliance_violation",
		"re-run without --strict to collect the full report", false)
}

func filterRows(rows []session.Record, keep func(session.Record) bool) []session.Record {
	var filtered []session.Record
	for _, row := range rows {
		if keep(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func fieldNames(fields []schema.Field) string {
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name
	}
	return strings.Join(names, ", ")
}

func describeAll(fields []schema.Field) map[string]string {
	described := make(map[string]string, len(fields))
	for _, field := range fields {
		described[field.Name] = schema.Interpret(field).Describe()
	}
	return described
}

func formatValues(values []any) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = session.FormatValue(value)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// singleOrSlice keeps single-valued observations scalar in the report.
func singleOrSlice(values []any) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}
