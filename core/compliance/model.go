package compliance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/protoqa/scanqc/core/rules"
	"github.com/protoqa/scanqc/core/session"
)

// CheckWithModels runs the programmatic rule path: each reference
// acquisition name maps to a rule model, evaluated against the rows of the
// mapped input acquisition. A reference name without a model, or mapped to
// an input acquisition with no rows, is a failing record.
func (e *Engine) CheckWithModels(table *session.Table, models map[string]*rules.Model, acquisitionMap map[string]string) ([]Record, error) {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)

	var records []Record
	for _, referenceName := range names {
		inputName, mapped := acquisitionMap[referenceName]
		if !mapped || inputName == "" {
			record := Record{
				ReferenceAcquisition: referenceName,
				Message:              fmt.Sprintf("Reference acquisition '%s' not mapped.", referenceName),
				Expected:             "(mapped acquisition required)",
				Passed:               false,
			}
			records = append(records, record)
			if e.Strict {
				return records, strictFailure(referenceName, record.Message)
			}
			continue
		}

		rows := table.AcquisitionRows(inputName)
		if len(rows) == 0 {
			record := Record{
				ReferenceAcquisition: referenceName,
				InputAcquisition:     inputName,
				Message:              fmt.Sprintf("Input acquisition '%s' has no rows.", inputName),
				Passed:               false,
			}
			records = append(records, record)
			if e.Strict {
				return records, strictFailure(referenceName, record.Message)
			}
			continue
		}

		model := models[referenceName]
		_, failures, passes, err := model.Validate(rows)
		if err != nil {
			return records, err
		}
		for _, failure := range failures {
			record := ruleRecord(referenceName, inputName, failure, false)
			records = append(records, record)
			if e.Strict {
				return records, strictFailure(referenceName, record.Message)
			}
		}
		for _, pass := range passes {
			records = append(records, ruleRecord(referenceName, inputName, pass, true))
		}
	}
	return records, nil
}

func ruleRecord(referenceName, inputName string, result rules.Result, passed bool) Record {
	return Record{
		ReferenceAcquisition: referenceName,
		InputAcquisition:     inputName,
		Field:                strings.Join(result.Fields, ", "),
		Rule:                 result.Rule,
		Value:                result.Value,
		Message:              result.Message,
		Passed:               passed,
	}
}
