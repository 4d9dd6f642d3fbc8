package schema

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/protoqa/scanqc/core/session"
)

// FromSession collapses a grouped session table into a schema-shaped view:
// per acquisition, reference fields constant across the group become
// acquisition-level fields and varying fields split the group into
// enumerated series. The result doubles as the matcher's input summary and
// as the generated reference document for `scanqc build`.
func FromSession(table *session.Table, referenceFields []string) (*Schema, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, fmt.Errorf("session table contains no records")
	}
	if len(referenceFields) == 0 {
		return nil, fmt.Errorf("at least one reference field is required")
	}

	tree := New()
	for _, label := range table.Acquisitions() {
		rows := table.AcquisitionRows(label)
		acquisition := &Acquisition{}

		var varying []string
		for _, field := range referenceFields {
			values := session.DistinctValues(rows, field)
			switch len(values) {
			case 0:
				// Absent fields are skipped, not an error.
			case 1:
				acquisition.Fields = append(acquisition.Fields, Field{Name: field, Value: values[0]})
			default:
				varying = append(varying, field)
			}
		}

		if len(varying) > 0 {
			acquisition.Series = seriesFromVarying(rows, varying)
		}
		tree.Acquisitions[label] = acquisition
	}
	return tree, nil
}

// seriesFromVarying partitions the acquisition rows by the varying fields
// and emits one enumerated series per distinct combination, ordered by the
// combination's canonical key.
func seriesFromVarying(rows []session.Record, varying []string) []Series {
	order, groups := partitionByKey(rows, varying)
	sort.Strings(order)

	result := make([]Series, 0, len(order))
	for index, key := range order {
		groupRows := groups[key]
		entry := Series{Name: "Series " + strconv.Itoa(index+1)}
		for _, field := range varying {
			values := session.DistinctValues(groupRows, field)
			if len(values) == 1 {
				entry.Fields = append(entry.Fields, Field{Name: field, Value: values[0]})
			}
		}
		result = append(result, entry)
	}
	return result
}

func partitionByKey(rows []session.Record, fields []string) ([]string, map[string][]session.Record) {
	order := make([]string, 0)
	groups := map[string][]session.Record{}
	for _, row := range rows {
		key := session.CompositeKey(row, fields)
		if _, exists := groups[key]; !exists {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}
	return order, groups
}
