package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// LoadTable reads an extractor-produced session table: a JSON array of
// records, each mapping field names to scalars, strings, or ordered lists.
// Rows are ordered by InstanceNumber when present so downstream grouping
// sees a consistent order.
func LoadTable(path string) (*Table, error) {
	// #nosec G304 -- session table path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session table: %w", err)
	}
	return ParseTable(content)
}

func ParseTable(content []byte) (*Table, error) {
	var rows []Record
	if err := json.Unmarshal(content, &rows); err != nil {
		return nil, fmt.Errorf("parse session table: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("session table contains no records")
	}
	if tableHasField(rows, "InstanceNumber") {
		sort.SliceStable(rows, func(i, j int) bool {
			a, _ := AsFloat(rows[i]["InstanceNumber"])
			b, _ := AsFloat(rows[j]["InstanceNumber"])
			return a < b
		})
	}
	return NewTable(rows), nil
}

func tableHasField(rows []Record, name string) bool {
	for _, row := range rows {
		if value, ok := row[name]; ok && value != nil {
			return true
		}
	}
	return false
}
