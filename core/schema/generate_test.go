package schema

import (
	"testing"

	"github.com/protoqa/scanqc/core/session"
)

func groupedTable(t *testing.T, rows []session.Record) *session.Table {
	t.Helper()
	table := session.NewTable(rows)
	session.NewGrouper(session.GrouperConfig{
		SettingsFields: []string{"FlipAngle"},
	}, nil).Assign(table)
	return table
}

func TestFromSessionConstantFieldsStayAtAcquisitionLevel(t *testing.T) {
	table := groupedTable(t, []session.Record{
		{"ProtocolName": "T1", "RepetitionTime": 2300.0, "EchoTime": 2.98},
		{"ProtocolName": "T1", "RepetitionTime": 2300.0, "EchoTime": 2.98},
	})
	tree, err := FromSession(table, []string{"RepetitionTime", "EchoTime"})
	if err != nil {
		t.Fatalf("from session: %v", err)
	}
	acquisition := tree.Acquisitions["acq-t1"]
	if acquisition == nil {
		t.Fatalf("expected acq-t1, have %v", tree.SortedNames())
	}
	if len(acquisition.Fields) != 2 {
		t.Fatalf("expected both fields constant, got %+v", acquisition.Fields)
	}
	if len(acquisition.Series) != 0 {
		t.Fatalf("expected no series for constant fields, got %+v", acquisition.Series)
	}
}

func TestFromSessionVaryingFieldsBecomeSeries(t *testing.T) {
	table := groupedTable(t, []session.Record{
		{"ProtocolName": "QSM", "RepetitionTime": 28.0, "EchoTime": 7.0},
		{"ProtocolName": "QSM", "RepetitionTime": 28.0, "EchoTime": 12.0},
		{"ProtocolName": "QSM", "RepetitionTime": 28.0, "EchoTime": 17.0},
	})
	tree, err := FromSession(table, []string{"RepetitionTime", "EchoTime"})
	if err != nil {
		t.Fatalf("from session: %v", err)
	}
	acquisition := tree.Acquisitions["acq-qsm"]
	if acquisition == nil {
		t.Fatalf("expected acq-qsm, have %v", tree.SortedNames())
	}
	if len(acquisition.Fields) != 1 || acquisition.Fields[0].Name != "RepetitionTime" {
		t.Fatalf("expected constant RepetitionTime at acquisition level, got %+v", acquisition.Fields)
	}
	if len(acquisition.Series) != 3 {
		t.Fatalf("expected three echo series, got %d", len(acquisition.Series))
	}
	for i, series := range acquisition.Series {
		if len(series.Fields) != 1 || series.Fields[0].Name != "EchoTime" {
			t.Fatalf("series %d: expected one EchoTime field, got %+v", i, series.Fields)
		}
	}
}

func TestFromSessionSkipsAbsentFields(t *testing.T) {
	table := groupedTable(t, []session.Record{
		{"ProtocolName": "T1", "RepetitionTime": 2300.0},
	})
	tree, err := FromSession(table, []string{"RepetitionTime", "InversionTime"})
	if err != nil {
		t.Fatalf("from session: %v", err)
	}
	acquisition := tree.Acquisitions["acq-t1"]
	if len(acquisition.Fields) != 1 {
		t.Fatalf("absent field must be skipped, got %+v", acquisition.Fields)
	}
}

func TestFromSessionRequiresInput(t *testing.T) {
	if _, err := FromSession(session.NewTable(nil), []string{"EchoTime"}); err == nil {
		t.Fatal("expected error for empty table")
	}
	table := groupedTable(t, []session.Record{{"ProtocolName": "T1"}})
	if _, err := FromSession(table, nil); err == nil {
		t.Fatal("expected error for empty reference fields")
	}
}

func TestGeneratedSchemaRoundTripsThroughWireFormat(t *testing.T) {
	table := groupedTable(t, []session.Record{
		{"ProtocolName": "QSM", "RepetitionTime": 28.0, "EchoTime": 7.0},
		{"ProtocolName": "QSM", "RepetitionTime": 28.0, "EchoTime": 12.0},
	})
	tree, err := FromSession(table, []string{"RepetitionTime", "EchoTime"})
	if err != nil {
		t.Fatalf("from session: %v", err)
	}
	encoded, err := Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := Parse(encoded); err != nil {
		t.Fatalf("generated schema must satisfy the structural contract: %v", err)
	}
}
