package session

import (
	"testing"
)

func testConfig() GrouperConfig {
	return GrouperConfig{
		SettingsFields: []string{"EchoTime", "FlipAngle", "SliceThickness"},
	}
}

func TestAssignSameSettingsSameLabel(t *testing.T) {
	table := NewTable([]Record{
		{"ProtocolName": "T1 MPRAGE", "EchoTime": 2.5, "FlipAngle": 9.0},
		{"ProtocolName": "T1 MPRAGE", "EchoTime": 2.5, "FlipAngle": 9.0},
		{"ProtocolName": "T1 MPRAGE", "EchoTime": 2.5, "FlipAngle": 9.0},
	})
	NewGrouper(testConfig(), nil).Assign(table)

	labels := table.Acquisitions()
	if len(labels) != 1 {
		t.Fatalf("expected one acquisition, got %v", labels)
	}
	if labels[0] != "acq-t1mprage" {
		t.Fatalf("unexpected label: %s", labels[0])
	}
}

func TestAssignDifferentSettingsSplitLabels(t *testing.T) {
	table := NewTable([]Record{
		{"ProtocolName": "QSM", "EchoTime": []any{7.0}, "FlipAngle": 15.0},
		{"ProtocolName": "QSM", "EchoTime": []any{7.0, 12.0, 17.0}, "FlipAngle": 15.0},
	})
	NewGrouper(testConfig(), nil).Assign(table)

	labels := table.Acquisitions()
	if len(labels) != 2 {
		t.Fatalf("expected two acquisitions, got %v", labels)
	}
	for _, label := range labels {
		if label != "acq-qsm-1" && label != "acq-qsm-2" {
			t.Fatalf("expected numbered qsm labels, got %v", labels)
		}
	}
	if labels[0] == labels[1] {
		t.Fatalf("expected distinct labels, got %v", labels)
	}
}

func TestAssignSingleValuedFieldDoesNotSplit(t *testing.T) {
	table := NewTable([]Record{
		{"ProtocolName": "BOLD", "EchoTime": 30.0, "FlipAngle": 75.0},
		{"ProtocolName": "BOLD", "EchoTime": 30.0, "FlipAngle": 75.0},
	})
	NewGrouper(testConfig(), nil).Assign(table)

	labels := table.Acquisitions()
	if len(labels) != 1 || labels[0] != "acq-bold" {
		t.Fatalf("constant settings must not split: %v", labels)
	}
}

func TestAssignMissingProtocolFallsBack(t *testing.T) {
	table := NewTable([]Record{
		{"SeriesDescription": "Localizer"},
		{},
	})
	NewGrouper(testConfig(), nil).Assign(table)

	if table.Rows[0][FieldProtocolName] != "Localizer" {
		t.Fatalf("expected series description fallback, got %v", table.Rows[0][FieldProtocolName])
	}
	if table.Rows[1][FieldProtocolName] != "Unknown" {
		t.Fatalf("expected Unknown fallback, got %v", table.Rows[1][FieldProtocolName])
	}
	for _, row := range table.Rows {
		if row[FieldAcquisition] == nil || row[FieldRunNumber] == nil {
			t.Fatal("grouper must always label every row")
		}
	}
}

func TestAssignRunNumbersBySeriesTime(t *testing.T) {
	table := NewTable([]Record{
		{"ProtocolName": "BOLD", "PatientID": "P1", "StudyDate": "20260110", "SeriesDescription": "bold", "SeriesTime": "101500", "EchoTime": 30.0},
		{"ProtocolName": "BOLD", "PatientID": "P1", "StudyDate": "20260110", "SeriesDescription": "bold", "SeriesTime": "101500", "EchoTime": 30.0},
		{"ProtocolName": "BOLD", "PatientID": "P1", "StudyDate": "20260110", "SeriesDescription": "bold", "SeriesTime": "113000", "EchoTime": 30.0},
	})
	NewGrouper(testConfig(), nil).Assign(table)

	if got := table.Rows[0][FieldRunNumber]; got != 1 {
		t.Fatalf("first time point must be run 1, got %v", got)
	}
	if got := table.Rows[1][FieldRunNumber]; got != 1 {
		t.Fatalf("same time point must share run 1, got %v", got)
	}
	if got := table.Rows[2][FieldRunNumber]; got != 2 {
		t.Fatalf("later time point must be run 2, got %v", got)
	}
}

func TestAssignRunNumbersRowMissingSeriesTimeKeepsRunOne(t *testing.T) {
	table := NewTable([]Record{
		{"ProtocolName": "BOLD", "SeriesDescription": "bold", "SeriesTime": "101500"},
		{"ProtocolName": "BOLD", "SeriesDescription": "bold", "SeriesTime": "113000"},
		{"ProtocolName": "BOLD", "SeriesDescription": "bold"},
	})
	NewGrouper(testConfig(), nil).Assign(table)

	if got := table.Rows[0][FieldRunNumber]; got != 1 {
		t.Fatalf("first time point must be run 1, got %v", got)
	}
	if got := table.Rows[1][FieldRunNumber]; got != 2 {
		t.Fatalf("later time point must be run 2, got %v", got)
	}
	if got := table.Rows[2][FieldRunNumber]; got != 1 {
		t.Fatalf("row without the order field must keep run 1, got %v", got)
	}
}

func TestAssignRunNumbersFallBackToSeriesUID(t *testing.T) {
	table := NewTable([]Record{
		{"ProtocolName": "DWI", "SeriesDescription": "dwi", "SeriesInstanceUID": "1.2.3.2"},
		{"ProtocolName": "DWI", "SeriesDescription": "dwi", "SeriesInstanceUID": "1.2.3.1"},
	})
	NewGrouper(testConfig(), nil).Assign(table)

	if got := table.Rows[0][FieldRunNumber]; got != 2 {
		t.Fatalf("expected run 2 for later UID, got %v", got)
	}
	if got := table.Rows[1][FieldRunNumber]; got != 1 {
		t.Fatalf("expected run 1 for earlier UID, got %v", got)
	}
}

func TestAssignRunsSeparatePatients(t *testing.T) {
	table := NewTable([]Record{
		{"ProtocolName": "BOLD", "PatientID": "P1", "SeriesDescription": "bold", "SeriesTime": "101500"},
		{"ProtocolName": "BOLD", "PatientID": "P2", "SeriesDescription": "bold", "SeriesTime": "113000"},
	})
	NewGrouper(testConfig(), nil).Assign(table)

	for i, row := range table.Rows {
		if row[FieldRunNumber] != 1 {
			t.Fatalf("row %d: distinct patients must not share a run sequence, got %v", i, row[FieldRunNumber])
		}
	}
}

func TestAssignEmptyTableIsNoop(t *testing.T) {
	table := NewTable(nil)
	NewGrouper(GrouperConfig{}, nil).Assign(table)
	if len(table.Rows) != 0 {
		t.Fatal("empty table must stay empty")
	}
}

func TestKeyTreatsListsByContent(t *testing.T) {
	a := Key([]any{7.0, 12.0})
	b := Key([]any{7.0, 12.0})
	c := Key([]any{7.0})
	if a != b {
		t.Fatalf("equal lists must share a key: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("different lists must differ: %s", a)
	}
}

func TestKeyNormalizesNumericTypes(t *testing.T) {
	if Key(2) != Key(2.0) {
		t.Fatalf("int and float keys must agree: %s vs %s", Key(2), Key(2.0))
	}
}

func TestCleanLabel(t *testing.T) {
	if got := CleanLabel("T1 MPRAGE (p2)"); got != "t1mpragep2" {
		t.Fatalf("unexpected cleaned label: %s", got)
	}
}
