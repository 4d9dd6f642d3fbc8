package compliance

import (
	"testing"

	"github.com/protoqa/scanqc/core/rules"
	"github.com/protoqa/scanqc/core/session"
)

func TestCheckWithModelsPassAndFail(t *testing.T) {
	model := rules.NewModel()
	model.Register([]string{"EchoTime"}, "echo-count", "expects three echoes", func(view rules.View) error {
		if len(view.Rows) != 3 {
			return rules.Violation("expected 3 echoes, found %d", len(view.Rows))
		}
		return nil
	})

	input := table(
		session.Record{session.FieldAcquisition: "acq-qsm", "EchoTime": 7.0},
		session.Record{session.FieldAcquisition: "acq-qsm", "EchoTime": 12.0},
		session.Record{session.FieldAcquisition: "acq-qsm", "EchoTime": 17.0},
	)

	engine := &Engine{}
	records, err := engine.CheckWithModels(input, map[string]*rules.Model{"QSM": model}, map[string]string{"QSM": "acq-qsm"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(records) != 1 || !records[0].Passed {
		t.Fatalf("expected one passing record, got %v", records)
	}
	if records[0].Rule != "echo-count" {
		t.Fatalf("rule name must carry through: %+v", records[0])
	}

	short := table(
		session.Record{session.FieldAcquisition: "acq-qsm", "EchoTime": 7.0},
	)
	records, err = engine.CheckWithModels(short, map[string]*rules.Model{"QSM": model}, map[string]string{"QSM": "acq-qsm"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(records) != 1 || records[0].Passed {
		t.Fatalf("expected one failing record, got %v", records)
	}
	if records[0].Message != "expected 3 echoes, found 1" {
		t.Fatalf("violation message must win: %s", records[0].Message)
	}
}

func TestCheckWithModelsUnmappedAndEmpty(t *testing.T) {
	model := rules.NewModel()
	model.Register([]string{"EchoTime"}, "any", "always passes", func(rules.View) error { return nil })

	engine := &Engine{}
	records, err := engine.CheckWithModels(table(), map[string]*rules.Model{"QSM": model}, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(records) != 1 || records[0].Passed {
		t.Fatalf("unmapped model must fail, got %v", records)
	}
	if records[0].Message != "Reference acquisition 'QSM' not mapped." {
		t.Fatalf("unexpected message: %s", records[0].Message)
	}

	records, err = engine.CheckWithModels(table(), map[string]*rules.Model{"QSM": model}, map[string]string{"QSM": "acq-missing"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(records) != 1 || records[0].Passed {
		t.Fatalf("empty input acquisition must fail, got %v", records)
	}
	if records[0].Message != "Input acquisition 'acq-missing' has no rows." {
		t.Fatalf("unexpected message: %s", records[0].Message)
	}
}

func TestCheckWithModelsStructuralErrorPropagates(t *testing.T) {
	model := rules.NewModel()
	model.Register([]string{"EchoTime"}, "broken", "never runs", func(rules.View) error {
		return &brokenReader{}
	})

	input := table(session.Record{session.FieldAcquisition: "acq-qsm", "EchoTime": 7.0})
	engine := &Engine{}
	if _, err := engine.CheckWithModels(input, map[string]*rules.Model{"QSM": model}, map[string]string{"QSM": "acq-qsm"}); err == nil {
		t.Fatal("structural validator errors must propagate")
	}
}

type brokenReader struct{}

func (*brokenReader) Error() string { return "cannot read calibration table" }
