package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleDocument = `{
  "acquisitions": {
    "T1_MPRAGE": {
      "fields": [
        {"field": "RepetitionTime", "value": 2300, "tolerance": 100},
        {"field": "ProtocolName", "value": "T1*"},
        {"field": "ImageType", "contains": "NORM"}
      ],
      "series": [
        {"name": "Series 1", "fields": [{"field": "EchoTime", "value": 2.98}]}
      ]
    }
  }
}`

func TestParseSampleDocument(t *testing.T) {
	tree, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	acquisition, ok := tree.Acquisitions["T1_MPRAGE"]
	if !ok {
		t.Fatal("expected T1_MPRAGE acquisition")
	}
	if len(acquisition.Fields) != 3 {
		t.Fatalf("expected 3 acquisition fields, got %d", len(acquisition.Fields))
	}
	if acquisition.Fields[0].Tolerance == nil || *acquisition.Fields[0].Tolerance != 100 {
		t.Fatalf("expected tolerance 100, got %v", acquisition.Fields[0].Tolerance)
	}
	if len(acquisition.Series) != 1 || acquisition.Series[0].Name != "Series 1" {
		t.Fatalf("unexpected series: %+v", acquisition.Series)
	}
}

func TestParseRejectsMissingAcquisitions(t *testing.T) {
	if _, err := Parse([]byte(`{"sessions": {}}`)); err == nil {
		t.Fatal("expected structural error for missing acquisitions key")
	}
}

func TestParseRejectsFieldEntryWithoutName(t *testing.T) {
	document := `{"acquisitions": {"A": {"fields": [{"value": 1}]}}}`
	if _, err := Parse([]byte(document)); err == nil {
		t.Fatal("expected structural error for field entry without name")
	}
}

func TestValidateRejectsDuplicateSeriesNames(t *testing.T) {
	tree := New()
	tree.Acquisitions["A"] = &Acquisition{Series: []Series{{Name: "Series 1"}, {Name: "Series 1"}}}
	if err := tree.Validate(); err == nil {
		t.Fatal("expected duplicate series name error")
	}
}

func TestRoundTripPreservesConstraintTree(t *testing.T) {
	tree, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	encoded, err := Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	reloaded, err := Parse(encoded)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(tree, reloaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseYAMLMatchesJSON(t *testing.T) {
	yamlDocument := []byte(`
acquisitions:
  T1_MPRAGE:
    fields:
      - field: RepetitionTime
        value: 2300
        tolerance: 100
      - field: ProtocolName
        value: "T1*"
      - field: ImageType
        contains: NORM
    series:
      - name: Series 1
        fields:
          - field: EchoTime
            value: 2.98
`)
	fromYAML, err := ParseYAML(yamlDocument)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}
	fromJSON, err := Parse([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Fatalf("yaml/json mismatch (-json +yaml):\n%s", diff)
	}
}

func TestLoadAndWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reference.json")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	tree, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out := filepath.Join(dir, "copy.json")
	if err := Write(out, tree); err != nil {
		t.Fatalf("write: %v", err)
	}
	reloaded, err := Load(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if diff := cmp.Diff(tree, reloaded); diff != "" {
		t.Fatalf("file round trip mismatch (-want +got):\n%s", diff)
	}
}
