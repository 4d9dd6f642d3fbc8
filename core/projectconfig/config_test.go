package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAllowMissing(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "missing.yaml")

	configuration, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load allow missing: %v", err)
	}
	if configuration.Check.Schema != "" {
		t.Fatalf("expected empty configuration, got schema %q", configuration.Check.Schema)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "missing.yaml")

	if _, err := Load(path, false); err == nil {
		t.Fatal("expected missing required config error")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "config.yaml")
	content := []byte(`
grouping:
  settings_fields:
    - " EchoTime "
    - " RepetitionTime "
    - ""
  run_group_fields:
    - " PatientID "
check:
  schema: " reference/t1.json "
  strict: true
  concurrency: -4
output:
  report_path: " out/report.json "
  history_path: " .scanqc/history.jsonl "
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	configuration, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load parse: %v", err)
	}
	if len(configuration.Grouping.SettingsFields) != 2 || configuration.Grouping.SettingsFields[0] != "EchoTime" {
		t.Fatalf("unexpected settings_fields %#v", configuration.Grouping.SettingsFields)
	}
	if len(configuration.Grouping.RunGroupFields) != 1 || configuration.Grouping.RunGroupFields[0] != "PatientID" {
		t.Fatalf("unexpected run_group_fields %#v", configuration.Grouping.RunGroupFields)
	}
	if configuration.Check.Schema != "reference/t1.json" {
		t.Fatalf("unexpected check.schema %q", configuration.Check.Schema)
	}
	if !configuration.Check.Strict {
		t.Fatal("expected check.strict=true")
	}
	if configuration.Check.Concurrency != 0 {
		t.Fatalf("negative concurrency must clamp to 0, got %d", configuration.Check.Concurrency)
	}
	if configuration.Output.ReportPath != "out/report.json" {
		t.Fatalf("unexpected output.report_path %q", configuration.Output.ReportPath)
	}
	if configuration.Output.HistoryPath != ".scanqc/history.jsonl" {
		t.Fatalf("unexpected output.history_path %q", configuration.Output.HistoryPath)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	workDir := t.TempDir()
	path := filepath.Join(workDir, "config.yaml")
	if err := os.WriteFile(path, []byte("grouping: [\n"), 0o600); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	if _, err := Load(path, false); err == nil {
		t.Fatal("expected parse error for invalid yaml")
	}
}
