package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRepoRootContainsGoMod(t *testing.T) {
	root := RepoRoot(t)
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		t.Fatalf("expected go.mod at repo root: %v", err)
	}
}

func TestBuildScanqcBinary(t *testing.T) {
	root := RepoRoot(t)
	binPath := BuildScanqcBinary(t, root)
	info, err := os.Stat(binPath)
	if err != nil {
		t.Fatalf("expected built binary to exist: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected non-empty binary at %s", binPath)
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "file.json")
	WriteFile(t, path, []byte(`{"ok":true}`))
	content := MustReadFile(t, path)
	if string(content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", string(content))
	}
}

func TestFormatJSONIndentsValidInput(t *testing.T) {
	formatted := FormatJSON([]byte(`{"b":2,"a":1}`))
	if !strings.Contains(formatted, "  \"a\": 1") {
		t.Fatalf("expected indented output, got: %s", formatted)
	}
}

func TestFormatJSONPassesThroughInvalidInput(t *testing.T) {
	raw := "not json"
	if FormatJSON([]byte(raw)) != raw {
		t.Fatal("invalid JSON must pass through unchanged")
	}
}
