// Package report assembles and persists the compliance report artifact: an
// identified, timestamped envelope around the ordered record list, tied to
// the reference document by a canonical digest.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/protoqa/scanqc/core/compliance"
	"github.com/protoqa/scanqc/core/errors"
	"github.com/protoqa/scanqc/core/fsx"
	"github.com/protoqa/scanqc/core/jcs"
)

// Summary counts the report's records by outcome.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Report is the persisted artifact of one compliance run. SchemaDigest is
// the RFC 8785 sha256 of the reference document the run was checked
// against, so a report can always be tied back to the exact reference.
type Report struct {
	ReportID     string              `json:"report_id"`
	GeneratedAt  string              `json:"generated_at"`
	SchemaDigest string              `json:"schema_digest"`
	Summary      Summary             `json:"summary"`
	Records      []compliance.Record `json:"records"`
}

// Build wraps the records in a report envelope. schemaJSON is the raw
// reference document; its canonical digest lands in the envelope.
func Build(records []compliance.Record, schemaJSON []byte) (*Report, error) {
	digest, err := jcs.DigestJCS(schemaJSON)
	if err != nil {
		return nil, errors.Wrap(fmt.Errorf("digest reference document: %w", err),
			errors.CategorySchemaInvalid, "schema_digest_failed",
			"confirm the reference document is valid JSON", false)
	}

	summary := Summary{Total: len(records)}
	for _, record := range records {
		if record.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	if records == nil {
		records = []compliance.Record{}
	}

	return &Report{
		ReportID:     uuid.NewString(),
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		SchemaDigest: digest,
		Summary:      summary,
		Records:      records,
	}, nil
}

// Marshal renders the report as indented JSON with a trailing newline.
func (r *Report) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// Write persists the report atomically.
func (r *Report) Write(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := fsx.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.Wrap(fmt.Errorf("write report %s: %w", path, err),
			errors.CategoryIOFailure, "report_write_failed",
			"check the output directory exists and is writable", true)
	}
	return nil
}

// AppendHistory appends a single-line summary of the report to a JSONL
// history file, creating it if absent. Concurrent runs sharing one history
// file serialize through the file lock.
func (r *Report) AppendHistory(path string) error {
	line, err := json.Marshal(struct {
		ReportID     string  `json:"report_id"`
		GeneratedAt  string  `json:"generated_at"`
		SchemaDigest string  `json:"schema_digest"`
		Summary      Summary `json:"summary"`
	}{r.ReportID, r.GeneratedAt, r.SchemaDigest, r.Summary})
	if err != nil {
		return fmt.Errorf("marshal history line: %w", err)
	}
	if err := fsx.AppendLineLocked(path, line, 0o644); err != nil {
		return errors.Wrap(fmt.Errorf("append history %s: %w", path, err),
			errors.CategoryIOFailure, "history_append_failed",
			"check the history file is writable", true)
	}
	return nil
}
