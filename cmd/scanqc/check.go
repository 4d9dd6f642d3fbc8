package main

import (
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/protoqa/scanqc/core/compliance"
	coreerrors "github.com/protoqa/scanqc/core/errors"
	"github.com/protoqa/scanqc/core/match"
	"github.com/protoqa/scanqc/core/projectconfig"
	"github.com/protoqa/scanqc/core/report"
	"github.com/protoqa/scanqc/core/schema"
)

type checkOutput struct {
	OK           bool                `json:"ok"`
	ReportID     string              `json:"report_id,omitempty"`
	SchemaDigest string              `json:"schema_digest,omitempty"`
	Summary      report.Summary      `json:"summary"`
	Mapping      map[string]string   `json:"mapping,omitempty"`
	Records      []compliance.Record `json:"records,omitempty"`
	ReportPath   string              `json:"report_path,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// runCheck exits 0 whenever the run completes, even with failing records;
// non-zero exits are reserved for structural and usage errors.
func runCheck(arguments []string) int {
	arguments = reorderInterspersedFlags(arguments, map[string]bool{
		"session": true, "schema": true, "out": true, "history": true,
		"config": true, "concurrency": true,
	})

	flagSet := flag.NewFlagSet("check", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var sessionPath, schemaPath, outPath, historyPath, configPath string
	var strict, jsonOutput, verbose, helpFlag bool
	var concurrency int

	flagSet.StringVar(&sessionPath, "session", "", "session table JSON path")
	flagSet.StringVar(&schemaPath, "schema", "", "reference document path (JSON or YAML)")
	flagSet.StringVar(&outPath, "out", "", "write the full report to this path")
	flagSet.StringVar(&historyPath, "history", "", "append a run summary line to this JSONL file")
	flagSet.StringVar(&configPath, "config", projectconfig.DefaultPath, "project config path")
	flagSet.BoolVar(&strict, "strict", false, "abort on the first violation")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&verbose, "verbose", false, "debug logging")
	flagSet.IntVar(&concurrency, "concurrency", 0, "cost matrix workers (0 = auto)")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}
	if helpFlag {
		printCheckUsage()
		return exitOK
	}

	configuration, err := projectconfig.Load(configPath, configPath == projectconfig.DefaultPath)
	if err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}
	if schemaPath == "" {
		schemaPath = configuration.Check.Schema
	}
	if outPath == "" {
		outPath = configuration.Output.ReportPath
	}
	if historyPath == "" {
		historyPath = configuration.Output.HistoryPath
	}
	if !strict {
		strict = configuration.Check.Strict
	}
	if concurrency == 0 {
		concurrency = configuration.Check.Concurrency
	}
	if sessionPath == "" || schemaPath == "" {
		return writeError(jsonOutput,
			invalidInput(fmt.Errorf("both --session and --schema are required")), exitInvalidInput)
	}

	logger := newLogger(verbose)
	defer func() {
		_ = logger.Sync()
	}()

	table, err := loadGroupedTable(sessionPath, configuration, logger)
	if err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}
	reference, err := schema.Load(schemaPath)
	if err != nil {
		return writeError(jsonOutput,
			coreerrors.Wrap(err, coreerrors.CategorySchemaInvalid, "schema_invalid",
				"validate the reference document against the wire format", false),
			exitSchemaInvalid)
	}

	input, err := schema.FromSession(table, reference.FieldNames())
	if err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}

	matcher := &match.Matcher{Concurrency: concurrency, Logger: logger}
	mapping := matcher.Match(input, reference).AcquisitionMap()
	logger.Info("session mapped", zap.Int("pairs", len(mapping)))

	engine := &compliance.Engine{Strict: strict, Logger: logger}
	records, checkErr := engine.Check(table, reference, mapping)
	if checkErr != nil && coreerrors.CategoryOf(checkErr) != coreerrors.CategoryRuleFailed {
		return writeError(jsonOutput, checkErr, exitInternalFailure)
	}

	schemaJSON, err := schema.Marshal(reference)
	if err != nil {
		return writeError(jsonOutput, err, exitInternalFailure)
	}
	runReport, err := report.Build(records, schemaJSON)
	if err != nil {
		return writeError(jsonOutput, err, exitInternalFailure)
	}
	if outPath != "" {
		if err := runReport.Write(outPath); err != nil {
			return writeError(jsonOutput, err, exitIOFailure)
		}
	}
	if historyPath != "" {
		if err := runReport.AppendHistory(historyPath); err != nil {
			return writeError(jsonOutput, err, exitIOFailure)
		}
	}

	if checkErr != nil {
		// Strict-mode violation: report what was collected, then fail.
		return writeError(jsonOutput, checkErr, exitRuleFailed)
	}

	output := checkOutput{
		OK:           true,
		ReportID:     runReport.ReportID,
		SchemaDigest: runReport.SchemaDigest,
		Summary:      runReport.Summary,
		Mapping:      mapping,
		ReportPath:   outPath,
	}
	if jsonOutput {
		output.Records = records
		return writeJSONOutput(output, exitOK)
	}

	fmt.Printf("checked %d records: %d passed, %d failed\n",
		output.Summary.Total, output.Summary.Passed, output.Summary.Failed)
	for _, record := range records {
		if record.Passed {
			continue
		}
		where := record.ReferenceAcquisition
		if record.Series != "" {
			where += " / " + record.Series
		}
		if record.Field != "" {
			where += " / " + record.Field
		}
		fmt.Printf("  FAIL %s: %s\n", where, record.Message)
	}
	return exitOK
}

func invalidInput(err error) error {
	return coreerrors.Wrap(err, coreerrors.CategoryInvalidInput, "invalid_input", "", false)
}

func printCheckUsage() {
	fmt.Println("usage: scanqc check --session <table.json> --schema <reference.json|yaml> [flags]")
	fmt.Println()
	fmt.Println("flags:")
	fmt.Println("  --out <path>        write the full report JSON")
	fmt.Println("  --history <path>    append a run summary to a JSONL history file")
	fmt.Println("  --config <path>     project config (default .scanqc/config.yaml)")
	fmt.Println("  --strict            abort on the first violation")
	fmt.Println("  --concurrency <n>   cost matrix workers (0 = auto)")
	fmt.Println("  --json              emit JSON output")
	fmt.Println("  --verbose           debug logging")
}
