package main

import (
	"flag"
	"fmt"
	"io"

	coreerrors "github.com/protoqa/scanqc/core/errors"
	"github.com/protoqa/scanqc/core/match"
	"github.com/protoqa/scanqc/core/projectconfig"
	"github.com/protoqa/scanqc/core/schema"
)

type mapOutput struct {
	OK      bool              `json:"ok"`
	Edges   []match.Edge      `json:"edges,omitempty"`
	Mapping map[string]string `json:"mapping,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// runMap prints the computed session-to-reference mapping with per-pair
// scores without running compliance.
func runMap(arguments []string) int {
	arguments = reorderInterspersedFlags(arguments, map[string]bool{
		"session": true, "schema": true, "config": true, "concurrency": true,
	})

	flagSet := flag.NewFlagSet("map", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var sessionPath, schemaPath, configPath string
	var jsonOutput, verbose, helpFlag bool
	var concurrency int

	flagSet.StringVar(&sessionPath, "session", "", "session table JSON path")
	flagSet.StringVar(&schemaPath, "schema", "", "reference document path (JSON or YAML)")
	flagSet.StringVar(&configPath, "config", projectconfig.DefaultPath, "project config path")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&verbose, "verbose", false, "debug logging")
	flagSet.IntVar(&concurrency, "concurrency", 0, "cost matrix workers (0 = auto)")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}
	if helpFlag {
		printMapUsage()
		return exitOK
	}

	configuration, err := projectconfig.Load(configPath, configPath == projectconfig.DefaultPath)
	if err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}
	if schemaPath == "" {
		schemaPath = configuration.Check.Schema
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
	result := matcher.Match(input, reference)

	if jsonOutput {
		return writeJSONOutput(mapOutput{
			OK:      true,
			Edges:   result.Edges,
			Mapping: result.AcquisitionMap(),
		}, exitOK)
	}

	if len(result.Edges) == 0 {
		fmt.Println("no mapping: session or reference is empty")
		return exitOK
	}
	for _, edge := range result.Edges {
		fmt.Printf("%s -> %s (score %.2f)\n",
			identityString(edge.Input), identityString(edge.Reference), edge.Score)
	}
	return exitOK
}

func identityString(identity match.Identity) string {
	if identity.Series == "" {
		return identity.Acquisition
	}
	return identity.Acquisition + " / " + identity.Series
}

func printMapUsage() {
	fmt.Println("usage: scanqc map --session <table.json> --schema <reference.json|yaml> [flags]")
	fmt.Println()
	fmt.Println("flags:")
	fmt.Println("  --config <path>     project config (default .scanqc/config.yaml)")
	fmt.Println("  --concurrency <n>   cost matrix workers (0 = auto)")
	fmt.Println("  --json              emit JSON output")
	fmt.Println("  --verbose           debug logging")
}
