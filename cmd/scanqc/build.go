package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/protoqa/scanqc/core/projectconfig"
	"github.com/protoqa/scanqc/core/schema"
)

type buildOutput struct {
	OK           bool     `json:"ok"`
	Acquisitions []string `json:"acquisitions,omitempty"`
	SchemaPath   string   `json:"schema_path,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// runBuild generates a reference document from an existing session: the
// chosen reference fields become acquisition-level constraints where they
// are constant and series where they vary.
func runBuild(arguments []string) int {
	arguments = reorderInterspersedFlags(arguments, map[string]bool{
		"session": true, "fields": true, "out": true, "config": true,
	})

	flagSet := flag.NewFlagSet("build", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var sessionPath, fieldList, outPath, configPath string
	var jsonOutput, verbose, helpFlag bool

	flagSet.StringVar(&sessionPath, "session", "", "session table JSON path")
	flagSet.StringVar(&fieldList, "fields", "", "comma-separated reference fields")
	flagSet.StringVar(&outPath, "out", "", "write the reference document to this path")
	flagSet.StringVar(&configPath, "config", projectconfig.DefaultPath, "project config path")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&verbose, "verbose", false, "debug logging")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}
	if helpFlag {
		printBuildUsage()
		return exitOK
	}
	if sessionPath == "" || strings.TrimSpace(fieldList) == "" {
		return writeError(jsonOutput,
			invalidInput(fmt.Errorf("both --session and --fields are required")), exitInvalidInput)
	}

	var fields []string
	for _, field := range strings.Split(fieldList, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}

	configuration, err := projectconfig.Load(configPath, configPath == projectconfig.DefaultPath)
	if err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}

	logger := newLogger(verbose)
	defer func() {
		_ = logger.Sync()
	}()

	table, err := loadGroupedTable(sessionPath, configuration, logger)
	if err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}

	tree, err := schema.FromSession(table, fields)
	if err != nil {
		return writeError(jsonOutput, invalidInput(err), exitInvalidInput)
	}

	if outPath != "" {
		if err := schema.Write(outPath, tree); err != nil {
			return writeError(jsonOutput, err, exitIOFailure)
		}
		if jsonOutput {
			return writeJSONOutput(buildOutput{OK: true, Acquisitions: tree.SortedNames(), SchemaPath: outPath}, exitOK)
		}
		fmt.Printf("wrote reference with %d acquisitions to %s\n", len(tree.Acquisitions), outPath)
		return exitOK
	}

	encoded, err := schema.Marshal(tree)
	if err != nil {
		return writeError(jsonOutput, err, exitInternalFailure)
	}
	fmt.Print(string(encoded))
	return exitOK
}

func printBuildUsage() {
	fmt.Println("usage: scanqc build --session <table.json> --fields <Field1,Field2,...> [flags]")
	fmt.Println()
	fmt.Println("flags:")
	fmt.Println("  --out <path>     write the reference document (stdout when omitted)")
	fmt.Println("  --config <path>  project config (default .scanqc/config.yaml)")
	fmt.Println("  --json           emit JSON output")
	fmt.Println("  --verbose        debug logging")
}
