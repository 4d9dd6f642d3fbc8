package main

import (
	"encoding/json"
	"fmt"
	"os"

	coreerrors "github.com/protoqa/scanqc/core/errors"
)

const (
	exitOK              = 0
	exitInternalFailure = 1
	exitInvalidInput    = 2
	exitSchemaInvalid   = 3
	exitRuleFailed      = 4
	exitIOFailure       = 5
)

// errorEnvelope is the uniform JSON error surface of every subcommand.
type errorEnvelope struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Category  string `json:"error_category"`
	Hint      string `json:"hint,omitempty"`
	Retryable bool   `json:"retryable"`
}

func writeJSONOutput(output any, exitCode int) int {
	encoded, err := json.Marshal(output)
	if err != nil {
		fmt.Println(`{"ok":false,"error":"failed to encode output","error_code":"encode_failed","error_category":"internal_failure","retryable":false}`)
		return exitInternalFailure
	}
	fmt.Println(string(encoded))
	return exitCode
}

func writeError(jsonOutput bool, err error, fallbackExit int) int {
	exitCode := exitCodeForError(err, fallbackExit)
	if !jsonOutput {
		fmt.Fprintln(os.Stderr, "error:", err)
		if hint := coreerrors.HintOf(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		return exitCode
	}
	envelope := errorEnvelope{
		Error:     err.Error(),
		ErrorCode: errorCode(err, exitCode),
		Category:  string(errorCategory(err, exitCode)),
		Hint:      coreerrors.HintOf(err),
		Retryable: coreerrors.RetryableOf(err),
	}
	return writeJSONOutput(envelope, exitCode)
}

func exitCodeForError(err error, fallbackExit int) int {
	if err == nil {
		return exitOK
	}
	switch coreerrors.CategoryOf(err) {
	case coreerrors.CategoryInvalidInput:
		return exitInvalidInput
	case coreerrors.CategorySchemaInvalid:
		return exitSchemaInvalid
	case coreerrors.CategoryRuleFailed:
		return exitRuleFailed
	case coreerrors.CategoryIOFailure:
		return exitIOFailure
	case coreerrors.CategoryInternalFailure:
		return exitInternalFailure
	}
	return fallbackExit
}

func errorCode(err error, exitCode int) string {
	if code := coreerrors.CodeOf(err); code != "" {
		return code
	}
	switch exitCode {
	case exitInvalidInput:
		return "invalid_input"
	case exitSchemaInvalid:
		return "schema_invalid"
	case exitRuleFailed:
		return "rule_failed"
	case exitIOFailure:
		return "io_failure"
	default:
		return "internal_failure"
	}
}

func errorCategory(err error, exitCode int) coreerrors.Category {
	if category := coreerrors.CategoryOf(err); category != "" {
		return category
	}
	switch exitCode {
	case exitInvalidInput:
		return coreerrors.CategoryInvalidInput
	case exitSchemaInvalid:
		return coreerrors.CategorySchemaInvalid
	case exitRuleFailed:
		return coreerrors.CategoryRuleFailed
	case exitIOFailure:
		return coreerrors.CategoryIOFailure
	default:
		return coreerrors.CategoryInternalFailure
	}
}
