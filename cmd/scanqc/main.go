// Command scanqc checks scanner sessions against reference documents:
// group a session table into acquisitions and runs, map it to a reference,
// and report field-level compliance.
package main

import (
	"fmt"
	"os"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	if len(arguments) < 2 {
		fmt.Println("scanqc", version)
		return exitOK
	}

	switch arguments[1] {
	case "check":
		return runCheck(arguments[2:])
	case "build":
		return runBuild(arguments[2:])
	case "map":
		return runMap(arguments[2:])
	case "version", "--version", "-v":
		fmt.Println("scanqc", version)
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func printUsage() {
	fmt.Println("usage: scanqc <command> [flags]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  check    validate a session against a reference document")
	fmt.Println("  build    generate a reference document from a session")
	fmt.Println("  map      print the session-to-reference mapping with scores")
	fmt.Println("  version  print the CLI version")
}
