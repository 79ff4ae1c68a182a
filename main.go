// =============================================================================
// RAML XML to CSV Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the RAML XML to CSV Converter CLI.
// It delegates command execution to the cmd package.
//
// USAGE:
//   raml2csv convert --file dump.xml --out ./output  - Convert one file
//   raml2csv process                                - Convert every XML in input_dir
//   raml2csv watch                                  - Convert files as they arrive
//   raml2csv version                                - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : Cobra command definitions
//   - internal/  : Flattening, export and configuration (not for external import)
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/cmd"
)

func main() {
	cmd.Execute()
}
