// =============================================================================
// RAML XML to CSV Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command: one XML file in, one CSV file out.
//
// COMMAND USAGE:
//   raml2csv convert --file <dump.xml> --out <folder> [flags]
//
// FLAGS:
//   --file    : The RAML XML file to convert
//   --out     : The folder receiving <file base name>.csv
//   --format  : csv (default) or xlsx
//
// EXIT STATUS:
//   0 for a successful conversion and for a file without managed objects,
//   1 for missing inputs, unreadable XML or an unwritable destination.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/converter"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// convertFile is the XML file to convert.
var convertFile string

// convertOut is the folder receiving the output.
var convertOut string

// convertFormat overrides the configured output format.
var convertFormat string

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one RAML XML file to CSV",
	Long: `The convert command flattens a single RAML XML file into a CSV table
written to the output folder, named after the input file.

An existing output file with the same name is overwritten. The output folder
must already exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertFile, "file", "f", "", "Path to the RAML XML file")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "Folder to save the output file in")
	convertCmd.Flags().StringVar(&convertFormat, "format", "", "Output format: csv or xlsx (default from config)")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runConvert runs one conversion and reports the outcome to the user.
func runConvert(cmd *cobra.Command) error {
	if err := checkExpiry(); err != nil {
		return err
	}

	cfg := *appConfig
	if convertFormat != "" {
		cfg.OutputFormat = convertFormat
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	conv := converter.New(&cfg, converter.WithLogger(logger))
	result := conv.Convert(convertFile, convertOut)

	return report(cmd, result)
}

// report prints the user-facing message for result and returns the error
// for failed outcomes.
func report(cmd *cobra.Command, result converter.Result) error {
	out := cmd.OutOrStdout()

	switch result.Status {
	case converter.Success:
		fmt.Fprintf(out, "Conversion completed successfully! %d row(s) written to %s\n", result.Rows, result.OutputFile)
		return nil
	case converter.NothingExtracted:
		fmt.Fprintf(out, "No data extracted from %s: it contains no managed objects.\n", result.InputFile)
		return nil
	case converter.InvalidInput:
		fmt.Fprintln(out, "Please select an XML file (--file) and an output folder (--out).")
	case converter.ParseError:
		fmt.Fprintf(out, "Could not read %s as XML.\n", result.InputFile)
	case converter.WriteError:
		fmt.Fprintln(out, "Could not write the output file.")
	}

	return result.Err
}
