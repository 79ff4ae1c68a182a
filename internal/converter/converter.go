// =============================================================================
// RAML XML to CSV Converter - Converter Module
// =============================================================================
//
// This module contains the conversion pipeline for a single RAML file.
//
// CONVERSION PIPELINE:
//   1. Check the inputs (source file and output folder are both given)
//   2. Parse the XML document
//   3. Flatten managed objects into rows
//   4. Export the rows (CSV, or XLSX when configured)
//   5. Optionally re-read the output and verify the row count
//
// OUTCOMES:
//   Every call returns a Result with exactly one Status:
//   - Success          : output written
//   - NothingExtracted : the document had no managed objects; nothing written
//   - InvalidInput     : source path or output folder missing; nothing attempted
//   - ParseError       : XML unreadable or malformed; nothing written
//   - WriteError       : the destination could not be written
//
// CONCURRENCY:
//   A conversion runs synchronously to completion. A Converter holds no
//   per-conversion state, so a failed call never affects the next one.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/csvparser"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/csvwriter"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/metrics"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/raml"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/types"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/xlsxparser"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/xlsxwriter"
)

// ErrInvalidInput is wrapped when the source path or output folder is missing.
var ErrInvalidInput = errors.New("invalid input")

// =============================================================================
// STATUS
// =============================================================================

// Status is the caller-visible outcome of a conversion.
type Status int

const (
	// Success means the output file was written.
	Success Status = iota

	// NothingExtracted means the document held no managed objects.
	NothingExtracted

	// InvalidInput means the source path or output folder was not given.
	InvalidInput

	// ParseError means the XML could not be read or parsed.
	ParseError

	// WriteError means the output could not be written.
	WriteError
)

// String returns the status as used in logs and metric labels.
func (s Status) String() string {
	switch s {
	case Success:
		return metrics.StatusSuccess
	case NothingExtracted:
		return "nothing_extracted"
	case InvalidInput:
		return "invalid_input"
	case ParseError:
		return "parse_error"
	case WriteError:
		return "write_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Failed reports whether the status is an error outcome.
// NothingExtracted is not a failure.
func (s Status) Failed() bool {
	return s != Success && s != NothingExtracted
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of converting a single file.
type Result struct {
	// RunID identifies this conversion in logs and summaries.
	RunID string

	// Status is the outcome.
	Status Status

	// InputFile is the XML file that was converted.
	InputFile string

	// OutputFile is the path of the written file. Empty unless Status is Success.
	OutputFile string

	// Rows is the number of managed objects extracted.
	Rows int

	// Columns is the number of columns in the header.
	Columns int

	// Err describes the failure. Nil for Success and NothingExtracted.
	Err error

	// Duration is the wall time of the conversion.
	Duration time.Duration
}

// Success reports whether the output was written.
func (r Result) Success() bool {
	return r.Status == Success
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs conversions with a fixed configuration.
type Converter struct {
	config  *config.MainConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records every conversion in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Converter) {
		c.metrics = m
	}
}

// New creates a Converter. A nil cfg means config.Default().
func New(cfg *config.MainConfig, opts ...Option) *Converter {
	if cfg == nil {
		cfg = config.Default()
	}
	c := &Converter{
		config: cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Convert converts the XML file at xmlPath into outputDir.
//
// PARAMETERS:
//   - xmlPath: The source RAML file.
//   - outputDir: The destination folder. It must already exist.
//
// RETURNS:
//   - A Result. The output is named after the input's base name without
//     extension, plus ".csv" (or ".xlsx").
func (c *Converter) Convert(xmlPath, outputDir string) Result {
	start := time.Now()
	result := Result{
		RunID:     uuid.New().String(),
		InputFile: xmlPath,
	}
	log := c.logger.With(zap.String("run_id", result.RunID), zap.String("file", xmlPath))

	c.run(&result, log, xmlPath, outputDir)

	result.Duration = time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordConversion(result.Status.String(), result.Rows, result.Duration)
	}

	fields := []zap.Field{
		zap.String("status", result.Status.String()),
		zap.Int("rows", result.Rows),
		zap.Duration("duration", result.Duration),
	}
	switch {
	case result.Status == Success:
		log.Info("conversion completed", append(fields, zap.String("output", result.OutputFile))...)
	case result.Status == NothingExtracted:
		log.Warn("no managed objects found, nothing exported", fields...)
	default:
		log.Error("conversion failed", append(fields, zap.Error(result.Err))...)
	}

	return result
}

// run executes the pipeline steps, filling in result.
func (c *Converter) run(result *Result, log *zap.Logger, xmlPath, outputDir string) {
	// =========================================================================
	// STEP 1: CHECK INPUTS
	// =========================================================================

	if strings.TrimSpace(xmlPath) == "" || strings.TrimSpace(outputDir) == "" {
		result.Status = InvalidInput
		result.Err = fmt.Errorf("%w: both an XML file and an output folder are required", ErrInvalidInput)
		return
	}

	// =========================================================================
	// STEP 2: PARSE XML
	// =========================================================================

	doc, err := raml.ParseFile(xmlPath)
	if err != nil {
		result.Status = ParseError
		result.Err = err
		return
	}

	// =========================================================================
	// STEP 3: FLATTEN
	// =========================================================================

	rows := raml.Flatten(doc, c.config.Namespace, raml.SourceLabel(xmlPath))
	result.Rows = len(rows)
	if len(rows) == 0 {
		result.Status = NothingExtracted
		return
	}
	result.Columns = len(rows.Header())
	log.Debug("flattened document",
		zap.String("namespace", c.config.Namespace),
		zap.Int("rows", result.Rows),
		zap.Int("columns", result.Columns))

	// =========================================================================
	// STEP 4: EXPORT
	// =========================================================================

	outputPath := OutputPath(xmlPath, outputDir, c.config.OutputExtension())
	if err := c.export(rows, outputPath); err != nil {
		result.Status = WriteError
		result.Err = err
		return
	}

	// =========================================================================
	// STEP 5: VERIFY
	// =========================================================================

	if c.config.VerifyOutput {
		if err := c.verify(outputPath, len(rows)); err != nil {
			result.Status = WriteError
			result.Err = err
			return
		}
	}

	result.Status = Success
	result.OutputFile = outputPath
}

// export writes rows with the configured exporter.
func (c *Converter) export(rows types.RowSet, outputPath string) error {
	if c.config.OutputFormat == config.FormatXLSX {
		return xlsxwriter.Export(rows, outputPath, xlsxwriter.DefaultSheetName)
	}
	return csvwriter.Export(rows, outputPath, csvwriter.Options{
		Delimiter: c.config.Delimiter(),
		UseCRLF:   c.config.CSVCRLF,
	})
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// OutputPath derives the output file path: outputDir joined with the base
// name of xmlPath without its extension, plus ext.
func OutputPath(xmlPath, outputDir, ext string) string {
	base := filepath.Base(xmlPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, name+ext)
}

// verify re-reads the written file and checks it holds wantRows rows.
func (c *Converter) verify(path string, wantRows int) error {
	var got int
	if c.config.OutputFormat == config.FormatXLSX {
		data, err := xlsxparser.ParseSheet(path, xlsxwriter.DefaultSheetName)
		if err != nil {
			return fmt.Errorf("%w: failed to verify %s: %v", csvwriter.ErrWrite, path, err)
		}
		got = data.RowCount()
	} else {
		data, err := csvparser.Parse(path, csvparser.Settings{Delimiter: c.config.Delimiter()})
		if err != nil {
			return fmt.Errorf("%w: failed to verify %s: %v", csvwriter.ErrWrite, path, err)
		}
		got = data.RowCount()
	}

	if got != wantRows {
		return fmt.Errorf("%w: %s holds %d rows, expected %d", csvwriter.ErrWrite, path, got, wantRows)
	}
	return nil
}
