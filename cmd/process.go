// =============================================================================
// RAML XML to CSV Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts every XML file in
// the input directory.
//
// COMMAND USAGE:
//   raml2csv process [flags]
//
// FLAGS:
//   --dry-run       : List what would be converted without writing anything
//   --schedule      : Re-run the batch on a cron schedule (e.g. "@every 15m")
//   --metrics-file  : Write Prometheus metrics to this file after each batch
//   --input-dir     : Override input_dir
//   --output-dir    : Override output_dir
//   --format        : Override output_format
//
// PROCESSING PIPELINE:
//   1. Discover *.xml files in the input directory
//   2. Convert each file, one at a time
//   3. Archive successfully converted inputs
//   4. Write a summary log and the metrics file
//
// Files are converted sequentially. A scheduled batch that is still running
// when the next tick fires causes that tick to be skipped.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/converter"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/metrics"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun lists the planned conversions without writing output files.
var dryRun bool

// schedule is a cron spec for repeated batches.
var schedule string

// metricsFile overrides metrics_file.
var metricsFile string

// inputDirOverride overrides input_dir.
var inputDirOverride string

// outputDirOverride overrides output_dir.
var outputDirOverride string

// processFormat overrides output_format.
var processFormat string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert every RAML XML file in the input directory",
	Long: `The process command scans the input directory for XML files and converts
each of them into the output directory, one file at a time.

On success:
  - The output is placed in the output directory
  - The input is moved to the input archive (when archive_on_success is set)

On failure, or when a file has no managed objects:
  - The input stays in the input directory
  - Processing continues with the next file

A summary log is written to the output directory after every batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := batchConfig()
		if err != nil {
			return err
		}
		return runProcess(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List planned conversions without writing output files")
	processCmd.Flags().StringVar(&schedule, "schedule", "", `Re-run on a cron schedule, e.g. "@every 15m" or "0 * * * *"`)
	processCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after each batch")
	processCmd.Flags().StringVar(&inputDirOverride, "input-dir", "", "Directory scanned for XML files (default from config)")
	processCmd.Flags().StringVar(&outputDirOverride, "output-dir", "", "Directory receiving output files (default from config)")
	processCmd.Flags().StringVar(&processFormat, "format", "", "Output format: csv or xlsx (default from config)")
}

// batchConfig applies the batch flag overrides to a copy of appConfig.
func batchConfig() (*config.MainConfig, error) {
	cfg := *appConfig
	if inputDirOverride != "" {
		cfg.InputDir = inputDirOverride
	}
	if outputDirOverride != "" {
		cfg.OutputDir = outputDirOverride
	}
	if processFormat != "" {
		cfg.OutputFormat = processFormat
	}
	if metricsFile != "" {
		cfg.MetricsFile = metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess runs one batch, or keeps running batches on the schedule.
func runProcess(cmd *cobra.Command, cfg *config.MainConfig) error {
	if err := checkExpiry(); err != nil {
		return err
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.ArchiveOnSuccess)

	if dryRun {
		return planBatch(cmd, cfg, fm)
	}

	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	m := metrics.New()
	conv := converter.New(cfg, converter.WithLogger(logger), converter.WithMetrics(m))

	if schedule == "" {
		_, err := runBatch(cmd, cfg, fm, conv, m)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScheduled(ctx, schedule, func() {
		if err := checkExpiry(); err != nil {
			return
		}
		if _, err := runBatch(cmd, cfg, fm, conv, m); err != nil {
			logger.Error("batch failed", zap.Error(err))
		}
	})
}

// runBatch converts every discovered file and writes the summary.
//
// RETURNS:
//   - The summary of the batch.
//   - An error only if the batch itself could not run (discovery or
//     summary failures). Per-file failures are reported in the summary.
func runBatch(cmd *cobra.Command, cfg *config.MainConfig, fm *utils.FileManager, conv *converter.Converter, m *metrics.Metrics) (utils.ProcessingSummary, error) {
	out := cmd.OutOrStdout()
	summary := utils.NewProcessingSummary(time.Now())
	log := logger.With(zap.String("batch_id", summary.RunID))

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := fm.DiscoverInputFiles()
	if err != nil {
		return summary, fmt.Errorf("failed to discover input files: %w", err)
	}
	summary.TotalFiles = len(inputFiles)

	if len(inputFiles) == 0 {
		log.Info("no XML files found", zap.String("input_dir", cfg.InputDir))
		fmt.Fprintln(out, "No XML files found in the input directory.")
		return summary, nil
	}

	log.Info("starting batch", zap.Int("files", len(inputFiles)))

	// =========================================================================
	// STEP 2: CONVERT EACH FILE
	// =========================================================================

	for _, file := range inputFiles {
		result := conv.Convert(file, cfg.OutputDir)
		recordResult(&summary, fm, result, log)
		printResult(cmd, result)
	}

	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 3: SUMMARY AND METRICS
	// =========================================================================

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:        %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:         %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Nothing extracted:  %d\n", summary.EmptyFiles)
	fmt.Fprintf(out, "Errors:             %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Time elapsed:       %s\n", summary.EndTime.Sub(summary.StartTime))

	summaryPath, err := utils.WriteSummaryLog(summary, cfg.OutputDir)
	if err != nil {
		return summary, err
	}
	log.Info("batch complete",
		zap.Int("successful", summary.SuccessfulFiles),
		zap.Int("failed", summary.FailedFiles),
		zap.String("summary", summaryPath))

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

// recordResult adds a conversion result to the summary and archives the
// input when the conversion succeeded.
func recordResult(summary *utils.ProcessingSummary, fm *utils.FileManager, result converter.Result, log *zap.Logger) {
	switch result.Status {
	case converter.Success:
		archivePath, err := fm.ArchiveInputFile(result.InputFile)
		if err != nil {
			// The output exists; a failed archive does not fail the conversion.
			log.Warn("failed to archive input", zap.String("file", result.InputFile), zap.Error(err))
			archivePath = ""
		}
		summary.SuccessfulFiles++
		summary.TotalRows += result.Rows
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.InputFile,
			OutputFile:  result.OutputFile,
			ArchivePath: archivePath,
			Rows:        result.Rows,
			ProcessTime: result.Duration,
		})
	case converter.NothingExtracted:
		summary.EmptyFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile: result.InputFile,
			ErrorType: result.Status.String(),
		})
	default:
		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.InputFile,
			ErrorType:    result.Status.String(),
			ErrorMessage: errorString(result.Err),
		})
	}
}

// printResult prints one line per converted file.
func printResult(cmd *cobra.Command, result converter.Result) {
	out := cmd.OutOrStdout()
	name := filepath.Base(result.InputFile)

	switch result.Status {
	case converter.Success:
		fmt.Fprintf(out, "  ✓ %s -> %s (%d rows)\n", name, result.OutputFile, result.Rows)
	case converter.NothingExtracted:
		fmt.Fprintf(out, "  - %s: no managed objects\n", name)
	default:
		fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.Err)
	}
}

// planBatch prints the conversions a batch would perform.
func planBatch(cmd *cobra.Command, cfg *config.MainConfig, fm *utils.FileManager) error {
	out := cmd.OutOrStdout()

	inputFiles, err := fm.DiscoverInputFiles()
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	fmt.Fprintf(out, "Dry run: %d file(s) would be converted\n", len(inputFiles))
	for _, file := range inputFiles {
		fmt.Fprintf(out, "  %s -> %s\n", file, converter.OutputPath(file, cfg.OutputDir, cfg.OutputExtension()))
	}
	return nil
}

// =============================================================================
// SCHEDULING
// =============================================================================

// runScheduled runs job once immediately and then on spec until ctx is done.
// Ticks that fire while a job is still running are skipped.
func runScheduled(ctx context.Context, spec string, job func()) error {
	cronLogger := cronLog{logger.Sugar()}
	c := cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.SkipIfStillRunning(cronLogger)))

	id, err := c.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	job()

	c.Start()
	logger.Info("batch scheduled", zap.String("schedule", spec), zap.Time("next", c.Entry(id).Next))

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("scheduler stopped")

	return nil
}

// cronLog adapts zap to the cron.Logger interface.
type cronLog struct {
	s *zap.SugaredLogger
}

func (l cronLog) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLog) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// errorString returns err's message, or "" for nil.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
