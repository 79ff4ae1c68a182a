// =============================================================================
// RAML XML to CSV Converter - Watch Command
// =============================================================================
//
// This file defines the 'watch' command, which converts XML files as they
// are dropped into the input directory.
//
// COMMAND USAGE:
//   raml2csv watch [--existing]
//
// A file is converted once it has not changed for watch_settle (default 2s),
// so half-copied dumps are not picked up. Conversions run one at a time on
// the event loop. Successful inputs are archived like in 'process'.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/converter"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/metrics"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/pkg/utils"
)

// watchExisting converts files already in the input directory before watching.
var watchExisting bool

// watchCmd represents the 'watch' command.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Convert RAML XML files as they arrive in the input directory",
	Long: `The watch command monitors the input directory and converts each new or
modified XML file once it stops changing. Stop it with Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "Convert files already in the input directory first")
	watchCmd.Flags().StringVar(&inputDirOverride, "input-dir", "", "Directory to watch (default from config)")
	watchCmd.Flags().StringVar(&outputDirOverride, "output-dir", "", "Directory receiving output files (default from config)")
	watchCmd.Flags().StringVar(&processFormat, "format", "", "Output format: csv or xlsx (default from config)")
}

// runWatch runs the watch loop until interrupted.
func runWatch(cmd *cobra.Command) error {
	if err := checkExpiry(); err != nil {
		return err
	}

	cfg, err := batchConfig()
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.ArchiveOnSuccess)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	m := metrics.New()
	conv := converter.New(cfg, converter.WithLogger(logger), converter.WithMetrics(m))

	if watchExisting {
		if _, err := runBatch(cmd, cfg, fm, conv, m); err != nil {
			return err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.InputDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.InputDir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tick := cfg.WatchSettle / 2
	if tick < 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	queue := newSettleQueue(cfg.WatchSettle)
	logger.Info("watching for XML files", zap.String("input_dir", cfg.InputDir), zap.Duration("settle", cfg.WatchSettle))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !utils.IsInputFile(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				queue.Touch(event.Name, time.Now())
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				queue.Forget(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case t := <-ticker.C:
			for _, path := range queue.Due(t) {
				if !utils.FileExists(path) {
					continue
				}
				if err := checkExpiry(); err != nil {
					return err
				}
				result := conv.Convert(path, cfg.OutputDir)
				if result.Status == converter.Success {
					if _, err := fm.ArchiveInputFile(path); err != nil {
						logger.Warn("failed to archive input", zap.String("file", path), zap.Error(err))
					}
				}
				printResult(cmd, result)
				if cfg.MetricsFile != "" {
					if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
						logger.Warn("failed to write metrics", zap.Error(err))
					}
				}
			}
		}
	}
}

// =============================================================================
// SETTLE QUEUE
// =============================================================================

// settleQueue tracks files until they have been quiet for a settle period.
type settleQueue struct {
	settle  time.Duration
	pending map[string]time.Time
}

func newSettleQueue(settle time.Duration) *settleQueue {
	return &settleQueue{
		settle:  settle,
		pending: make(map[string]time.Time),
	}
}

// Touch records activity on path at t.
func (q *settleQueue) Touch(path string, t time.Time) {
	q.pending[path] = t
}

// Forget drops path from the queue.
func (q *settleQueue) Forget(path string) {
	delete(q.pending, path)
}

// Due removes and returns, sorted, every path quiet since at least settle
// before now.
func (q *settleQueue) Due(now time.Time) []string {
	var due []string
	for path, last := range q.pending {
		if now.Sub(last) >= q.settle {
			due = append(due, path)
		}
	}
	for _, path := range due {
		delete(q.pending, path)
	}
	sort.Strings(due)
	return due
}

// Len returns the number of pending paths.
func (q *settleQueue) Len() int {
	return len(q.pending)
}
