package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/converter"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/metrics"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/pkg/utils"
)

const sampleDump = `<raml xmlns="raml20.xsd"><cmData>
<header><log dateTime="2024-01-01T00:00:00"/></header>
<managedObject version="R1" distName="X" id="1"><p name="a">1</p></managedObject>
</cmData></raml>`

const emptyDump = `<raml xmlns="raml20.xsd"><cmData/></raml>`

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	return c, &buf
}

func TestSettleQueue(t *testing.T) {
	q := newSettleQueue(2 * time.Second)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	q.Touch("b.xml", t0)
	q.Touch("a.xml", t0)
	q.Touch("c.xml", t0.Add(time.Second))
	assert.Equal(t, 3, q.Len())

	assert.Empty(t, q.Due(t0.Add(time.Second)))

	// A write resets the timer.
	q.Touch("b.xml", t0.Add(1500*time.Millisecond))
	assert.Equal(t, []string{"a.xml"}, q.Due(t0.Add(2*time.Second)))
	assert.Equal(t, 2, q.Len())

	q.Forget("c.xml")
	assert.Equal(t, []string{"b.xml"}, q.Due(t0.Add(4*time.Second)))
	assert.Equal(t, 0, q.Len())
}

func TestReport(t *testing.T) {
	tests := []struct {
		name    string
		result  converter.Result
		want    string
		wantErr bool
	}{
		{
			name:   "success",
			result: converter.Result{Status: converter.Success, Rows: 2, OutputFile: "out/dump.csv"},
			want:   "Conversion completed successfully! 2 row(s) written to out/dump.csv\n",
		},
		{
			name:   "nothing extracted",
			result: converter.Result{Status: converter.NothingExtracted, InputFile: "dump.xml"},
			want:   "No data extracted from dump.xml: it contains no managed objects.\n",
		},
		{
			name:    "invalid input",
			result:  converter.Result{Status: converter.InvalidInput, Err: converter.ErrInvalidInput},
			want:    "Please select an XML file (--file) and an output folder (--out).\n",
			wantErr: true,
		},
		{
			name:    "parse error",
			result:  converter.Result{Status: converter.ParseError, InputFile: "dump.xml", Err: assert.AnError},
			want:    "Could not read dump.xml as XML.\n",
			wantErr: true,
		},
		{
			name:    "write error",
			result:  converter.Result{Status: converter.WriteError, Err: assert.AnError},
			want:    "Could not write the output file.\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, buf := testCommand()
			err := report(c, tt.result)
			assert.Equal(t, tt.want, buf.String())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunBatch(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.InputArchiveDir = filepath.Join(root, "archive")
	cfg.ArchiveOnSuccess = true
	cfg.MetricsFile = filepath.Join(root, "raml2csv.prom")

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.ArchiveOnSuccess)
	require.NoError(t, fm.EnsureDirectories())
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "good.xml"), []byte(sampleDump), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "empty.xml"), []byte(emptyDump), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "bad.xml"), []byte("<raml"), 0644))

	m := metrics.New()
	conv := converter.New(cfg, converter.WithMetrics(m))
	c, buf := testCommand()

	summary, err := runBatch(c, cfg, fm, conv, m)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalFiles)
	assert.Equal(t, 1, summary.SuccessfulFiles)
	assert.Equal(t, 1, summary.EmptyFiles)
	assert.Equal(t, 1, summary.FailedFiles)
	assert.Equal(t, 1, summary.TotalRows)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "good.csv"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "empty.csv"))
	assert.FileExists(t, filepath.Join(cfg.InputArchiveDir, "good.xml"))
	assert.FileExists(t, filepath.Join(cfg.InputDir, "empty.xml"))
	assert.FileExists(t, filepath.Join(cfg.InputDir, "bad.xml"))
	assert.FileExists(t, cfg.MetricsFile)
	assert.Contains(t, buf.String(), "=== Processing Complete ===")

	summaries, err := filepath.Glob(filepath.Join(cfg.OutputDir, "processing_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestPlanBatch(t *testing.T) {
	cfg := config.Default()
	cfg.InputDir = t.TempDir()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(filepath.Join(cfg.InputDir, "dump.xml"), []byte(sampleDump), 0644))

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, false)
	c, buf := testCommand()

	require.NoError(t, planBatch(c, cfg, fm))

	assert.Contains(t, buf.String(), "Dry run: 1 file(s) would be converted")
	assert.Contains(t, buf.String(), filepath.Join(cfg.OutputDir, "dump.csv"))
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRunScheduled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runs := 0
	require.NoError(t, runScheduled(ctx, "@every 1h", func() { runs++ }))
	assert.Equal(t, 1, runs)

	err := runScheduled(context.Background(), "not a schedule", func() { runs++ })
	assert.Error(t, err)
	assert.Equal(t, 1, runs)
}

func TestCheckExpiry(t *testing.T) {
	prevConfig, prevNow := appConfig, now
	t.Cleanup(func() { appConfig, now = prevConfig, prevNow })

	appConfig = config.Default()
	appConfig.ExpiresOn = "2024-12-31"

	now = func() time.Time { return time.Date(2024, 12, 31, 12, 0, 0, 0, time.Local) }
	assert.NoError(t, checkExpiry())

	now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.Local) }
	assert.ErrorIs(t, checkExpiry(), ErrExpired)
}

func TestConvertCommand(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "dump.xml")
	require.NoError(t, os.WriteFile(input, []byte(sampleDump), 0644))
	cfgPath := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: error\n"), 0644))
	outDir := t.TempDir()

	t.Cleanup(func() {
		convertFile, convertOut, convertFormat, cfgFile = "", "", "", "config.yaml"
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"convert", "--config", cfgPath, "--file", input, "--out", outDir})

	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, buf.String(), "Conversion completed successfully! 1 row(s) written to")
	assert.FileExists(t, filepath.Join(outDir, "dump.csv"))
}
