package converter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/config"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/csvwriter"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/metrics"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/raml"
)

const sampleDump = `<?xml version="1.0" encoding="UTF-8"?>
<raml version="2.0" xmlns="raml20.xsd">
  <cmData type="actual">
    <header>
      <log dateTime="2024-01-01T00:00:00" action="created"/>
    </header>
    <managedObject class="BTS" version="R1" distName="X" id="1">
      <p name="a">1</p>
      <p name="b">2</p>
    </managedObject>
    <managedObject class="BTS" distName="Y" id="2">
      <p name="a">3</p>
    </managedObject>
  </cmData>
</raml>`

const emptyDump = `<raml xmlns="raml20.xsd"><cmData><header><log dateTime="T"/></header></cmData></raml>`

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConvert_Success(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "dump.xml", sampleDump)
	outDir := t.TempDir()

	result := New(nil).Convert(input, outDir)

	require.Equal(t, Success, result.Status, "err: %v", result.Err)
	assert.True(t, result.Success())
	assert.NoError(t, result.Err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 7, result.Columns)
	assert.Equal(t, filepath.Join(outDir, "dump.csv"), result.OutputFile)

	got, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Equal(t,
		"FILENAME,DATETIME,VERSION,DISTNAME,MOID,a,b\n"+
			"dump.xml,2024-01-01T00:00:00,R1,X,1,1,2\n"+
			"dump.xml,2024-01-01T00:00:00,No version,Y,2,3,\n",
		string(got))
}

func TestConvert_InvalidInput(t *testing.T) {
	conv := New(nil)

	for _, tc := range []struct{ xml, out string }{
		{"", t.TempDir()},
		{"dump.xml", ""},
		{"  ", "  "},
	} {
		result := conv.Convert(tc.xml, tc.out)
		assert.Equal(t, InvalidInput, result.Status)
		assert.ErrorIs(t, result.Err, ErrInvalidInput)
		assert.True(t, result.Status.Failed())
		assert.Empty(t, result.OutputFile)
	}
}

func TestConvert_ParseError(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()

	tests := map[string]string{
		"malformed.xml":      `<raml xmlns="raml20.xsd"><managedObject></raml>`,
		"empty.xml":          ``,
		"second_root.xml":    `<raml xmlns="raml20.xsd"><cmData><managedObject id="1"/></cmData></raml><second/>`,
		"trailing_text.xml":  `<raml xmlns="raml20.xsd"><cmData><managedObject id="1"/></cmData></raml> trailing junk`,
		"unbound_prefix.xml": `<raml xmlns="raml20.xsd"><x:junk/><managedObject id="1"/></raml>`,
	}
	for name, content := range tests {
		input := writeInput(t, dir, name, content)

		result := New(nil).Convert(input, outDir)

		assert.Equal(t, ParseError, result.Status, name)
		assert.ErrorIs(t, result.Err, raml.ErrParse, name)
		assert.Empty(t, result.OutputFile, name)
		assert.NoFileExists(t, OutputPath(input, outDir, ".csv"), name)
	}

	missing := New(nil).Convert(filepath.Join(dir, "missing.xml"), outDir)
	assert.Equal(t, ParseError, missing.Status)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvert_NothingExtracted(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	input := writeInput(t, t.TempDir(), "empty.xml", emptyDump)
	outDir := t.TempDir()

	result := New(nil, WithLogger(zap.New(core))).Convert(input, outDir)

	assert.Equal(t, NothingExtracted, result.Status)
	assert.False(t, result.Status.Failed())
	assert.NoError(t, result.Err)
	assert.Equal(t, 0, result.Rows)
	assert.NoFileExists(t, filepath.Join(outDir, "empty.csv"))

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "no managed objects found, nothing exported", warnings[0].Message)
	assert.Equal(t, input, warnings[0].ContextMap()["file"])
}

func TestConvert_WrongNamespaceExtractsNothing(t *testing.T) {
	input := writeInput(t, t.TempDir(), "dump.xml", sampleDump)
	cfg := config.Default()
	cfg.Namespace = "raml21.xsd"

	result := New(cfg).Convert(input, t.TempDir())

	assert.Equal(t, NothingExtracted, result.Status)
}

func TestConvert_WriteError(t *testing.T) {
	input := writeInput(t, t.TempDir(), "dump.xml", sampleDump)
	outDir := filepath.Join(t.TempDir(), "does-not-exist")

	result := New(nil).Convert(input, outDir)

	assert.Equal(t, WriteError, result.Status)
	assert.ErrorIs(t, result.Err, csvwriter.ErrWrite)
	assert.Empty(t, result.OutputFile)
}

func TestConvert_FailureDoesNotAffectNextCall(t *testing.T) {
	dir := t.TempDir()
	bad := writeInput(t, dir, "bad.xml", `<raml`)
	good := writeInput(t, dir, "good.xml", sampleDump)
	outDir := t.TempDir()
	conv := New(nil)

	assert.Equal(t, ParseError, conv.Convert(bad, outDir).Status)
	assert.Equal(t, Success, conv.Convert(good, outDir).Status)
}

func TestConvert_OptionsAndVerify(t *testing.T) {
	input := writeInput(t, t.TempDir(), "dump.xml", sampleDump)
	outDir := t.TempDir()
	cfg := config.Default()
	cfg.CSVDelimiter = ";"
	cfg.CSVCRLF = true
	cfg.VerifyOutput = true

	result := New(cfg).Convert(input, outDir)

	require.Equal(t, Success, result.Status, "err: %v", result.Err)
	got, err := os.ReadFile(result.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(got), "FILENAME;DATETIME;VERSION;DISTNAME;MOID;a;b\r\n")
}

func TestConvert_XLSX(t *testing.T) {
	input := writeInput(t, t.TempDir(), "dump.xml", sampleDump)
	outDir := t.TempDir()
	cfg := config.Default()
	cfg.OutputFormat = config.FormatXLSX
	cfg.VerifyOutput = true

	result := New(cfg).Convert(input, outDir)

	require.Equal(t, Success, result.Status, "err: %v", result.Err)
	assert.Equal(t, filepath.Join(outDir, "dump.xlsx"), result.OutputFile)

	f, err := excelize.OpenFile(result.OutputFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestConvert_RecordsMetrics(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "good.xml", sampleDump)
	bad := writeInput(t, dir, "bad.xml", `<raml`)
	m := metrics.New()
	conv := New(nil, WithMetrics(m))

	conv.Convert(good, t.TempDir())
	conv.Convert(bad, t.TempDir())

	count, err := testutil.GatherAndCount(m.Registry(), "raml2csv_conversions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOutputPath(t *testing.T) {
	out := filepath.Join("out")

	assert.Equal(t, filepath.Join(out, "dump.csv"), OutputPath(filepath.Join("in", "dump.xml"), out, ".csv"))
	assert.Equal(t, filepath.Join(out, "site.v2.csv"), OutputPath("site.v2.XML", out, ".csv"))
	assert.Equal(t, filepath.Join(out, "noext.xlsx"), OutputPath("noext", out, ".xlsx"))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "nothing_extracted", NothingExtracted.String())
	assert.Equal(t, "invalid_input", InvalidInput.String())
	assert.Equal(t, "parse_error", ParseError.String())
	assert.Equal(t, "write_error", WriteError.String())
}
