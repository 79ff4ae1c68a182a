package csvwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/csvparser"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/types"
)

func row(pairs ...string) *types.Row {
	r := types.NewRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

func sampleRows() types.RowSet {
	return types.RowSet{
		row("FILENAME", "dump.xml", "DATETIME", "2024-01-01T00:00:00", "VERSION", "R1",
			"DISTNAME", "PLMN-1/BTS-1", "MOID", "1", "name", "Site, \"North\"", "note", "line1\nline2"),
		row("FILENAME", "dump.xml", "DATETIME", "2024-01-01T00:00:00", "VERSION", "No version",
			"DISTNAME", "PLMN-1/BTS-2", "MOID", "2", "extra", "x"),
	}
}

func TestEncode_HeaderAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleRows(), DefaultOptions()))

	want := "FILENAME,DATETIME,VERSION,DISTNAME,MOID,name,note,extra\n" +
		"dump.xml,2024-01-01T00:00:00,R1,PLMN-1/BTS-1,1,\"Site, \"\"North\"\"\",\"line1\nline2\",\n" +
		"dump.xml,2024-01-01T00:00:00,No version,PLMN-1/BTS-2,2,,,x\n"
	assert.Equal(t, want, buf.String())
}

func TestEncode_Options(t *testing.T) {
	var buf bytes.Buffer
	rows := types.RowSet{row("a", "1", "b", "x;y")}

	require.NoError(t, Encode(&buf, rows, Options{Delimiter: ';', UseCRLF: true}))

	assert.Equal(t, "a;b\r\n1;\"x;y\"\r\n", buf.String())
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil, DefaultOptions()))
	assert.Empty(t, buf.String())
}

func TestExport_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.csv")
	rows := sampleRows()

	require.NoError(t, Export(rows, path, DefaultOptions()))

	data, err := csvparser.Parse(path, csvparser.Settings{})
	require.NoError(t, err)
	assert.Equal(t, rows.Header(), data.Headers)
	require.Equal(t, len(rows), data.RowCount())

	for i, r := range rows {
		for _, key := range r.Keys() {
			assert.Equal(t, r.Value(key), data.Rows[i][key], "row %d column %s", i, key)
		}
		// Columns absent from the row read back as empty.
		for _, key := range data.Headers {
			if _, ok := r.Get(key); !ok {
				assert.Equal(t, "", data.Rows[i][key])
			}
		}
	}
}

func TestExport_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.csv")
	rows := sampleRows()

	require.NoError(t, Export(rows, path, DefaultOptions()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, Export(rows, path, DefaultOptions()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExport_OverwritesWithoutMerging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.csv")
	require.NoError(t, os.WriteFile(path, []byte("old,content\n1,2\n3,4\n5,6\n"), 0644))

	require.NoError(t, Export(types.RowSet{row("a", "1")}, path, DefaultOptions()))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(got))
}

func TestExport_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist", "dump.csv")

	err := Export(sampleRows(), path, DefaultOptions())

	assert.ErrorIs(t, err, ErrWrite)
	assert.NoFileExists(t, path)
}
