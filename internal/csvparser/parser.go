// =============================================================================
// RAML XML to CSV Converter - CSV Parser Module
// =============================================================================
//
// This module reads back a CSV file produced by the csv writer. It is used to
// verify exported files: the parsed header and rows must match what was
// written.
//
// Values are returned verbatim. Unlike a general-purpose reader, nothing is
// trimmed and no row is skipped, so an exported table round-trips exactly
// (an empty field and a missing key both read back as "").
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents a parsed CSV file.
type CSVData struct {
	// Headers contains the column headers in file order.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string

	// RawRows contains the data rows as read, excluding the header.
	RawRows [][]string

	// SourceFile is the path the data was read from.
	SourceFile string
}

// RowCount returns the number of data rows.
func (d *CSVData) RowCount() int {
	return len(d.Rows)
}

// ColumnCount returns the number of columns.
func (d *CSVData) ColumnCount() int {
	return len(d.Headers)
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Settings controls the CSV dialect.
type Settings struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
}

// Parse reads the CSV file at filePath.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: The dialect the file was written with.
//
// RETURNS:
//   - The parsed data. An empty file yields no headers and no rows.
//   - An error if the file cannot be opened or is not valid CSV.
func Parse(filePath string, settings Settings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := Read(bufio.NewReader(file), settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath

	return data, nil
}

// Read parses CSV data from r.
func Read(r io.Reader, settings Settings) (*CSVData, error) {
	reader := csv.NewReader(r)
	configureReader(reader, settings)

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	data := &CSVData{
		Rows: []map[string]string{},
	}
	if len(allRows) == 0 {
		return data, nil
	}

	data.Headers = allRows[0]
	data.RawRows = allRows[1:]

	for i, record := range data.RawRows {
		if len(record) != len(data.Headers) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+2, len(record), len(data.Headers))
		}
		row := make(map[string]string, len(record))
		for col, header := range data.Headers {
			row[header] = record[col]
		}
		data.Rows = append(data.Rows, row)
	}

	return data, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings) {
	if settings.Delimiter != 0 {
		reader.Comma = settings.Delimiter
	}

	// The writer always emits rectangular tables; anything else is corrupt.
	reader.FieldsPerRecord = 0
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// ErrColumnNotFound is returned by Column for an unknown header.
var ErrColumnNotFound = errors.New("column not found")

// Column returns all values of the named column in row order.
func Column(data *CSVData, header string) ([]string, error) {
	found := false
	for _, h := range data.Headers {
		if h == header {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, header)
	}

	values := make([]string, len(data.Rows))
	for i, row := range data.Rows {
		values[i] = row[header]
	}
	return values, nil
}
