// =============================================================================
// RAML XML to CSV Converter - XLSX Parser Module
// =============================================================================
//
// This module reads back a workbook produced by the xlsx writer so exported
// files can be verified the same way as CSV exports.
//
// SHEET LAYOUT:
//   The first row of the sheet is the header. Every following row is data.
//   Cells missing at the end of a row read back as "".
//
// CUSTOMIZATION:
//   - Pass a sheet name to ParseSheet to read something other than the
//     first sheet
//
// =============================================================================

package xlsxparser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// SHEET DATA STRUCTURE
// =============================================================================

// SheetData represents one parsed worksheet.
type SheetData struct {
	// SheetName is the worksheet that was read.
	SheetName string

	// Headers contains the column headers from row 1.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string

	// SourceFile is the path the workbook was read from.
	SourceFile string
}

// RowCount returns the number of data rows.
func (d *SheetData) RowCount() int {
	return len(d.Rows)
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the first worksheet of the workbook at path.
func Parse(path string) (*SheetData, error) {
	return ParseSheet(path, "")
}

// ParseSheet reads the named worksheet of the workbook at path.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - sheetName: The worksheet to read. Empty means the first sheet.
//
// RETURNS:
//   - The parsed data.
//   - An error if the file cannot be opened or the sheet cannot be read.
func ParseSheet(path, sheetName string) (*SheetData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheetName = f.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	data := &SheetData{
		SheetName:  sheetName,
		Rows:       []map[string]string{},
		SourceFile: path,
	}
	if len(rows) == 0 {
		return data, nil
	}

	data.Headers = rows[0]
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > len(data.Headers) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(rows[i]), len(data.Headers))
		}
		row := make(map[string]string, len(data.Headers))
		for col, header := range data.Headers {
			if col < len(rows[i]) {
				row[header] = rows[i][col]
			} else {
				row[header] = ""
			}
		}
		data.Rows = append(data.Rows, row)
	}

	return data, nil
}
