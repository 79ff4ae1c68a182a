// =============================================================================
// RAML XML to CSV Converter - XLSX Writer Module
// =============================================================================
//
// This module renders a RowSet as a single-sheet XLSX workbook, for users who
// open the export in a spreadsheet application rather than feed it to a tool.
//
// SHEET LAYOUT:
//   Row 1 holds the header (same key union as the CSV writer) and is frozen.
//   Each following row holds one managed object. Every cell is written as a
//   string so identifiers such as "0012" keep their leading zeros.
//
// CUSTOMIZATION:
//   - Pass a different sheet name to Export
//   - Add column widths or styles after the rows are written
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/csvwriter"
	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/types"
)

// DefaultSheetName is used when Export is given an empty sheet name.
const DefaultSheetName = "ManagedObjects"

// maxSheetNameLength is the longest sheet name Excel accepts.
const maxSheetNameLength = 31

// =============================================================================
// EXPORT
// =============================================================================

// Export writes rows to a new workbook at destinationPath, replacing any
// existing file.
//
// PARAMETERS:
//   - rows: The rows to write.
//   - destinationPath: The full output path. Its directory must exist.
//   - sheetName: The worksheet name. Invalid characters are replaced.
//
// RETURNS:
//   - An error wrapping csvwriter.ErrWrite if the workbook cannot be built
//     or saved.
func Export(rows types.RowSet, destinationPath, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SanitizeSheetName(sheetName)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("%w: failed to name sheet %q: %v", csvwriter.ErrWrite, sheet, err)
	}

	header := rows.Header()
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, record := range rows.Records(header) {
		if err := writeRow(f, sheet, i+2, record); err != nil {
			return err
		}
	}

	if len(header) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("%w: failed to freeze header: %v", csvwriter.ErrWrite, err)
		}
	}

	if err := f.SaveAs(destinationPath); err != nil {
		return fmt.Errorf("%w: failed to save %s: %v", csvwriter.ErrWrite, destinationPath, err)
	}

	return nil
}

// writeRow writes values starting at column A of the given 1-based row.
func writeRow(f *excelize.File, sheet string, rowNumber int, values []string) error {
	if len(values) == 0 {
		return nil
	}

	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return fmt.Errorf("%w: %v", csvwriter.ErrWrite, err)
	}

	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}

	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("%w: failed to write row %d: %v", csvwriter.ErrWrite, rowNumber, err)
	}
	return nil
}

// SanitizeSheetName makes name acceptable as an Excel worksheet name.
func SanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))

	name = strings.Trim(name, "'")
	if name == "" {
		return DefaultSheetName
	}

	if runes := []rune(name); len(runes) > maxSheetNameLength {
		name = string(runes[:maxSheetNameLength])
	}
	return name
}
