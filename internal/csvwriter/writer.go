// =============================================================================
// RAML XML to CSV Converter - CSV Writer Module
// =============================================================================
//
// This module renders a RowSet as a CSV table.
//
// OUTPUT LAYOUT:
//   - Header: union of all row keys in first-seen order
//   - Body: one record per row, aligned to the header
//   - Missing keys: empty field
//
// QUOTING:
//   Standard CSV rules via encoding/csv. Fields containing the delimiter,
//   a quote or a line break are quoted and embedded quotes are doubled.
//
// The writer is deterministic: the same RowSet always produces the same
// bytes, so re-exporting to the same path yields an identical file.
//
// =============================================================================

package csvwriter

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/types"
)

// ErrWrite is wrapped by every error caused by the destination.
var ErrWrite = errors.New("write error")

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls the CSV dialect.
type Options struct {
	// Delimiter separates fields. Default: ','
	Delimiter rune

	// UseCRLF terminates lines with \r\n instead of \n.
	UseCRLF bool
}

// DefaultOptions returns comma-delimited, \n-terminated output.
func DefaultOptions() Options {
	return Options{
		Delimiter: ',',
	}
}

// =============================================================================
// EXPORT
// =============================================================================

// Export writes rows to destinationPath, replacing any existing file.
//
// PARAMETERS:
//   - rows: The rows to write. An empty set writes an empty file.
//   - destinationPath: The full output path. Its directory must exist.
//   - opts: The CSV dialect.
//
// RETURNS:
//   - An error wrapping ErrWrite if the file cannot be created or written.
//     A partially written file is left in place.
func Export(rows types.RowSet, destinationPath string, opts Options) error {
	file, err := os.Create(destinationPath)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", ErrWrite, destinationPath, err)
	}

	buffered := bufio.NewWriter(file)
	if err := Encode(buffered, rows, opts); err != nil {
		file.Close()
		return fmt.Errorf("%w: failed to write %s: %v", ErrWrite, destinationPath, err)
	}
	if err := buffered.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("%w: failed to flush %s: %v", ErrWrite, destinationPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", ErrWrite, destinationPath, err)
	}

	return nil
}

// Encode renders rows as CSV to w.
func Encode(w io.Writer, rows types.RowSet, opts Options) error {
	if len(rows) == 0 {
		return nil
	}

	writer := csv.NewWriter(w)
	configureWriter(writer, opts)

	header := rows.Header()
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows.Records(header)); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	return nil
}

// configureWriter applies opts to the CSV writer.
func configureWriter(writer *csv.Writer, opts Options) {
	if opts.Delimiter != 0 {
		writer.Comma = opts.Delimiter
	}
	writer.UseCRLF = opts.UseCRLF
}
