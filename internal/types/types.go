// =============================================================================
// RAML XML to CSV Converter - Shared Types
// =============================================================================
//
// This package contains the row types shared by the flattener and the
// exporters. Types defined here are used by:
//   - raml       (produces rows)
//   - csvwriter  (renders rows as CSV)
//   - xlsxwriter (renders rows as XLSX)
//   - converter  (orchestrates the above)
//
// A Row has no fixed schema. Every managed object may carry a different set
// of properties, so a Row is an ordered mapping and the table header is only
// known after a key-union pass over the whole RowSet.
//
// =============================================================================

package types

// =============================================================================
// FIXED COLUMNS
// =============================================================================

// Fixed column names present in every row, in output order.
const (
	ColumnFilename = "FILENAME"
	ColumnDateTime = "DATETIME"
	ColumnVersion  = "VERSION"
	ColumnDistName = "DISTNAME"
	ColumnMOID     = "MOID"
)

// FixedColumns lists the fixed columns in the order they are inserted.
var FixedColumns = []string{
	ColumnFilename,
	ColumnDateTime,
	ColumnVersion,
	ColumnDistName,
	ColumnMOID,
}

// =============================================================================
// ROW
// =============================================================================

// Row is an ordered mapping from column name to value.
//
// Keys keep their first insertion position. Setting a key that already
// exists replaces the value in place (last write wins).
type Row struct {
	keys   []string
	values map[string]string
}

// NewRow creates an empty Row.
func NewRow() *Row {
	return &Row{
		values: make(map[string]string),
	}
}

// Set assigns value to key, appending the key if it is new.
func (r *Row) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key and whether the key is present.
func (r *Row) Get(key string) (string, bool) {
	value, ok := r.values[key]
	return value, ok
}

// Value returns the value for key, or "" if the key is absent.
func (r *Row) Value(key string) string {
	return r.values[key]
}

// Keys returns the row's keys in insertion order.
// The returned slice is a copy.
func (r *Row) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of keys in the row.
func (r *Row) Len() int {
	return len(r.keys)
}

// Map returns the row as a plain map. Order is lost.
func (r *Row) Map() map[string]string {
	m := make(map[string]string, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// =============================================================================
// ROW SET
// =============================================================================

// RowSet is the ordered sequence of rows produced for one document.
type RowSet []*Row

// Header returns the union of all keys across the set, in first-seen order.
//
// The result is deterministic for identical input: rows are scanned in
// order and each row's keys in insertion order.
func (rs RowSet) Header() []string {
	seen := make(map[string]struct{})
	var header []string

	for _, row := range rs {
		if row == nil {
			continue
		}
		for _, key := range row.keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			header = append(header, key)
		}
	}

	return header
}

// Records renders the set as string records aligned to header.
// Keys missing from a row become empty fields.
func (rs RowSet) Records(header []string) [][]string {
	records := make([][]string, 0, len(rs))
	for _, row := range rs {
		record := make([]string, len(header))
		if row != nil {
			for i, key := range header {
				record[i] = row.values[key]
			}
		}
		records = append(records, record)
	}
	return records
}
