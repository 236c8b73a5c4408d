package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/salespipe/salespipe/internal/model"
)

var (
	// ErrNoRecords means the input had a header but no data rows, or nothing at all.
	ErrNoRecords = errors.New("no records")
	// ErrMissingColumn means a required column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")
)

// Table is a parsed input file before cleaning.
type Table struct {
	Columns []string // canonical names present, in source order
	Ignored []string // source headers that map to no known column
	Rows    []model.RawRow
}

const utf8BOM = "\ufeff"

// buildTable maps a header row plus data rows to a Table. Every data row must
// have exactly as many fields as the header. lines holds the source line each
// record starts on; nil means one line per record.
func buildTable(records [][]string, lines []int) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	header := records[0]
	index := make(map[string]int, len(header)) // canonical -> source column
	t := &Table{}
	for i, h := range header {
		name := canonicalColumn(h)
		if name == "" {
			t.Ignored = append(t.Ignored, strings.TrimSpace(h))
			continue
		}
		if _, dup := index[name]; dup {
			t.Ignored = append(t.Ignored, strings.TrimSpace(h))
			continue
		}
		index[name] = i
		t.Columns = append(t.Columns, name)
	}

	var missing []string
	for _, col := range model.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	if len(records) == 1 {
		return nil, ErrNoRecords
	}

	t.Rows = make([]model.RawRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if lines != nil {
			line = lines[i+1]
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", line, len(header), len(rec))
		}
		values := make(map[string]string, len(index))
		for name, col := range index {
			values[name] = strings.TrimSpace(rec[col])
		}
		t.Rows = append(t.Rows, model.RawRow{Line: line, Values: values})
	}
	return t, nil
}

// canonicalColumn resolves a source header to a canonical column name, or "".
// Matching ignores case and treats spaces as underscores.
func canonicalColumn(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
	if h == "" {
		return ""
	}
	key := strings.ReplaceAll(h, " ", "_")
	for _, cols := range [][]string{model.RequiredColumns, model.OptionalColumns} {
		for _, col := range cols {
			if strings.EqualFold(key, col) {
				return col
			}
		}
	}
	return model.ColumnAliases[strings.ToLower(key)]
}
