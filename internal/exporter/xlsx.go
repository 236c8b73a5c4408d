package exporter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// XLSXSink writes sales_dashboard.xlsx with one sheet per table.
type XLSXSink struct{}

func (s *XLSXSink) Format() string { return FormatXLSX }

func (s *XLSXSink) Write(ctx context.Context, dir string, b Bundle) ([]string, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables(b) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.name); err != nil {
				return nil, fmt.Errorf("naming sheet %s: %w", t.name, err)
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return nil, fmt.Errorf("adding sheet %s: %w", t.name, err)
		}
		if err := writeSheet(f, t); err != nil {
			return nil, err
		}
	}

	path := filepath.Join(dir, WorkbookFile)
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("saving workbook: %w", err)
	}
	return []string{path}, nil
}

func writeSheet(f *excelize.File, t table) error {
	header := make([]any, len(t.header))
	for i, h := range t.header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.name, "A1", &header); err != nil {
		return fmt.Errorf("writing %s header: %w", t.name, err)
	}

	kinds := t.kinds()
	for r, row := range t.rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = typed(kinds[i], v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.name, cell, &cells); err != nil {
			return fmt.Errorf("writing %s row %d: %w", t.name, r+2, err)
		}
	}
	return nil
}
