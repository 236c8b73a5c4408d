package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/salespipe/salespipe/internal/dataset"
)

// CSVSink writes cleaned_sales.csv and one summary_by_<dim>.csv per dimension.
type CSVSink struct{}

func (s *CSVSink) Format() string { return FormatCSV }

func (s *CSVSink) Write(ctx context.Context, dir string, b Bundle) ([]string, error) {
	cleaned := filepath.Join(dir, CleanedFile)
	if err := writeFile(cleaned, func(f *os.File) error {
		return dataset.WriteTransactions(f, b.Records)
	}); err != nil {
		return nil, err
	}
	paths := []string{cleaned}

	for _, sum := range b.Summaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, SummaryFile(sum.Dimension))
		if err := writeFile(path, func(f *os.File) error {
			return dataset.WriteSummaries(f, sum.Dimension, sum.Rows)
		}); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	return nil
}
