// Package exporter writes the cleaned table and summary tables to disk.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/salespipe/salespipe/internal/logging"
	"github.com/salespipe/salespipe/internal/model"
)

// Output formats.
const (
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatSQLite = "sqlite"
)

// Output file names.
const (
	CleanedFile   = "cleaned_sales.csv"
	WorkbookFile  = "sales_dashboard.xlsx"
	DatabaseFile  = "sales.sqlite"
	cleanedTable  = "cleaned_sales"
	summaryPrefix = "summary_by_"
)

// SummaryFile returns the CSV file name for a dimension's summary table.
func SummaryFile(dimension string) string {
	return summaryPrefix + dimension + ".csv"
}

// Summaries is one dimension's summary table.
type Summaries struct {
	Dimension string
	Rows      []model.Summary
}

// Bundle is everything one run exports.
type Bundle struct {
	Records   []model.Transaction
	Summaries []Summaries
}

// Sink writes a Bundle in one format and returns the paths it wrote.
type Sink interface {
	Format() string
	Write(ctx context.Context, dir string, b Bundle) ([]string, error)
}

// Exporter fans a Bundle out to its sinks.
type Exporter struct {
	dir   string
	sinks []Sink
	log   *slog.Logger
}

// New creates an Exporter writing into dir. CSV output is always enabled;
// formats may add xlsx and sqlite. A nil logger discards.
func New(dir string, formats []string, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	e := &Exporter{dir: dir, log: logger}

	enabled := map[string]bool{FormatCSV: true}
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case FormatCSV, FormatXLSX, FormatSQLite:
			enabled[f] = true
		default:
			return nil, fmt.Errorf("unknown output format %q", f)
		}
	}
	for _, f := range []string{FormatCSV, FormatXLSX, FormatSQLite} {
		if !enabled[f] {
			continue
		}
		switch f {
		case FormatCSV:
			e.sinks = append(e.sinks, &CSVSink{})
		case FormatXLSX:
			e.sinks = append(e.sinks, &XLSXSink{})
		case FormatSQLite:
			e.sinks = append(e.sinks, &SQLiteSink{})
		}
	}
	return e, nil
}

// Formats returns the enabled formats in write order.
func (e *Exporter) Formats() []string {
	out := make([]string, len(e.sinks))
	for i, s := range e.sinks {
		out[i] = s.Format()
	}
	return out
}

// Export runs every sink concurrently and returns the written paths, sorted.
// Previous files with the same names are replaced.
func (e *Exporter) Export(ctx context.Context, b Bundle) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	results := make([][]string, len(e.sinks))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range e.sinks {
		i, s := i, s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			paths, err := s.Write(ctx, e.dir, b)
			if err != nil {
				return fmt.Errorf("%s export: %w", s.Format(), err)
			}
			results[i] = paths
			e.log.Debug("sink finished", "format", s.Format(), "files", len(paths))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var paths []string
	for _, r := range results {
		paths = append(paths, r...)
	}
	sort.Strings(paths)
	return paths, nil
}
