package exporter

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/salespipe/salespipe/internal/aggregator"
	"github.com/salespipe/salespipe/internal/cleaner"
	"github.com/salespipe/salespipe/internal/dataset"
	"github.com/salespipe/salespipe/internal/enricher"
	"github.com/salespipe/salespipe/internal/loader"
	"github.com/salespipe/salespipe/internal/reference"
)

func testBundle(t *testing.T, dims ...aggregator.Dimension) Bundle {
	t.Helper()
	table, err := loader.DefaultRegistry().Open("../../testdata/sales_raw.csv")
	require.NoError(t, err)

	c := cleaner.New(cleaner.Options{MinUnitsSold: 1, Regions: reference.NewService(reference.DefaultEntries())})
	records, _ := c.Clean(table.Rows)
	enricher.Enrich(records)

	b := Bundle{Records: records}
	for _, d := range dims {
		b.Summaries = append(b.Summaries, Summaries{Dimension: string(d), Rows: aggregator.GroupBy(records, d)})
	}
	return b
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestNew_Formats(t *testing.T) {
	e, err := New(t.TempDir(), []string{"sqlite", "CSV", "xlsx"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{FormatCSV, FormatXLSX, FormatSQLite}, e.Formats())

	e, err = New(t.TempDir(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{FormatCSV}, e.Formats(), "csv is always on")

	_, err = New(t.TempDir(), []string{"parquet"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parquet")
}

func TestExport_CSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	e, err := New(dir, []string{FormatCSV}, nil)
	require.NoError(t, err)

	paths, err := e.Export(context.Background(), testBundle(t, aggregator.Region, aggregator.Month))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, CleanedFile),
		filepath.Join(dir, "summary_by_month.csv"),
		filepath.Join(dir, "summary_by_region.csv"),
	}, paths)

	cleaned := readLines(t, filepath.Join(dir, CleanedFile))
	assert.Len(t, cleaned, 7)
	assert.Equal(t, dataset.Header, cleaned[0])

	region := readLines(t, filepath.Join(dir, "summary_by_region.csv"))
	require.Len(t, region, 6)
	assert.Equal(t, "region,"+dataset.SummaryColumns, region[0])
	assert.True(t, strings.HasPrefix(region[1], "Bangalore,1,1,1500.00,"), region[1])

	month := readLines(t, filepath.Join(dir, "summary_by_month.csv"))
	assert.Len(t, month, 6)
}

func TestExport_Idempotent(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir, nil, nil)
	require.NoError(t, err)
	b := testBundle(t, aggregator.Region)

	_, err = e.Export(context.Background(), b)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, CleanedFile))
	require.NoError(t, err)
	firstSummary, err := os.ReadFile(filepath.Join(dir, SummaryFile("region")))
	require.NoError(t, err)

	_, err = e.Export(context.Background(), testBundle(t, aggregator.Region))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, CleanedFile))
	require.NoError(t, err)
	secondSummary, err := os.ReadFile(filepath.Join(dir, SummaryFile("region")))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstSummary, secondSummary)
}

func TestExport_TruncatesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CleanedFile), []byte(strings.Repeat("stale\n", 500)), 0o644))

	e, err := New(dir, nil, nil)
	require.NoError(t, err)
	_, err = e.Export(context.Background(), testBundle(t))
	require.NoError(t, err)

	lines := readLines(t, filepath.Join(dir, CleanedFile))
	assert.Len(t, lines, 7)
	assert.NotContains(t, lines, "stale")
}

func TestExport_ReadBack(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir, nil, nil)
	require.NoError(t, err)
	b := testBundle(t)
	_, err = e.Export(context.Background(), b)
	require.NoError(t, err)

	got, err := dataset.ReadFile(filepath.Join(dir, CleanedFile))
	require.NoError(t, err)
	require.Len(t, got, len(b.Records))
	for i := range got {
		assert.Equal(t, b.Records[i].OrderID, got[i].OrderID)
		assert.True(t, b.Records[i].Revenue.Equal(got[i].Revenue))
	}
}

func TestExport_XLSX(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir, []string{FormatXLSX}, nil)
	require.NoError(t, err)

	paths, err := e.Export(context.Background(), testBundle(t, aggregator.Region))
	require.NoError(t, err)
	assert.Contains(t, paths, filepath.Join(dir, WorkbookFile))

	f, err := excelize.OpenFile(filepath.Join(dir, WorkbookFile))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"cleaned_sales", "summary_by_region"}, f.GetSheetList())

	rows, err := f.GetRows("cleaned_sales")
	require.NoError(t, err)
	assert.Len(t, rows, 7)
	assert.Equal(t, "Order_ID", rows[0][0])
	assert.Equal(t, "2000-1", rows[1][0])

	revenue, err := f.GetCellValue("cleaned_sales", "M2")
	require.NoError(t, err)
	assert.Equal(t, "200", revenue)

	regions, err := f.GetRows("summary_by_region")
	require.NoError(t, err)
	assert.Len(t, regions, 6)
	assert.Equal(t, "Bangalore", regions[1][0])
}

func TestExport_SQLite(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir, []string{FormatSQLite}, nil)
	require.NoError(t, err)
	b := testBundle(t, aggregator.Region)

	// Twice: the second run must replace the first.
	for i := 0; i < 2; i++ {
		_, err = e.Export(context.Background(), b)
		require.NoError(t, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cleaned_sales`).Scan(&n))
	assert.Equal(t, 6, n)

	var total float64
	require.NoError(t, db.QueryRow(`SELECT SUM("Revenue") FROM cleaned_sales`).Scan(&total))
	assert.InDelta(t, 2310.0, total, 0.001)

	var units int
	require.NoError(t, db.QueryRow(`SELECT "Units_Sold" FROM cleaned_sales WHERE "Order_ID" = '2000-6'`).Scan(&units))
	assert.Equal(t, 2, units)

	var pune float64
	require.NoError(t, db.QueryRow(`SELECT revenue FROM summary_by_region WHERE region = 'Pune'`).Scan(&pune))
	assert.InDelta(t, 80.0, pune, 0.001)
}

func TestExport_AllFormats(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir, []string{FormatCSV, FormatXLSX, FormatSQLite}, nil)
	require.NoError(t, err)

	paths, err := e.Export(context.Background(), testBundle(t, aggregator.Category))
	require.NoError(t, err)
	assert.Len(t, paths, 4)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
}

func TestExport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := New(t.TempDir(), nil, nil)
	require.NoError(t, err)
	_, err = e.Export(ctx, testBundle(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExport_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	e, err := New(filepath.Join(file, "out"), nil, nil)
	require.NoError(t, err)
	_, err = e.Export(context.Background(), testBundle(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating output dir")
}
