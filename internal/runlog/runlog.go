// Package runlog keeps an append-only CSV history of pipeline runs.
package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp   time.Time
	RunID       string
	Input       string
	Status      string
	RowsRead    int
	RowsWritten int
	RowsDropped int
	Revenue     decimal.Decimal
	Profit      decimal.Decimal
	Duration    time.Duration
	CommitHash  string
	Error       string
}

// Header is the CSV header for run-log.csv.
const Header = "timestamp,run_id,input,status,rows_read,rows_written,rows_dropped,revenue,profit,duration_ms,commit_hash,error"

const (
	numFields      = 12
	colTimestamp   = 0
	colRunID       = 1
	colInput       = 2
	colStatus      = 3
	colRowsRead    = 4
	colRowsWritten = 5
	colRowsDropped = 6
	colRevenue     = 7
	colProfit      = 8
	colDuration    = 9
	colCommitHash  = 10
	colError       = 11
)

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colInput] = e.Input
	row[colStatus] = e.Status
	row[colRowsRead] = strconv.Itoa(e.RowsRead)
	row[colRowsWritten] = strconv.Itoa(e.RowsWritten)
	row[colRowsDropped] = strconv.Itoa(e.RowsDropped)
	row[colRevenue] = e.Revenue.StringFixed(2)
	row[colProfit] = e.Profit.StringFixed(2)
	row[colDuration] = strconv.FormatInt(e.Duration.Milliseconds(), 10)
	row[colCommitHash] = e.CommitHash
	row[colError] = e.Error
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	if _, err := uuid.Parse(record[colRunID]); err != nil {
		return Entry{}, fmt.Errorf("parsing run_id %q: %w", record[colRunID], err)
	}

	e := Entry{
		Timestamp:  ts,
		RunID:      record[colRunID],
		Input:      record[colInput],
		Status:     record[colStatus],
		CommitHash: record[colCommitHash],
		Error:      record[colError],
	}

	ints := []struct {
		col  int
		name string
		dst  *int
	}{
		{colRowsRead, "rows_read", &e.RowsRead},
		{colRowsWritten, "rows_written", &e.RowsWritten},
		{colRowsDropped, "rows_dropped", &e.RowsDropped},
	}
	for _, f := range ints {
		n, err := strconv.Atoi(record[f.col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing %s %q: %w", f.name, record[f.col], err)
		}
		*f.dst = n
	}

	if e.Revenue, err = decimal.NewFromString(record[colRevenue]); err != nil {
		return Entry{}, fmt.Errorf("parsing revenue %q: %w", record[colRevenue], err)
	}
	if e.Profit, err = decimal.NewFromString(record[colProfit]); err != nil {
		return Entry{}, fmt.Errorf("parsing profit %q: %w", record[colProfit], err)
	}
	ms, err := strconv.ParseInt(record[colDuration], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing duration_ms %q: %w", record[colDuration], err)
	}
	e.Duration = time.Duration(ms) * time.Millisecond
	return e, nil
}

// Append writes entries to the log at path, creating the file and header if needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from the log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Last returns the most recent n entries, oldest first.
func Last(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}
