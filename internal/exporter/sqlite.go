package exporter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteSink writes sales.sqlite with one table per bundle table. The
// database is recreated on every run.
type SQLiteSink struct{}

func (s *SQLiteSink) Format() string { return FormatSQLite }

func (s *SQLiteSink) Write(ctx context.Context, dir string, b Bundle) ([]string, error) {
	path := filepath.Join(dir, DatabaseFile)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("removing old database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables(b) {
		if err := writeTable(ctx, tx, t); err != nil {
			return nil, fmt.Errorf("table %s: %w", t.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return []string{path}, nil
}

var sqlTypes = map[kind]string{kindText: "TEXT", kindInt: "INTEGER", kindReal: "REAL"}

func writeTable(ctx context.Context, tx *sql.Tx, t table) error {
	kinds := t.kinds()
	defs := make([]string, len(t.header))
	cols := make([]string, len(t.header))
	for i, h := range t.header {
		cols[i] = fmt.Sprintf("%q", h)
		defs[i] = fmt.Sprintf("%q %s", h, sqlTypes[kinds[i]])
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, t.name)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, t.name, strings.Join(defs, ","))); err != nil {
		return err
	}

	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, t.name, strings.Join(cols, ","), ph))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range t.rows {
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = typed(kinds[i], v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}
