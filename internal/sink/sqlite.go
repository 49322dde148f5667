package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// progressEvery is how many rows are written between progress callbacks and
// cancellation checks.
const progressEvery = 1000

// ProgressFunc receives the number of rows written so far.
type ProgressFunc func(done, total int)

// WriteSQLite writes t into the SQLite database at path, replacing any table
// of the same name. All rows go in one transaction.
func WriteSQLite(ctx context.Context, path string, t *Table, onProgress ProgressFunc) error {
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(t.Name)); err != nil {
		return fmt.Errorf("drop table %s: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, createTable(t, sqliteType)); err != nil {
		return fmt.Errorf("create table %s: %w", t.Name, err)
	}

	placeholders := make([]string, len(t.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quote(t.Name), strings.Join(placeholders, ","))

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	total := t.Len()
	for i := 0; i < total; i++ {
		if i%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if onProgress != nil && i > 0 {
				onProgress(i, total)
			}
		}
		vals := t.Values(i)
		for j, v := range vals {
			// SQLite has no boolean type
			if b, ok := v.(bool); ok {
				vals[j] = boolInt(b)
			}
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return fmt.Errorf("insert into %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	if onProgress != nil {
		onProgress(total, total)
	}
	return nil
}

func sqliteType(k Kind) string {
	switch k {
	case KindReal:
		return "REAL"
	case KindBool:
		return "INTEGER"
	}
	return "TEXT"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// createTable renders CREATE TABLE for t using typeName for column types.
func createTable(t *Table, typeName func(Kind) string) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = quote(c.Name) + " " + typeName(c.Kind)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(t.Name), strings.Join(defs, ", "))
}
