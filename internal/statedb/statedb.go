// Package statedb provides scoped access to the editor's key/value state
// store, a SQLite database with a single ItemTable(key, value) table.
//
// Every accessor opens the store, acts, and closes it within one operation;
// no handle outlives a call. The store belongs to the editor, so no schema
// or journal-mode changes are applied here - only a busy timeout in case
// the editor still holds the file.
package statedb

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Marker is the case-sensitive substring identifying third-party plugin
// rows. The filter must stay exactly this token to interoperate with the
// existing store contents.
const Marker = "augment"

const matchFilter = "key LIKE '%augment%'"

// Entry is one key/value row from the store.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DB wraps an open handle on the state store.
type DB struct {
	db *sql.DB
}

// Open opens the state store at path. The file must already exist; this
// package never creates a store.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("state store not found: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to state store: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// against ourselves, and the timeout covers the editor holding a lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &DB{db: db}, nil
}

// Close releases the store handle.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// CountMatching returns the number of rows whose key contains the marker.
func (d *DB) CountMatching(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ItemTable WHERE "+matchFilter).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count matching rows: %w", err)
	}
	return count, nil
}

// Matching returns the rows whose key contains the marker.
func (d *DB) Matching(ctx context.Context) ([]Entry, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT key, value FROM ItemTable WHERE "+matchFilter)
	if err != nil {
		return nil, fmt.Errorf("query matching rows: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// DeleteMatching removes every row whose key contains the marker in one
// transaction and returns the number removed.
func (d *DB) DeleteMatching(ctx context.Context) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete matching rows: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, "DELETE FROM ItemTable WHERE "+matchFilter)
	if err != nil {
		return 0, fmt.Errorf("delete matching rows: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete matching rows: count affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete matching rows: commit: %w", err)
	}
	return removed, nil
}

// Info is a read-only snapshot of the store, used by status reporting.
type Info struct {
	TotalEntries    int   `json:"total_entries"`
	MatchingEntries int   `json:"matching_entries"`
	FileSize        int64 `json:"file_size"`
}

// Inspect opens the store at path, gathers an Info snapshot, and closes it.
func Inspect(ctx context.Context, path string) (Info, error) {
	db, err := Open(path)
	if err != nil {
		return Info{}, err
	}
	defer db.Close()

	var info Info
	if err := db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ItemTable").Scan(&info.TotalEntries); err != nil {
		return Info{}, fmt.Errorf("count rows: %w", err)
	}
	if info.MatchingEntries, err = db.CountMatching(ctx); err != nil {
		return Info{}, err
	}
	if fi, err := os.Stat(path); err == nil {
		info.FileSize = fi.Size()
	}
	return info, nil
}
