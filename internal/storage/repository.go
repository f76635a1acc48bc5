// Package storage persists entity records in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadAll returns every record for the owner and kind, oldest first.
func (r *SQLiteRepository) LoadAll(ctx context.Context, kind core.EntityKind, owner string) ([]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT body FROM records WHERE owner_id = ? AND kind = ? ORDER BY created_at, id`,
		owner, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	slog.DebugContext(ctx, "Loaded records from SQLite",
		"kind", kind, "owner", owner, "count", len(records))

	return records, nil
}

// Insert stores a new record under the given id.
func (r *SQLiteRepository) Insert(ctx context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO records (owner_id, kind, id, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		owner, string(kind), id, []byte(record))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite", "kind", kind, "id", id)
	return nil
}

// Update replaces the record with the given id.
func (r *SQLiteRepository) Update(ctx context.Context, kind core.EntityKind, owner, id string, record json.RawMessage) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records SET body = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE owner_id = ? AND kind = ? AND id = ?`,
		[]byte(record), owner, string(kind), id)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update %s/%s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

// Delete removes the record with the given id.
func (r *SQLiteRepository) Delete(ctx context.Context, kind core.EntityKind, owner, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE owner_id = ? AND kind = ? AND id = ?`,
		owner, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete %s/%s: %w", kind, id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Record deleted from SQLite", "kind", kind, "id", id)
	return nil
}

// Count returns the number of stored records for the owner and kind.
func (r *SQLiteRepository) Count(ctx context.Context, kind core.EntityKind, owner string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE owner_id = ? AND kind = ?`,
		owner, string(kind)).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}
