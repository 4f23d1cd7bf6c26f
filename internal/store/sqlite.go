package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores documents as JSON text in a single table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) a database file.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := migrateSQLite(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func migrateSQLite(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL UNIQUE,
		collection  TEXT NOT NULL,
		fields      TEXT NOT NULL DEFAULT '{}',
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLite) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, fields) VALUES (?, ?, ?)`,
		id, collection, string(body),
	); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

func (s *SQLite) List(ctx context.Context, collection string) ([]Document, error) {
	return s.Query(ctx, collection)
}

func (s *SQLite) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	query := `SELECT id, fields FROM documents WHERE collection = ?`
	args := []any{collection}
	for _, f := range filters {
		query += ` AND json_extract(fields, ?) = ?`
		args = append(args, "$."+f.Field, sqliteValue(f.Value))
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Update merges fields into the stored document.
func (s *SQLite) Update(ctx context.Context, collection, id string, fields Fields) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET fields = json_patch(fields, ?) WHERE collection = ? AND id = ?`,
		string(body), collection, id,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return affected(res)
}

func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return affected(res)
}

func (s *SQLite) Close() error { return s.db.Close() }

// json_extract yields 1/0 for JSON booleans.
func sqliteValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
