package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Postgres stores documents as JSONB rows in a single table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open connection. Run Migrate first.
func NewPostgres(db *DB) *Postgres {
	return &Postgres{db: db.Client}
}

// Create inserts a document.
func (p *Postgres) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	id := uuid.NewString()
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO documents (id, collection, fields)
		VALUES ($1, $2, $3::jsonb)
	`, id, collection, string(body))
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

// List returns all documents of a collection ordered by insertion.
func (p *Postgres) List(ctx context.Context, collection string) ([]Document, error) {
	return p.Query(ctx, collection)
}

// Query filters with JSONB containment, which keeps value types exact.
func (p *Postgres) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	query := `SELECT id, fields FROM documents WHERE collection = $1`
	args := []any{collection}
	if len(filters) > 0 {
		cond := make(map[string]any, len(filters))
		for _, f := range filters {
			cond[f.Field] = f.Value
		}
		body, err := json.Marshal(cond)
		if err != nil {
			return nil, fmt.Errorf("encode filters: %w", err)
		}
		query += ` AND fields @> $2::jsonb`
		args = append(args, string(body))
	}
	query += ` ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Update merges fields into the stored document.
func (p *Postgres) Update(ctx context.Context, collection, id string, fields Fields) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE documents
		SET fields = fields || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, string(body))
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return affected(res)
}

// Delete removes a document.
func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return affected(res)
}

// Close closes the pool.
func (p *Postgres) Close() error { return p.db.Close() }

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		fields := Fields{}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		out = append(out, Document{ID: id, Fields: fields})
	}
	return out, rows.Err()
}
