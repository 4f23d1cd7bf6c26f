package store

import (
	"context"
	"fmt"
	"time"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string // memory, postgres or sqlite
	DatabaseURL string
	SQLitePath  string
	Timeout     time.Duration
}

// Open builds the configured backend wrapped with per-call timeouts.
func Open(ctx context.Context, opts Options) (Store, error) {
	var backend Store
	switch opts.Backend {
	case "", "memory":
		backend = NewMemory()
	case "postgres":
		if err := Migrate(opts.DatabaseURL); err != nil {
			return nil, err
		}
		db, err := NewDB(ctx, opts.DatabaseURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		backend = NewPostgres(db)
	case "sqlite":
		s, err := NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		backend = s
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	return WithTimeout(backend, opts.Timeout), nil
}
