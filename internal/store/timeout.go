package store

import (
	"context"
	"time"
)

// DefaultTimeout bounds every store call when no deadline is configured.
const DefaultTimeout = 20 * time.Second

// Timeout decorates a Store so each call carries a deadline.
type Timeout struct {
	next    Store
	timeout time.Duration
}

// WithTimeout wraps next. A non-positive d uses DefaultTimeout.
func WithTimeout(next Store, d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timeout{next: next, timeout: d}
}

func (t *Timeout) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Create(ctx, collection, fields)
}

func (t *Timeout) List(ctx context.Context, collection string) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.List(ctx, collection)
}

func (t *Timeout) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Query(ctx, collection, filters...)
}

func (t *Timeout) Update(ctx context.Context, collection, id string, fields Fields) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Update(ctx, collection, id, fields)
}

func (t *Timeout) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Delete(ctx, collection, id)
}

func (t *Timeout) Close() error { return t.next.Close() }
