package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Collections used by the application.
const (
	CollectionAdmin       = "admin"
	CollectionStudents    = "students"
	CollectionSessions    = "sessions"
	CollectionAttendances = "attendances"
	CollectionCourses     = "courses"
)

// ErrNotFound is returned by Update and Delete when no document has the given id.
var ErrNotFound = errors.New("document not found")

// Fields is the free-form body of a document.
type Fields map[string]any

// Document is a stored record and its store-assigned id.
type Document struct {
	ID     string
	Fields Fields
}

// Filter is a single field equality condition.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter { return Filter{Field: field, Value: value} }

// Store is a keyed-collection document store. List and Query return documents
// in insertion order.
type Store interface {
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateFilters(filters []Filter) error {
	for _, f := range filters {
		if !fieldName.MatchString(f.Field) {
			return fmt.Errorf("invalid filter field %q", f.Field)
		}
	}
	return nil
}

func (f Fields) clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
