// Package session manages the catalog of course sessions.
package session

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"rollcall/internal/apperr"
	"rollcall/internal/model"
	"rollcall/internal/store"
)

// Fields are the editable session attributes.
type Fields struct {
	CourseCode string `json:"courseCode"`
	CourseName string `json:"courseName"`
	Day        string `json:"day"`
	Time       string `json:"time"`
}

// Validate rejects empty or whitespace-only attributes.
func (f Fields) Validate() error {
	for _, v := range []string{f.CourseCode, f.CourseName, f.Day, f.Time} {
		if strings.TrimSpace(v) == "" {
			return apperr.Validation("Please fill in all fields.")
		}
	}
	return nil
}

func (f Fields) session(id string) model.Session {
	return model.Session{ID: id, CourseCode: f.CourseCode, CourseName: f.CourseName, Day: f.Day, Time: f.Time}
}

// Catalog is CRUD over the sessions collection.
type Catalog struct {
	store  store.Store
	logger *zap.Logger
}

// NewCatalog creates a catalog backed by s.
func NewCatalog(s store.Store, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{store: s, logger: logger}
}

// List returns all sessions in store order.
func (c *Catalog) List(ctx context.Context) ([]model.Session, error) {
	docs, err := c.store.List(ctx, store.CollectionSessions)
	if err != nil {
		c.logger.Error("list sessions failed", zap.Error(err))
		return nil, apperr.Store("fetching sessions", err)
	}
	out := make([]model.Session, 0, len(docs))
	for _, doc := range docs {
		s, err := model.SessionFromDocument(doc)
		if err != nil {
			c.logger.Warn("skipping malformed session", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Get returns one session by id.
func (c *Catalog) Get(ctx context.Context, id string) (model.Session, error) {
	sessions, err := c.List(ctx)
	if err != nil {
		return model.Session{}, err
	}
	for _, s := range sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Session{}, apperr.NotFound("session")
}

// Search keeps sessions whose course code or name contains q, ignoring case.
func (c *Catalog) Search(ctx context.Context, q string) ([]model.Session, error) {
	sessions, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(sessions, q), nil
}

// Filter is the picker's substring match. An empty query keeps everything.
func Filter(sessions []model.Session, q string) []model.Session {
	q = strings.ToLower(q)
	out := make([]model.Session, 0, len(sessions))
	for _, s := range sessions {
		if strings.Contains(strings.ToLower(s.CourseCode), q) || strings.Contains(strings.ToLower(s.CourseName), q) {
			out = append(out, s)
		}
	}
	return out
}

// FindByCourseCode returns sessions with this exact course code in store order.
func (c *Catalog) FindByCourseCode(ctx context.Context, code string) ([]model.Session, error) {
	docs, err := c.store.Query(ctx, store.CollectionSessions, store.Eq("courseCode", code))
	if err != nil {
		return nil, apperr.Store("fetching sessions", err)
	}
	out := make([]model.Session, 0, len(docs))
	for _, doc := range docs {
		if s, err := model.SessionFromDocument(doc); err == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// Create validates and stores a new session.
func (c *Catalog) Create(ctx context.Context, f Fields) (model.Session, error) {
	if err := f.Validate(); err != nil {
		return model.Session{}, err
	}
	id, err := c.store.Create(ctx, store.CollectionSessions, f.session("").Fields())
	if err != nil {
		c.logger.Error("create session failed", zap.String("course_code", f.CourseCode), zap.Error(err))
		return model.Session{}, apperr.Store("adding the session", err)
	}
	c.logger.Info("session added", zap.String("id", id), zap.String("course_code", f.CourseCode))
	return f.session(id), nil
}

// Update replaces the attributes of an existing session.
func (c *Catalog) Update(ctx context.Context, id string, f Fields) (model.Session, error) {
	if err := f.Validate(); err != nil {
		return model.Session{}, err
	}
	if err := c.store.Update(ctx, store.CollectionSessions, id, f.session(id).Fields()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Session{}, apperr.NotFound("session")
		}
		return model.Session{}, apperr.Store("updating the session", err)
	}
	c.logger.Info("session updated", zap.String("id", id))
	return f.session(id), nil
}

// Delete removes a session. Attendance records that reference its course code
// are left untouched.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, store.CollectionSessions, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("session")
		}
		return apperr.Store("deleting the session", err)
	}
	c.logger.Info("session deleted", zap.String("id", id))
	return nil
}
