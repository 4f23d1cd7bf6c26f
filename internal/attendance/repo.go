package attendance

import (
	"context"

	"rollcall/internal/model"
	"rollcall/internal/store"
)

// Repository reads and writes the students and attendances collections.
type Repository struct {
	store store.Store
}

// NewRepository creates a repo.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// Students returns every well-formed student in store order, plus the number
// of documents that failed coercion.
func (r *Repository) Students(ctx context.Context) ([]model.StudentIdentity, int, error) {
	docs, err := r.store.List(ctx, store.CollectionStudents)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.StudentIdentity, 0, len(docs))
	skipped := 0
	for _, doc := range docs {
		s, err := model.StudentFromDocument(doc)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, s)
	}
	return out, skipped, nil
}

// HasRecord reports whether a record with exactly this name, course code and
// minute-precision date exists.
func (r *Repository) HasRecord(ctx context.Context, studentName, courseCode, date string) (bool, error) {
	docs, err := r.store.Query(ctx, store.CollectionAttendances,
		store.Eq("studentName", studentName),
		store.Eq("courseCode", courseCode),
		store.Eq("date", date),
	)
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}

// InsertRecord appends one attendance record.
func (r *Repository) InsertRecord(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	id, err := r.store.Create(ctx, store.CollectionAttendances, rec.Fields())
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	rec.ID = id
	return rec, nil
}

// Records lists attendance records, optionally narrowed to one course code.
func (r *Repository) Records(ctx context.Context, courseCode string) ([]model.AttendanceRecord, error) {
	var (
		docs []store.Document
		err  error
	)
	if courseCode == "" {
		docs, err = r.store.List(ctx, store.CollectionAttendances)
	} else {
		docs, err = r.store.Query(ctx, store.CollectionAttendances, store.Eq("courseCode", courseCode))
	}
	if err != nil {
		return nil, err
	}
	out := make([]model.AttendanceRecord, 0, len(docs))
	for _, doc := range docs {
		if rec, err := model.AttendanceFromDocument(doc); err == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}
