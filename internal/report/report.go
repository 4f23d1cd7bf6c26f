// Package report aggregates attendance records into per-session reports and
// exports them.
package report

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"rollcall/internal/apperr"
	"rollcall/internal/metrics"
	"rollcall/internal/model"
	"rollcall/internal/store"
)

// Query selects one course, day and time window. Date is D-M-YYYY.
type Query struct {
	CourseCode string `json:"courseCode"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// Validate rejects empty or whitespace-only selectors.
func (q Query) Validate() error {
	for _, v := range []string{q.CourseCode, q.Date, q.Time} {
		if strings.TrimSpace(v) == "" {
			return apperr.Validation("Please fill all the fields")
		}
	}
	return nil
}

// Row is one line of a report.
type Row struct {
	StudentName string `json:"studentName"`
	Matricule   string `json:"matricule"`
	Date        string `json:"date"`
}

// Report is derived on demand and never stored.
type Report struct {
	Query
	CourseName string `json:"courseName"`
	Rows       []Row  `json:"rows"`
}

// Empty reports whether no record matched.
func (r Report) Empty() bool { return len(r.Rows) == 0 }

// NoRecordsMessage is shown for an empty report.
const NoRecordsMessage = "No matching records found for the provided inputs."

// Aggregator filters attendance records into reports.
type Aggregator struct {
	store   store.Store
	logger  *zap.Logger
	metrics metrics.Recorder
}

// NewAggregator builds an aggregator. logger and rec may be nil.
func NewAggregator(s store.Store, logger *zap.Logger, rec metrics.Recorder) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Aggregator{store: s, logger: logger, metrics: rec}
}

// Generate keeps records of q.CourseCode whose day matches q.Date and whose
// time label equals q.Time exactly, in store order. No match is an empty
// report, not an error.
func (a *Aggregator) Generate(ctx context.Context, q Query) (Report, error) {
	if err := q.Validate(); err != nil {
		return Report{}, err
	}
	start := time.Now()
	defer func() { a.metrics.RecordReportLatency(time.Since(start)) }()

	docs, err := a.store.Query(ctx, store.CollectionAttendances, store.Eq("courseCode", q.CourseCode))
	if err != nil {
		a.logger.Error("fetch attendances failed", zap.String("course_code", q.CourseCode), zap.Error(err))
		return Report{}, apperr.Store("fetching the report", err)
	}

	want := model.ReverseDate(q.Date)
	rep := Report{Query: q, Rows: []Row{}}
	for _, doc := range docs {
		rec, err := model.AttendanceFromDocument(doc)
		if err != nil {
			a.logger.Warn("skipping malformed attendance", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		if model.ReverseDate(model.DatePart(rec.Date)) != want || rec.Time != q.Time {
			continue
		}
		rep.Rows = append(rep.Rows, Row{StudentName: rec.StudentName, Matricule: rec.Matricule, Date: rec.Date})
	}
	if rep.Empty() {
		return rep, nil
	}

	name, err := a.courseName(ctx, q.CourseCode)
	if err != nil {
		return Report{}, apperr.Store("fetching the report", err)
	}
	rep.CourseName = name
	return rep, nil
}

// courseName takes the first session with the code, then the first courses
// document. Neither existing yields "".
func (a *Aggregator) courseName(ctx context.Context, code string) (string, error) {
	for _, col := range []string{store.CollectionSessions, store.CollectionCourses} {
		docs, err := a.store.Query(ctx, col, store.Eq("courseCode", code))
		if err != nil {
			return "", err
		}
		for _, doc := range docs {
			if name, ok := doc.Fields["courseName"].(string); ok {
				return name, nil
			}
		}
	}
	return "", nil
}
