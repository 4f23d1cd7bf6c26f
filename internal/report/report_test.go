package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/apperr"
	"rollcall/internal/model"
	"rollcall/internal/store"
)

const window = "9:00 am - 11:00 am"

func seed(t *testing.T, s store.Store, recs ...model.AttendanceRecord) {
	t.Helper()
	for _, r := range recs {
		_, err := s.Create(context.Background(), store.CollectionAttendances, r.Fields())
		require.NoError(t, err)
	}
}

func rec(name, code, date, tm string) model.AttendanceRecord {
	return model.AttendanceRecord{StudentName: name, Matricule: "M-" + name, CourseCode: code, CourseName: "Intro", Day: "Tuesday", Time: tm, Date: date}
}

func TestGenerateFiltersByDayAndWindow(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem,
		rec("Alice", "CS101", "5-3-2024 9:05", window),
		rec("Bob", "CS101", "6-3-2024 9:05", window),
		rec("Carol", "CS101", "5-3-2024 14:10", "2:00 pm - 4:00 pm"),
		rec("Dave", "MA201", "5-3-2024 9:07", window),
		rec("Erin", "CS101", "5-3-2024 9:30", window),
	)
	agg := NewAggregator(mem, nil, nil)

	rep, err := agg.Generate(context.Background(), Query{CourseCode: "CS101", Date: "5-3-2024", Time: window})
	require.NoError(t, err)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, Row{StudentName: "Alice", Matricule: "M-Alice", Date: "5-3-2024 9:05"}, rep.Rows[0])
	assert.Equal(t, "Erin", rep.Rows[1].StudentName)
	assert.False(t, rep.Empty())
}

func TestGenerateTimeLabelIsExact(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, rec("Alice", "CS101", "5-3-2024 9:05", window))
	agg := NewAggregator(mem, nil, nil)

	for _, tm := range []string{"9:00 AM - 11:00 AM", "9:00 am - 11:00 am ", "9:00 am-11:00 am"} {
		rep, err := agg.Generate(context.Background(), Query{CourseCode: "CS101", Date: "5-3-2024", Time: tm})
		require.NoError(t, err)
		assert.True(t, rep.Empty(), tm)
	}
}

func TestGenerateEmptyIsNotAnError(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, rec("Alice", "CS101", "5-3-2024 9:05", window))
	rep, err := NewAggregator(mem, nil, nil).Generate(context.Background(), Query{CourseCode: "CS101", Date: "7-3-2024", Time: window})
	require.NoError(t, err)
	assert.True(t, rep.Empty())
	assert.Equal(t, "", rep.CourseName)

	_, err = NewExporter(t.TempDir(), nil, nil, nil).ToPDF(context.Background(), rep)
	assert.ErrorIs(t, err, apperr.ErrExport)
	_, err = NewExporter(t.TempDir(), nil, nil, nil).ToSpreadsheet(context.Background(), rep)
	assert.ErrorIs(t, err, apperr.ErrExport)
	assert.Equal(t, "No report data to export.", apperr.UserMessage(err))
}

func TestGenerateUnrealDatePassesThrough(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, rec("Alice", "CS101", "31-2-2024 9:05", window))
	rep, err := NewAggregator(mem, nil, nil).Generate(context.Background(), Query{CourseCode: "CS101", Date: "31-2-2024", Time: window})
	require.NoError(t, err)
	assert.Len(t, rep.Rows, 1)
}

func TestGenerateValidation(t *testing.T) {
	agg := NewAggregator(store.NewMemory(), nil, nil)
	_, err := agg.Generate(context.Background(), Query{CourseCode: "CS101", Time: window})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// queryCounter counts Query calls that reach the backend.
type queryCounter struct {
	*store.Memory
	queries int
}

func (q *queryCounter) Query(ctx context.Context, col string, filters ...store.Filter) ([]store.Document, error) {
	q.queries++
	return q.Memory.Query(ctx, col, filters...)
}

func TestGenerateRejectsWhitespaceWithoutStoreCall(t *testing.T) {
	s := &queryCounter{Memory: store.NewMemory()}
	agg := NewAggregator(s, nil, nil)
	for _, q := range []Query{
		{CourseCode: "  ", Date: "5-3-2024", Time: window},
		{CourseCode: "CS101", Date: "\t", Time: window},
		{CourseCode: "CS101", Date: "5-3-2024", Time: " "},
	} {
		_, err := agg.Generate(context.Background(), q)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, "Please fill all the fields", apperr.UserMessage(err))
	}
	assert.Zero(t, s.queries)
}

func TestGenerateCourseName(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	seed(t, mem, rec("Alice", "CS101", "5-3-2024 9:05", window), rec("Bob", "MA201", "5-3-2024 9:05", window))
	_, err := mem.Create(ctx, store.CollectionSessions, model.Session{CourseCode: "CS101", CourseName: "Intro to Computing", Day: "Tuesday", Time: window}.Fields())
	require.NoError(t, err)
	_, err = mem.Create(ctx, store.CollectionSessions, model.Session{CourseCode: "CS101", CourseName: "Second", Day: "Friday", Time: window}.Fields())
	require.NoError(t, err)
	_, err = mem.Create(ctx, store.CollectionCourses, store.Fields{"courseCode": "MA201", "courseName": "Calculus"})
	require.NoError(t, err)
	agg := NewAggregator(mem, nil, nil)

	rep, err := agg.Generate(ctx, Query{CourseCode: "CS101", Date: "5-3-2024", Time: window})
	require.NoError(t, err)
	assert.Equal(t, "Intro to Computing", rep.CourseName)

	rep, err = agg.Generate(ctx, Query{CourseCode: "MA201", Date: "5-3-2024", Time: window})
	require.NoError(t, err)
	assert.Equal(t, "Calculus", rep.CourseName)
}

type failingStore struct{ *store.Memory }

func (failingStore) Query(context.Context, string, ...store.Filter) ([]store.Document, error) {
	return nil, errors.New("timeout")
}

func TestGenerateStoreUnavailable(t *testing.T) {
	_, err := NewAggregator(failingStore{store.NewMemory()}, nil, nil).
		Generate(context.Background(), Query{CourseCode: "CS101", Date: "5-3-2024", Time: window})
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.Equal(t, "An error occurred while fetching the report.", apperr.UserMessage(err))
}
