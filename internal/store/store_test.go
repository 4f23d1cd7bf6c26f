package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runContract(t *testing.T, s Store) {
	ctx := context.Background()

	id1, err := s.Create(ctx, CollectionAttendances, Fields{"studentName": "Alice", "courseCode": "CS101", "date": "5-3-2024 9:05"})
	require.NoError(t, err)
	id2, err := s.Create(ctx, CollectionAttendances, Fields{"studentName": "Bob", "courseCode": "CS101", "date": "5-3-2024 9:06"})
	require.NoError(t, err)
	_, err = s.Create(ctx, CollectionAttendances, Fields{"studentName": "Alice", "courseCode": "MA201", "date": "5-3-2024 11:00"})
	require.NoError(t, err)
	_, err = s.Create(ctx, CollectionStudents, Fields{"name": "Alice", "fingerprintRegistered": true})
	require.NoError(t, err)

	all, err := s.List(ctx, CollectionAttendances)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, id1, all[0].ID)
	assert.Equal(t, id2, all[1].ID)

	cs, err := s.Query(ctx, CollectionAttendances, Eq("courseCode", "CS101"))
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "Alice", cs[0].Fields["studentName"])
	assert.Equal(t, "Bob", cs[1].Fields["studentName"])

	exact, err := s.Query(ctx, CollectionAttendances,
		Eq("studentName", "Alice"), Eq("courseCode", "CS101"), Eq("date", "5-3-2024 9:05"))
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, id1, exact[0].ID)

	none, err := s.Query(ctx, CollectionAttendances, Eq("courseCode", "cs101"))
	require.NoError(t, err)
	assert.Empty(t, none)

	enrolled, err := s.Query(ctx, CollectionStudents, Eq("fingerprintRegistered", true))
	require.NoError(t, err)
	assert.Len(t, enrolled, 1)

	require.NoError(t, s.Update(ctx, CollectionAttendances, id2, Fields{"studentName": "Robert"}))
	got, err := s.Query(ctx, CollectionAttendances, Eq("studentName", "Robert"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CS101", got[0].Fields["courseCode"], "update merges rather than replaces")

	assert.ErrorIs(t, s.Update(ctx, CollectionAttendances, "missing", Fields{"a": "b"}), ErrNotFound)

	require.NoError(t, s.Delete(ctx, CollectionAttendances, id1))
	assert.ErrorIs(t, s.Delete(ctx, CollectionAttendances, id1), ErrNotFound)
	all, err = s.List(ctx, CollectionAttendances)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.Query(ctx, CollectionAttendances, Eq("bad field", "x"))
	assert.Error(t, err)
}

func TestMemoryContract(t *testing.T) {
	runContract(t, NewMemory())
}

func TestSQLiteContract(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	defer s.Close()
	runContract(t, s)
}

func TestMemoryIsolatesCallerMaps(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	in := Fields{"name": "Alice"}
	_, err := s.Create(ctx, CollectionStudents, in)
	require.NoError(t, err)
	in["name"] = "Mallory"

	docs, err := s.List(ctx, CollectionStudents)
	require.NoError(t, err)
	docs[0].Fields["name"] = "Eve"

	docs, err = s.List(ctx, CollectionStudents)
	require.NoError(t, err)
	assert.Equal(t, "Alice", docs[0].Fields["name"])
}

type slowStore struct{ *Memory }

func (s *slowStore) List(ctx context.Context, collection string) ([]Document, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeoutAppliesDeadline(t *testing.T) {
	s := WithTimeout(&slowStore{Memory: NewMemory()}, 20*time.Millisecond)
	_, err := s.List(context.Background(), CollectionSessions)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "firestore"})
	assert.Error(t, err)
}

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	_, err = s.Create(context.Background(), CollectionSessions, Fields{"courseCode": "CS101"})
	assert.NoError(t, err)
}
