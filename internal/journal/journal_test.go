package journal

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestJournal creates a file-backed journal in a temp dir.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 3; i++ {
		j, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, j.Close())
	}
}

func TestOpen_InMemory(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.Record(ctx, Entry{Session: "s", Seq: 1, Op: OpMark, Name: "m1"}))

	entries, err := j.Entries(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecord_RoundTripOrdered(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	want := []Entry{
		{Session: "s1", Seq: 1, Op: OpAdd, EventType: "click", Listener: "f", Identity: "f"},
		{Session: "s1", Seq: 2, Op: OpMark, Name: "m1"},
		{Session: "s1", Seq: 3, Op: OpMeasure, Name: "x", Detail: `{"add":{}}`},
	}
	// Write out of order; reads come back by seq.
	for _, i := range []int{2, 0, 1} {
		require.NoError(t, j.Record(ctx, want[i]))
	}

	got, err := j.Entries(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecord_DuplicateSeqRejected(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Entry{Session: "s", Seq: 1, Op: OpAdd}))
	err := j.Record(ctx, Entry{Session: "s", Seq: 1, Op: OpRemove})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.Contains(t, err.Error(), `session "s" seq 1`)

	// Same seq under another session is a different entry.
	require.NoError(t, j.Record(ctx, Entry{Session: "t", Seq: 1, Op: OpRemove}))

	got, err := j.Entries(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, OpAdd, got[0].Op)
}

func TestLastSeq(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	seq, err := j.LastSeq(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, j.Record(ctx, Entry{Session: "s", Seq: 3, Op: OpMark}))
	require.NoError(t, j.Record(ctx, Entry{Session: "s", Seq: 1, Op: OpMark}))
	require.NoError(t, j.Record(ctx, Entry{Session: "other", Seq: 9, Op: OpMark}))

	seq, err = j.LastSeq(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestEntries_UnknownSessionIsEmpty(t *testing.T) {
	j := createTestJournal(t)
	got, err := j.Entries(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSessions(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Entry{Session: "b", Seq: 1, Op: OpMark}))
	require.NoError(t, j.Record(ctx, Entry{Session: "a", Seq: 1, Op: OpMark}))
	require.NoError(t, j.Record(ctx, Entry{Session: "b", Seq: 2, Op: OpMark}))

	got, err := j.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got)
}

func TestClosedJournalErrors(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	err = j.Record(context.Background(), Entry{Session: "s", Seq: 1, Op: OpMark})
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestClock_NewClockAt(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(41), c.Current())
	assert.Equal(t, int64(42), c.Next())
}

func TestClock_Concurrent(t *testing.T) {
	c := NewClock()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Current())
}
