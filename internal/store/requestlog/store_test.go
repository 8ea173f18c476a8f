package requestlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "requests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recs := []Record{
		{TraceID: "t1", TS: 100, Filename: "a.png", MIME: "image/png", SizeBytes: 1024, Model: "llava", Outcome: "ok", DurationMS: 320},
		{TraceID: "t2", TS: 200, Filename: "b.jpg", MIME: "image/jpeg", SizeBytes: 2048, Model: "llava", Outcome: "InvalidInput", Message: "File 'b.jpg' is empty", DurationMS: 2},
		{TraceID: "t3", TS: 300, Filename: "c.png", MIME: "image/png", SizeBytes: 4096, Model: "moondream:1.8b", Outcome: "ok", DurationMS: 510},
	}
	for _, rec := range recs {
		require.NoError(t, s.Insert(ctx, rec))
	}

	got, err := s.Recent(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	// 时间倒序
	assert.Equal(t, "t3", got[0].TraceID)
	assert.Equal(t, "t2", got[1].TraceID)
	assert.Equal(t, "t1", got[2].TraceID)
	assert.Equal(t, int64(4096), got[0].SizeBytes)
	assert.Equal(t, "moondream:1.8b", got[0].Model)
}

func TestRecentOutcomeFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, Record{TraceID: "ok1", TS: 1, Outcome: "ok"}))
	require.NoError(t, s.Insert(ctx, Record{TraceID: "bad1", TS: 2, Outcome: "UpstreamUnavailable"}))
	require.NoError(t, s.Insert(ctx, Record{TraceID: "ok2", TS: 3, Outcome: "ok"}))

	got, err := s.Recent(ctx, 10, "ok")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ok2", got[0].TraceID)
	assert.Equal(t, "ok1", got[1].TraceID)

	got, err = s.Recent(ctx, 10, "UpstreamUnavailable")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bad1", got[0].TraceID)
}

func TestRecentLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, s.Insert(ctx, Record{TS: i, Outcome: "ok"}))
	}
	got, err := s.Recent(ctx, 2, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(5), got[0].TS)
	assert.Equal(t, int64(4), got[1].TS)
}

func TestInsertFillsTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, Record{TraceID: "auto", Outcome: "ok"}))
	got, err := s.Recent(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Greater(t, got[0].TS, int64(0))
}

func TestClosedStore(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err := s.Insert(context.Background(), Record{Outcome: "ok"})
	assert.Error(t, err)
	_, err = s.Recent(context.Background(), 1, "")
	assert.Error(t, err)
}

func TestEmptyPathRejected(t *testing.T) {
	_, err := NewStore("  ")
	assert.Error(t, err)
}
