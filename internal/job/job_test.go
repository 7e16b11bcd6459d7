package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeReindexer struct {
	limit uint
	fixed int
	err   error
}

func (f *fakeReindexer) ReindexFailed(ctx context.Context, limit uint) (int, error) {
	f.limit = limit
	return f.fixed, f.err
}

type fakePruner struct {
	cutoff int64
	err    error
}

func (f *fakePruner) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

func TestDocumentReindexJob(t *testing.T) {
	docs := &fakeReindexer{fixed: 2}
	j := NewDocumentReindexJob(docs, 0)
	require.Equal(t, "document_reindex", j.Name())
	require.NoError(t, j.Run(context.Background()))
	require.EqualValues(t, 20, docs.limit)

	docs.err = errors.New("db down")
	require.Error(t, j.Run(context.Background()))
}

func TestEmbeddingCacheCleanupJob(t *testing.T) {
	cache := &fakePruner{}
	j := NewEmbeddingCacheCleanupJob(cache, 7)
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, now.AddDate(0, 0, -7).Unix(), cache.cutoff)

	cache.err = errors.New("boom")
	require.Error(t, j.Run(context.Background()))
}

func TestJobsTolerateNilDeps(t *testing.T) {
	require.NoError(t, NewDocumentReindexJob(nil, 1).Run(context.Background()))
	require.NoError(t, NewEmbeddingCacheCleanupJob(nil, 1).Run(context.Background()))
}
