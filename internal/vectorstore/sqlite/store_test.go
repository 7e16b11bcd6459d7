package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/rag"
)

func openStore(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", limit)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func chunk(id, project, doc string, idx int) *model.Chunk {
	return &model.Chunk{
		ID:         id,
		ProjectID:  project,
		DocumentID: doc,
		Content:    "content " + id,
		SourceType: model.SourceTypeUpload,
		ChunkIndex: idx,
		Metadata:   model.ChunkMetadata{Title: "T", Source: doc + ".txt", Embedding: []float32{1, 0.5}},
		Ctime:      100,
	}
}

func TestPutBatchAndCandidates(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 0)
	require.NoError(t, s.PutBatch(ctx, []*model.Chunk{chunk("a", "p1", "d1", 0), chunk("b", "p1", "d1", 1), chunk("c", "p2", "d2", 0)}))

	got, err := s.Candidates(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, 1, got[1].ChunkIndex)
	meta, err := got[0].DecodeMetadata()
	require.NoError(t, err)
	require.Equal(t, []float32{1, 0.5}, meta.Embedding)
	require.Equal(t, "d1.txt", meta.Source)

	all, err := s.Candidates(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestPutBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 0)
	require.NoError(t, s.Put(ctx, chunk("a", "p1", "d1", 0)))

	err := s.PutBatch(ctx, []*model.Chunk{chunk("b", "p1", "d1", 1), chunk("a", "p1", "d1", 2)})
	require.True(t, rag.IsStorageError(err))

	n, err := s.CountByProject(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestPutRequiresProject(t *testing.T) {
	err := openStore(t, 0).Put(context.Background(), chunk("a", "", "d1", 0))
	require.True(t, rag.IsStorageError(err))
}

func TestCandidateLimit(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 3)
	var chunks []*model.Chunk
	for i := 0; i < 5; i++ {
		chunks = append(chunks, chunk(fmt.Sprintf("c%d", i), "p1", "d1", i))
	}
	require.NoError(t, s.PutBatch(ctx, chunks))
	got, err := s.Candidates(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "c0", got[0].ID)
}

func TestDeletes(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, 0)
	require.NoError(t, s.PutBatch(ctx, []*model.Chunk{chunk("a", "p1", "d1", 0), chunk("b", "p1", "d2", 0), chunk("c", "p2", "d3", 0)}))

	require.NoError(t, s.DeleteByDocument(ctx, "d1"))
	n, err := s.CountByProject(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, s.DeleteByProject(ctx, "p2"))
	n, err = s.CountByProject(ctx, "p2")
	require.NoError(t, err)
	require.Zero(t, n)
}
