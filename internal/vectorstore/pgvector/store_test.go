package pgvector

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/rag"
)

func TestNewRejectsBadTable(t *testing.T) {
	_, err := New(context.Background(), Config{DSN: "postgres://x", Table: "chunks; DROP TABLE users"})
	var cfgErr *rag.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), Config{})
	var cfgErr *rag.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestPutBatchRequiresProject(t *testing.T) {
	s := &Store{cfg: Config{Table: "chunks", Dim: 3}}
	err := s.PutBatch(context.Background(), []*model.Chunk{{ID: "c1", Content: "x"}})
	var storeErr *rag.StorageError
	require.ErrorAs(t, err, &storeErr)
	require.Contains(t, err.Error(), "no project")
}

func TestFiniteSimilarity(t *testing.T) {
	require.Zero(t, finiteSimilarity(math.NaN()))
	require.Zero(t, finiteSimilarity(math.Inf(1)))
	require.Equal(t, 0.25, finiteSimilarity(0.25))
	require.Equal(t, -1.0, finiteSimilarity(-1))
}

func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()
	table := "chunks_test_" + uuid.NewString()[:8]
	s, err := New(ctx, Config{DSN: dsn, Table: table, Dim: 3})
	require.NoError(t, err)
	defer func() {
		_, _ = s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+table)
		s.Close()
	}()

	project := uuid.NewString()
	chunks := []*model.Chunk{
		{ID: uuid.NewString(), ProjectID: project, Content: "near", SourceType: model.SourceTypeManual, Metadata: model.ChunkMetadata{Source: "a", Embedding: []float32{1, 0, 0}}},
		{ID: uuid.NewString(), ProjectID: project, Content: "far", SourceType: model.SourceTypeManual, ChunkIndex: 1, Metadata: model.ChunkMetadata{Source: "b", Embedding: []float32{0, 1, 0}}},
	}
	require.NoError(t, s.PutBatch(ctx, chunks))

	candidates, err := s.Candidates(ctx, project)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	meta, err := candidates[0].DecodeMetadata()
	require.NoError(t, err)
	require.Equal(t, []float32{1, 0, 0}, meta.Embedding)

	results, err := s.Nearest(ctx, project, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "near", results[0].Content)
	require.InDelta(t, 1.0, results[0].Similarity, 1e-6)

	zero := &model.Chunk{ID: uuid.NewString(), ProjectID: project, Content: "blank", SourceType: model.SourceTypeManual, ChunkIndex: 2, Metadata: model.ChunkMetadata{Source: "c", Embedding: []float32{0, 0, 0}}}
	require.NoError(t, s.Put(ctx, zero))
	results, err = s.Nearest(ctx, project, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		require.False(t, math.IsNaN(res.Similarity))
		if res.Content == "blank" {
			require.Zero(t, res.Similarity)
		}
	}
	results, err = s.Nearest(ctx, project, []float32{0, 0, 0}, 3)
	require.NoError(t, err)
	for _, res := range results {
		require.Zero(t, res.Similarity)
	}

	require.NoError(t, s.DeleteByProject(ctx, project))
	n, err := s.CountByProject(ctx, project)
	require.NoError(t, err)
	require.Zero(t, n)
}
