package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcrag/copilot/internal/model"
)

func stored(id string, meta model.ChunkMetadata) model.StoredChunk {
	return model.StoredChunk{ID: id, Content: "content " + id, RawMetadata: mustJSON(meta)}
}

func TestScanRankerOrdersAndSkips(t *testing.T) {
	query := []float32{1, 0}
	candidates := []model.StoredChunk{
		stored("low", model.ChunkMetadata{Source: "a", Embedding: []float32{0, 1}}),
		stored("high", model.ChunkMetadata{Source: "b", Embedding: []float32{1, 0}}),
		stored("none", model.ChunkMetadata{Source: "c"}),
		{ID: "broken", RawMetadata: []byte(`{"embedding":"nope"`)},
		stored("mid", model.ChunkMetadata{Source: "d", Embedding: []float32{1, 1}}),
	}
	results, stats := NewScanRanker(5).Rank(context.Background(), query, candidates, 10)
	require.Len(t, results, 3)
	require.Equal(t, []string{"high", "mid", "low"}, []string{results[0].ChunkID, results[1].ChunkID, results[2].ChunkID})
	require.Equal(t, 1, stats.MissingEmbedding)
	require.Equal(t, 1, stats.Malformed)
	require.Equal(t, 3, stats.Scored)
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
	require.Nil(t, results[0].Metadata.Embedding)
}

func TestScanRankerStableTies(t *testing.T) {
	var candidates []model.StoredChunk
	for _, id := range []string{"a", "b", "c", "d"} {
		candidates = append(candidates, stored(id, model.ChunkMetadata{Embedding: []float32{2, 2}}))
	}
	r := NewScanRanker(5)
	for i := 0; i < 3; i++ {
		results, _ := r.Rank(context.Background(), []float32{1, 1}, candidates, 2)
		require.Len(t, results, 2)
		require.Equal(t, "a", results[0].ChunkID)
		require.Equal(t, "b", results[1].ChunkID)
	}
}

func TestScanRankerDefaultTopK(t *testing.T) {
	var candidates []model.StoredChunk
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		candidates = append(candidates, stored(id, model.ChunkMetadata{Embedding: []float32{1}}))
	}
	results, _ := NewScanRanker(0).Rank(context.Background(), []float32{1}, candidates, 0)
	require.Len(t, results, DefaultTopK)

	results, _ = NewScanRanker(3).Rank(context.Background(), []float32{1}, candidates[:2], 0)
	require.Len(t, results, 2)
}
