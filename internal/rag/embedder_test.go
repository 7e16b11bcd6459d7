package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcrag/copilot/internal/ai"
)

type fixedVec struct {
	vec      []float32
	taskType string
}

func (f *fixedVec) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	f.taskType = taskType
	return f.vec, nil
}

func (f *fixedVec) ModelName() string {
	return "fixed"
}

func TestFitDimension(t *testing.T) {
	require.Equal(t, []float32{1, 2, 0, 0}, FitDimension([]float32{1, 2}, 4))
	require.Equal(t, []float32{1, 2}, FitDimension([]float32{1, 2, 3}, 2))
}

func TestFixedEmbedderPadsAndTags(t *testing.T) {
	backend := &fixedVec{vec: []float32{0.5, 0.5}}
	e, err := NewFixedEmbedder(backend, 8)
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "doc")
	require.NoError(t, err)
	require.Len(t, vec, 8)
	require.Equal(t, TaskRetrievalDocument, backend.taskType)

	_, err = e.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	require.Equal(t, TaskRetrievalQuery, backend.taskType)
}

func TestFixedEmbedderDeterministic(t *testing.T) {
	e, err := NewFixedEmbedder(&hashEmbedder{dim: 3000}, DefaultEmbeddingDim)
	require.NoError(t, err)
	a, err := e.Embed(context.Background(), "Series A term sheet")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "Series A term sheet")
	require.NoError(t, err)
	require.Len(t, a, DefaultEmbeddingDim)
	require.Equal(t, a, b)
}

func TestFixedEmbedderErrors(t *testing.T) {
	e, err := NewFixedEmbedder(&hashEmbedder{dim: 4, err: errors.New("quota")}, 4)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "x")
	require.True(t, IsEmbeddingError(err))

	e, err = NewFixedEmbedder(&fixedVec{}, 4)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "x")
	require.True(t, IsEmbeddingError(err))
}

func TestNewFixedEmbedderConfig(t *testing.T) {
	var cfgErr *ConfigurationError
	_, err := NewFixedEmbedder(nil, 4)
	require.ErrorAs(t, err, &cfgErr)
	var backend ai.IEmbedder = &fixedVec{}
	_, err = NewFixedEmbedder(backend, 0)
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "rag.embedding_dim", cfgErr.Field)
}
