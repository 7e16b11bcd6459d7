package rag

import (
	"context"
	"errors"

	"github.com/vcrag/copilot/internal/ai"
)

const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"

	DefaultEmbeddingDim = 1536
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// FixedEmbedder forces every vector from the backend to exactly dim values.
type FixedEmbedder struct {
	next ai.IEmbedder
	dim  int
}

func NewFixedEmbedder(next ai.IEmbedder, dim int) (*FixedEmbedder, error) {
	if next == nil {
		return nil, &ConfigurationError{Field: "ai.embed", Reason: "no embedding provider configured"}
	}
	if dim <= 0 {
		return nil, &ConfigurationError{Field: "rag.embedding_dim", Reason: "must be positive"}
	}
	return &FixedEmbedder{next: next, dim: dim}, nil
}

func (e *FixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, TaskRetrievalDocument)
}

func (e *FixedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, TaskRetrievalQuery)
}

func (e *FixedEmbedder) Dimension() int {
	return e.dim
}

func (e *FixedEmbedder) embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	vec, err := e.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(vec) == 0 {
		return nil, &EmbeddingError{Err: errors.New("backend returned an empty vector")}
	}
	return FitDimension(vec, e.dim), nil
}

// FitDimension right-pads v with zeros or truncates it to dim values. It always returns a copy.
func FitDimension(v []float32, dim int) []float32 {
	out := make([]float32, dim)
	copy(out, v)
	return out
}
