package rag

import (
	"context"

	"github.com/vcrag/copilot/internal/model"
)

const DefaultCandidateLimit = 100

// ChunkStore is the only owner of chunk rows. Writes append, never merge.
type ChunkStore interface {
	Put(ctx context.Context, chunk *model.Chunk) error
	// PutBatch stores all chunks or none of them.
	PutBatch(ctx context.Context, chunks []*model.Chunk) error
	// Candidates returns stored chunks for projectID, or for every project when
	// projectID is empty, capped by the store's candidate limit.
	Candidates(ctx context.Context, projectID string) ([]model.StoredChunk, error)
	DeleteByProject(ctx context.Context, projectID string) error
	DeleteByDocument(ctx context.Context, documentID string) error
	CountByProject(ctx context.Context, projectID string) (int, error)
}

// NearestSearcher is implemented by stores that can rank inside the database.
type NearestSearcher interface {
	Nearest(ctx context.Context, projectID string, query []float32, k int) ([]RetrievalResult, error)
}
