package rag

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/pkg/timeutil"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

type IndexRequest struct {
	ProjectID  string
	DocumentID string
	Title      string
	// Source identifies the origin in citations, usually the filename. Title is used when empty.
	Source     string
	SourceType string
	Content    string
}

// Indexer chunks, embeds and stores a document. It is all-or-nothing: every
// chunk is embedded before the first write, and the write is one batch.
type Indexer struct {
	embedder  Embedder
	store     ChunkStore
	chunkSize int
	overlap   int
}

func NewIndexer(embedder Embedder, store ChunkStore, chunkSize, overlap int) (*Indexer, error) {
	if embedder == nil {
		return nil, &ConfigurationError{Field: "ai.embed", Reason: "embedder is required"}
	}
	if store == nil {
		return nil, &ConfigurationError{Field: "vector_store", Reason: "chunk store is required"}
	}
	if overlap < 0 || chunkSize <= overlap {
		return nil, &ConfigurationError{Field: "rag.chunk_size", Reason: ErrInvalidChunking.Error()}
	}
	return &Indexer{embedder: embedder, store: store, chunkSize: chunkSize, overlap: overlap}, nil
}

func (ix *Indexer) Index(ctx context.Context, req IndexRequest) (int, error) {
	pieces, err := Split(req.Content, ix.chunkSize, ix.overlap)
	if err != nil {
		return 0, err
	}
	if len(pieces) == 0 {
		return 0, nil
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = req.Title
	}
	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = model.SourceTypeManual
	}
	now := timeutil.NowUnix()
	chunks := make([]*model.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		vec, err := ix.embedder.Embed(ctx, piece)
		if err != nil {
			return 0, err
		}
		chunks = append(chunks, &model.Chunk{
			ID:         uuid.NewString(),
			ProjectID:  req.ProjectID,
			DocumentID: req.DocumentID,
			Content:    piece,
			SourceType: sourceType,
			ChunkIndex: i,
			Metadata: model.ChunkMetadata{
				Title:     req.Title,
				Source:    source,
				Embedding: vec,
			},
			Ctime: now,
		})
	}
	if err := ix.store.PutBatch(ctx, chunks); err != nil {
		return 0, err
	}
	logutil.GetLogger(ctx).Info("document indexed",
		zap.String("project_id", req.ProjectID),
		zap.String("document_id", req.DocumentID),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}
