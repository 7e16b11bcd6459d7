package vectorstore

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vcrag/copilot/internal/config"
	"github.com/vcrag/copilot/internal/rag"
	"github.com/vcrag/copilot/internal/vectorstore/pgvector"
	"github.com/vcrag/copilot/internal/vectorstore/sqlite"
)

// Open builds the chunk store selected by cfg.VectorStore.Type. The returned
// func releases the store's connections.
func Open(ctx context.Context, cfg *config.Config) (rag.ChunkStore, func(), error) {
	switch cfg.VectorStore.Type {
	case "pgvector":
		st, err := pgvector.New(ctx, pgvector.Config{
			DSN:            cfg.Database.DSN,
			Table:          cfg.VectorStore.Table,
			Dim:            cfg.RAG.EmbeddingDim,
			CandidateLimit: cfg.RAG.CandidateLimit,
			IndexLists:     cfg.VectorStore.IndexLists,
		})
		if err != nil {
			return nil, nil, err
		}
		logutil.GetLogger(ctx).Info("vector store ready", zap.String("type", "pgvector"), zap.Int("dim", cfg.RAG.EmbeddingDim))
		return st, st.Close, nil
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.VectorStore.Path, cfg.RAG.CandidateLimit)
		if err != nil {
			return nil, nil, err
		}
		logutil.GetLogger(ctx).Info("vector store ready", zap.String("type", "sqlite"), zap.String("path", cfg.VectorStore.Path))
		return st, func() { _ = st.Close() }, nil
	default:
		return nil, nil, &rag.ConfigurationError{Field: "vector_store.type", Reason: fmt.Sprintf("unsupported %q", cfg.VectorStore.Type)}
	}
}
