package rag

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	RetrievalScan    = "scan"
	RetrievalNearest = "nearest"
)

type Retriever interface {
	Retrieve(ctx context.Context, projectID string, query []float32, topK int) ([]RetrievalResult, error)
}

type ScanRetriever struct {
	store  ChunkStore
	ranker Ranker
}

func (r *ScanRetriever) Retrieve(ctx context.Context, projectID string, query []float32, topK int) ([]RetrievalResult, error) {
	candidates, err := r.store.Candidates(ctx, projectID)
	if err != nil {
		return nil, err
	}
	results, stats := r.ranker.Rank(ctx, query, candidates, topK)
	if stats.Malformed > 0 || stats.MissingEmbedding > 0 {
		logutil.GetLogger(ctx).Info("ranking skipped candidates",
			zap.String("project_id", projectID),
			zap.Int("candidates", stats.Candidates),
			zap.Int("missing_embedding", stats.MissingEmbedding),
			zap.Int("malformed", stats.Malformed))
	}
	return results, nil
}

type NearestRetriever struct {
	searcher    NearestSearcher
	defaultTopK int
}

func (r *NearestRetriever) Retrieve(ctx context.Context, projectID string, query []float32, topK int) ([]RetrievalResult, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}
	return r.searcher.Nearest(ctx, projectID, query, topK)
}

// NewRetriever picks the retrieval strategy. "nearest" needs a store that
// implements NearestSearcher.
func NewRetriever(mode string, store ChunkStore, ranker Ranker, defaultTopK int) (Retriever, error) {
	if store == nil {
		return nil, &ConfigurationError{Field: "vector_store", Reason: "chunk store is required"}
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", RetrievalScan:
		if ranker == nil {
			ranker = NewScanRanker(defaultTopK)
		}
		return &ScanRetriever{store: store, ranker: ranker}, nil
	case RetrievalNearest:
		searcher, ok := store.(NearestSearcher)
		if !ok {
			return nil, &ConfigurationError{Field: "rag.retrieval", Reason: "store does not support nearest search"}
		}
		return &NearestRetriever{searcher: searcher, defaultTopK: defaultTopK}, nil
	default:
		return nil, &ConfigurationError{Field: "rag.retrieval", Reason: "unknown mode " + mode}
	}
}
