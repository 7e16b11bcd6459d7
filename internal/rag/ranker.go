package rag

import (
	"context"
	"sort"

	"github.com/vcrag/copilot/internal/model"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const DefaultTopK = 5

type RetrievalResult struct {
	ChunkID    string              `json:"chunk_id"`
	DocumentID string              `json:"document_id,omitempty"`
	Content    string              `json:"content"`
	Metadata   model.ChunkMetadata `json:"metadata"`
	Similarity float64             `json:"similarity"`
}

type RankStats struct {
	Candidates       int
	Scored           int
	MissingEmbedding int
	Malformed        int
}

type Ranker interface {
	Rank(ctx context.Context, query []float32, candidates []model.StoredChunk, topK int) ([]RetrievalResult, RankStats)
}

// ScanRanker scores every candidate with Cosine. Ties keep candidate order.
type ScanRanker struct {
	DefaultTopK int
}

func NewScanRanker(defaultTopK int) *ScanRanker {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &ScanRanker{DefaultTopK: defaultTopK}
}

func (r *ScanRanker) Rank(ctx context.Context, query []float32, candidates []model.StoredChunk, topK int) ([]RetrievalResult, RankStats) {
	if topK <= 0 {
		topK = r.DefaultTopK
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	stats := RankStats{Candidates: len(candidates)}
	results := make([]RetrievalResult, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		meta, err := c.DecodeMetadata()
		if err != nil {
			stats.Malformed++
			logutil.GetLogger(ctx).Warn("skip chunk with malformed metadata", zap.String("chunk_id", c.ID), zap.Error(err))
			continue
		}
		if len(meta.Embedding) == 0 {
			stats.MissingEmbedding++
			continue
		}
		sim := Cosine(query, meta.Embedding)
		meta.Embedding = nil
		results = append(results, RetrievalResult{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Content:    c.Content,
			Metadata:   meta,
			Similarity: sim,
		})
	}
	stats.Scored = len(results)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, stats
}
