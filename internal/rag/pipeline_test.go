package rag_test

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcrag/copilot/internal/ai"
	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/rag"
	"github.com/vcrag/copilot/internal/vectorstore/sqlite"
)

type textHashEmbedder struct{}

func (textHashEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	out := make([]float32, 64)
	for i := range out {
		f := fnv.New64a()
		_, _ = fmt.Fprintf(f, "%d:%s", i, text)
		out[i] = float32(f.Sum64()%1000)/500 - 1
	}
	return out, nil
}

func (textHashEmbedder) ModelName() string {
	return "text-hash"
}

type echoChatter struct{}

func (echoChatter) Chat(ctx context.Context, messages []ai.Message, opts ai.ChatOptions) (string, error) {
	return "answer grounded in context", nil
}

func document() string {
	var sb strings.Builder
	for i := 0; sb.Len() < 2500; i++ {
		fmt.Fprintf(&sb, "line %04d of the diligence memo. ", i)
	}
	return sb.String()[:2500]
}

func TestIndexThenAsk(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(ctx, ":memory:", 0)
	require.NoError(t, err)
	defer store.Close()

	emb, err := rag.NewFixedEmbedder(textHashEmbedder{}, rag.DefaultEmbeddingDim)
	require.NoError(t, err)
	indexer, err := rag.NewIndexer(emb, store, rag.DefaultChunkSize, rag.DefaultChunkOverlap)
	require.NoError(t, err)

	text := document()
	n, err := indexer.Index(ctx, rag.IndexRequest{
		ProjectID:  "p1",
		DocumentID: "d1",
		Title:      "Diligence memo",
		Source:     "memo.txt",
		SourceType: model.SourceTypeUpload,
		Content:    text,
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	retriever, err := rag.NewRetriever(rag.RetrievalScan, store, rag.NewScanRanker(rag.DefaultTopK), rag.DefaultTopK)
	require.NoError(t, err)
	pipeline, err := rag.NewPipeline(emb, retriever, rag.NewResponder(echoChatter{}, ai.ChatOptions{}), rag.DefaultTopK)
	require.NoError(t, err)

	second := text[800:1800]
	results, err := pipeline.Search(ctx, rag.Query{Text: second, ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, second, results[0].Content)
	require.InDelta(t, 1.0, results[0].Similarity, 1e-9)

	answer, err := pipeline.Ask(ctx, rag.Query{Text: second, ProjectID: "p1"}, nil)
	require.NoError(t, err)
	require.False(t, answer.Degraded)
	require.Equal(t, []model.Source{{Title: "Diligence memo", Source: "memo.txt", Similarity: results[0].Similarity}}, answer.Sources)

	other, err := pipeline.Search(ctx, rag.Query{Text: second, ProjectID: "p2"})
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestAskWithoutChatterDegrades(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(ctx, ":memory:", 0)
	require.NoError(t, err)
	defer store.Close()

	emb, err := rag.NewFixedEmbedder(textHashEmbedder{}, 32)
	require.NoError(t, err)
	retriever, err := rag.NewRetriever("", store, nil, 0)
	require.NoError(t, err)
	pipeline, err := rag.NewPipeline(emb, retriever, rag.NewResponder(nil, ai.ChatOptions{}), 0)
	require.NoError(t, err)

	answer, err := pipeline.Ask(ctx, rag.Query{Text: "what is the burn?", ProjectID: "empty"}, nil)
	require.NoError(t, err)
	require.True(t, answer.Degraded)
	require.Empty(t, answer.Sources)

	_, err = pipeline.Ask(ctx, rag.Query{Text: "   "}, nil)
	require.Error(t, err)
}

func TestNearestRequiresCapableStore(t *testing.T) {
	store, err := sqlite.Open(context.Background(), ":memory:", 0)
	require.NoError(t, err)
	defer store.Close()
	_, err = rag.NewRetriever(rag.RetrievalNearest, store, nil, 5)
	var cfgErr *rag.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
