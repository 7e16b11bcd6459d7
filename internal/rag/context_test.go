package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vcrag/copilot/internal/model"
)

func TestFormatContextEmpty(t *testing.T) {
	require.Equal(t, NoContextSentinel, FormatContext(nil))
}

func TestFormatContext(t *testing.T) {
	results := []RetrievalResult{
		{Content: "MRR is $2M", Metadata: model.ChunkMetadata{Title: "Q3 update", Source: "q3.pdf"}, Similarity: 0.912},
		{Content: "Burn is $300k/month", Similarity: 0.5},
	}
	out := FormatContext(results)
	expected := "[Source 1: q3.pdf]\nTitle: Q3 update\nRelevance: 0.91\nMRR is $2M\n" +
		"\n---\n" +
		"[Source 2: Unknown]\nTitle: Untitled\nRelevance: 0.50\nBurn is $300k/month\n"
	require.Equal(t, expected, out)
	require.Equal(t, 1, strings.Count(out, "MRR is $2M"))
	require.Less(t, strings.Index(out, "MRR"), strings.Index(out, "Burn"))
}
