package rag

import (
	"fmt"
	"strings"
)

const (
	NoContextSentinel = "No relevant context found."

	unknownSource = "Unknown"
	untitled      = "Untitled"
	blockDivider  = "\n---\n"
)

// FormatContext renders results, in rank order, as numbered source blocks for the prompt.
func FormatContext(results []RetrievalResult) string {
	if len(results) == 0 {
		return NoContextSentinel
	}
	blocks := make([]string, 0, len(results))
	for i, res := range results {
		source := res.Metadata.Source
		if source == "" {
			source = unknownSource
		}
		title := res.Metadata.Title
		if title == "" {
			title = untitled
		}
		blocks = append(blocks, fmt.Sprintf("[Source %d: %s]\nTitle: %s\nRelevance: %.2f\n%s\n",
			i+1, source, title, res.Similarity, res.Content))
	}
	return strings.Join(blocks, blockDivider)
}
