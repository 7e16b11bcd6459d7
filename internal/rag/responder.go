package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vcrag/copilot/internal/ai"
	"github.com/vcrag/copilot/internal/model"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	CompletionTimeout = 60 * time.Second

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000

	fallbackSourceLimit  = 3
	fallbackExcerptRunes = 280
)

type Answer struct {
	Text     string         `json:"text"`
	Sources  []model.Source `json:"sources"`
	Degraded bool           `json:"degraded"`
}

// Responder asks the chat model for an answer grounded in the retrieved chunks.
// It never fails: when the model is unreachable it answers from the sources alone.
type Responder struct {
	chatter ai.IChatter
	opts    ai.ChatOptions
	timeout time.Duration
}

// NewResponder accepts a nil chatter; every answer is then a fallback.
func NewResponder(chatter ai.IChatter, opts ai.ChatOptions) *Responder {
	return &Responder{chatter: chatter, opts: opts, timeout: CompletionTimeout}
}

func (r *Responder) Respond(ctx context.Context, query string, results []RetrievalResult, history []ai.Message) Answer {
	sources := DedupeSources(results)
	text, err := r.complete(ctx, query, results, history)
	if err != nil {
		logutil.GetLogger(ctx).Warn("completion failed, using fallback answer",
			zap.Int("results", len(results)), zap.Error(err))
		return Answer{Text: FallbackAnswer(results), Sources: sources, Degraded: true}
	}
	return Answer{Text: text, Sources: sources}
}

func (r *Responder) complete(ctx context.Context, query string, results []RetrievalResult, history []ai.Message) (string, error) {
	if r.chatter == nil {
		return "", ai.ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	messages := buildMessages(query, FormatContext(results), history)
	text, err := r.chatter.Chat(ctx, messages, r.opts)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("completion returned empty content")
	}
	return text, nil
}

// DedupeSources lists each distinct source once, in rank order.
func DedupeSources(results []RetrievalResult) []model.Source {
	seen := make(map[string]struct{}, len(results))
	out := make([]model.Source, 0, len(results))
	for _, res := range results {
		key := res.Metadata.Source
		if key == "" {
			key = unknownSource
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		title := res.Metadata.Title
		if title == "" {
			title = untitled
		}
		out = append(out, model.Source{Title: title, Source: key, Similarity: res.Similarity})
	}
	return out
}

// FallbackAnswer is the deterministic reply used when no model answer is available.
func FallbackAnswer(results []RetrievalResult) string {
	if len(results) == 0 {
		return "The AI model is currently unavailable and no relevant documents were found for this question. " +
			"Try again later or upload documents to this project."
	}
	var sb strings.Builder
	sb.WriteString("The AI model is currently unavailable. These are the most relevant excerpts from your documents:\n")
	for i, res := range results {
		if i == fallbackSourceLimit {
			break
		}
		source := res.Metadata.Source
		if source == "" {
			source = unknownSource
		}
		fmt.Fprintf(&sb, "\n%d. %s (relevance %.2f)\n%s\n", i+1, source, res.Similarity, excerpt(res.Content, fallbackExcerptRunes))
	}
	return sb.String()
}

func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
