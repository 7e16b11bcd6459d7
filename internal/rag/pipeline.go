package rag

import (
	"context"
	"strings"

	"github.com/vcrag/copilot/internal/ai"
	pkgerr "github.com/vcrag/copilot/internal/pkg/errors"
)

type Query struct {
	Text      string
	ProjectID string
	TopK      int
}

// Pipeline runs the query path: embed the question, retrieve, answer.
type Pipeline struct {
	embedder  Embedder
	retriever Retriever
	responder *Responder
	topK      int
}

func NewPipeline(embedder Embedder, retriever Retriever, responder *Responder, topK int) (*Pipeline, error) {
	if embedder == nil || retriever == nil || responder == nil {
		return nil, &ConfigurationError{Field: "rag", Reason: "pipeline requires embedder, retriever and responder"}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{embedder: embedder, retriever: retriever, responder: responder, topK: topK}, nil
}

// Search returns the ranked chunks for q without calling the chat model.
func (p *Pipeline) Search(ctx context.Context, q Query) ([]RetrievalResult, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, pkgerr.ErrInvalid
	}
	topK := q.TopK
	if topK <= 0 {
		topK = p.topK
	}
	vec, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return p.retriever.Retrieve(ctx, q.ProjectID, vec, topK)
}

// Ask answers q. Errors come only from embedding or storage; a model outage
// yields a degraded Answer instead.
func (p *Pipeline) Ask(ctx context.Context, q Query, history []ai.Message) (*Answer, error) {
	results, err := p.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	answer := p.responder.Respond(ctx, strings.TrimSpace(q.Text), results, history)
	return &answer, nil
}

// Converse answers text without retrieval, for chats with nothing to search.
func (p *Pipeline) Converse(ctx context.Context, text string, history []ai.Message) *Answer {
	answer := p.responder.Respond(ctx, strings.TrimSpace(text), nil, history)
	return &answer
}
