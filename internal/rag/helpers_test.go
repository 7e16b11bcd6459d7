package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/vcrag/copilot/internal/ai"
	"github.com/vcrag/copilot/internal/model"
)

// hashEmbedder derives a deterministic vector from the text alone.
type hashEmbedder struct {
	dim   int
	err   error
	calls int
}

func (h *hashEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	out := make([]float32, h.dim)
	for i := range out {
		f := fnv.New32a()
		_, _ = f.Write([]byte(strconv.Itoa(i) + "|" + text))
		out[i] = float32(f.Sum32()%2000)/1000 - 1
	}
	return out, nil
}

func (h *hashEmbedder) ModelName() string {
	return "hash"
}

type memStore struct {
	mu     sync.Mutex
	chunks []*model.Chunk
	putErr error
}

func (m *memStore) Put(ctx context.Context, chunk *model.Chunk) error {
	return m.PutBatch(ctx, []*model.Chunk{chunk})
}

func (m *memStore) PutBatch(ctx context.Context, chunks []*model.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return &StorageError{Op: "put", Err: m.putErr}
	}
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memStore) Candidates(ctx context.Context, projectID string) ([]model.StoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.StoredChunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		if projectID != "" && c.ProjectID != projectID {
			continue
		}
		out = append(out, model.StoredChunk{
			ID:          c.ID,
			ProjectID:   c.ProjectID,
			DocumentID:  c.DocumentID,
			Content:     c.Content,
			SourceType:  c.SourceType,
			ChunkIndex:  c.ChunkIndex,
			RawMetadata: mustJSON(c.Metadata),
		})
	}
	return out, nil
}

func (m *memStore) DeleteByProject(ctx context.Context, projectID string) error {
	return errors.New("not implemented")
}

func (m *memStore) DeleteByDocument(ctx context.Context, documentID string) error {
	return errors.New("not implemented")
}

func (m *memStore) CountByProject(ctx context.Context, projectID string) (int, error) {
	c, err := m.Candidates(ctx, projectID)
	return len(c), err
}

type stubChatter struct {
	out      string
	err      error
	messages []ai.Message
	opts     ai.ChatOptions
	deadline bool
}

func (s *stubChatter) Chat(ctx context.Context, messages []ai.Message, opts ai.ChatOptions) (string, error) {
	s.messages = messages
	s.opts = opts
	_, s.deadline = ctx.Deadline()
	return s.out, s.err
}
