package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubChatter struct {
	out   string
	err   error
	calls int
}

func (s *stubChatter) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	s.calls++
	return s.out, s.err
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return s.vec, s.err
}

func (s *stubEmbedder) ModelName() string {
	return "stub"
}

func TestGroupChatterFallsBack(t *testing.T) {
	first := &stubChatter{err: errors.New("down")}
	second := &stubChatter{out: "answer"}
	g := NewGroupChatter([]ChatterEntry{{Name: "a", Chatter: first}, {Name: "b", Chatter: second}})
	out, err := g.Chat(context.Background(), nil, ChatOptions{})
	require.NoError(t, err)
	require.Equal(t, "answer", out)
	require.Equal(t, 1, first.calls)
}

func TestGroupChatterAllFail(t *testing.T) {
	g := NewGroupChatter([]ChatterEntry{{Name: "a", Chatter: &stubChatter{err: errors.New("x")}}})
	_, err := g.Chat(context.Background(), nil, ChatOptions{})
	require.Error(t, err)
	require.Nil(t, NewGroupChatter(nil))
}

func TestGroupEmbedder(t *testing.T) {
	g := NewGroupEmbedder([]EmbedderEntry{
		{Name: "a", Embedder: &stubEmbedder{err: errors.New("x")}},
		{Name: "b", Embedder: &stubEmbedder{vec: []float32{1}}},
	})
	vec, err := g.Embed(context.Background(), "t", "")
	require.NoError(t, err)
	require.Equal(t, []float32{1}, vec)
	require.Equal(t, "stub|stub", g.ModelName())
}
