package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnavailable       = errors.New("ai provider unavailable")
	ErrMissingCredential = errors.New("ai provider api key is required")
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatOptions struct {
	Temperature float64
	MaxTokens   int
}

// StatusError is a non-2xx answer from an HTTP provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

type IChatProvider interface {
	Name() string
	Chat(ctx context.Context, model string, messages []Message, opts ChatOptions) (string, error)
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type IChatter interface {
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type chatter struct {
	provider IChatProvider
	model    string
}

func NewChatter(p IChatProvider, model string) IChatter {
	return &chatter{provider: p, model: model}
}

func (c *chatter) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	return c.provider.Chat(ctx, c.model, messages, opts)
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.provider.Name() + ":" + e.model
}

type ChatFactory func(args interface{}) (IChatProvider, error)

type EmbedFactory func(args interface{}) (IEmbedProvider, error)

var (
	chatRegistry  = map[string]ChatFactory{}
	embedRegistry = map[string]EmbedFactory{}
)

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func Register(name string, factory ChatFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	chatRegistry[key] = factory
}

func RegisterEmbed(name string, factory EmbedFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewChatProvider(name string, args interface{}) (IChatProvider, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("chat provider name is required")
	}
	factory := chatRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported chat provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("embed provider name is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embed provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
