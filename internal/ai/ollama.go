package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaURL = "http://localhost:11434"

type ollamaConfig struct {
	BaseURL string `json:"base_url"`
}

// ollamaProvider talks to a local Ollama server through langchaingo. No key is needed.
type ollamaProvider struct {
	baseURL string
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) llm(model string) (*ollama.LLM, error) {
	return ollama.New(ollama.WithModel(model), ollama.WithServerURL(p.baseURL))
}

func ollamaRole(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func (p *ollamaProvider) Chat(ctx context.Context, model string, messages []Message, opts ChatOptions) (string, error) {
	llm, err := p.llm(model)
	if err != nil {
		return "", err
	}
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(ollamaRole(msg.Role), msg.Content))
	}
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	resp, err := llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func (p *ollamaProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	llm, err := p.llm(model)
	if err != nil {
		return nil, err
	}
	vectors, err := llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("ollama returned no embeddings")
	}
	return vectors[0], nil
}

func createOllama(args interface{}) (*ollamaProvider, error) {
	cfg := &ollamaConfig{}
	if args != nil {
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &ollamaProvider{baseURL: baseURL}, nil
}

func init() {
	Register("ollama", func(args interface{}) (IChatProvider, error) {
		return createOllama(args)
	})
	RegisterEmbed("ollama", func(args interface{}) (IEmbedProvider, error) {
		return createOllama(args)
	})
}
