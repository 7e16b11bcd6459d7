package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type ChatterEntry struct {
	Name    string
	Chatter IChatter
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

type groupChatter struct {
	items []ChatterEntry
}

// NewGroupChatter tries each chatter in order until one answers.
func NewGroupChatter(items []ChatterEntry) IChatter {
	if len(items) == 0 {
		return nil
	}
	return &groupChatter{items: items}
}

func (g *groupChatter) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Chatter == nil {
			continue
		}
		res, err := item.Chatter.Chat(ctx, messages, opts)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("chatter failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		return "", fmt.Errorf("chatter not configured")
	}
	return "", lastErr
}

type groupEmbedder struct {
	items []EmbedderEntry
}

// NewGroupEmbedder falls back across embedders. All of them should produce
// vectors of the same model family, otherwise stored chunks stop being comparable.
func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	if len(items) == 0 {
		return nil
	}
	return &groupEmbedder{items: items}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Embedder == nil {
			continue
		}
		res, err := item.Embedder.Embed(ctx, text, taskType)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("embedder failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return nil, lastErr
}

func (g *groupEmbedder) ModelName() string {
	names := make([]string, 0, len(g.items))
	for _, item := range g.items {
		if item.Embedder == nil {
			continue
		}
		names = append(names, item.Embedder.ModelName())
	}
	return strings.Join(names, "|")
}
