package embedcache

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vcrag/copilot/internal/ai"
	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/pkg/timeutil"
)

// Store is the persistent cache, implemented by repo.EmbeddingCacheRepo.
type Store interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

// WrapDB persists embeddings so reindexing unchanged text skips the provider.
// Cache failures are logged and treated as misses.
func WrapDB(e ai.IEmbedder, store Store) ai.IEmbedder {
	if e == nil || store == nil {
		return e
	}
	return &dbEmbedder{next: e, store: store}
}

type dbEmbedder struct {
	next  ai.IEmbedder
	store Store
}

func (d *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := newCacheKey(d.next.ModelName(), taskType, text)
	values, ok, err := d.store.Get(ctx, key.model, key.taskType, key.contentHash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("read embedding cache failed", zap.Error(err))
	}
	if ok && len(values) > 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit", zap.String("layer", "db"), zap.String("task_type", taskType))
		return values, nil
	}
	res, err := d.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return res, nil
	}
	if err := d.store.Save(ctx, &model.EmbeddingCache{
		ModelName:   key.model,
		TaskType:    key.taskType,
		ContentHash: key.contentHash,
		Embedding:   res,
		Ctime:       timeutil.NowUnix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("write embedding cache failed", zap.Error(err))
	}
	return res, nil
}

func (d *dbEmbedder) ModelName() string {
	return d.next.ModelName()
}
