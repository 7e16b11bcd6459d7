package embedcache

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/vcrag/copilot/internal/ai"
)

// WrapRateLimit caps calls to the embedding provider at rps with the given burst.
// It sits below the caches so hits are never throttled.
func WrapRateLimit(e ai.IEmbedder, rps float64, burst int) ai.IEmbedder {
	if e == nil || rps <= 0 {
		return e
	}
	if burst <= 0 {
		burst = 1
	}
	return &limitedEmbedder{next: e, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

type limitedEmbedder struct {
	next    ai.IEmbedder
	limiter *rate.Limiter
}

func (l *limitedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.next.Embed(ctx, text, taskType)
}

func (l *limitedEmbedder) ModelName() string {
	return l.next.ModelName()
}
