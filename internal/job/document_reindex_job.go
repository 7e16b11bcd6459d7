package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type reindexer interface {
	ReindexFailed(ctx context.Context, limit uint) (int, error)
}

// DocumentReindexJob retries failed documents whose extracted text was kept,
// typically after an embedding provider outage.
type DocumentReindexJob struct {
	docs  reindexer
	batch uint
}

func NewDocumentReindexJob(docs reindexer, batch int) *DocumentReindexJob {
	if batch <= 0 {
		batch = 20
	}
	return &DocumentReindexJob{docs: docs, batch: uint(batch)}
}

func (j *DocumentReindexJob) Name() string {
	return "document_reindex"
}

func (j *DocumentReindexJob) Run(ctx context.Context) error {
	if j.docs == nil {
		return nil
	}
	fixed, err := j.docs.ReindexFailed(ctx, j.batch)
	if fixed > 0 {
		logutil.GetLogger(ctx).Info("failed documents reindexed", zap.Int("count", fixed))
	}
	return err
}
