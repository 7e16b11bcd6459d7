package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vcrag/copilot/internal/pkg/response"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	version string
}

func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

func (h *HealthHandler) Health(c *gin.Context) {
	status := "healthy"
	database := "ok"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status = "degraded"
			database = "unreachable"
		}
	}
	response.Success(c, gin.H{"status": status, "database": database, "version": h.version})
}
