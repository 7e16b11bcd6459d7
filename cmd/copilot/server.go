package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/vcrag/copilot/internal/config"
	"github.com/vcrag/copilot/internal/handler"
	"github.com/vcrag/copilot/internal/job"
	"github.com/vcrag/copilot/internal/middleware"
	"github.com/vcrag/copilot/internal/repo"
	"github.com/vcrag/copilot/internal/schedule"
	"github.com/vcrag/copilot/internal/service"
)

func runServer(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := logutil.GetLogger(ctx)

	c, err := buildCore(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	jwtTTL := time.Hour * time.Duration(cfg.JWTTTLHours)
	authService := service.NewAuthService(repo.NewUserRepo(c.db), []byte(cfg.JWTSecret), jwtTTL)
	chatService := service.NewChatService(repo.NewChatRepo(c.db), repo.NewMessageRepo(c.db), c.projects, c.pipeline)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Projects:      handler.NewProjectHandler(c.projects),
		Documents:     handler.NewDocumentHandler(c.documents, cfg.Upload.MaxBytes),
		Chats:         handler.NewChatHandler(chatService),
		Health:        handler.NewHealthHandler(c.db, version),
		JWTSecret:     []byte(cfg.JWTSecret),
		AuthRateLimit: time.Duration(cfg.RateLimit.AuthWindowMs) * time.Millisecond,
		ChatRateLimit: time.Duration(cfg.RateLimit.ChatWindowMs) * time.Millisecond,
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewDocumentReindexJob(c.documents, cfg.Schedule.ReindexBatch), cfg.Schedule.ReindexSpec); err != nil {
		return err
	}
	if cfg.AI.EmbedCache.DB {
		if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(c.cache, cfg.Schedule.CacheMaxAgeDays), cfg.Schedule.CacheCleanupSpec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logger.Info("http server listening", zap.String("addr", addr), zap.String("version", version))

	errCh := make(chan error, 1)
	go func() {
		errCh <- engine.Run()
	}()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("server stopping...")
	return nil
}
