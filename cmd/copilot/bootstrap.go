package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vcrag/copilot/internal/ai"
	"github.com/vcrag/copilot/internal/config"
	"github.com/vcrag/copilot/internal/db"
	"github.com/vcrag/copilot/internal/embedcache"
	"github.com/vcrag/copilot/internal/filestore"
	"github.com/vcrag/copilot/internal/rag"
	"github.com/vcrag/copilot/internal/repo"
	"github.com/vcrag/copilot/internal/service"
	"github.com/vcrag/copilot/internal/vectorstore"
)

// core holds everything both the server and the ingest command need.
type core struct {
	cfg        *config.Config
	db         *sql.DB
	chunks     rag.ChunkStore
	files      filestore.Store
	cache      *repo.EmbeddingCacheRepo
	indexer    *rag.Indexer
	pipeline   *rag.Pipeline
	projects   *service.ProjectService
	documents  *service.DocumentService
	closeStore func()
}

func (c *core) Close() {
	if c.closeStore != nil {
		c.closeStore()
	}
	if c.db != nil {
		_ = c.db.Close()
	}
}

func buildCore(ctx context.Context, cfg *config.Config) (*core, error) {
	c := &core{cfg: cfg}
	var err error
	c.db, err = db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(ctx, c.db); err != nil {
		c.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	c.chunks, c.closeStore, err = vectorstore.Open(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	c.files, err = filestore.New(cfg.FileStore)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}
	c.cache = repo.NewEmbeddingCacheRepo(c.db)

	embedder, err := buildEmbedder(ctx, cfg, c.cache)
	if err != nil {
		c.Close()
		return nil, err
	}
	chatter, err := buildChatter(ctx, cfg.AI.Chat)
	if err != nil {
		c.Close()
		return nil, err
	}
	if err := c.buildRAG(embedder, chatter); err != nil {
		c.Close()
		return nil, err
	}

	projectRepo := repo.NewProjectRepo(c.db)
	docRepo := repo.NewDocumentRepo(c.db)
	c.projects = service.NewProjectService(projectRepo, docRepo, c.chunks, c.files, c.pipeline)
	c.documents = service.NewDocumentService(docRepo, c.projects, c.files, c.chunks, c.indexer, cfg.Upload.MaxBytes, cfg.Upload.MinTextLength)
	return c, nil
}

func (c *core) buildRAG(embedder ai.IEmbedder, chatter ai.IChatter) error {
	cfg := c.cfg
	fixed, err := rag.NewFixedEmbedder(embedder, cfg.RAG.EmbeddingDim)
	if err != nil {
		return err
	}
	c.indexer, err = rag.NewIndexer(fixed, c.chunks, cfg.RAG.ChunkSize, cfg.RAG.Overlap())
	if err != nil {
		return err
	}
	retriever, err := rag.NewRetriever(cfg.RAG.Retrieval, c.chunks, rag.NewScanRanker(cfg.RAG.TopK), cfg.RAG.TopK)
	if err != nil {
		return err
	}
	responder := rag.NewResponder(chatter, ai.ChatOptions{Temperature: cfg.RAG.Temp(), MaxTokens: cfg.RAG.MaxTokens})
	c.pipeline, err = rag.NewPipeline(fixed, retriever, responder, cfg.RAG.TopK)
	return err
}

// buildEmbedder layers, from the outside in: memory cache, db cache, rate
// limit, then the provider group.
func buildEmbedder(ctx context.Context, cfg *config.Config, cache *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	entries := make([]ai.EmbedderEntry, 0, len(cfg.AI.Embed))
	for _, pc := range cfg.AI.Embed {
		p, err := ai.NewEmbedProvider(pc.Provider, providerArgs(pc))
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", providerName(pc), err)
		}
		entries = append(entries, ai.EmbedderEntry{Name: providerName(pc), Embedder: ai.NewEmbedder(p, pc.Model)})
	}
	e := ai.NewGroupEmbedder(entries)
	if e == nil {
		return nil, &rag.ConfigurationError{Field: "ai.embed", Reason: "at least one embedding provider is required"}
	}
	e = embedcache.WrapRateLimit(e, cfg.AI.EmbedRPS, cfg.AI.EmbedBurst)
	if cfg.AI.EmbedCache.DB {
		e = embedcache.WrapDB(e, cache)
	}
	e = embedcache.WrapLRU(e, cfg.AI.EmbedCache.LRUSize, time.Duration(cfg.AI.EmbedCache.LRUTTLMinutes)*time.Minute)
	logutil.GetLogger(ctx).Info("embedder ready", zap.String("model", e.ModelName()), zap.Int("providers", len(entries)))
	return e, nil
}

// buildChatter returns nil when no chat provider is configured; answers are
// then always the retrieval fallback.
func buildChatter(ctx context.Context, items []config.ProviderConfig) (ai.IChatter, error) {
	entries := make([]ai.ChatterEntry, 0, len(items))
	for _, pc := range items {
		p, err := ai.NewChatProvider(pc.Provider, providerArgs(pc))
		if err != nil {
			return nil, fmt.Errorf("init chat provider %s: %w", providerName(pc), err)
		}
		entries = append(entries, ai.ChatterEntry{Name: providerName(pc), Chatter: ai.NewChatter(p, pc.Model)})
	}
	if len(entries) == 0 {
		logutil.GetLogger(ctx).Warn("no chat provider configured, answers will be retrieval summaries")
	}
	return ai.NewGroupChatter(entries), nil
}

func providerArgs(pc config.ProviderConfig) interface{} {
	if pc.Data == nil {
		return map[string]interface{}{}
	}
	return pc.Data
}

func providerName(pc config.ProviderConfig) string {
	if pc.Name != "" {
		return pc.Name
	}
	return pc.Provider + ":" + pc.Model
}
