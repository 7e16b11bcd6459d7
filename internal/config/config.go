package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"

	"github.com/vcrag/copilot/internal/rag"
)

type Config struct {
	Port        int               `json:"port"`
	JWTSecret   string            `json:"jwt_secret"`
	JWTTTLHours int               `json:"jwt_ttl_hours"`
	CORSOrigins []string          `json:"cors_origins"`
	LogConfig   logger.LogConfig  `json:"log_config"`
	Database    DatabaseConfig    `json:"database"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	FileStore   FileStoreConfig   `json:"file_store"`
	AI          AIConfig          `json:"ai"`
	RAG         RAGConfig         `json:"rag"`
	Upload      UploadConfig      `json:"upload"`
	Schedule    ScheduleConfig    `json:"schedule"`
	RateLimit   RateLimitConfig   `json:"rate_limit"`
}

type DatabaseConfig struct {
	DSN          string `json:"dsn"`
	MaxOpenConns int    `json:"max_open_conns"`
}

type VectorStoreConfig struct {
	// Type is "pgvector" or "sqlite".
	Type       string `json:"type"`
	Table      string `json:"table"`
	Path       string `json:"path"`
	IndexLists int    `json:"index_lists"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ProviderConfig struct {
	Name     string                 `json:"name"`
	Provider string                 `json:"provider"`
	Model    string                 `json:"model"`
	Data     map[string]interface{} `json:"data"`
}

type EmbedCacheConfig struct {
	LRUSize       int  `json:"lru_size"`
	LRUTTLMinutes int  `json:"lru_ttl_minutes"`
	DB            bool `json:"db"`
}

type AIConfig struct {
	Chat       []ProviderConfig `json:"chat"`
	Embed      []ProviderConfig `json:"embed"`
	EmbedCache EmbedCacheConfig `json:"embed_cache"`
	EmbedRPS   float64          `json:"embed_rps"`
	EmbedBurst int              `json:"embed_burst"`
}

type RAGConfig struct {
	ChunkSize      int      `json:"chunk_size"`
	ChunkOverlap   *int     `json:"chunk_overlap"`
	EmbeddingDim   int      `json:"embedding_dim"`
	TopK           int      `json:"top_k"`
	CandidateLimit int      `json:"candidate_limit"`
	Retrieval      string   `json:"retrieval"`
	Temperature    *float64 `json:"temperature"`
	MaxTokens      int      `json:"max_tokens"`
}

func (c RAGConfig) Overlap() int {
	if c.ChunkOverlap == nil {
		return rag.DefaultChunkOverlap
	}
	return *c.ChunkOverlap
}

func (c RAGConfig) Temp() float64 {
	if c.Temperature == nil {
		return rag.DefaultTemperature
	}
	return *c.Temperature
}

type UploadConfig struct {
	MaxBytes      int64 `json:"max_bytes"`
	MinTextLength int   `json:"min_text_length"`
}

type ScheduleConfig struct {
	ReindexSpec      string `json:"reindex_spec"`
	ReindexBatch     int    `json:"reindex_batch"`
	CacheCleanupSpec string `json:"cache_cleanup_spec"`
	CacheMaxAgeDays  int    `json:"cache_max_age_days"`
}

type RateLimitConfig struct {
	ChatWindowMs int `json:"chat_window_ms"`
	AuthWindowMs int `json:"auth_window_ms"`
}

// Load reads a JSON or YAML (by extension) config file, applies the
// environment overrides and defaults, then validates it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = yamlToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("decode yaml config: %w", err)
		}
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// yamlToJSON routes yaml through a generic tree so the json tags stay the single source of field names.
func yamlToJSON(raw []byte) ([]byte, error) {
	var tree interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	keys := map[string]string{
		"openai":     os.Getenv("OPENAI_API_KEY"),
		"openrouter": os.Getenv("OPENROUTER_API_KEY"),
		"gemini":     os.Getenv("GEMINI_API_KEY"),
	}
	fill := func(items []ProviderConfig) {
		for i := range items {
			key := keys[strings.ToLower(items[i].Provider)]
			if key == "" {
				continue
			}
			if items[i].Data == nil {
				items[i].Data = map[string]interface{}{}
			}
			if existing, _ := items[i].Data["api_key"].(string); existing == "" {
				items[i].Data["api_key"] = key
			}
		}
	}
	fill(cfg.AI.Chat)
	fill(cfg.AI.Embed)
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pgvector"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = rag.DefaultChunkSize
	}
	if cfg.RAG.EmbeddingDim == 0 {
		cfg.RAG.EmbeddingDim = rag.DefaultEmbeddingDim
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = rag.DefaultTopK
	}
	if cfg.RAG.CandidateLimit == 0 {
		cfg.RAG.CandidateLimit = rag.DefaultCandidateLimit
	}
	if cfg.RAG.Retrieval == "" {
		cfg.RAG.Retrieval = rag.RetrievalScan
	}
	if cfg.RAG.MaxTokens == 0 {
		cfg.RAG.MaxTokens = rag.DefaultMaxTokens
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 25 << 20
	}
	if cfg.Upload.MinTextLength == 0 {
		cfg.Upload.MinTextLength = 50
	}
	if cfg.Schedule.ReindexSpec == "" {
		cfg.Schedule.ReindexSpec = "*/10 * * * *"
	}
	if cfg.Schedule.ReindexBatch == 0 {
		cfg.Schedule.ReindexBatch = 20
	}
	if cfg.Schedule.CacheCleanupSpec == "" {
		cfg.Schedule.CacheCleanupSpec = "30 3 * * *"
	}
	if cfg.Schedule.CacheMaxAgeDays == 0 {
		cfg.Schedule.CacheMaxAgeDays = 30
	}
	if cfg.AI.EmbedCache.LRUSize == 0 {
		cfg.AI.EmbedCache.LRUSize = 2048
	}
	if cfg.AI.EmbedCache.LRUTTLMinutes == 0 {
		cfg.AI.EmbedCache.LRUTTLMinutes = 60
	}
	if cfg.RateLimit.ChatWindowMs == 0 {
		cfg.RateLimit.ChatWindowMs = 1000
	}
	if cfg.RateLimit.AuthWindowMs == 0 {
		cfg.RateLimit.AuthWindowMs = 2000
	}
}

// Validate returns the first problem as a *rag.ConfigurationError.
func (c *Config) Validate() error {
	if errs := c.Problems(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Problems lists every configuration error found.
func (c *Config) Problems() []*rag.ConfigurationError {
	var errs []*rag.ConfigurationError
	add := func(field, reason string) {
		errs = append(errs, &rag.ConfigurationError{Field: field, Reason: reason})
	}
	if c.JWTSecret == "" {
		add("jwt_secret", "is required (or set JWT_SECRET)")
	}
	if c.Port < 0 || c.Port > 65535 {
		add("port", "must be between 1 and 65535")
	}
	if c.Database.DSN == "" {
		add("database.dsn", "is required (or set DATABASE_URL)")
	}
	switch c.VectorStore.Type {
	case "pgvector":
	case "sqlite":
		if c.VectorStore.Path == "" {
			add("vector_store.path", "is required for sqlite")
		}
	default:
		add("vector_store.type", "must be pgvector or sqlite")
	}
	if len(c.AI.Embed) == 0 {
		add("ai.embed", "at least one embedding provider is required")
	}
	for i, p := range append(append([]ProviderConfig{}, c.AI.Chat...), c.AI.Embed...) {
		if p.Provider == "" || p.Model == "" {
			add(fmt.Sprintf("ai[%d]", i), "provider and model are required")
		}
	}
	if c.RAG.ChunkSize <= c.RAG.Overlap() || c.RAG.Overlap() < 0 {
		add("rag.chunk_size", "must be greater than rag.chunk_overlap, and overlap must not be negative")
	}
	if c.RAG.EmbeddingDim < 0 {
		add("rag.embedding_dim", "must be positive")
	}
	if c.RAG.Retrieval != rag.RetrievalScan && c.RAG.Retrieval != rag.RetrievalNearest {
		add("rag.retrieval", "must be scan or nearest")
	}
	if c.RAG.Retrieval == rag.RetrievalNearest && c.VectorStore.Type != "pgvector" {
		add("rag.retrieval", "nearest requires the pgvector store")
	}
	if t := c.RAG.Temp(); t < 0 || t > 2 {
		add("rag.temperature", "must be between 0 and 2")
	}
	return errs
}
