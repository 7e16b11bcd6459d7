package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vcrag/copilot/internal/rag"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const jsonConfig = `{
	"port": 9000,
	"jwt_secret": "s",
	"database": {"dsn": "postgres://localhost/copilot"},
	"ai": {
		"chat": [{"name": "main", "provider": "openai", "model": "gpt-4o-mini", "data": {"api_key": "sk-file"}}],
		"embed": [{"name": "emb", "provider": "openai", "model": "text-embedding-3-small"}]
	},
	"rag": {"chunk_overlap": 0}
}`

func TestLoadJSONDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	cfg, err := Load(writeFile(t, "config.json", jsonConfig))
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, rag.DefaultChunkSize, cfg.RAG.ChunkSize)
	require.Equal(t, 0, cfg.RAG.Overlap())
	require.Equal(t, rag.DefaultEmbeddingDim, cfg.RAG.EmbeddingDim)
	require.Equal(t, rag.DefaultTemperature, cfg.RAG.Temp())
	require.Equal(t, "pgvector", cfg.VectorStore.Type)
	require.Equal(t, "sk-file", cfg.AI.Chat[0].Data["api_key"])
	require.Equal(t, "sk-env", cfg.AI.Embed[0].Data["api_key"])
}

func TestLoadYAML(t *testing.T) {
	body := `
jwt_secret: s
database:
  dsn: postgres://localhost/copilot
vector_store:
  type: sqlite
  path: /tmp/chunks.db
ai:
  embed:
    - provider: ollama
      model: nomic-embed-text
rag:
  chunk_size: 500
  temperature: 0
`
	cfg, err := Load(writeFile(t, "config.yaml", body))
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.VectorStore.Type)
	require.Equal(t, 500, cfg.RAG.ChunkSize)
	require.Equal(t, rag.DefaultChunkOverlap, cfg.RAG.Overlap())
	require.Equal(t, 0.0, cfg.RAG.Temp())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("JWT_SECRET", "from-env")
	body := `{"ai": {"embed": [{"provider": "gemini", "model": "text-embedding-004"}]}}`
	cfg, err := Load(writeFile(t, "c.json", body))
	require.NoError(t, err)
	require.Equal(t, "postgres://env/db", cfg.Database.DSN)
	require.Equal(t, "from-env", cfg.JWTSecret)
}

func TestValidateReportsConfigurationErrors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	body := `{"rag": {"chunk_size": 100, "chunk_overlap": 100, "retrieval": "nearest"}, "vector_store": {"type": "sqlite"}}`
	_, err := Load(writeFile(t, "bad.json", body))
	var cfgErr *rag.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	cfg := &Config{}
	applyDefaults(cfg)
	fields := map[string]bool{}
	for _, p := range cfg.Problems() {
		fields[p.Field] = true
	}
	require.True(t, fields["jwt_secret"])
	require.True(t, fields["database.dsn"])
	require.True(t, fields["ai.embed"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
