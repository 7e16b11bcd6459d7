package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/rag"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var tableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type Config struct {
	DSN            string
	Table          string
	Dim            int
	CandidateLimit int
	// IndexLists is the ivfflat list count. Zero skips index creation.
	IndexLists int
}

// Store keeps chunks in a postgres table with a native vector column.
// Metadata is stored as jsonb without the embedding.
type Store struct {
	cfg  Config
	pool *pgxpool.Pool
}

type storedMeta struct {
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Table == "" {
		cfg.Table = "chunks"
	}
	if !tableNameRegex.MatchString(cfg.Table) {
		return nil, &rag.ConfigurationError{Field: "vector_store.table", Reason: "invalid table name " + cfg.Table}
	}
	if cfg.Dim <= 0 {
		cfg.Dim = rag.DefaultEmbeddingDim
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = rag.DefaultCandidateLimit
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, &rag.ConfigurationError{Field: "database.dsn", Reason: "required for pgvector store"}
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, &rag.StorageError{Op: "connect", Err: err}
	}
	s := &Store{cfg: cfg, pool: pool}
	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			document_id TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			source_type TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d),
			ctime BIGINT NOT NULL
		)`, s.cfg.Table, s.cfg.Dim),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_project_idx ON %s (project_id, seq)", s.cfg.Table, s.cfg.Table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id)", s.cfg.Table, s.cfg.Table),
	}
	if s.cfg.IndexLists > 0 {
		stmts = append(stmts, fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d)`, s.cfg.Table, s.cfg.Table, s.cfg.IndexLists))
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &rag.StorageError{Op: "initialize", Err: err}
		}
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Put(ctx context.Context, chunk *model.Chunk) error {
	return s.PutBatch(ctx, []*model.Chunk{chunk})
}

func (s *Store) PutBatch(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, c := range chunks {
		if c.ProjectID == "" {
			return &rag.StorageError{Op: "put", Err: fmt.Errorf("chunk %s has no project", c.ID)}
		}
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &rag.StorageError{Op: "begin", Err: err}
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	stmt := fmt.Sprintf(`INSERT INTO %s (id, project_id, document_id, content, source_type, chunk_index, metadata, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.cfg.Table)
	for _, c := range chunks {
		meta, err := json.Marshal(storedMeta{Title: c.Metadata.Title, Source: c.Metadata.Source})
		if err != nil {
			return &rag.StorageError{Op: "encode metadata", Err: err}
		}
		var embedding interface{}
		if len(c.Metadata.Embedding) > 0 {
			if len(c.Metadata.Embedding) != s.cfg.Dim {
				return &rag.StorageError{Op: "put", Err: fmt.Errorf("chunk %s has %d dimensions, table expects %d", c.ID, len(c.Metadata.Embedding), s.cfg.Dim)}
			}
			embedding = pgv.NewVector(c.Metadata.Embedding)
		}
		if _, err := tx.Exec(ctx, stmt, c.ID, c.ProjectID, c.DocumentID, c.Content, c.SourceType, c.ChunkIndex, string(meta), embedding, c.Ctime); err != nil {
			return &rag.StorageError{Op: "put", Err: err}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &rag.StorageError{Op: "commit", Err: err}
	}
	return nil
}

func (s *Store) Candidates(ctx context.Context, projectID string) ([]model.StoredChunk, error) {
	query := fmt.Sprintf(`SELECT id, project_id, document_id, content, source_type, chunk_index, metadata, embedding, ctime
		FROM %s WHERE ($1 = '' OR project_id = $1) ORDER BY seq LIMIT $2`, s.cfg.Table)
	rows, err := s.pool.Query(ctx, query, projectID, s.cfg.CandidateLimit)
	if err != nil {
		return nil, &rag.StorageError{Op: "candidates", Err: err}
	}
	defer rows.Close()
	var out []model.StoredChunk
	for rows.Next() {
		var (
			c         model.StoredChunk
			meta      []byte
			embedding *pgv.Vector
		)
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.DocumentID, &c.Content, &c.SourceType, &c.ChunkIndex, &meta, &embedding, &c.Ctime); err != nil {
			return nil, &rag.StorageError{Op: "scan candidate", Err: err}
		}
		c.RawMetadata = meta
		if embedding != nil {
			c.Embedding = embedding.Slice()
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &rag.StorageError{Op: "candidates", Err: err}
	}
	return out, nil
}

// Nearest ranks inside postgres using cosine distance; similarity is 1 - distance.
func (s *Store) Nearest(ctx context.Context, projectID string, query []float32, k int) ([]rag.RetrievalResult, error) {
	if k <= 0 {
		k = rag.DefaultTopK
	}
	vec := pgv.NewVector(rag.FitDimension(query, s.cfg.Dim))
	sql := fmt.Sprintf(`SELECT id, document_id, content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM %s WHERE embedding IS NOT NULL AND ($2 = '' OR project_id = $2)
		ORDER BY embedding <=> $1, seq LIMIT $3`, s.cfg.Table)
	rows, err := s.pool.Query(ctx, sql, vec, projectID, k)
	if err != nil {
		return nil, &rag.StorageError{Op: "nearest", Err: err}
	}
	defer rows.Close()
	var out []rag.RetrievalResult
	malformed := 0
	for rows.Next() {
		var (
			res  rag.RetrievalResult
			meta []byte
		)
		if err := rows.Scan(&res.ChunkID, &res.DocumentID, &res.Content, &meta, &res.Similarity); err != nil {
			return nil, &rag.StorageError{Op: "scan nearest", Err: err}
		}
		var sm storedMeta
		if err := json.Unmarshal(meta, &sm); err != nil {
			malformed++
			continue
		}
		res.Metadata = model.ChunkMetadata{Title: sm.Title, Source: sm.Source}
		res.Similarity = finiteSimilarity(res.Similarity)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, &rag.StorageError{Op: "nearest", Err: err}
	}
	if malformed > 0 {
		logutil.GetLogger(ctx).Info("nearest search skipped candidates",
			zap.String("project_id", projectID),
			zap.Int("returned", len(out)),
			zap.Int("malformed", malformed))
	}
	return out, nil
}

// finiteSimilarity maps the NaN that cosine distance yields for zero-norm
// vectors to 0, matching rag.Cosine.
func finiteSimilarity(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (s *Store) DeleteByProject(ctx context.Context, projectID string) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE project_id = $1", s.cfg.Table), projectID); err != nil {
		return &rag.StorageError{Op: "delete by project", Err: err}
	}
	return nil
}

func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", s.cfg.Table), documentID); err != nil {
		return &rag.StorageError{Op: "delete by document", Err: err}
	}
	return nil
}

func (s *Store) CountByProject(ctx context.Context, projectID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE project_id = $1", s.cfg.Table), projectID).Scan(&n); err != nil {
		return 0, &rag.StorageError{Op: "count", Err: err}
	}
	return n, nil
}
