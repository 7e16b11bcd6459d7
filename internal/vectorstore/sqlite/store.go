package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/rag"
	_ "modernc.org/sqlite"
)

const table = "chunks"

const schema = `CREATE TABLE IF NOT EXISTS chunks (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	project_id TEXT NOT NULL,
	document_id TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	source_type TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	metadata TEXT NOT NULL,
	ctime INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS chunks_project_idx ON chunks (project_id, seq);
CREATE INDEX IF NOT EXISTS chunks_document_idx ON chunks (document_id);`

// Store keeps chunks in a single-file sqlite database. The metadata column
// holds the full JSON blob, embedding included.
type Store struct {
	db             *sqlx.DB
	candidateLimit int
}

type chunkRow struct {
	ID         string `db:"id"`
	ProjectID  string `db:"project_id"`
	DocumentID string `db:"document_id"`
	Content    string `db:"content"`
	SourceType string `db:"source_type"`
	ChunkIndex int    `db:"chunk_index"`
	Metadata   string `db:"metadata"`
	Ctime      int64  `db:"ctime"`
}

var columns = []string{"id", "project_id", "document_id", "content", "source_type", "chunk_index", "metadata", "ctime"}

// Open opens path, ":memory:" included, and creates the schema.
func Open(ctx context.Context, path string, candidateLimit int) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &rag.ConfigurationError{Field: "vector_store.path", Reason: "required for sqlite store"}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, &rag.StorageError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, &rag.StorageError{Op: "initialize", Err: err}
	}
	if candidateLimit <= 0 {
		candidateLimit = rag.DefaultCandidateLimit
	}
	return &Store{db: db, candidateLimit: candidateLimit}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(ctx context.Context, chunk *model.Chunk) error {
	return s.PutBatch(ctx, []*model.Chunk{chunk})
}

func (s *Store) PutBatch(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(chunks))
	for _, c := range chunks {
		if c.ProjectID == "" {
			return &rag.StorageError{Op: "put", Err: fmt.Errorf("chunk %s has no project", c.ID)}
		}
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return &rag.StorageError{Op: "encode metadata", Err: err}
		}
		data = append(data, map[string]interface{}{
			"id":          c.ID,
			"project_id":  c.ProjectID,
			"document_id": c.DocumentID,
			"content":     c.Content,
			"source_type": c.SourceType,
			"chunk_index": c.ChunkIndex,
			"metadata":    string(meta),
			"ctime":       c.Ctime,
		})
	}
	query, args, err := builder.BuildInsert(table, data)
	if err != nil {
		return &rag.StorageError{Op: "build insert", Err: err}
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return &rag.StorageError{Op: "begin", Err: err}
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return &rag.StorageError{Op: "put", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &rag.StorageError{Op: "commit", Err: err}
	}
	return nil
}

func (s *Store) Candidates(ctx context.Context, projectID string) ([]model.StoredChunk, error) {
	where := map[string]interface{}{
		"_orderby": "seq asc",
		"_limit":   []uint{0, uint(s.candidateLimit)},
	}
	if projectID != "" {
		where["project_id"] = projectID
	}
	query, args, err := builder.BuildSelect(table, where, columns)
	if err != nil {
		return nil, &rag.StorageError{Op: "build select", Err: err}
	}
	var rows []chunkRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, &rag.StorageError{Op: "candidates", Err: err}
	}
	out := make([]model.StoredChunk, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.StoredChunk{
			ID:          r.ID,
			ProjectID:   r.ProjectID,
			DocumentID:  r.DocumentID,
			Content:     r.Content,
			SourceType:  r.SourceType,
			ChunkIndex:  r.ChunkIndex,
			RawMetadata: []byte(r.Metadata),
			Ctime:       r.Ctime,
		})
	}
	return out, nil
}

func (s *Store) delete(ctx context.Context, op string, where map[string]interface{}) error {
	query, args, err := builder.BuildDelete(table, where)
	if err != nil {
		return &rag.StorageError{Op: op, Err: err}
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return &rag.StorageError{Op: op, Err: err}
	}
	return nil
}

func (s *Store) DeleteByProject(ctx context.Context, projectID string) error {
	return s.delete(ctx, "delete by project", map[string]interface{}{"project_id": projectID})
}

func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	return s.delete(ctx, "delete by document", map[string]interface{}{"document_id": documentID})
}

func (s *Store) CountByProject(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(1) FROM chunks WHERE project_id = ?", projectID)
	if err != nil && err != sql.ErrNoRows {
		return 0, &rag.StorageError{Op: "count", Err: err}
	}
	return n, nil
}
