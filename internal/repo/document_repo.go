package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/pkg/dbutil"
	appErr "github.com/vcrag/copilot/internal/pkg/errors"
)

var documentColumns = []string{"id", "project_id", "user_id", "filename", "file_type", "file_size", "storage_key", "status", "content", "metadata", "ctime", "mtime"}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

type DocumentStats struct {
	Total      int
	Completed  int
	Failed     int
	TotalChars int
	LastMtime  int64
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":          doc.ID,
		"project_id":  doc.ProjectID,
		"user_id":     doc.UserID,
		"filename":    doc.Filename,
		"file_type":   doc.FileType,
		"file_size":   doc.FileSize,
		"storage_key": doc.StorageKey,
		"status":      doc.Status,
		"content":     doc.Content,
		"metadata":    string(meta),
		"ctime":       doc.Ctime,
		"mtime":       doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// UpdateResult records the outcome of an indexing attempt.
func (r *DocumentRepo) UpdateResult(ctx context.Context, doc *model.Document) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return err
	}
	update := map[string]interface{}{
		"status":   doc.Status,
		"content":  doc.Content,
		"metadata": string(meta),
		"mtime":    doc.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", map[string]interface{}{"id": doc.ID}, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, userID, docID string) (*model.Document, error) {
	items, err := r.list(ctx, map[string]interface{}{"id": docID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *DocumentRepo) ListByProject(ctx context.Context, userID, projectID string) ([]model.Document, error) {
	return r.list(ctx, map[string]interface{}{"project_id": projectID, "user_id": userID, "_orderby": "ctime desc"})
}

// ListByStatus returns the oldest documents in status, for background retries.
func (r *DocumentRepo) ListByStatus(ctx context.Context, status string, limit uint) ([]model.Document, error) {
	return r.list(ctx, map[string]interface{}{"status": status, "_orderby": "mtime asc", "_limit": []uint{0, limit}})
}

func (r *DocumentRepo) Delete(ctx context.Context, userID, docID string) error {
	sqlStr, args, err := builder.BuildDelete("documents", map[string]interface{}{"id": docID, "user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) StatsByProject(ctx context.Context, projectID string) (*DocumentStats, error) {
	sqlStr := `
		SELECT
			COUNT(1),
			COUNT(1) FILTER (WHERE status = ?),
			COUNT(1) FILTER (WHERE status = ?),
			COALESCE(SUM(LENGTH(content)), 0),
			COALESCE(MAX(mtime), 0)
		FROM documents
		WHERE project_id = ?
	`
	args := []interface{}{model.DocumentStatusCompleted, model.DocumentStatusFailed, projectID}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var st DocumentStats
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&st.Total, &st.Completed, &st.Failed, &st.TotalChars, &st.LastMtime); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *DocumentRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Document, 0)
	for rows.Next() {
		var (
			doc  model.Document
			meta []byte
		)
		if err := rows.Scan(&doc.ID, &doc.ProjectID, &doc.UserID, &doc.Filename, &doc.FileType, &doc.FileSize,
			&doc.StorageKey, &doc.Status, &doc.Content, &meta, &doc.Ctime, &doc.Mtime); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &doc.Metadata)
		}
		items = append(items, doc)
	}
	return items, rows.Err()
}
