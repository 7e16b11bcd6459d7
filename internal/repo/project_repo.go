package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/pkg/dbutil"
	appErr "github.com/vcrag/copilot/internal/pkg/errors"
)

var projectColumns = []string{"id", "user_id", "name", "description", "type", "ctime", "mtime"}

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	data := map[string]interface{}{
		"id":          p.ID,
		"user_id":     p.UserID,
		"name":        p.Name,
		"description": p.Description,
		"type":        p.Type,
		"ctime":       p.Ctime,
		"mtime":       p.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("projects", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, userID, projectID string) (*model.Project, error) {
	items, err := r.list(ctx, map[string]interface{}{"id": projectID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

// GetByIDUnscoped loads a project without an ownership check. Only the CLI uses it.
func (r *ProjectRepo) GetByIDUnscoped(ctx context.Context, projectID string) (*model.Project, error) {
	items, err := r.list(ctx, map[string]interface{}{"id": projectID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *ProjectRepo) GetByName(ctx context.Context, userID, name string) (*model.Project, error) {
	items, err := r.list(ctx, map[string]interface{}{"user_id": userID, "name": name, "_orderby": "ctime asc", "_limit": []uint{0, 1}})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

func (r *ProjectRepo) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	return r.list(ctx, map[string]interface{}{"user_id": userID, "_orderby": "mtime desc"})
}

func (r *ProjectRepo) Touch(ctx context.Context, projectID string, mtime int64) error {
	sqlStr, args, err := builder.BuildUpdate("projects", map[string]interface{}{"id": projectID}, map[string]interface{}{"mtime": mtime})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ProjectRepo) Delete(ctx context.Context, userID, projectID string) error {
	sqlStr, args, err := builder.BuildDelete("projects", map[string]interface{}{"id": projectID, "user_id": userID})
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

func (r *ProjectRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Project, error) {
	sqlStr, args, err := builder.BuildSelect("projects", where, projectColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Project, 0)
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Type, &p.Ctime, &p.Mtime); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
