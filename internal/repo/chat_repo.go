package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/pkg/dbutil"
	appErr "github.com/vcrag/copilot/internal/pkg/errors"
)

var chatColumns = []string{"id", "user_id", "project_id", "title", "ctime", "mtime"}

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Create(ctx context.Context, chat *model.Chat) error {
	var projectID interface{}
	if chat.ProjectID != "" {
		projectID = chat.ProjectID
	}
	data := map[string]interface{}{
		"id":         chat.ID,
		"user_id":    chat.UserID,
		"project_id": projectID,
		"title":      chat.Title,
		"ctime":      chat.Ctime,
		"mtime":      chat.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("chats", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatRepo) GetByID(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	items, err := r.list(ctx, map[string]interface{}{"id": chatID, "user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &items[0], nil
}

// ListByUser returns the user's chats, most recently active first. A non-empty
// projectID narrows the list to that project.
func (r *ChatRepo) ListByUser(ctx context.Context, userID, projectID string, limit, offset uint) ([]model.Chat, error) {
	where := map[string]interface{}{"user_id": userID, "_orderby": "mtime desc"}
	if projectID != "" {
		where["project_id"] = projectID
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	return r.list(ctx, where)
}

func (r *ChatRepo) Touch(ctx context.Context, chatID string, mtime int64) error {
	sqlStr, args, err := builder.BuildUpdate("chats", map[string]interface{}{"id": chatID}, map[string]interface{}{"mtime": mtime})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatRepo) Delete(ctx context.Context, userID, chatID string) error {
	sqlStr, args, err := builder.BuildDelete("chats", map[string]interface{}{"id": chatID, "user_id": userID})
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

func (r *ChatRepo) list(ctx context.Context, where map[string]interface{}) ([]model.Chat, error) {
	sqlStr, args, err := builder.BuildSelect("chats", where, chatColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Chat, 0)
	for rows.Next() {
		var (
			chat      model.Chat
			projectID sql.NullString
		)
		if err := rows.Scan(&chat.ID, &chat.UserID, &projectID, &chat.Title, &chat.Ctime, &chat.Mtime); err != nil {
			return nil, err
		}
		chat.ProjectID = projectID.String
		items = append(items, chat)
	}
	return items, rows.Err()
}
