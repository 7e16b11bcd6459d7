package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/vcrag/copilot/internal/model"
	"github.com/vcrag/copilot/internal/pkg/dbutil"
)

var messageColumns = []string{"id", "chat_id", "role", "content", "sources", "degraded", "ctime"}

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, msg *model.Message) error {
	sources := msg.Sources
	if sources == nil {
		sources = []model.Source{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":       msg.ID,
		"chat_id":  msg.ChatID,
		"role":     msg.Role,
		"content":  msg.Content,
		"sources":  string(raw),
		"degraded": msg.Degraded,
		"ctime":    msg.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("messages", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListByChat returns a chat's messages in insertion order. seq breaks ties
// between messages written within the same second.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID string) ([]model.Message, error) {
	sqlStr, args, err := builder.BuildSelect("messages", map[string]interface{}{"chat_id": chatID, "_orderby": "ctime asc, seq asc"}, messageColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.query(ctx, sqlStr, args)
}

// ListRecent returns the newest limit messages of a chat, oldest first.
func (r *MessageRepo) ListRecent(ctx context.Context, chatID string, limit uint) ([]model.Message, error) {
	sqlStr, args, err := builder.BuildSelect("messages", map[string]interface{}{
		"chat_id":  chatID,
		"_orderby": "ctime desc, seq desc",
		"_limit":   []uint{0, limit},
	}, messageColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	items, err := r.query(ctx, sqlStr, args)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// Search matches message content for chats owned by userID, newest first.
func (r *MessageRepo) Search(ctx context.Context, userID, keyword, projectID string, limit uint) ([]model.Message, error) {
	sqlStr := `
		SELECT m.id, m.chat_id, m.role, m.content, m.sources, m.degraded, m.ctime
		FROM messages m
		JOIN chats c ON c.id = m.chat_id
		WHERE c.user_id = ? AND m.content ILIKE ?
	`
	args := []interface{}{userID, "%" + dbutil.EscapeLike(keyword) + "%"}
	if projectID != "" {
		sqlStr += ` AND c.project_id = ?`
		args = append(args, projectID)
	}
	sqlStr += ` ORDER BY m.ctime DESC, m.seq DESC LIMIT ?`
	args = append(args, limit)
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.query(ctx, sqlStr, args)
}

// CountByChats returns the number of messages per chat id.
func (r *MessageRepo) CountByChats(ctx context.Context, chatIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}
	sqlStr, args, err := sqlx.In(`SELECT chat_id, COUNT(1) FROM messages WHERE chat_id IN (?) GROUP BY chat_id`, chatIDs)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			chatID string
			n      int
		)
		if err := rows.Scan(&chatID, &n); err != nil {
			return nil, err
		}
		out[chatID] = n
	}
	return out, rows.Err()
}

func (r *MessageRepo) query(ctx context.Context, sqlStr string, args []interface{}) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Message, 0)
	for rows.Next() {
		var (
			msg     model.Message
			sources []byte
		)
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &sources, &msg.Degraded, &msg.Ctime); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			_ = json.Unmarshal(sources, &msg.Sources)
		}
		items = append(items, msg)
	}
	return items, rows.Err()
}
