package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vcrag/copilot/internal/ai"
	"github.com/vcrag/copilot/internal/model"
	appErr "github.com/vcrag/copilot/internal/pkg/errors"
	"github.com/vcrag/copilot/internal/pkg/timeutil"
	"github.com/vcrag/copilot/internal/rag"
	"github.com/vcrag/copilot/internal/repo"
)

const (
	defaultChatTitle   = "New Chat"
	chatTitleRunes     = 50
	lastMessageRunes   = 100
	defaultChatListCap = 20
	searchResultCap    = 10
)

type ChatService struct {
	chats    *repo.ChatRepo
	messages *repo.MessageRepo
	projects *ProjectService
	pipeline *rag.Pipeline
}

type SendInput struct {
	Message   string
	ChatID    string
	ProjectID string
	TopK      int
}

type SendResult struct {
	ChatID    string         `json:"chat_id"`
	Message   string         `json:"message"`
	Sources   []model.Source `json:"sources"`
	Degraded  bool           `json:"degraded"`
	Timestamp string         `json:"timestamp"`
}

type ChatSummary struct {
	model.Chat
	MessageCount int    `json:"message_count"`
	LastMessage  string `json:"last_message,omitempty"`
}

type ChatHistory struct {
	Chat     *model.Chat     `json:"chat"`
	Messages []model.Message `json:"messages"`
}

func NewChatService(chats *repo.ChatRepo, messages *repo.MessageRepo, projects *ProjectService, pipeline *rag.Pipeline) *ChatService {
	return &ChatService{chats: chats, messages: messages, projects: projects, pipeline: pipeline}
}

func (s *ChatService) NewChat(ctx context.Context, userID, title, projectID string) (*model.Chat, error) {
	if projectID != "" {
		if _, err := s.projects.Get(ctx, userID, projectID); err != nil {
			return nil, err
		}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultChatTitle
	}
	now := timeutil.NowUnix()
	chat := &model.Chat{
		ID:        newID(),
		UserID:    userID,
		ProjectID: projectID,
		Title:     title,
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) List(ctx context.Context, userID, projectID string, limit uint) ([]ChatSummary, error) {
	if limit == 0 {
		limit = defaultChatListCap
	}
	chats, err := s.chats.ListByUser(ctx, userID, projectID, limit, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	counts, err := s.messages.CountByChats(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		item := ChatSummary{Chat: c, MessageCount: counts[c.ID]}
		if item.MessageCount > 0 {
			last, err := s.messages.ListRecent(ctx, c.ID, 1)
			if err != nil {
				return nil, err
			}
			if len(last) > 0 {
				item.LastMessage = truncateRunes(last[0].Content, lastMessageRunes, "")
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *ChatService) History(ctx context.Context, userID, chatID string) (*ChatHistory, error) {
	chat, err := s.chats.GetByID(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByChat(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	return &ChatHistory{Chat: chat, Messages: msgs}, nil
}

func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	return s.chats.Delete(ctx, userID, chatID)
}

// SendMessage stores the user's turn, answers it from the chat's project and
// stores the answer with its sources.
func (s *ChatService) SendMessage(ctx context.Context, userID string, in SendInput) (*SendResult, error) {
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", appErr.ErrInvalid)
	}
	chat, err := s.loadOrCreateChat(ctx, userID, in, text)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("chat_id", chat.ID))

	prior, err := s.messages.ListRecent(ctx, chat.ID, rag.HistoryWindow)
	if err != nil {
		return nil, err
	}
	if err := s.messages.Create(ctx, &model.Message{
		ID:      newID(),
		ChatID:  chat.ID,
		Role:    model.RoleUser,
		Content: text,
		Ctime:   timeutil.NowUnix(),
	}); err != nil {
		return nil, err
	}

	projectID, err := s.scopeFor(ctx, userID, chat, in.ProjectID)
	if err != nil {
		return nil, err
	}
	var answer *rag.Answer
	if projectID == "" {
		logger.Debug("no project to search, answering without context")
		answer = s.pipeline.Converse(ctx, text, toAIHistory(prior))
	} else {
		answer, err = s.pipeline.Ask(ctx, rag.Query{Text: text, ProjectID: projectID, TopK: in.TopK}, toAIHistory(prior))
		if err != nil {
			return nil, err
		}
	}

	now := timeutil.NowUnix()
	if err := s.messages.Create(ctx, &model.Message{
		ID:       newID(),
		ChatID:   chat.ID,
		Role:     model.RoleAssistant,
		Content:  answer.Text,
		Sources:  answer.Sources,
		Degraded: answer.Degraded,
		Ctime:    now,
	}); err != nil {
		return nil, err
	}
	if err := s.chats.Touch(ctx, chat.ID, now); err != nil {
		logger.Warn("touch chat failed", zap.Error(err))
	}
	logger.Info("chat answered",
		zap.String("project_id", projectID),
		zap.Int("sources", len(answer.Sources)),
		zap.Bool("degraded", answer.Degraded),
	)
	sources := answer.Sources
	if sources == nil {
		sources = []model.Source{}
	}
	return &SendResult{
		ChatID:    chat.ID,
		Message:   answer.Text,
		Sources:   sources,
		Degraded:  answer.Degraded,
		Timestamp: time.Unix(now, 0).UTC().Format(time.RFC3339),
	}, nil
}

func (s *ChatService) loadOrCreateChat(ctx context.Context, userID string, in SendInput, text string) (*model.Chat, error) {
	if in.ChatID != "" {
		return s.chats.GetByID(ctx, userID, in.ChatID)
	}
	return s.NewChat(ctx, userID, chatTitle(text), in.ProjectID)
}

// scopeFor picks the project to retrieve from: the chat's, then the request's,
// then the user's "Chat Uploads" project when it exists.
func (s *ChatService) scopeFor(ctx context.Context, userID string, chat *model.Chat, requested string) (string, error) {
	if chat.ProjectID != "" {
		return chat.ProjectID, nil
	}
	if requested != "" {
		if _, err := s.projects.Get(ctx, userID, requested); err != nil {
			return "", err
		}
		return requested, nil
	}
	p, err := s.projects.projects.GetByName(ctx, userID, model.ChatUploadsProjectName)
	if appErr.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *ChatService) Search(ctx context.Context, userID, query, projectID string) ([]model.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", appErr.ErrInvalid)
	}
	return s.messages.Search(ctx, userID, query, projectID, searchResultCap)
}

func toAIHistory(msgs []model.Message) []ai.Message {
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		role := ai.RoleUser
		if m.Role == model.RoleAssistant {
			role = ai.RoleAssistant
		}
		out = append(out, ai.Message{Role: role, Content: m.Content})
	}
	return out
}

func chatTitle(message string) string {
	return truncateRunes(strings.TrimSpace(message), chatTitleRunes, "...")
}

func truncateRunes(s string, limit int, suffix string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + suffix
}
