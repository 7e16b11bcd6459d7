package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vcrag/copilot/internal/pkg/errcode"
	"github.com/vcrag/copilot/internal/pkg/response"
	"github.com/vcrag/copilot/internal/service"
)

type ChatHandler struct {
	chats *service.ChatService
}

func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

type newChatRequest struct {
	Title     string `json:"title"`
	ProjectID string `json:"project_id"`
}

type messageRequest struct {
	Message   string `json:"message"`
	ChatID    string `json:"chat_id"`
	ProjectID string `json:"project_id"`
	TopK      int    `json:"top_k"`
}

func (h *ChatHandler) New(c *gin.Context) {
	var req newChatRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
	}
	chat, err := h.chats.NewChat(c.Request.Context(), getUserID(c), req.Title, req.ProjectID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chat)
}

func (h *ChatHandler) List(c *gin.Context) {
	items, err := h.chats.List(c.Request.Context(), getUserID(c), c.Query("project_id"), queryUint(c, "limit"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *ChatHandler) History(c *gin.Context) {
	history, err := h.chats.History(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, history)
}

func (h *ChatHandler) Delete(c *gin.Context) {
	if err := h.chats.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *ChatHandler) Message(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	res, err := h.chats.SendMessage(c.Request.Context(), getUserID(c), service.SendInput{
		Message:   req.Message,
		ChatID:    req.ChatID,
		ProjectID: req.ProjectID,
		TopK:      req.TopK,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ChatHandler) Search(c *gin.Context) {
	msgs, err := h.chats.Search(c.Request.Context(), getUserID(c), c.Query("query"), c.Query("project_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": msgs, "total": len(msgs)})
}
