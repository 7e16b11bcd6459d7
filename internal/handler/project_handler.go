package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vcrag/copilot/internal/pkg/errcode"
	"github.com/vcrag/copilot/internal/pkg/response"
	"github.com/vcrag/copilot/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
}

func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	p, err := h.projects.Create(c.Request.Context(), getUserID(c), req.Name, req.Description, req.Type)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

func (h *ProjectHandler) List(c *gin.Context) {
	items, err := h.projects.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, p)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *ProjectHandler) Intelligence(c *gin.Context) {
	intel, err := h.projects.Intelligence(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, intel)
}

func (h *ProjectHandler) Search(c *gin.Context) {
	topK := 0
	if v := c.Query("top_k"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			response.Error(c, errcode.ErrInvalid, "top_k must be a positive integer")
			return
		}
		topK = parsed
	}
	results, err := h.projects.Search(c.Request.Context(), getUserID(c), c.Param("id"), c.Query("q"), topK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results, "total": len(results)})
}
