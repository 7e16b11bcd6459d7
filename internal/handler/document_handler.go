package handler

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vcrag/copilot/internal/pkg/errcode"
	"github.com/vcrag/copilot/internal/pkg/response"
	"github.com/vcrag/copilot/internal/service"
)

const uploadField = "files"

type DocumentHandler struct {
	documents *service.DocumentService
	maxBytes  int64
}

func NewDocumentHandler(documents *service.DocumentService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxBytes: maxBytes}
}

// Upload indexes files into the project in the path.
func (h *DocumentHandler) Upload(c *gin.Context) {
	h.upload(c, c.Param("id"))
}

// ChatUpload indexes files into the caller's "Chat Uploads" project.
func (h *DocumentHandler) ChatUpload(c *gin.Context) {
	h.upload(c, "")
}

func (h *DocumentHandler) upload(c *gin.Context, projectID string) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "multipart form required")
		return
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		response.Error(c, errcode.ErrInvalidFile, "no files provided")
		return
	}
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if h.maxBytes > 0 && fh.Size > h.maxBytes {
			response.Error(c, errcode.ErrFileTooLarge, fh.Filename+" exceeds "+formatUploadLimit(h.maxBytes))
			return
		}
		data, err := readFormFile(fh, h.maxBytes)
		if err != nil {
			response.Error(c, errcode.ErrInvalidFile, "failed to read "+fh.Filename)
			return
		}
		files = append(files, service.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	pid, results, err := h.documents.Upload(c.Request.Context(), getUserID(c), projectID, files)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"project_id": pid, "files": results})
}

func readFormFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	return io.ReadAll(r)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// Download streams the stored original of a document.
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, rc, err := h.documents.Open(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	contentType := doc.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

func (h *DocumentHandler) ClearUploads(c *gin.Context) {
	docs, chunks, err := h.documents.ClearUploads(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents_deleted": docs, "chunks_deleted": chunks})
}
