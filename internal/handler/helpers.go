package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vcrag/copilot/internal/ai"
	"github.com/vcrag/copilot/internal/middleware"
	"github.com/vcrag/copilot/internal/pkg/errcode"
	appErr "github.com/vcrag/copilot/internal/pkg/errors"
	"github.com/vcrag/copilot/internal/pkg/response"
	"github.com/vcrag/copilot/internal/rag"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

func queryUint(c *gin.Context, key string) uint {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil || value <= 0 {
		return 0
	}
	return uint(value)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, msg := errorCode(err)
	log := logutil.GetLogger(c.Request.Context()).With(
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	if code == errcode.ErrInternal || code == errcode.ErrStorage {
		log.Error("request failed")
	} else {
		log.Warn("request rejected", zap.Int("code", code))
	}
	response.Error(c, code, msg)
}

// errorCode maps an error to its wire code and a message safe to show the caller.
func errorCode(err error) (int, string) {
	var (
		embedErr *rag.EmbeddingError
		storeErr *rag.StorageError
		cfgErr   *rag.ConfigurationError
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		return errcode.ErrUnauthorized, "unauthorized"
	case errors.Is(err, appErr.ErrForbidden):
		return errcode.ErrForbidden, "forbidden"
	case errors.Is(err, appErr.ErrNotFound):
		return errcode.ErrNotFound, "not found"
	case errors.Is(err, appErr.ErrConflict):
		return errcode.ErrConflict, "conflict"
	case errors.Is(err, appErr.ErrInvalid):
		return errcode.ErrInvalid, detail(err, appErr.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrInvalidFile):
		return errcode.ErrInvalidFile, detail(err, appErr.ErrInvalidFile, "invalid file")
	case errors.Is(err, appErr.ErrFileTooLarge):
		return errcode.ErrFileTooLarge, "file too large"
	case errors.As(err, &embedErr), errors.Is(err, ai.ErrUnavailable):
		return errcode.ErrAIUnavailable, "embedding service unavailable"
	case errors.As(err, &storeErr):
		return errcode.ErrStorage, "vector store unavailable"
	case errors.As(err, &cfgErr):
		return errcode.ErrInternal, "service misconfigured"
	default:
		return errcode.ErrInternal, "internal error"
	}
}

// detail keeps the text a service wrapped around a sentinel, e.g. "invalid: name is required".
func detail(err, sentinel error, fallback string) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == err.Error() || msg == "" {
		return fallback
	}
	return msg
}
