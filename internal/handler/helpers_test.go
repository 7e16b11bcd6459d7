package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vcrag/copilot/internal/ai"
	"github.com/vcrag/copilot/internal/pkg/errcode"
	appErr "github.com/vcrag/copilot/internal/pkg/errors"
	"github.com/vcrag/copilot/internal/rag"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"not found", appErr.ErrNotFound, errcode.ErrNotFound, "not found"},
		{"wrapped not found", fmt.Errorf("load: %w", appErr.ErrNotFound), errcode.ErrNotFound, "not found"},
		{"invalid with detail", fmt.Errorf("%w: name is required", appErr.ErrInvalid), errcode.ErrInvalid, "name is required"},
		{"invalid bare", appErr.ErrInvalid, errcode.ErrInvalid, "invalid request"},
		{"unauthorized", appErr.ErrUnauthorized, errcode.ErrUnauthorized, "unauthorized"},
		{"conflict", appErr.ErrConflict, errcode.ErrConflict, "conflict"},
		{"too large", appErr.ErrFileTooLarge, errcode.ErrFileTooLarge, "file too large"},
		{"embedding", &rag.EmbeddingError{Err: errors.New("quota")}, errcode.ErrAIUnavailable, "embedding service unavailable"},
		{"provider down", fmt.Errorf("chat: %w", ai.ErrUnavailable), errcode.ErrAIUnavailable, "embedding service unavailable"},
		{"storage", &rag.StorageError{Op: "query", Err: errors.New("conn reset")}, errcode.ErrStorage, "vector store unavailable"},
		{"config", &rag.ConfigurationError{Field: "x", Reason: "y"}, errcode.ErrInternal, "service misconfigured"},
		{"unknown", errors.New("boom"), errcode.ErrInternal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := errorCode(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestFormatUploadLimit(t *testing.T) {
	assert.Equal(t, "25MB", formatUploadLimit(25<<20))
	assert.Equal(t, "1MB", formatUploadLimit(1000))
	assert.Equal(t, "0MB", formatUploadLimit(0))
}
