package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vcrag/copilot/internal/filestore"
	"github.com/vcrag/copilot/internal/model"
	appErr "github.com/vcrag/copilot/internal/pkg/errors"
	"github.com/vcrag/copilot/internal/pkg/timeutil"
	"github.com/vcrag/copilot/internal/rag"
	"github.com/vcrag/copilot/internal/repo"
)

type ProjectService struct {
	projects *repo.ProjectRepo
	docs     *repo.DocumentRepo
	chunks   rag.ChunkStore
	files    filestore.Store
	pipeline *rag.Pipeline
}

func NewProjectService(projects *repo.ProjectRepo, docs *repo.DocumentRepo, chunks rag.ChunkStore, files filestore.Store, pipeline *rag.Pipeline) *ProjectService {
	return &ProjectService{projects: projects, docs: docs, chunks: chunks, files: files, pipeline: pipeline}
}

func (s *ProjectService) Create(ctx context.Context, userID, name, description, projectType string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", appErr.ErrInvalid)
	}
	projectType = strings.TrimSpace(projectType)
	if projectType == "" {
		projectType = model.ProjectTypePortfolioCompany
	}
	now := timeutil.NowUnix()
	p := &model.Project{
		ID:          newID(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Type:        projectType,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]model.Project, error) {
	return s.projects.ListByUser(ctx, userID)
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*model.Project, error) {
	return s.projects.GetByID(ctx, userID, projectID)
}

// EnsureUploadProject returns the user's "Chat Uploads" project, creating it on first use.
func (s *ProjectService) EnsureUploadProject(ctx context.Context, userID string) (*model.Project, error) {
	p, err := s.projects.GetByName(ctx, userID, model.ChatUploadsProjectName)
	if err == nil {
		return p, nil
	}
	if !appErr.IsNotFound(err) {
		return nil, err
	}
	return s.Create(ctx, userID, model.ChatUploadsProjectName, "Files uploaded via chat interface", model.ProjectTypeUploads)
}

// Delete removes the project with its documents, stored files and chunks.
// Chats keep their messages and lose the project link.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	if _, err := s.projects.GetByID(ctx, userID, projectID); err != nil {
		return err
	}
	docs, err := s.docs.ListByProject(ctx, userID, projectID)
	if err != nil {
		return err
	}
	if err := s.chunks.DeleteByProject(ctx, projectID); err != nil {
		return err
	}
	for _, doc := range docs {
		removeStoredFile(ctx, s.files, doc.StorageKey)
	}
	if err := s.projects.Delete(ctx, userID, projectID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("project deleted",
		zap.String("project_id", projectID), zap.Int("documents", len(docs)))
	return nil
}

func (s *ProjectService) Intelligence(ctx context.Context, userID, projectID string) (*model.ProjectIntelligence, error) {
	if _, err := s.projects.GetByID(ctx, userID, projectID); err != nil {
		return nil, err
	}
	stats, err := s.docs.StatsByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunks.CountByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &model.ProjectIntelligence{
		ProjectID:      projectID,
		DocumentCount:  stats.Total,
		CompletedCount: stats.Completed,
		FailedCount:    stats.Failed,
		ChunkCount:     chunks,
		TotalChars:     stats.TotalChars,
		LastIndexed:    stats.LastMtime,
	}, nil
}

// Search ranks the project's chunks against query without calling the chat model.
func (s *ProjectService) Search(ctx context.Context, userID, projectID, query string, topK int) ([]rag.RetrievalResult, error) {
	if _, err := s.projects.GetByID(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.pipeline.Search(ctx, rag.Query{Text: query, ProjectID: projectID, TopK: topK})
}

func removeStoredFile(ctx context.Context, files filestore.Store, key string) {
	if files == nil || key == "" {
		return
	}
	if err := files.Delete(ctx, key); err != nil {
		logutil.GetLogger(ctx).Warn("delete stored file failed", zap.String("key", key), zap.Error(err))
	}
}
