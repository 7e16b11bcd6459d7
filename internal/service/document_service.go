package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vcrag/copilot/internal/extract"
	"github.com/vcrag/copilot/internal/filestore"
	"github.com/vcrag/copilot/internal/model"
	appErr "github.com/vcrag/copilot/internal/pkg/errors"
	"github.com/vcrag/copilot/internal/pkg/timeutil"
	"github.com/vcrag/copilot/internal/rag"
	"github.com/vcrag/copilot/internal/repo"
)

type DocumentService struct {
	docs          *repo.DocumentRepo
	projects      *ProjectService
	files         filestore.Store
	chunks        rag.ChunkStore
	indexer       *rag.Indexer
	maxBytes      int64
	minTextLength int
}

type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult is the outcome of one file in a batch upload. Err is set when
// the file was rejected before a document record existed.
type UploadResult struct {
	Filename string          `json:"filename"`
	Document *model.Document `json:"document,omitempty"`
	Err      string          `json:"error,omitempty"`
}

func NewDocumentService(docs *repo.DocumentRepo, projects *ProjectService, files filestore.Store, chunks rag.ChunkStore, indexer *rag.Indexer, maxBytes int64, minTextLength int) *DocumentService {
	return &DocumentService{
		docs:          docs,
		projects:      projects,
		files:         files,
		chunks:        chunks,
		indexer:       indexer,
		maxBytes:      maxBytes,
		minTextLength: minTextLength,
	}
}

// Upload stores, extracts and indexes each file into projectID. An empty
// projectID targets the user's "Chat Uploads" project. One failing file does
// not stop the others.
func (s *DocumentService) Upload(ctx context.Context, userID, projectID string, files []UploadFile) (string, []UploadResult, error) {
	if len(files) == 0 {
		return "", nil, fmt.Errorf("%w: no files provided", appErr.ErrInvalid)
	}
	var project *model.Project
	var err error
	if projectID == "" {
		project, err = s.projects.EnsureUploadProject(ctx, userID)
	} else {
		project, err = s.projects.Get(ctx, userID, projectID)
	}
	if err != nil {
		return "", nil, err
	}
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		doc, err := s.uploadOne(ctx, userID, project.ID, f)
		res := UploadResult{Filename: f.Filename, Document: doc}
		if err != nil {
			res.Err = err.Error()
		}
		results = append(results, res)
	}
	if err := s.projects.projects.Touch(ctx, project.ID, timeutil.NowUnix()); err != nil {
		logutil.GetLogger(ctx).Warn("touch project failed", zap.String("project_id", project.ID), zap.Error(err))
	}
	return project.ID, results, nil
}

func (s *DocumentService) uploadOne(ctx context.Context, userID, projectID string, f UploadFile) (*model.Document, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("filename", f.Filename), zap.Int("size", len(f.Data)))
	if strings.TrimSpace(f.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", appErr.ErrInvalidFile)
	}
	if s.maxBytes > 0 && int64(len(f.Data)) > s.maxBytes {
		return nil, appErr.ErrFileTooLarge
	}
	now := timeutil.NowUnix()
	doc := &model.Document{
		ID:        newID(),
		ProjectID: projectID,
		UserID:    userID,
		Filename:  filepath.Base(f.Filename),
		FileType:  f.ContentType,
		FileSize:  int64(len(f.Data)),
		Status:    model.DocumentStatusProcessing,
		Ctime:     now,
		Mtime:     now,
	}
	if s.files != nil {
		key := storageKey(doc.ID, doc.Filename)
		if err := s.files.Save(ctx, key, bytes.NewReader(f.Data), int64(len(f.Data))); err != nil {
			logger.Warn("store upload failed, indexing anyway", zap.Error(err))
		} else {
			doc.StorageKey = key
		}
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		removeStoredFile(ctx, s.files, doc.StorageKey)
		return nil, err
	}

	text, err := extract.Text(f.Filename, f.ContentType, f.Data)
	if err != nil {
		logger.Warn("extract text failed", zap.Error(err))
		return doc, s.finish(ctx, doc, 0, err)
	}
	doc.Content = strings.TrimSpace(text)
	n, err := s.index(ctx, doc)
	return doc, s.finish(ctx, doc, n, err)
}

func (s *DocumentService) index(ctx context.Context, doc *model.Document) (int, error) {
	if utf8.RuneCountInString(doc.Content) < s.minTextLength {
		return 0, fmt.Errorf("extracted text shorter than %d characters", s.minTextLength)
	}
	return s.indexer.Index(ctx, rag.IndexRequest{
		ProjectID:  doc.ProjectID,
		DocumentID: doc.ID,
		Title:      doc.Filename,
		Source:     doc.Filename,
		SourceType: model.SourceTypeUpload,
		Content:    doc.Content,
	})
}

// finish records the indexing outcome. The index error itself is kept on the
// document; only a failed status write is returned.
func (s *DocumentService) finish(ctx context.Context, doc *model.Document, chunks int, indexErr error) error {
	doc.Mtime = timeutil.NowUnix()
	doc.Metadata = model.DocumentMeta{TextLength: utf8.RuneCountInString(doc.Content)}
	if indexErr != nil {
		doc.Status = model.DocumentStatusFailed
		doc.Metadata.Error = indexErr.Error()
	} else {
		doc.Status = model.DocumentStatusCompleted
		doc.Metadata.ChunksCreated = chunks
	}
	if err := s.docs.UpdateResult(ctx, doc); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("document processed",
		zap.String("document_id", doc.ID),
		zap.String("status", doc.Status),
		zap.Int("chunks", chunks),
		zap.Int("text_length", doc.Metadata.TextLength),
	)
	return nil
}

func (s *DocumentService) List(ctx context.Context, userID, projectID string) ([]model.Document, error) {
	if _, err := s.projects.Get(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.docs.ListByProject(ctx, userID, projectID)
}

// Delete removes the document's chunks, stored file and record.
func (s *DocumentService) Delete(ctx context.Context, userID, docID string) error {
	doc, err := s.docs.GetByID(ctx, userID, docID)
	if err != nil {
		return err
	}
	if err := s.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
		return err
	}
	removeStoredFile(ctx, s.files, doc.StorageKey)
	return s.docs.Delete(ctx, userID, docID)
}

// ClearUploads deletes every document of the user's "Chat Uploads" project.
func (s *DocumentService) ClearUploads(ctx context.Context, userID string) (int, int, error) {
	project, err := s.projects.projects.GetByName(ctx, userID, model.ChatUploadsProjectName)
	if appErr.IsNotFound(err) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	chunks, err := s.chunks.CountByProject(ctx, project.ID)
	if err != nil {
		return 0, 0, err
	}
	docs, err := s.docs.ListByProject(ctx, userID, project.ID)
	if err != nil {
		return 0, 0, err
	}
	if err := s.chunks.DeleteByProject(ctx, project.ID); err != nil {
		return 0, 0, err
	}
	deleted := 0
	for _, doc := range docs {
		removeStoredFile(ctx, s.files, doc.StorageKey)
		if err := s.docs.Delete(ctx, userID, doc.ID); err != nil && !appErr.IsNotFound(err) {
			return deleted, chunks, err
		}
		deleted++
	}
	return deleted, chunks, nil
}

// ReindexFailed retries up to limit failed documents whose extracted text was kept.
// It returns how many reached completed.
func (s *DocumentService) ReindexFailed(ctx context.Context, limit uint) (int, error) {
	docs, err := s.docs.ListByStatus(ctx, model.DocumentStatusFailed, limit)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		doc := &docs[i]
		if utf8.RuneCountInString(doc.Content) < s.minTextLength {
			continue
		}
		if err := s.chunks.DeleteByDocument(ctx, doc.ID); err != nil {
			return fixed, err
		}
		n, indexErr := s.index(ctx, doc)
		if err := s.finish(ctx, doc, n, indexErr); err != nil {
			if errors.Is(err, appErr.ErrNotFound) {
				continue
			}
			return fixed, err
		}
		if indexErr == nil {
			fixed++
		}
	}
	return fixed, nil
}

// storageKey derives a flat object key from the document id, keeping a
// sanitized extension for content sniffing by downstream tools.
func storageKey(docID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	clean := make([]rune, 0, len(ext))
	for _, r := range strings.TrimPrefix(ext, ".") {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 || len(clean) > 10 {
		return docID
	}
	return docID + "." + string(clean)
}

// Open returns the document and a reader over its stored original.
func (s *DocumentService) Open(ctx context.Context, userID, docID string) (*model.Document, io.ReadCloser, error) {
	doc, err := s.docs.GetByID(ctx, userID, docID)
	if err != nil {
		return nil, nil, err
	}
	if s.files == nil || doc.StorageKey == "" {
		return nil, nil, appErr.ErrNotFound
	}
	rc, err := s.files.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open stored file: %w", err)
	}
	return doc, rc, nil
}
