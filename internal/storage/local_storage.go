package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "go-lingualens/internal/errors"
	"go-lingualens/internal/logger"
	"go-lingualens/pkg/models"
	"go-lingualens/pkg/validation"
)

// ImageStore owns the upload boundary: it validates incoming files, writes
// them to a per-request unique path, and removes them when the request is
// done.
type ImageStore interface {
	Save(header *multipart.FileHeader) (models.ImageAsset, error)
	Remove(asset models.ImageAsset)
}

// LocalImageStore stores uploads on the local filesystem.
type LocalImageStore struct {
	dir       string
	maxSize   int64
	validator *validation.UploadValidator
}

// NewLocalImageStore creates the store and its upload directory.
func NewLocalImageStore(dir string, maxSize int64) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	thresholds := validation.DefaultUploadThresholds()
	thresholds.MaxFileSize = maxSize
	return &LocalImageStore{
		dir:       dir,
		maxSize:   maxSize,
		validator: validation.NewUploadValidatorWithThresholds(thresholds),
	}, nil
}

// Save validates the upload (size ceiling, MIME allow-list, magic-byte
// sniff) and writes it under a unique name. Validation failures are the
// one error class that reaches the caller as a rejection.
func (s *LocalImageStore) Save(header *multipart.FileHeader) (models.ImageAsset, error) {
	if issues := s.validator.ValidateHeader(header); s.validator.HasCriticalIssues(issues) {
		return models.ImageAsset{}, apperrors.NewValidationError(s.validator.FirstError(issues), nil)
	}

	src, err := header.Open()
	if err != nil {
		return models.ImageAsset{}, apperrors.NewValidationError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxSize+1))
	if err != nil {
		return models.ImageAsset{}, apperrors.NewInternalError("failed to read uploaded file", err)
	}
	if issues := s.validator.ValidateContent(data); s.validator.HasCriticalIssues(issues) {
		return models.ImageAsset{}, apperrors.NewValidationError(s.validator.FirstError(issues), nil)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".img"
	}
	path := filepath.Join(s.dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.ImageAsset{}, apperrors.NewInternalError("failed to store uploaded file", err)
	}

	mimeType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	return models.ImageAsset{
		Path:     path,
		Size:     int64(len(data)),
		MimeType: mimeType,
		Filename: filepath.Base(header.Filename),
	}, nil
}

// Remove deletes the stored upload. Best-effort: a failed removal is
// logged, never surfaced.
func (s *LocalImageStore) Remove(asset models.ImageAsset) {
	if asset.Path == "" {
		return
	}
	if err := os.Remove(asset.Path); err != nil && !os.IsNotExist(err) {
		logger.WithError(err).WithField("path", asset.Path).Warn("Failed to remove uploaded file")
	}
}
