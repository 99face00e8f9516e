package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"go-lingualens/internal/logger"
	"go-lingualens/internal/observer"
	"go-lingualens/internal/repository"
	"go-lingualens/internal/storage"
	"go-lingualens/pkg/models"
)

// Analyzer is the pipeline capability the service drives.
type Analyzer interface {
	Analyze(ctx context.Context, asset models.ImageAsset) (models.AnalysisRecord, error)
}

// AnalysisService is the application service behind the HTTP layer: it
// owns the upload lifecycle, drives the pipeline, and dispatches the
// fire-and-forget persistence write.
type AnalysisService interface {
	AnalyzeUpload(ctx context.Context, header *multipart.FileHeader) (*models.AnalysisResponse, error)
	RecentAnalyses(ctx context.Context, limit int) ([]models.AnalysisHistoryEntry, error)
}

type analysisService struct {
	store          storage.ImageStore
	pipeline       Analyzer
	repo           repository.AnalysisRepository // nil when persistence is unconfigured
	events         observer.Subject
	languageLabel  string
	persistTimeout time.Duration
}

// NewAnalysisService creates the service. repo may be nil; events may be
// nil when no observers are registered.
func NewAnalysisService(
	store storage.ImageStore,
	analysisPipeline Analyzer,
	repo repository.AnalysisRepository,
	events observer.Subject,
	languages []string,
	persistTimeout time.Duration,
) AnalysisService {
	if persistTimeout <= 0 {
		persistTimeout = 5 * time.Second
	}
	return &analysisService{
		store:          store,
		pipeline:       analysisPipeline,
		repo:           repo,
		events:         events,
		languageLabel:  strings.Join(languages, "+"),
		persistTimeout: persistTimeout,
	}
}

// AnalyzeUpload runs the full request lifecycle for one uploaded image.
// The stored upload is removed on every exit path.
func (s *analysisService) AnalyzeUpload(ctx context.Context, header *multipart.FileHeader) (*models.AnalysisResponse, error) {
	start := time.Now()
	filename := ""
	if header != nil {
		filename = header.Filename
	}
	s.notify(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		Timestamp: start,
		Filename:  filename,
	})

	asset, err := s.store.Save(header)
	if err != nil {
		s.notifyFailure(ctx, filename, start, err)
		return nil, err
	}
	defer s.store.Remove(asset)

	record, err := s.pipeline.Analyze(ctx, asset)
	if err != nil {
		s.notifyFailure(ctx, asset.Filename, start, err)
		return nil, err
	}

	s.persistAsync(asset.Filename, record)

	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Timestamp:      time.Now(),
		Filename:       asset.Filename,
		AnalysisType:   string(record.AnalysisType),
		ProcessingTime: time.Since(start),
		Success:        true,
	})

	return &models.AnalysisResponse{
		Filename:              asset.Filename,
		Timestamp:             start.UTC().Format(time.RFC3339),
		AnalysisType:          record.AnalysisType,
		OCR:                   record.OCR,
		Objects:               record.Objects,
		ProcessingTimeSeconds: record.ProcessingTimeSeconds,
	}, nil
}

// RecentAnalyses surfaces persisted history. Returns an empty list when no
// database is configured.
func (s *analysisService) RecentAnalyses(ctx context.Context, limit int) ([]models.AnalysisHistoryEntry, error) {
	if s.repo == nil {
		return []models.AnalysisHistoryEntry{}, nil
	}
	rows, err := s.repo.RecentAnalyses(ctx, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]models.AnalysisHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.AnalysisHistoryEntry{
			ID:              row.ID,
			Filename:        row.Filename,
			ExtractedText:   row.ExtractedText,
			Description:     row.Description,
			OCREngine:       row.OCREngine,
			DetectionEngine: row.DetectionEngine,
			AnalysisType:    row.AnalysisType,
			Confidence:      row.Confidence,
			CreatedAt:       row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return entries, nil
}

// persistAsync writes the record without blocking or failing the request.
// The write gets its own context so a finished request cannot cancel it.
func (s *analysisService) persistAsync(filename string, record models.AnalysisRecord) {
	if s.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		if err := s.repo.SaveAnalysis(ctx, filename, s.languageLabel, record); err != nil {
			logger.WithError(err).WithField("filename", filename).Warn("Failed to persist analysis record")
			s.notify(ctx, observer.AnalysisEvent{
				EventType:    observer.PersistenceFailed,
				Timestamp:    time.Now(),
				Filename:     filename,
				ErrorMessage: err.Error(),
			})
		}
	}()
}

func (s *analysisService) notify(ctx context.Context, event observer.AnalysisEvent) {
	if s.events != nil {
		s.events.NotifyObservers(ctx, event)
	}
}

func (s *analysisService) notifyFailure(ctx context.Context, filename string, start time.Time, err error) {
	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		Timestamp:      time.Now(),
		Filename:       filename,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}
