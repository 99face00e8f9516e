package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-lingualens/internal/config"
	apperrors "go-lingualens/internal/errors"
	"go-lingualens/internal/observer"
	"go-lingualens/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAnalysisService struct {
	response   *models.AnalysisResponse
	err        error
	entries    []models.AnalysisHistoryEntry
	historyErr error
	gotLimit   int
}

func (s *stubAnalysisService) AnalyzeUpload(ctx context.Context, header *multipart.FileHeader) (*models.AnalysisResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *stubAnalysisService) RecentAnalyses(ctx context.Context, limit int) ([]models.AnalysisHistoryEntry, error) {
	s.gotLimit = limit
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.entries, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write form data: %v", err)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	handler := NewHandler(&stubAnalysisService{}, nil, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if body["status"] != "available" {
		t.Errorf("Unexpected health body %v", body)
	}
}

func TestAnalyzeImage_Success(t *testing.T) {
	svc := &stubAnalysisService{response: &models.AnalysisResponse{
		Filename:     "photo.png",
		AnalysisType: models.AnalysisTypeImageHeavy,
		OCR:          models.OCRResult{Text: "No significant text detected in this image", EngineUsed: "none"},
		Objects: models.ObjectDetectionResult{
			Objects:     []models.DetectedObject{{Name: "Tree", Confidence: 0.92}},
			Description: "This image prominently features Tree.",
			EngineUsed:  models.EngineHeuristicColor,
		},
	}}
	handler := NewHandler(svc, nil, testConfig())

	body, contentType := multipartBody(t, "image", "photo.png", []byte{0x89, 0x50, 0x4E, 0x47})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var response models.AnalysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if response.Filename != "photo.png" {
		t.Errorf("Unexpected filename %q", response.Filename)
	}
	if len(response.Objects.Objects) != 1 || response.Objects.Objects[0].Name != "Tree" {
		t.Errorf("Unexpected objects %+v", response.Objects.Objects)
	}
}

func TestAnalyzeImage_MissingFile(t *testing.T) {
	handler := NewHandler(&stubAnalysisService{}, nil, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without an image field, got %d", rec.Code)
	}
}

func TestAnalyzeImage_ValidationFailure(t *testing.T) {
	svc := &stubAnalysisService{err: apperrors.NewValidationError("file content is not a supported image", nil)}
	handler := NewHandler(svc, nil, testConfig())

	body, contentType := multipartBody(t, "image", "page.html", []byte("<html></html>"))
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for rejected upload, got %d", rec.Code)
	}
	var response models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if response.Error != http.StatusText(http.StatusBadRequest) {
		t.Errorf("Unexpected error field %q", response.Error)
	}
}

func TestAnalyzeImage_InternalFailure(t *testing.T) {
	svc := &stubAnalysisService{err: apperrors.NewInternalError("disk full", nil)}
	handler := NewHandler(svc, nil, testConfig())

	body, contentType := multipartBody(t, "image", "photo.png", []byte{0xFF, 0xD8})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestRecentAnalyses(t *testing.T) {
	svc := &stubAnalysisService{entries: []models.AnalysisHistoryEntry{
		{ID: 1, Filename: "a.png", AnalysisType: "text_heavy"},
		{ID: 2, Filename: "b.png", AnalysisType: "image_heavy"},
	}}
	handler := NewHandler(svc, nil, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/analyses/recent?limit=5", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if svc.gotLimit != 5 {
		t.Errorf("Expected limit 5, got %d", svc.gotLimit)
	}
	var body struct {
		Analyses []models.AnalysisHistoryEntry `json:"analyses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if len(body.Analyses) != 2 {
		t.Errorf("Expected 2 entries, got %+v", body.Analyses)
	}
}

func TestRecentAnalyses_DefaultLimit(t *testing.T) {
	svc := &stubAnalysisService{}
	handler := NewHandler(svc, nil, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/analyses/recent?limit=bogus", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if svc.gotLimit != 20 {
		t.Errorf("Expected default limit 20, got %d", svc.gotLimit)
	}
}

func TestAnalysisMetricsEndpoint(t *testing.T) {
	metrics := observer.NewMetricsObserver()
	handler := NewHandler(&stubAnalysisService{}, metrics, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON body: %v", err)
	}
	if _, ok := body["total_analyses"]; !ok {
		t.Errorf("Expected analysis counters in metrics body, got %v", body)
	}
}
