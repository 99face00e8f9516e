package models

// ErrorResponse represents an error response returned by the HTTP layer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AnalysisResponse is the HTTP-facing shape of one completed analysis.
type AnalysisResponse struct {
	Filename              string                `json:"filename"`
	Timestamp             string                `json:"timestamp"`
	AnalysisType          AnalysisType          `json:"analysis_type"`
	OCR                   OCRResult             `json:"ocr"`
	Objects               ObjectDetectionResult `json:"objects"`
	ProcessingTimeSeconds float64               `json:"processing_time_seconds"`
}

// AnalysisHistoryEntry is one persisted analysis row surfaced by the
// recent-history endpoint.
type AnalysisHistoryEntry struct {
	ID             uint    `json:"id"`
	Filename       string  `json:"filename"`
	ExtractedText  string  `json:"extracted_text"`
	Description    string  `json:"description"`
	OCREngine      string  `json:"ocr_engine"`
	DetectionEngine string `json:"detection_engine"`
	AnalysisType   string  `json:"analysis_type"`
	Confidence     float64 `json:"confidence"`
	CreatedAt      string  `json:"created_at"`
}
