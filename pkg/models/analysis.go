package models

// AnalysisType is the pipeline's binary classification of an upload. It
// decides whether the OCR-prioritized or detection-prioritized strategy runs.
type AnalysisType string

const (
	AnalysisTypeTextHeavy  AnalysisType = "text_heavy"
	AnalysisTypeImageHeavy AnalysisType = "image_heavy"
)

// DetectionEngine records which detector produced an ObjectDetectionResult.
type DetectionEngine string

const (
	EngineCloudVision    DetectionEngine = "cloud_vision"
	EngineHeuristicColor DetectionEngine = "heuristic_color"
	EngineHeuristicShape DetectionEngine = "heuristic_shape"
	EngineFallback       DetectionEngine = "fallback"
)

// TextPresenceResult is the outcome of the cheap text-presence probe that
// drives pipeline branching. Immutable once produced.
type TextPresenceResult struct {
	HasText    bool    `json:"has_text"`
	TextLength int     `json:"text_length"`
	Confidence float64 `json:"confidence"` // 0-100, engine-reported
	SampleText string  `json:"sample_text"`
}

// DetectedObject is a single labeled concept found in an image.
// Confidence is on the 0-1 scale. Name is always a curated, human-readable
// label; OriginalLabel keeps the raw vendor concept when one exists.
type DetectedObject struct {
	Name          string  `json:"name"`
	Confidence    float64 `json:"confidence"`
	OriginalLabel string  `json:"original_label,omitempty"`
}

// ObjectDetectionResult is the detection output unit: at most four objects
// sorted by descending confidence, plus a generated description and the
// engine that produced them.
type ObjectDetectionResult struct {
	Objects         []DetectedObject `json:"objects"`
	Description     string           `json:"description"`
	EngineUsed      DetectionEngine  `json:"engine_used"`
	RawConceptCount int              `json:"raw_concept_count,omitempty"`
}

// OCRResult is the best text extraction selected across engines, rotations
// and preprocessing variants. Confidence is on the 0-100 scale and reflects
// the engine's own score for exactly this text.
type OCRResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	EngineUsed string  `json:"engine_used"`
	// AgreementScore is set when both OCR engines produced text for the
	// same image: 1.0 means the transcripts matched, lower values track
	// the normalized edit distance between them.
	AgreementScore float64 `json:"agreement_score,omitempty"`
}

// AnalysisRecord is the fused, normalized output of one pipeline run.
// Immutable after construction.
type AnalysisRecord struct {
	OCR                   OCRResult             `json:"ocr"`
	Objects               ObjectDetectionResult `json:"objects"`
	AnalysisType          AnalysisType          `json:"analysis_type"`
	ProcessingTimeSeconds float64               `json:"processing_time_seconds"`
}

// ImageAsset is a transient reference to an uploaded file on disk. It is
// owned by the request that created it and removed best-effort when the
// pipeline run finishes, regardless of outcome.
type ImageAsset struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
}
