package detection

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go-lingualens/internal/logger"
	"go-lingualens/internal/ocr"
	"go-lingualens/pkg/models"
)

// Decision thresholds for the text-presence probe. The pair is recall
// biased: running full OCR on a photo is cheaper than skipping OCR on a
// text image.
const (
	textPresenceMinLength     = 10
	textPresenceMinConfidence = 30.0
	sampleTextLimit           = 120
)

// TextPresenceDetector runs a single fast OCR pass over the unmodified
// image to decide whether it is text-heavy or image-heavy. It never fails:
// any internal error collapses to "no text".
type TextPresenceDetector struct {
	engine    ocr.Engine
	languages []string
	timeout   time.Duration
}

// NewTextPresenceDetector creates the probe. The engine session is scoped
// per call by the engine itself; the detector holds no worker state.
func NewTextPresenceDetector(engine ocr.Engine, languages []string, timeout time.Duration) *TextPresenceDetector {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TextPresenceDetector{engine: engine, languages: languages, timeout: timeout}
}

// Detect probes the image for text. hasText requires both enough
// characters and enough engine confidence.
func (d *TextPresenceDetector) Detect(ctx context.Context, imagePath string) models.TextPresenceResult {
	probeCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	extraction, err := d.engine.Recognize(probeCtx, imagePath, ocr.Options{
		Languages: []string{"eng"},
		SegMode:   ocr.SegModeSparse,
	})
	if err != nil {
		logger.WithError(err).Debug("Text presence probe failed, assuming image-heavy")
		return models.TextPresenceResult{}
	}

	text := strings.TrimSpace(extraction.Text)
	result := models.TextPresenceResult{
		TextLength: len(text),
		Confidence: extraction.Confidence,
		SampleText: truncate(text, sampleTextLimit),
	}
	result.HasText = result.TextLength > textPresenceMinLength && result.Confidence > textPresenceMinConfidence

	logger.WithFields(logrus.Fields{
		"has_text":    result.HasText,
		"text_length": result.TextLength,
		"confidence":  result.Confidence,
	}).Debug("Text presence probe completed")
	return result
}

// Decide applies the branching rule to an already-produced probe result.
// Exposed so the rule stays in one place.
func Decide(textLength int, confidence float64) bool {
	return textLength > textPresenceMinLength && confidence > textPresenceMinConfidence
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
