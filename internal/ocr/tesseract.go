package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine is the primary OCR engine, backed by a local Tesseract
// installation via gosseract. Each Recognize call creates and releases its
// own client; nothing is shared across concurrent requests.
type TesseractEngine struct {
	tessdataPrefix string
}

// NewTesseractEngine creates the primary engine. tessdataPrefix may be
// empty, in which case the system default language pack location is used.
func NewTesseractEngine(tessdataPrefix string) *TesseractEngine {
	return &TesseractEngine{tessdataPrefix: tessdataPrefix}
}

// Name returns the engine identifier recorded in OCR results.
func (e *TesseractEngine) Name() string {
	return "tesseract"
}

// AvailableLanguages resolves the requested language codes down to the
// subset with an installed language pack. An empty intersection falls back
// to English so a misconfigured language list never disables OCR entirely.
func (e *TesseractEngine) AvailableLanguages(requested []string) []string {
	installed, err := gosseract.GetAvailableLanguages()
	if err != nil || len(installed) == 0 {
		return []string{"eng"}
	}

	available := make(map[string]bool, len(installed))
	for _, lang := range installed {
		available[strings.ToLower(lang)] = true
	}

	resolved := make([]string, 0, len(requested))
	for _, lang := range requested {
		if available[strings.ToLower(strings.TrimSpace(lang))] {
			resolved = append(resolved, strings.ToLower(strings.TrimSpace(lang)))
		}
	}
	if len(resolved) == 0 {
		return []string{"eng"}
	}
	return resolved
}

// Recognize runs one Tesseract pass over the image file. The pass executes
// in its own goroutine so the caller's context deadline is honored; the
// client is closed on every exit path.
func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string, opts Options) (Extraction, error) {
	type outcome struct {
		extraction Extraction
		err        error
	}
	done := make(chan outcome, 1)

	go func() {
		done <- outcome{extraction: e.recognizeBlocking(imagePath, opts)}
	}()

	select {
	case <-ctx.Done():
		// The worker goroutine still closes its client when the cgo call
		// returns; the result is simply discarded.
		return Extraction{}, fmt.Errorf("tesseract pass canceled: %w", ctx.Err())
	case out := <-done:
		return out.extraction, out.err
	}
}

func (e *TesseractEngine) recognizeBlocking(imagePath string, opts Options) Extraction {
	client := gosseract.NewClient()
	defer client.Close()

	if e.tessdataPrefix != "" {
		client.SetTessdataPrefix(e.tessdataPrefix)
	}

	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		return Extraction{}
	}

	switch opts.SegMode {
	case SegModeSparse:
		client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT)
	default:
		client.SetPageSegMode(gosseract.PSM_AUTO)
	}

	if err := client.SetImage(imagePath); err != nil {
		return Extraction{}
	}

	text, err := client.Text()
	if err != nil {
		return Extraction{}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Extraction{}
	}

	return Extraction{Text: text, Confidence: meanWordConfidence(client)}
}

// meanWordConfidence averages Tesseract's per-word confidence scores for
// the recognized text. Falls back to a conservative mid score when word
// boxes are unavailable.
func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 50
	}
	var sum float64
	var count int
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		sum += box.Confidence
		count++
	}
	if count == 0 {
		return 50
	}
	return sum / float64(count)
}
