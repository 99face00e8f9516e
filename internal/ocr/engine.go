package ocr

import "context"

// SegMode selects how aggressively the engine segments the page.
type SegMode int

const (
	// SegModeAuto lets the engine pick a full page layout analysis.
	SegModeAuto SegMode = iota
	// SegModeSparse looks for scattered text in arbitrary order; cheaper,
	// used by the fast text-presence probe.
	SegModeSparse
)

// Options configures a single recognition pass.
type Options struct {
	Languages []string
	SegMode   SegMode
}

// Extraction is the raw result of one engine pass over one image file.
// Confidence is on the engine's native 0-100 scale.
type Extraction struct {
	Text       string
	Confidence float64
}

// Engine is a black-box OCR capability. Implementations must honor
// context cancellation and release any worker or session they create on
// every exit path.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string, opts Options) (Extraction, error)
}
