package ocr

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/arbovm/levenshtein"
	"github.com/sirupsen/logrus"

	"go-lingualens/internal/logger"
	"go-lingualens/internal/preprocess"
	"go-lingualens/pkg/models"
)

// Sweep tuning. The early-exit pair trades a possibly better rotation for
// latency; that tradeoff is intentional.
const (
	earlyExitConfidence = 80.0
	earlyExitMinLength  = 20
	correctiveAngle     = -2.0
)

// rotationAngles are tried in this exact order for every variant. The
// first result crossing the early-exit threshold wins, so order matters.
var rotationAngles = []float64{0, correctiveAngle}

// LanguageResolver narrows a requested language list to the locally
// installed subset.
type LanguageResolver interface {
	AvailableLanguages(requested []string) []string
}

// Runner sweeps one or more OCR engines over preprocessed image variants
// and picks the single best extraction. It never fails the pipeline: any
// engine error collapses to an empty result.
type Runner struct {
	primary   Engine
	secondary Engine // nil disables dual-engine racing
	resolver  LanguageResolver
	timeout   time.Duration
}

// NewRunner creates an OCR runner. secondary may be nil.
func NewRunner(primary Engine, secondary Engine, resolver LanguageResolver, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		primary:   primary,
		secondary: secondary,
		resolver:  resolver,
		timeout:   timeout,
	}
}

// Run executes the full sweep: primary engine over up to maxVariants
// variants and the fixed rotation set, raced against the secondary engine
// on the first variant when one is configured.
func (r *Runner) Run(ctx context.Context, imagePaths []string, languages []string, maxVariants int) models.OCRResult {
	if len(imagePaths) == 0 {
		return emptyResult()
	}
	langs := r.resolveLanguages(languages)

	// Launch the secondary engine first so it races the whole sweep.
	secondaryCh := r.launchSecondary(ctx, imagePaths[0], langs)

	primaryBest := r.sweepPrimary(ctx, imagePaths, langs, maxVariants)

	var secondaryBest Extraction
	if secondaryCh != nil {
		secondaryBest = <-secondaryCh
	}

	return r.fuse(primaryBest, secondaryBest)
}

// RunMinimal is the latency-limited single-variant pass used when an image
// has been classified as image-heavy. One engine, one variant, no
// rotations.
func (r *Runner) RunMinimal(ctx context.Context, imagePath string, languages []string) models.OCRResult {
	langs := r.resolveLanguages(languages)

	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	extraction, err := r.primary.Recognize(attemptCtx, imagePath, Options{Languages: langs, SegMode: SegModeSparse})
	if err != nil || extraction.Text == "" {
		return emptyResult()
	}
	return models.OCRResult{
		Text:       extraction.Text,
		Confidence: extraction.Confidence,
		EngineUsed: r.primary.Name(),
	}
}

func (r *Runner) resolveLanguages(languages []string) []string {
	if r.resolver != nil {
		return r.resolver.AvailableLanguages(languages)
	}
	if len(languages) == 0 {
		return []string{"eng"}
	}
	return languages
}

// sweepPrimary tries each variant and rotation in declared order, keeping
// the best non-empty extraction by confidence. Rotated temp files are
// removed as soon as their pass finishes.
func (r *Runner) sweepPrimary(ctx context.Context, imagePaths []string, langs []string, maxVariants int) Extraction {
	if maxVariants > len(imagePaths) {
		maxVariants = len(imagePaths)
	}
	if maxVariants < 1 {
		maxVariants = 1
	}

	var best Extraction
	for _, path := range imagePaths[:maxVariants] {
		for _, angle := range rotationAngles {
			extraction, ok := r.attemptPrimary(ctx, path, angle, langs)
			if !ok {
				continue
			}
			if extraction.Text != "" && extraction.Confidence > best.Confidence {
				best = extraction
			}
			if best.Confidence > earlyExitConfidence && len(best.Text) > earlyExitMinLength {
				return best
			}
		}
	}
	return best
}

func (r *Runner) attemptPrimary(ctx context.Context, path string, angle float64, langs []string) (Extraction, bool) {
	target := path
	if angle != 0 {
		rotated, err := preprocess.RotateToTemp(path, angle)
		if err != nil {
			logger.WithError(err).WithField("angle", angle).Debug("Skipping rotation variant")
			return Extraction{}, false
		}
		defer os.Remove(rotated)
		target = rotated
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	extraction, err := r.primary.Recognize(attemptCtx, target, Options{Languages: langs, SegMode: SegModeAuto})
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"engine": r.primary.Name(),
			"angle":  angle,
		}).Debug("Primary OCR attempt failed")
		return Extraction{}, false
	}
	return extraction, true
}

func (r *Runner) launchSecondary(ctx context.Context, imagePath string, langs []string) <-chan Extraction {
	if r.secondary == nil {
		return nil
	}
	ch := make(chan Extraction, 1)
	go func() {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		extraction, err := r.secondary.Recognize(attemptCtx, imagePath, Options{Languages: langs, SegMode: SegModeAuto})
		if err != nil {
			logger.WithError(err).WithField("engine", r.secondary.Name()).Debug("Secondary OCR attempt failed")
			ch <- Extraction{}
			return
		}
		ch <- extraction
	}()
	return ch
}

// fuse picks between the two engines' best extractions. The secondary
// engine wins ties because it historically handles multi-script text
// better. When both produced text, their agreement is recorded.
func (r *Runner) fuse(primary, secondary Extraction) models.OCRResult {
	if primary.Text == "" && secondary.Text == "" {
		return emptyResult()
	}

	result := models.OCRResult{}
	switch {
	case secondary.Text == "":
		result.Text = primary.Text
		result.Confidence = primary.Confidence
		result.EngineUsed = r.primary.Name()
	case primary.Text == "" || secondary.Confidence >= primary.Confidence:
		result.Text = secondary.Text
		result.Confidence = secondary.Confidence
		result.EngineUsed = r.secondary.Name()
	default:
		result.Text = primary.Text
		result.Confidence = primary.Confidence
		result.EngineUsed = r.primary.Name()
	}

	if primary.Text != "" && secondary.Text != "" {
		result.AgreementScore = agreementScore(primary.Text, secondary.Text)
	}
	return result
}

// agreementScore is 1.0 for identical transcripts and approaches 0 as the
// normalized edit distance between them grows.
func agreementScore(a, b string) float64 {
	a = normalizeTranscript(a)
	b = normalizeTranscript(b)
	if a == "" && b == "" {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	score := 1 - float64(levenshtein.Distance(a, b))/float64(longest)
	if score < 0 {
		return 0
	}
	return score
}

func normalizeTranscript(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func emptyResult() models.OCRResult {
	return models.OCRResult{Text: "", Confidence: 0, EngineUsed: "none"}
}
