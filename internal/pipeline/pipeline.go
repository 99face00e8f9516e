package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apperrors "go-lingualens/internal/errors"
	"go-lingualens/internal/logger"
	"go-lingualens/internal/preprocess"
	"go-lingualens/pkg/models"
)

// Fusion rules for the image-heavy branch.
const (
	minIncidentalTextLength = 5
	noTextPlaceholder       = "No significant text detected in this image"
	extractionFailedText    = "No text could be extracted"
)

// TextProber is the fast text-presence capability.
type TextProber interface {
	Detect(ctx context.Context, imagePath string) models.TextPresenceResult
}

// OCRRunner is the multi-engine OCR sweep capability.
type OCRRunner interface {
	Run(ctx context.Context, imagePaths []string, languages []string, maxVariants int) models.OCRResult
	RunMinimal(ctx context.Context, imagePath string, languages []string) models.OCRResult
}

// ObjectDetector is the object-detection fallback chain capability.
type ObjectDetector interface {
	Detect(ctx context.Context, imagePath string, fastMode bool) models.ObjectDetectionResult
}

// VariantBuilder produces OCR preprocessing variants for an upload.
type VariantBuilder func(srcPath string, maxVariants int) (*preprocess.VariantSet, error)

// Pipeline is the top-level analysis orchestrator. Given a validated
// upload it probes for text, branches into a text-heavy or image-heavy
// strategy, runs OCR and object detection concurrently, and fuses the
// results into one immutable record.
//
// Its public contract is effectively error-free: every stage degrades into
// its own fallback chain, and only file I/O failures on the input asset
// itself propagate to the caller.
type Pipeline struct {
	prober        TextProber
	ocrRunner     OCRRunner
	detector      ObjectDetector
	buildVariants VariantBuilder
	languages     []string
	maxVariants   int
}

// New creates the pipeline. languages is the requested OCR language list;
// maxVariants bounds the preprocessing sweep.
func New(prober TextProber, ocrRunner OCRRunner, detector ObjectDetector, languages []string, maxVariants int) *Pipeline {
	if maxVariants < 1 {
		maxVariants = 1
	}
	return &Pipeline{
		prober:        prober,
		ocrRunner:     ocrRunner,
		detector:      detector,
		buildVariants: preprocess.BuildTextVariants,
		languages:     languages,
		maxVariants:   maxVariants,
	}
}

// Analyze runs the full pipeline for one uploaded image.
func (p *Pipeline) Analyze(ctx context.Context, asset models.ImageAsset) (models.AnalysisRecord, error) {
	start := time.Now()

	if _, err := os.Stat(asset.Path); err != nil {
		return models.AnalysisRecord{}, apperrors.NewValidationError(
			fmt.Sprintf("uploaded image is not readable: %s", asset.Filename), err)
	}

	presence := p.prober.Detect(ctx, asset.Path)

	var record models.AnalysisRecord
	if presence.HasText {
		record = p.analyzeTextHeavy(ctx, asset)
	} else {
		record = p.analyzeImageHeavy(ctx, asset)
	}
	record.ProcessingTimeSeconds = time.Since(start).Seconds()

	logger.WithFields(logrus.Fields{
		"filename":        asset.Filename,
		"analysis_type":   record.AnalysisType,
		"ocr_engine":      record.OCR.EngineUsed,
		"object_count":    len(record.Objects.Objects),
		"processing_time": record.ProcessingTimeSeconds,
	}).Info("Analysis pipeline completed")

	return record, nil
}

// analyzeTextHeavy prioritizes OCR: text-optimized preprocessing variants
// feed the full engine sweep while object detection runs its complete
// fallback chain alongside.
func (p *Pipeline) analyzeTextHeavy(ctx context.Context, asset models.ImageAsset) models.AnalysisRecord {
	paths := []string{asset.Path}
	variants, err := p.buildVariants(asset.Path, p.maxVariants)
	if err != nil {
		logger.WithError(err).Warn("Variant preprocessing failed, using original image only")
	} else {
		paths = variants.Paths
		defer variants.Cleanup()
	}

	var ocrResult models.OCRResult
	var objects models.ObjectDetectionResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ocrResult = p.ocrRunner.Run(gctx, paths, p.languages, p.maxVariants)
		return nil
	})
	g.Go(func() error {
		objects = p.detector.Detect(gctx, asset.Path, false)
		return nil
	})
	_ = g.Wait()

	if ocrResult.Text == "" {
		ocrResult.Text = extractionFailedText
		ocrResult.Confidence = 0
	}

	return models.AnalysisRecord{
		OCR:          ocrResult,
		Objects:      objects,
		AnalysisType: models.AnalysisTypeTextHeavy,
	}
}

// analyzeImageHeavy prioritizes detection: the orchestrator runs in fast
// mode while a latency-limited single-variant OCR pass picks up any
// incidental text.
func (p *Pipeline) analyzeImageHeavy(ctx context.Context, asset models.ImageAsset) models.AnalysisRecord {
	var ocrResult models.OCRResult
	var objects models.ObjectDetectionResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		objects = p.detector.Detect(gctx, asset.Path, true)
		return nil
	})
	g.Go(func() error {
		ocrResult = p.ocrRunner.RunMinimal(gctx, asset.Path, p.languages)
		return nil
	})
	_ = g.Wait()

	if len(ocrResult.Text) <= minIncidentalTextLength {
		ocrResult = models.OCRResult{Text: noTextPlaceholder, Confidence: 0, EngineUsed: "none"}
	}

	return models.AnalysisRecord{
		OCR:          ocrResult,
		Objects:      objects,
		AnalysisType: models.AnalysisTypeImageHeavy,
	}
}
