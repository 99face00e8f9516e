package detection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"go-lingualens/internal/logger"
	"go-lingualens/internal/preprocess"
	"go-lingualens/pkg/models"
)

// Description tier boundaries, on the 0-1 confidence scale.
const (
	highConfidenceTier   = 0.8
	mediumConfidenceTier = 0.65
)

// Classifier is the cloud vision capability consumed by the orchestrator.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) (models.ObjectDetectionResult, error)
}

// detectionStrategy is one entry in the explicit fallback chain. Strategies
// are attempted in order until one yields at least one object.
type detectionStrategy struct {
	name    string
	attempt func(ctx context.Context) (models.ObjectDetectionResult, error)
}

// Orchestrator decides which detectors run for an image and in what
// combination, then shapes their output. Detect never fails: the terminal
// strategy is a static placeholder.
type Orchestrator struct {
	cloud Classifier // nil when no credential is configured
	color *ColorHeuristicAnalyzer
	shape *ShapeHeuristicAnalyzer
}

// NewOrchestrator wires the detection chain. cloud may be nil, which skips
// straight to heuristics.
func NewOrchestrator(cloud Classifier, color *ColorHeuristicAnalyzer, shape *ShapeHeuristicAnalyzer) *Orchestrator {
	return &Orchestrator{cloud: cloud, color: color, shape: shape}
}

// Detect runs the fallback chain for the image. fastMode trades the full
// heuristic merge for a single cheap pass.
func (o *Orchestrator) Detect(ctx context.Context, imagePath string, fastMode bool) models.ObjectDetectionResult {
	var strategies []detectionStrategy
	if o.cloud != nil {
		strategies = append(strategies, detectionStrategy{name: "cloud_vision", attempt: func(ctx context.Context) (models.ObjectDetectionResult, error) {
			return o.cloud.Classify(ctx, imagePath)
		}})
	}
	if fastMode {
		strategies = append(strategies, detectionStrategy{name: "minimal_heuristic", attempt: func(ctx context.Context) (models.ObjectDetectionResult, error) {
			return o.minimalHeuristic(imagePath)
		}})
	} else {
		strategies = append(strategies, detectionStrategy{name: "full_heuristic", attempt: func(ctx context.Context) (models.ObjectDetectionResult, error) {
			return o.fullHeuristic(ctx, imagePath)
		}})
	}

	for _, strategy := range strategies {
		result, err := strategy.attempt(ctx)
		if err != nil {
			logger.WithError(err).WithField("strategy", strategy.name).Debug("Detection strategy failed, trying next")
			continue
		}
		if len(result.Objects) == 0 {
			continue
		}
		result.Objects = capObjects(result.Objects)
		result.Description = buildDescription(result.Objects)
		return result
	}

	return placeholderResult()
}

// minimalHeuristic is the fast-mode degraded pass: color statistics only.
func (o *Orchestrator) minimalHeuristic(imagePath string) (models.ObjectDetectionResult, error) {
	img, err := preprocess.LoadImage(imagePath)
	if err != nil {
		return models.ObjectDetectionResult{}, fmt.Errorf("heuristic load failed: %w", err)
	}

	objects := dedupeByName(o.color.Analyze(img))
	sortByConfidence(objects)
	return models.ObjectDetectionResult{
		Objects:    objects,
		EngineUsed: models.EngineHeuristicColor,
	}, nil
}

// fullHeuristic runs color, aspect and resolution heuristics concurrently
// and merges their candidates.
func (o *Orchestrator) fullHeuristic(ctx context.Context, imagePath string) (models.ObjectDetectionResult, error) {
	img, err := preprocess.LoadImage(imagePath)
	if err != nil {
		return models.ObjectDetectionResult{}, fmt.Errorf("heuristic load failed: %w", err)
	}

	var colorObjects, aspectObjects, resolutionObjects []models.DetectedObject
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		colorObjects = o.color.Analyze(img)
		return nil
	})
	g.Go(func() error {
		aspectObjects = o.shape.AspectLabels(img)
		return nil
	})
	g.Go(func() error {
		resolutionObjects = o.shape.ResolutionLabels(img)
		return nil
	})
	_ = g.Wait()

	merged := make([]models.DetectedObject, 0, len(colorObjects)+len(aspectObjects)+len(resolutionObjects))
	merged = append(merged, colorObjects...)
	merged = append(merged, aspectObjects...)
	merged = append(merged, resolutionObjects...)

	objects := filterPersonAgainstNature(dedupeByName(merged))
	sortByConfidence(objects)

	engine := models.EngineHeuristicColor
	if len(colorObjects) == 0 {
		engine = models.EngineHeuristicShape
	}
	return models.ObjectDetectionResult{Objects: objects, EngineUsed: engine}, nil
}

// placeholderResult is the terminal fallback; detection must never fail
// the pipeline.
func placeholderResult() models.ObjectDetectionResult {
	objects := []models.DetectedObject{
		{Name: "Image Content", Confidence: 0.5},
		{Name: "Visual Data", Confidence: 0.4},
	}
	return models.ObjectDetectionResult{
		Objects:     objects,
		Description: buildDescription(objects),
		EngineUsed:  models.EngineFallback,
	}
}

// dedupeByName keeps the highest-confidence entry per label. First
// occurrence wins the OriginalLabel when confidences tie.
func dedupeByName(objects []models.DetectedObject) []models.DetectedObject {
	byName := make(map[string]models.DetectedObject, len(objects))
	order := make([]string, 0, len(objects))
	for _, obj := range objects {
		existing, seen := byName[obj.Name]
		if !seen {
			byName[obj.Name] = obj
			order = append(order, obj.Name)
			continue
		}
		if obj.Confidence > existing.Confidence {
			byName[obj.Name] = obj
		}
	}

	out := make([]models.DetectedObject, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

// filterPersonAgainstNature drops a Person label when a nature label
// outscores it decisively. Skin-tone false positives are common against
// foliage and bark colors.
func filterPersonAgainstNature(objects []models.DetectedObject) []models.DetectedObject {
	var person *models.DetectedObject
	var natureBest float64
	for i := range objects {
		switch objects[i].Name {
		case "Person":
			person = &objects[i]
		case "Tree", "Nature":
			if objects[i].Confidence > natureBest {
				natureBest = objects[i].Confidence
			}
		}
	}
	if person == nil || natureBest == 0 {
		return objects
	}
	if natureBest-person.Confidence <= personNatureMargin {
		return objects
	}

	filtered := objects[:0]
	for _, obj := range objects {
		if obj.Name != "Person" {
			filtered = append(filtered, obj)
		}
	}
	return filtered
}

func sortByConfidence(objects []models.DetectedObject) {
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].Confidence > objects[j].Confidence
	})
}

func capObjects(objects []models.DetectedObject) []models.DetectedObject {
	if len(objects) > maxObjects {
		return objects[:maxObjects]
	}
	return objects
}

// buildDescription composes a human-readable sentence per confidence tier,
// with an extra contextual sentence for recognizable nature scenes.
func buildDescription(objects []models.DetectedObject) string {
	var high, medium []string
	hasTree, hasSky := false, false
	for _, obj := range objects {
		switch {
		case obj.Confidence > highConfidenceTier:
			high = append(high, obj.Name)
		case obj.Confidence >= mediumConfidenceTier:
			medium = append(medium, obj.Name)
		}
		if obj.Name == "Tree" {
			hasTree = true
		}
		if obj.Name == "Sky" {
			hasSky = true
		}
	}

	var sentences []string
	if len(high) > 0 {
		sentences = append(sentences, fmt.Sprintf("This image prominently features %s.", joinNames(high)))
	}
	if len(medium) > 0 {
		sentences = append(sentences, fmt.Sprintf("It also appears to contain %s.", joinNames(medium)))
	}
	if len(sentences) == 0 {
		names := make([]string, 0, len(objects))
		for _, obj := range objects {
			names = append(names, obj.Name)
		}
		sentences = append(sentences, fmt.Sprintf("Detected content: %s.", joinNames(names)))
	}
	if hasTree && hasSky {
		sentences = append(sentences, "The scene suggests an outdoor natural setting.")
	}
	return strings.Join(sentences, " ")
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
