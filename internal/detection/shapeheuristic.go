package detection

import (
	"image"

	"go-lingualens/pkg/models"
)

// Shape and metadata heuristic tuning.
const (
	orientationAspect   = 1.4
	detailedScenePixels = 2_000_000
	highResPixels       = 8_000_000
)

// ShapeHeuristicAnalyzer derives labels from image geometry rather than
// color content: orientation from aspect ratio, scene richness from the
// absolute pixel count. Never fails; returns nil when nothing applies.
type ShapeHeuristicAnalyzer struct{}

// NewShapeHeuristicAnalyzer creates the analyzer.
func NewShapeHeuristicAnalyzer() *ShapeHeuristicAnalyzer {
	return &ShapeHeuristicAnalyzer{}
}

// AspectLabels classifies the image orientation.
func (a *ShapeHeuristicAnalyzer) AspectLabels(img image.Image) []models.DetectedObject {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	width, height := float64(bounds.Dx()), float64(bounds.Dy())
	if width <= 0 || height <= 0 {
		return nil
	}

	switch {
	case width/height >= orientationAspect:
		return []models.DetectedObject{{Name: "Landscape", Confidence: 0.68}}
	case height/width >= orientationAspect:
		return []models.DetectedObject{{Name: "Portrait", Confidence: 0.68}}
	}
	return nil
}

// ResolutionLabels classifies the image by absolute pixel dimensions.
func (a *ShapeHeuristicAnalyzer) ResolutionLabels(img image.Image) []models.DetectedObject {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()

	switch {
	case pixels >= highResPixels:
		return []models.DetectedObject{{Name: "High Resolution", Confidence: 0.66}}
	case pixels >= detailedScenePixels:
		return []models.DetectedObject{{Name: "Detailed Scene", Confidence: 0.62}}
	}
	return nil
}
