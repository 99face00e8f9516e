package detection

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"

	"go-lingualens/internal/logger"
	"go-lingualens/internal/preprocess"
	"go-lingualens/pkg/models"
)

// Heuristic tuning. The skin/nature thresholds are empirically tuned
// values carried over from the production deployment; do not re-derive
// them.
const (
	heuristicSampleSize = 400

	greenStrongRatio = 0.30
	greenLooseRatio  = 0.25
	brownCoRatio     = 0.05
	blueStrongRatio  = 0.30
	whiteCloudRatio  = 0.15
	skinMinRatio     = 0.10
	skinHighRatio    = 0.25
	dominantRatio    = 0.50

	// Skin detection demands a strict ordered channel gradient to cut
	// false positives against brown and vegetation tones.
	skinRedGreenDelta  = 15
	skinGreenBlueDelta = 10

	// personNatureMargin drops a Person label when a nature label beats
	// it by more than this much confidence.
	personNatureMargin = 0.15
)

// bucketRatios holds per-bucket pixel ratios over the sampled image.
// A pixel may land in more than one bucket.
type bucketRatios struct {
	green, blue, brown, skin, red, white, dark, light float64
}

// ColorHeuristicAnalyzer produces candidate object labels from pixel color
// statistics. It is a degraded-mode fallback for when the cloud classifier
// is unavailable, not a primary detector. Analyze never fails; it returns
// nil when nothing can be inferred.
type ColorHeuristicAnalyzer struct{}

// NewColorHeuristicAnalyzer creates the analyzer.
func NewColorHeuristicAnalyzer() *ColorHeuristicAnalyzer {
	return &ColorHeuristicAnalyzer{}
}

// Analyze downsamples the image, buckets every pixel by coarse color
// class, and applies the ordered rule cascade.
func (a *ColorHeuristicAnalyzer) Analyze(img image.Image) []models.DetectedObject {
	if img == nil {
		return nil
	}
	ratios := sampleBuckets(preprocess.Downscale(img, heuristicSampleSize))

	logger.WithFields(logrus.Fields{
		"green": ratios.green,
		"blue":  ratios.blue,
		"brown": ratios.brown,
		"skin":  ratios.skin,
	}).Debug("Color heuristic bucket ratios")

	return applyCascade(ratios)
}

func sampleBuckets(img image.Image) bucketRatios {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return bucketRatios{}
	}

	var counts struct {
		green, blue, brown, skin, red, white, dark, light int
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r := int(r16 >> 8)
			g := int(g16 >> 8)
			b := int(b16 >> 8)

			c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
			h, s, l := c.Hsl()

			if h >= 70 && h < 170 && s > 0.15 && l > 0.1 && l < 0.9 {
				counts.green++
			}
			if h >= 180 && h < 260 && s > 0.2 && l > 0.2 {
				counts.blue++
			}
			if isBrown(r, g, b) {
				counts.brown++
			}
			if isSkinTone(r, g, b) {
				counts.skin++
			}
			if (h < 15 || h > 345) && s > 0.5 && l > 0.2 && l < 0.8 {
				counts.red++
			}
			if l > 0.85 && s < 0.15 {
				counts.white++
			}
			if l < 0.12 {
				counts.dark++
			}
			if l > 0.7 {
				counts.light++
			}
		}
	}

	n := float64(total)
	return bucketRatios{
		green: float64(counts.green) / n,
		blue:  float64(counts.blue) / n,
		brown: float64(counts.brown) / n,
		skin:  float64(counts.skin) / n,
		red:   float64(counts.red) / n,
		white: float64(counts.white) / n,
		dark:  float64(counts.dark) / n,
		light: float64(counts.light) / n,
	}
}

// isBrown matches bark and soil tones: warm, ordered channels, low blue.
func isBrown(r, g, b int) bool {
	return r > g && g > b && r >= 80 && r <= 200 && g >= 40 && g <= 140 && b < 100 && r-b >= 40
}

// isSkinTone requires the strict r > g > b gradient with minimum margins.
func isSkinTone(r, g, b int) bool {
	return r > 95 && g > 40 && b > 20 &&
		r > g && g > b &&
		r-g >= skinRedGreenDelta && g-b >= skinGreenBlueDelta
}

// applyCascade converts bucket ratios to labels via an ordered rule list.
// Rule order is significant.
func applyCascade(ratios bucketRatios) []models.DetectedObject {
	var objects []models.DetectedObject

	natureSignal := false
	switch {
	case ratios.green > greenStrongRatio && ratios.brown > brownCoRatio:
		objects = append(objects,
			models.DetectedObject{Name: "Tree", Confidence: 0.92},
			models.DetectedObject{Name: "Nature", Confidence: 0.88},
			models.DetectedObject{Name: "Foliage", Confidence: 0.80},
		)
		natureSignal = true
	case ratios.green > greenLooseRatio:
		objects = append(objects,
			models.DetectedObject{Name: "Plant", Confidence: 0.85},
			models.DetectedObject{Name: "Nature", Confidence: 0.78},
		)
		natureSignal = true
	}

	if ratios.blue > blueStrongRatio {
		objects = append(objects, models.DetectedObject{Name: "Sky", Confidence: 0.90})
		if ratios.white > whiteCloudRatio {
			objects = append(objects, models.DetectedObject{Name: "Cloud", Confidence: 0.75})
		}
	}

	// Skin only counts when nature signals are weak; foliage and bark
	// tones fire the skin bucket too often otherwise.
	if ratios.skin > skinMinRatio && !natureSignal && ratios.green < 0.15 && ratios.brown < 0.10 {
		confidence := 0.70
		if ratios.skin > skinHighRatio {
			confidence = 0.85
		}
		objects = append(objects, models.DetectedObject{Name: "Person", Confidence: confidence})
	}

	if ratios.red > 0.30 {
		objects = append(objects, models.DetectedObject{Name: "Red Object", Confidence: 0.65})
	}

	if ratios.green > dominantRatio || ratios.blue > dominantRatio {
		objects = append(objects, models.DetectedObject{Name: "Landscape", Confidence: 0.72})
	}

	return objects
}
