package preprocess

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Variant names, in the fixed order the OCR runner tries them.
const (
	VariantOriginal     = "original"
	VariantHighContrast = "high_contrast"
	VariantTextIsolated = "text_isolated"
)

// thresholdLevel separates ink from paper in the text-isolated variant.
const thresholdLevel = 150

// VariantSet holds the preprocessing variants derived from one upload.
// All derived files live in the temp directory; Cleanup removes them and
// must run on every exit path. The original upload is never touched.
type VariantSet struct {
	Paths []string // variant file paths, original first
	temp  []string // derived files owned by this set
}

// LoadImage decodes an image file from disk.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// BuildTextVariants produces up to maxVariants image files tuned for OCR:
// the unmodified original, a sharpened high-contrast grayscale, and a
// thresholded text-isolated rendition. Derived files are written to the
// temp directory with names unique to this upload.
func BuildTextVariants(srcPath string, maxVariants int) (*VariantSet, error) {
	img, err := LoadImage(srcPath)
	if err != nil {
		return nil, err
	}

	set := &VariantSet{Paths: []string{srcPath}}
	if maxVariants <= 1 {
		return set, nil
	}

	gray := imaging.Grayscale(img)

	contrast := imaging.Sharpen(imaging.AdjustContrast(gray, 40), 1.0)
	contrastPath, err := saveVariant(srcPath, VariantHighContrast, contrast)
	if err != nil {
		set.Cleanup()
		return nil, err
	}
	set.Paths = append(set.Paths, contrastPath)
	set.temp = append(set.temp, contrastPath)

	if maxVariants <= 2 {
		return set, nil
	}

	isolated := segment.Threshold(gray, thresholdLevel)
	isolatedPath, err := saveVariant(srcPath, VariantTextIsolated, isolated)
	if err != nil {
		set.Cleanup()
		return nil, err
	}
	set.Paths = append(set.Paths, isolatedPath)
	set.temp = append(set.temp, isolatedPath)

	return set, nil
}

// Cleanup removes every derived variant file. Safe to call more than once;
// removal is best-effort.
func (v *VariantSet) Cleanup() {
	for _, p := range v.temp {
		os.Remove(p)
	}
	v.temp = nil
}

// RotateToTemp writes a rotated copy of the image to a temp file and
// returns its path. The caller owns the file and must remove it.
func RotateToTemp(srcPath string, angle float64) (string, error) {
	img, err := LoadImage(srcPath)
	if err != nil {
		return "", err
	}
	rotated := imaging.Rotate(img, angle, color.White)
	return saveVariant(srcPath, fmt.Sprintf("rot%g", angle), rotated)
}

// Downscale resizes the image so its longest side is at most size pixels,
// preserving aspect ratio. Used by the color heuristics to bound sampling
// cost.
func Downscale(img image.Image, size int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= size && bounds.Dy() <= size {
		return img
	}
	return imaging.Fit(img, size, size, imaging.NearestNeighbor)
}

func saveVariant(srcPath, variant string, img image.Image) (string, error) {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	name := fmt.Sprintf("%s-%s-%s.png", base, variant, uuid.NewString()[:8])
	path := filepath.Join(os.TempDir(), name)
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("failed to save %s variant: %w", variant, err)
	}
	return path, nil
}
