package detection

import (
	"image"
	"image/color"
	"testing"
)

// fillRegions paints vertical bands of the given colors, one band per
// ratio, across a width x height image.
func fillRegions(width, height int, colors []color.RGBA, ratios []float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	start := 0
	for i, c := range colors {
		end := start + int(float64(width)*ratios[i])
		if i == len(colors)-1 {
			end = width
		}
		for x := start; x < end; x++ {
			for y := 0; y < height; y++ {
				img.Set(x, y, c)
			}
		}
		start = end
	}
	return img
}

var (
	testGreen = color.RGBA{60, 160, 60, 255}
	testBrown = color.RGBA{100, 88, 40, 255}
	testBlue  = color.RGBA{80, 130, 220, 255}
	testWhite = color.RGBA{245, 245, 245, 255}
	testSkin  = color.RGBA{200, 150, 110, 255}
	testGray  = color.RGBA{128, 128, 128, 255}
)

func TestAnalyze_ForestScene(t *testing.T) {
	analyzer := NewColorHeuristicAnalyzer()

	// 90% green canopy, 10% brown trunk region
	img := fillRegions(100, 100, []color.RGBA{testGreen, testBrown}, []float64{0.9, 0.1})

	objects := analyzer.Analyze(img)

	wantNames := []string{"Tree", "Nature", "Foliage", "Landscape"}
	if len(objects) != len(wantNames) {
		t.Fatalf("Expected %d objects, got %d: %+v", len(wantNames), len(objects), objects)
	}
	for i, want := range wantNames {
		if objects[i].Name != want {
			t.Errorf("Object %d: expected %s, got %s", i, want, objects[i].Name)
		}
	}
	if objects[0].Confidence != 0.92 {
		t.Errorf("Expected Tree confidence 0.92, got %g", objects[0].Confidence)
	}
	for _, obj := range objects {
		if obj.Name == "Person" {
			t.Error("Person must not be detected in a forest-dominated scene")
		}
	}
}

func TestAnalyze_SkyScene(t *testing.T) {
	analyzer := NewColorHeuristicAnalyzer()

	// 70% blue sky, 30% white clouds
	img := fillRegions(100, 100, []color.RGBA{testBlue, testWhite}, []float64{0.7, 0.3})

	objects := analyzer.Analyze(img)

	found := map[string]float64{}
	for _, obj := range objects {
		found[obj.Name] = obj.Confidence
	}
	if found["Sky"] != 0.90 {
		t.Errorf("Expected Sky with confidence 0.90, got %+v", objects)
	}
	if found["Cloud"] != 0.75 {
		t.Errorf("Expected Cloud with confidence 0.75, got %+v", objects)
	}
	if _, ok := found["Landscape"]; !ok {
		t.Errorf("Expected Landscape for a blue-dominated image, got %+v", objects)
	}
}

func TestAnalyze_PortraitScene(t *testing.T) {
	analyzer := NewColorHeuristicAnalyzer()

	// 30% skin tones against a neutral background
	img := fillRegions(100, 100, []color.RGBA{testSkin, testGray}, []float64{0.3, 0.7})

	objects := analyzer.Analyze(img)

	if len(objects) != 1 {
		t.Fatalf("Expected exactly one object, got %+v", objects)
	}
	if objects[0].Name != "Person" || objects[0].Confidence != 0.85 {
		t.Errorf("Expected Person with confidence 0.85, got %+v", objects[0])
	}
}

func TestAnalyze_NeutralScene(t *testing.T) {
	analyzer := NewColorHeuristicAnalyzer()

	img := fillRegions(100, 100, []color.RGBA{testGray}, []float64{1.0})

	if objects := analyzer.Analyze(img); len(objects) != 0 {
		t.Errorf("Expected no objects for a neutral gray image, got %+v", objects)
	}
}

func TestAnalyze_NilImage(t *testing.T) {
	analyzer := NewColorHeuristicAnalyzer()
	if objects := analyzer.Analyze(nil); objects != nil {
		t.Errorf("Expected nil for nil image, got %+v", objects)
	}
}

func TestApplyCascade(t *testing.T) {
	tests := []struct {
		name      string
		ratios    bucketRatios
		wantNames []string
	}{
		{
			name:      "Strong green with brown co-occurrence",
			ratios:    bucketRatios{green: 0.40, brown: 0.06},
			wantNames: []string{"Tree", "Nature", "Foliage"},
		},
		{
			name:      "Loose green without brown",
			ratios:    bucketRatios{green: 0.27},
			wantNames: []string{"Plant", "Nature"},
		},
		{
			name:      "Green just below loose threshold",
			ratios:    bucketRatios{green: 0.25},
			wantNames: nil,
		},
		{
			name:      "Blue sky with clouds",
			ratios:    bucketRatios{blue: 0.35, white: 0.20},
			wantNames: []string{"Sky", "Cloud"},
		},
		{
			name:      "Blue sky without clouds",
			ratios:    bucketRatios{blue: 0.35, white: 0.10},
			wantNames: []string{"Sky"},
		},
		{
			name:      "Moderate skin",
			ratios:    bucketRatios{skin: 0.15},
			wantNames: []string{"Person"},
		},
		{
			name:      "Skin suppressed by green presence",
			ratios:    bucketRatios{skin: 0.15, green: 0.20},
			wantNames: nil,
		},
		{
			name:      "Skin suppressed by nature labels",
			ratios:    bucketRatios{skin: 0.30, green: 0.35, brown: 0.12},
			wantNames: []string{"Tree", "Nature", "Foliage"},
		},
		{
			name:      "Dominant green adds landscape",
			ratios:    bucketRatios{green: 0.60, brown: 0.06},
			wantNames: []string{"Tree", "Nature", "Foliage", "Landscape"},
		},
		{
			name:      "Red object",
			ratios:    bucketRatios{red: 0.35},
			wantNames: []string{"Red Object"},
		},
		{
			name:      "Empty ratios",
			ratios:    bucketRatios{},
			wantNames: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := applyCascade(tt.ratios)
			if len(objects) != len(tt.wantNames) {
				t.Fatalf("Expected %d objects, got %+v", len(tt.wantNames), objects)
			}
			for i, want := range tt.wantNames {
				if objects[i].Name != want {
					t.Errorf("Object %d: expected %s, got %s", i, want, objects[i].Name)
				}
			}
		})
	}
}

func TestApplyCascade_SkinConfidenceTiers(t *testing.T) {
	low := applyCascade(bucketRatios{skin: 0.15})
	if len(low) != 1 || low[0].Confidence != 0.70 {
		t.Errorf("Expected Person 0.70 for moderate skin ratio, got %+v", low)
	}

	high := applyCascade(bucketRatios{skin: 0.30})
	if len(high) != 1 || high[0].Confidence != 0.85 {
		t.Errorf("Expected Person 0.85 for high skin ratio, got %+v", high)
	}
}

func TestIsSkinTone(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b int
		want    bool
	}{
		{"Typical skin", 200, 150, 110, true},
		{"Light skin", 230, 190, 160, true},
		{"Red channel too low", 90, 60, 40, false},
		{"Missing red-green margin", 100, 88, 70, false},
		{"Missing green-blue margin", 150, 120, 115, false},
		{"Inverted gradient", 110, 150, 200, false},
		{"Neutral gray", 128, 128, 128, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSkinTone(tt.r, tt.g, tt.b); got != tt.want {
				t.Errorf("isSkinTone(%d,%d,%d) = %v, want %v", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsBrown(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b int
		want    bool
	}{
		{"Bark brown", 120, 80, 40, true},
		{"Soil brown", 100, 88, 40, true},
		{"Too bright", 220, 120, 60, false},
		{"Too blue", 120, 100, 110, false},
		{"Insufficient red-blue spread", 100, 90, 80, false},
		{"Green dominant", 60, 160, 60, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBrown(tt.r, tt.g, tt.b); got != tt.want {
				t.Errorf("isBrown(%d,%d,%d) = %v, want %v", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}
