package detection

import (
	"image"
	"testing"
)

func TestAspectLabels(t *testing.T) {
	analyzer := NewShapeHeuristicAnalyzer()

	tests := []struct {
		name          string
		width, height int
		want          string
	}{
		{"Wide landscape", 300, 200, "Landscape"},
		{"Tall portrait", 200, 300, "Portrait"},
		{"Exactly at ratio", 140, 100, "Landscape"},
		{"Square", 100, 100, ""},
		{"Just below ratio", 139, 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.width, tt.height))
			objects := analyzer.AspectLabels(img)

			if tt.want == "" {
				if len(objects) != 0 {
					t.Errorf("Expected no labels, got %+v", objects)
				}
				return
			}
			if len(objects) != 1 || objects[0].Name != tt.want {
				t.Errorf("Expected %s, got %+v", tt.want, objects)
			}
			if objects[0].Confidence != 0.68 {
				t.Errorf("Expected orientation confidence 0.68, got %g", objects[0].Confidence)
			}
		})
	}
}

func TestResolutionLabels(t *testing.T) {
	analyzer := NewShapeHeuristicAnalyzer()

	tests := []struct {
		name          string
		width, height int
		want          string
		confidence    float64
	}{
		{"High resolution", 4000, 2100, "High Resolution", 0.66},
		{"Detailed scene", 2000, 1100, "Detailed Scene", 0.62},
		{"Small image", 640, 480, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.width, tt.height))
			objects := analyzer.ResolutionLabels(img)

			if tt.want == "" {
				if len(objects) != 0 {
					t.Errorf("Expected no labels, got %+v", objects)
				}
				return
			}
			if len(objects) != 1 || objects[0].Name != tt.want || objects[0].Confidence != tt.confidence {
				t.Errorf("Expected %s (%g), got %+v", tt.want, tt.confidence, objects)
			}
		})
	}
}

func TestShapeHeuristics_NilImage(t *testing.T) {
	analyzer := NewShapeHeuristicAnalyzer()
	if objects := analyzer.AspectLabels(nil); objects != nil {
		t.Errorf("Expected nil aspect labels, got %+v", objects)
	}
	if objects := analyzer.ResolutionLabels(nil); objects != nil {
		t.Errorf("Expected nil resolution labels, got %+v", objects)
	}
}
