package ocr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ocr.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	return path
}

func TestNewCommandEngine_Disabled(t *testing.T) {
	if engine := NewCommandEngine(""); engine != nil {
		t.Error("Expected nil engine for empty binary")
	}
	if engine := NewCommandEngine("   "); engine != nil {
		t.Error("Expected nil engine for blank binary")
	}
}

func TestCommandEngine_Recognize(t *testing.T) {
	binary := writeScript(t, `echo '{"text":"hello from ocr","confidence":88.5}'`)
	engine := NewCommandEngine(binary)

	extraction, err := engine.Recognize(context.Background(), "image.png", Options{Languages: []string{"eng", "hin"}})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if extraction.Text != "hello from ocr" {
		t.Errorf("Unexpected text %q", extraction.Text)
	}
	if extraction.Confidence != 88.5 {
		t.Errorf("Unexpected confidence %g", extraction.Confidence)
	}
}

func TestCommandEngine_Recognize_ClampsConfidence(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   float64
	}{
		{"Above scale", `echo '{"text":"x y z","confidence":150}'`, 100},
		{"Below scale", `echo '{"text":"x y z","confidence":-5}'`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewCommandEngine(writeScript(t, tt.output))
			extraction, err := engine.Recognize(context.Background(), "image.png", Options{})
			if err != nil {
				t.Fatalf("Recognize failed: %v", err)
			}
			if extraction.Confidence != tt.want {
				t.Errorf("Expected confidence %g, got %g", tt.want, extraction.Confidence)
			}
		})
	}
}

func TestCommandEngine_Recognize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"Invalid JSON", `echo 'not json'`, "invalid output"},
		{"Empty text", `echo '{"text":"  ","confidence":50}'`, "no text"},
		{"Nonzero exit", `exit 3`, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewCommandEngine(writeScript(t, tt.body))
			_, err := engine.Recognize(context.Background(), "image.png", Options{})
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error containing %q, got %v", tt.contains, err)
			}
		})
	}
}

func TestCommandEngine_Recognize_Timeout(t *testing.T) {
	engine := NewCommandEngine(writeScript(t, `sleep 5`))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := engine.Recognize(ctx, "image.png", Options{})
	if err == nil {
		t.Fatal("Expected a timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Expected timeout error, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Process must be killed when the context deadline passes")
	}
}
