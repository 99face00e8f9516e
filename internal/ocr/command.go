package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// CommandEngine runs a secondary OCR backend as a child process. The
// binary is expected to print a single JSON object {"text": ..,
// "confidence": ..} on stdout, with confidence on the 0-100 scale.
//
// The original deployment wraps EasyOCR this way; any recognizer with the
// same contract can be substituted through configuration.
type CommandEngine struct {
	binary string
}

// NewCommandEngine creates a subprocess-backed engine. Returns nil when no
// binary is configured, which disables dual-engine racing.
func NewCommandEngine(binary string) *CommandEngine {
	if strings.TrimSpace(binary) == "" {
		return nil
	}
	return &CommandEngine{binary: binary}
}

// Name returns the engine identifier recorded in OCR results.
func (e *CommandEngine) Name() string {
	return "easyocr"
}

type commandOutput struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognize invokes the child process under the caller's context. When the
// context deadline passes, the process is killed and the attempt reported
// as failed.
func (e *CommandEngine) Recognize(ctx context.Context, imagePath string, opts Options) (Extraction, error) {
	args := []string{imagePath}
	if len(opts.Languages) > 0 {
		args = append(args, "--lang", strings.Join(opts.Languages, "+"))
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Extraction{}, fmt.Errorf("secondary OCR timed out: %w", ctx.Err())
		}
		return Extraction{}, fmt.Errorf("secondary OCR failed: %w", err)
	}

	var out commandOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return Extraction{}, fmt.Errorf("secondary OCR produced invalid output: %w", err)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return Extraction{}, fmt.Errorf("secondary OCR found no text")
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 100 {
		out.Confidence = 100
	}
	return Extraction{Text: text, Confidence: out.Confidence}, nil
}
