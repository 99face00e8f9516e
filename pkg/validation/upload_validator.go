package validation

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"strings"
)

// UploadThresholds defines configurable limits for upload validation
type UploadThresholds struct {
	// Size limits
	MaxFileSize int64

	// Declared content types accepted at the upload boundary
	AllowedMimeTypes map[string]bool
}

// DefaultUploadThresholds returns the default upload thresholds
func DefaultUploadThresholds() UploadThresholds {
	return UploadThresholds{
		MaxFileSize: 10 << 20,
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/gif":  true,
			"image/webp": true,
			"image/bmp":  true,
		},
	}
}

// imageSignatures are magic-byte prefixes checked against the actual file
// content, independent of the declared MIME type.
var imageSignatures = [][]byte{
	{0xFF, 0xD8},                                     // JPEG
	{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, // PNG
	{0x47, 0x49, 0x46, 0x38},                         // GIF
	{0x52, 0x49, 0x46, 0x46},                         // WebP (RIFF)
	{0x42, 0x4D},                                     // BMP
}

// UploadIssue represents an upload validation issue
type UploadIssue struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning"
}

// UploadValidator handles validation of incoming image uploads
type UploadValidator struct {
	thresholds UploadThresholds
}

// NewUploadValidator creates an upload validator with default thresholds
func NewUploadValidator() *UploadValidator {
	return &UploadValidator{thresholds: DefaultUploadThresholds()}
}

// NewUploadValidatorWithThresholds creates an upload validator with custom thresholds
func NewUploadValidatorWithThresholds(thresholds UploadThresholds) *UploadValidator {
	if thresholds.AllowedMimeTypes == nil {
		thresholds.AllowedMimeTypes = DefaultUploadThresholds().AllowedMimeTypes
	}
	return &UploadValidator{thresholds: thresholds}
}

// ValidateHeader checks the multipart header before the file body is read:
// presence, declared size and declared content type.
func (uv *UploadValidator) ValidateHeader(header *multipart.FileHeader) []UploadIssue {
	var issues []UploadIssue

	if header == nil {
		return []UploadIssue{{
			Type:     "missing_file",
			Message:  "no image file provided",
			Severity: "error",
		}}
	}

	if header.Size == 0 {
		issues = append(issues, UploadIssue{
			Type:     "empty_file",
			Message:  "uploaded file is empty",
			Severity: "error",
		})
	}
	if header.Size > uv.thresholds.MaxFileSize {
		issues = append(issues, UploadIssue{
			Type:     "file_too_large",
			Message:  fmt.Sprintf("file size %d exceeds limit %d", header.Size, uv.thresholds.MaxFileSize),
			Severity: "error",
		})
	}

	mimeType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if mimeType != "" && !uv.thresholds.AllowedMimeTypes[mimeType] {
		issues = append(issues, UploadIssue{
			Type:     "unsupported_type",
			Message:  fmt.Sprintf("unsupported image type: %s", mimeType),
			Severity: "error",
		})
	}

	return issues
}

// ValidateContent checks the actual file bytes: the size ceiling again
// (declared sizes can lie) and a magic-byte sniff against known image
// formats.
func (uv *UploadValidator) ValidateContent(data []byte) []UploadIssue {
	var issues []UploadIssue

	if int64(len(data)) > uv.thresholds.MaxFileSize {
		issues = append(issues, UploadIssue{
			Type:     "file_too_large",
			Message:  "file exceeds size limit",
			Severity: "error",
		})
	}
	if !looksLikeImage(data) {
		issues = append(issues, UploadIssue{
			Type:     "not_an_image",
			Message:  "file content is not a supported image",
			Severity: "error",
		})
	}

	return issues
}

// HasCriticalIssues checks if there are any critical (error severity) issues
func (uv *UploadValidator) HasCriticalIssues(issues []UploadIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}

// FirstError returns the message of the first error-severity issue,
// or an empty string when none exists.
func (uv *UploadValidator) FirstError(issues []UploadIssue) string {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return issue.Message
		}
	}
	return ""
}

func looksLikeImage(data []byte) bool {
	for _, sig := range imageSignatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}
