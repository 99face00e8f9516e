package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is constructed once at process start and injected into the
// components that need it. Nothing reads ambient environment state after
// LoadFromEnv returns.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	// Upload boundary
	UploadDir     string
	MaxUploadSize int64

	// OCR engines
	OCRLanguages       []string
	OCRTimeout         time.Duration
	OCRMaxVariants     int
	SecondaryOCRBinary string
	TessdataPrefix     string

	// Cloud vision
	VisionAPIKey        string
	VisionEndpoint      string
	VisionTimeout       time.Duration
	VisionMinConfidence float64

	// Persistence
	DatabaseDSN        string
	PersistenceTimeout time.Duration
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// VisionConfigured reports whether the cloud vision classifier has a
// credential. Absence is a capability flag, not an error: the detection
// orchestrator skips straight to heuristics when this is false.
func (c *Config) VisionConfigured() bool {
	return strings.TrimSpace(c.VisionAPIKey) != ""
}

// PersistenceConfigured reports whether an analysis database is available.
func (c *Config) PersistenceConfigured() bool {
	return strings.TrimSpace(c.DatabaseDSN) != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 12*1024*1024),

		UploadDir:     getEnvOrDefault("UPLOAD_DIR", "uploads"),
		MaxUploadSize: parseIntOrDefault("MAX_UPLOAD_SIZE", 10*1024*1024), // 10MB

		OCRLanguages:       splitAndTrim(getEnvOrDefault("OCR_LANGUAGES", "eng")),
		OCRTimeout:         parseDurationOrDefault("OCR_TIMEOUT", 30*time.Second),
		OCRMaxVariants:     int(parseIntOrDefault("OCR_MAX_VARIANTS", 3)),
		SecondaryOCRBinary: os.Getenv("SECONDARY_OCR_BINARY"),
		TessdataPrefix:     getEnvOrDefault("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata"),

		VisionAPIKey:        os.Getenv("CLARIFAI_API_KEY"),
		VisionEndpoint:      getEnvOrDefault("CLARIFAI_ENDPOINT", "https://api.clarifai.com/v2/models/general-image-recognition/outputs"),
		VisionTimeout:       parseDurationOrDefault("VISION_TIMEOUT", 10*time.Second),
		VisionMinConfidence: parseFloatOrDefault("VISION_MIN_CONFIDENCE", 0.75),

		DatabaseDSN:        os.Getenv("DATABASE_DSN"),
		PersistenceTimeout: parseDurationOrDefault("PERSISTENCE_TIMEOUT", 5*time.Second),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_SIZE must be > 0 (got %d)", cfg.MaxUploadSize)
	}
	if cfg.OCRMaxVariants < 1 {
		return nil, fmt.Errorf("OCR_MAX_VARIANTS must be >= 1 (got %d)", cfg.OCRMaxVariants)
	}
	if cfg.VisionMinConfidence < 0 || cfg.VisionMinConfidence > 1 {
		return nil, fmt.Errorf("VISION_MIN_CONFIDENCE must be in [0,1] (got %g)", cfg.VisionMinConfidence)
	}
	if cfg.RequestTimeout <= 0 || cfg.OCRTimeout <= 0 || cfg.VisionTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, ocr=%s, vision=%s)",
			cfg.RequestTimeout, cfg.OCRTimeout, cfg.VisionTimeout)
	}
	if len(cfg.OCRLanguages) == 0 {
		cfg.OCRLanguages = []string{"eng"}
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
