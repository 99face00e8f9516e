package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-lingualens/internal/config"
	apperrors "go-lingualens/internal/errors"
	"go-lingualens/internal/logger"
	"go-lingualens/internal/observer"
	"go-lingualens/internal/service"
	"go-lingualens/pkg/models"
)

// NewHandler wires the HTTP surface: image upload analysis, persisted
// history, health and metrics.
func NewHandler(analysisService service.AnalysisService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", analysisMetrics(metrics))

	api := r.Group("/api")
	api.POST("/analyze", analyzeImage(analysisService, cfg))
	api.GET("/analyses/recent", recentAnalyses(analysisService))

	return r
}

func analyzeImage(s service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		// Log request start
		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing image analysis request")

		header, err := c.FormFile("image")
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Missing image file in request")
			respondError(c, http.StatusBadRequest, "image file is required", err)
			return
		}

		response, err := s.AnalyzeUpload(ctx, header)
		if err != nil {
			statusCode := apperrors.GetStatusCode(err)
			if errors.Is(err, context.DeadlineExceeded) {
				statusCode = http.StatusGatewayTimeout
			}
			logger.WithError(err).WithFields(logrus.Fields{
				"filename": header.Filename,
				"ip":       c.ClientIP(),
			}).Error("Image analysis failed")
			respondError(c, statusCode, "image analysis failed", err)
			return
		}

		// Log successful completion
		duration := time.Since(startTime)
		logger.WithFields(logrus.Fields{
			"filename":           header.Filename,
			"analysis_type":      response.AnalysisType,
			"processing_time_ms": duration.Milliseconds(),
			"object_count":       len(response.Objects.Objects),
		}).Info("Image analysis completed successfully")

		c.JSON(http.StatusOK, response)
	}
}

func recentAnalyses(s service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		entries, err := s.RecentAnalyses(c.Request.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("Failed to load analysis history")
			respondError(c, http.StatusInternalServerError, "failed to load analysis history", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"analyses": entries})
	}
}

func analysisMetrics(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
