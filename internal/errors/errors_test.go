package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorConstructors(t *testing.T) {
	cause := errors.New("underlying failure")

	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"Validation", NewValidationError("bad input", cause), ErrorTypeValidation, http.StatusBadRequest},
		{"Network", NewNetworkError("connection refused", cause), ErrorTypeNetwork, http.StatusBadGateway},
		{"Processing", NewProcessingError("cannot decode", cause), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"Timeout", NewTimeoutError("deadline passed", cause), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"Internal", NewInternalError("unexpected", cause), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, tt.err.StatusCode)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("Expected the cause to be reachable through Unwrap")
			}
		})
	}
}

func TestIsType(t *testing.T) {
	err := NewValidationError("bad input", nil)

	if !IsType(err, ErrorTypeValidation) {
		t.Error("Expected validation type match")
	}
	if IsType(err, ErrorTypeInternal) {
		t.Error("Did not expect internal type match")
	}

	wrapped := fmt.Errorf("handling request: %w", err)
	if !IsType(wrapped, ErrorTypeValidation) {
		t.Error("Expected type match through wrapping")
	}

	if IsType(errors.New("plain"), ErrorTypeValidation) {
		t.Error("Plain errors must not match any type")
	}
}

func TestGetStatusCode(t *testing.T) {
	if got := GetStatusCode(NewValidationError("bad", nil)); got != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", got)
	}
	wrapped := fmt.Errorf("outer: %w", NewTimeoutError("slow", nil))
	if got := GetStatusCode(wrapped); got != http.StatusGatewayTimeout {
		t.Errorf("Expected 504 through wrapping, got %d", got)
	}
	if got := GetStatusCode(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("Expected 500 fallback, got %d", got)
	}
}

func TestRemoteServiceError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewRemoteServiceError("cloud_vision", "classification request failed", cause)

	if err.Error() != "cloud_vision: classification request failed: connection reset" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the cause to be reachable through Unwrap")
	}

	if !IsRemoteServiceError(err) {
		t.Error("Expected IsRemoteServiceError to match")
	}
	wrapped := fmt.Errorf("detection: %w", err)
	if !IsRemoteServiceError(wrapped) {
		t.Error("Expected match through wrapping")
	}
	if IsRemoteServiceError(errors.New("plain")) {
		t.Error("Plain errors must not match")
	}
}

func TestRemoteServiceError_NoCause(t *testing.T) {
	err := NewRemoteServiceError("cloud_vision", "no confident detections", nil)
	if err.Error() != "cloud_vision: no confident detections" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}
