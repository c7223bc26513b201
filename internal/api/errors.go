package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/p-arndt/sandpool/internal/pool"
)

// Error codes returned in API responses
const (
	ErrCodeCapacityExceeded = "CAPACITY_EXCEEDED"
	ErrCodeWorkloadExists   = "WORKLOAD_EXISTS"
	ErrCodeWorkloadNotFound = "WORKLOAD_NOT_FOUND"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeRuntimeError     = "RUNTIME_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
)

// APIError is the structured error response body.
type APIError struct {
	Code    string                 `json:"error_code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// writeAPIError maps known pool errors to structured responses with the
// matching HTTP status.
func writeAPIError(w http.ResponseWriter, err error) {
	var apiErr APIError
	statusCode := http.StatusInternalServerError

	switch {
	case errors.Is(err, pool.ErrCapacityExceeded):
		apiErr = APIError{Code: ErrCodeCapacityExceeded, Message: err.Error()}
		statusCode = http.StatusTooManyRequests

	case errors.Is(err, pool.ErrWorkloadExists):
		apiErr = APIError{Code: ErrCodeWorkloadExists, Message: err.Error()}
		statusCode = http.StatusConflict

	case errors.Is(err, pool.ErrWorkloadNotFound):
		apiErr = APIError{Code: ErrCodeWorkloadNotFound, Message: err.Error()}
		statusCode = http.StatusNotFound

	case errors.Is(err, pool.ErrRuntimeFailure):
		apiErr = APIError{Code: ErrCodeRuntimeError, Message: err.Error()}
		statusCode = http.StatusInternalServerError

	default:
		apiErr = APIError{Code: ErrCodeInternalError, Message: err.Error()}
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErr)
}

// writeValidationError writes a 400 Bad Request with validation details
func writeValidationError(w http.ResponseWriter, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(APIError{
		Code:    ErrCodeInvalidRequest,
		Message: message,
		Details: details,
	})
}

// writeUnauthorizedError writes a 401 Unauthorized error
func writeUnauthorizedError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	})
}
