package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// StatusResponse is the success envelope of the email endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Success renders {"status":"success","message":...} with HTTP 200.
func Success(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, StatusResponse{Status: "success", Message: message})
}

// ValidationFailed renders a 422 response listing the rejected fields. An
// AppError such as ErrPayloadTooLarge keeps its own status.
func ValidationFailed(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		WriteError(w, appErr)
		return
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "request validation failed", verr.Fields)
		return
	}
	JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "request validation failed", nil)
}

// WriteError renders err. An AppError keeps its code, status and message;
// anything else becomes an opaque 500.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}
