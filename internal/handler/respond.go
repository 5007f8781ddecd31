package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/mmynk/pantry/internal/middleware"
	"github.com/mmynk/pantry/internal/service"
)

const genericErrorMessage = "An unexpected error occurred"

// dataEnvelope wraps every successful response.
type dataEnvelope struct {
	Data       any                 `json:"data"`
	Pagination *service.Pagination `json:"pagination,omitempty"`
}

type errorBody struct {
	Code    service.Code   `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, code service.Code, message string, details map[string]any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message, Details: details}})
}

// statusFor maps service codes to HTTP statuses. Unknown codes are 500.
func statusFor(code service.Code) int {
	switch code {
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeUnauthorized, service.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeEmailExists, service.CodeProductExists:
		return http.StatusConflict
	case service.CodeNoItemsToAdd:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err. Anything that is not a recognized client
// error becomes a generic 500; the cause is only logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		if status := statusFor(svcErr.Code); status < http.StatusInternalServerError {
			writeError(w, status, svcErr.Code, svcErr.Message, svcErr.Details)
			return
		}
	}

	h.logger.Error("Request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"user_id", middleware.GetUserID(r.Context()),
		"error", err,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
		"stack", string(debug.Stack()),
	)
	writeError(w, http.StatusInternalServerError, service.CodeInternal, genericErrorMessage, nil)
}
