package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorSanitizer logs the full error server-side and sends the client a fixed message
type ErrorSanitizer struct {
	logger *zap.Logger
}

// NewErrorSanitizer creates a new error sanitizer
func NewErrorSanitizer(logger *zap.Logger) *ErrorSanitizer {
	return &ErrorSanitizer{
		logger: logger,
	}
}

// SanitizeAndRespond writes {"error": clientMessage} with statusCode. An empty
// clientMessage falls back to a generic message for the status.
func (es *ErrorSanitizer) SanitizeAndRespond(w http.ResponseWriter, r *http.Request, err error, statusCode int, clientMessage string) {
	fields := []zap.Field{
		zap.Int("status_code", statusCode),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("remote_addr", r.RemoteAddr),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	if statusCode >= http.StatusInternalServerError {
		es.logger.Error("Request error", fields...)
	} else {
		es.logger.Debug("Request rejected", fields...)
	}

	if clientMessage == "" {
		clientMessage = GenericErrorMessage(statusCode)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": clientMessage})
}

// GenericErrorMessage is the client message used when a handler supplies none
func GenericErrorMessage(statusCode int) string {
	switch {
	case statusCode == http.StatusRequestEntityTooLarge:
		return "Request body too large"
	case statusCode == http.StatusTooManyRequests:
		return "Rate limit exceeded"
	case statusCode >= http.StatusInternalServerError:
		return "Internal server error"
	case statusCode >= http.StatusBadRequest:
		return http.StatusText(statusCode)
	default:
		return "Unexpected response"
	}
}
