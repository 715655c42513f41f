package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apperrors "recipes_backend/errors"
)

const msgInternal = "Internal Server Error"

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends {"error": message} with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// readJSON decodes the request body into dst. An empty body leaves dst untouched.
func readJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// respondError writes 404 with the error's message for not-found errors and
// the fixed 500 body for everything else.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var se *apperrors.StructuredError
	if errors.As(err, &se) && se.Code == apperrors.ErrCodeNotFound {
		writeError(w, http.StatusNotFound, se.Message)
		return
	}

	attrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"requestID", RequestIDFromContext(r.Context()),
		"error", err,
	}
	if se != nil && len(se.Context) > 0 {
		attrs = append(attrs, "context", se.Context)
	}
	logger.Error("request failed", attrs...)
	writeError(w, http.StatusInternalServerError, msgInternal)
}
