package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AlynxNeko/sangu/internal/auth"
	"github.com/AlynxNeko/sangu/internal/core"
	"github.com/AlynxNeko/sangu/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps domain errors to HTTP status codes. Unknown errors are
// logged and reported as 500 without leaking internals.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		writeJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailExists):
		writeJSONError(w, http.StatusConflict, err.Error())
	case isValidationError(err):
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "method", r.Method, "url", r.URL.Path)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidPercent,
		core.ErrInvalidType,
		core.ErrInvalidFrequency,
		core.ErrInvalidMethodType,
		core.ErrEmptyDescription,
		core.ErrEmptyName,
		core.ErrEmptyParticipant,
		core.ErrSplitExceedsTotal,
		core.ErrInvalidSplitMode,
		core.ErrPercentSum,
		core.ErrZeroDate,
		services.ErrSplitMismatch,
		auth.ErrWeakPassword,
		auth.ErrInvalidEmail,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeJSON reads a bounded JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
