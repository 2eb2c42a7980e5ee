package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coursehub/notify/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// mapError translates domain sentinel errors to HTTP status codes.
// All mapping lives here so individual handlers stay concise.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidJobKind),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrMissingEmail),
		errors.Is(err, domain.ErrMissingEmails),
		errors.Is(err, domain.ErrMissingCourse),
		errors.Is(err, domain.ErrMissingTitle),
		errors.Is(err, domain.ErrMissingBody),
		errors.Is(err, domain.ErrMissingToken),
		errors.Is(err, domain.ErrUnrecognizedEmail),
		errors.Is(err, domain.ErrBatchEmpty),
		errors.Is(err, domain.ErrBatchTooLarge):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrQueueFull):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
