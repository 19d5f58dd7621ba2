package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"iruka_console/internal/middleware"
	"iruka_console/internal/services"
	"iruka_console/internal/storage"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEncoding     = errors.New("failed to encode")
)

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(ErrEncoding.Error(), slog.String("error", err.Error()))
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Internal
// errors are masked; classified errors surface their message so callers
// see the offending state.
func writeError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	status := statusForError(err)

	log.Error(
		"request failed",
		slog.String("operation", op),
		slog.Int("status", status),
		slog.String("error", err.Error()))

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	writeJSON(w, log, status, errorResponse{Error: message, Status: status})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrInvalidState),
		errors.Is(err, storage.ErrChecklistIncomplete),
		errors.Is(err, storage.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrExists),
		errors.Is(err, storage.ErrDuplicateVersion):
		return http.StatusConflict
	case errors.Is(err, storage.ErrExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func actorFromRequest(r *http.Request) (services.Actor, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || userID <= 0 {
		return services.Actor{}, false
	}
	return services.Actor{
		UserID:  userID,
		IsAdmin: middleware.IsAdminFromContext(r.Context()),
	}, true
}
