package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
	"github.com/trekkr-app/trekkr-backend/pkg/ctxutil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleError maps domain sentinel errors to HTTP status codes. Anything
// unmapped is a 500 and the detail stays in the log, not the response.
func handleError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrUnavailable):
		log.ErrorContext(r.Context(), "dependency unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// userIDFromRequest reads the authenticated user from the request context.
// Routes behind RequireAuth always have one; the guard is for handlers
// mounted without it.
func userIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}
