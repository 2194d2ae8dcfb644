package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"shelfkeeper/m/domain"
	"shelfkeeper/m/internal/auth"
)

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondErr maps service errors onto status codes and the {"error": ...}
// body shape. Anything unrecognised is logged and reported as a 500.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *domain.ValidationError
		authErr       *domain.AuthError
		permErr       *domain.PermissionError
		notFoundErr   *domain.NotFoundError
		conflictErr   *domain.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, validationBody(validationErr))
	case errors.As(err, &authErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error": domain.FieldErrors{"non_field_errors": {authErr.Message}},
		})
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "Token is invalid or expired")
	case errors.As(err, &permErr):
		respondError(w, http.StatusForbidden, permErr.Message)
	case errors.As(err, &notFoundErr):
		respondError(w, http.StatusNotFound, notFoundErr.Message)
	case errors.As(err, &conflictErr):
		respondError(w, http.StatusBadRequest, conflictErr.Message)
	default:
		h.log.WithField("request_id", middleware.GetReqID(r.Context())).
			WithError(err).Errorf("%s %s failed", r.Method, r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func validationBody(e *domain.ValidationError) map[string]any {
	switch {
	case e.Items != nil:
		return map[string]any{"error": e.Message, "details": e.Items}
	case e.Message != "" && e.Fields != nil:
		return map[string]any{"error": e.Message, "details": e.Fields}
	case e.Fields != nil:
		return map[string]any{"error": e.Fields}
	default:
		return map[string]any{"error": e.Message}
	}
}

// pathID parses the {id} URL parameter. A malformed id is reported as not
// found, like a missing record.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
