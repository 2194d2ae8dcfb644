package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"shelfkeeper/m/domain"
	"shelfkeeper/m/internal/auth"
)

type ctxKey string

const ctxUser ctxKey = "user"

const msgPermissionDenied = "You do not have permission to perform this action."

func userFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(ctxUser).(*domain.User)
	return user
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])

		user, err := h.identity.Authenticate(r.Context(), tokenString)
		if errors.Is(err, auth.ErrInvalidToken) {
			respondError(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		if err != nil {
			h.respondErr(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := userFrom(r.Context())
			if user == nil {
				respondError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			h.respondErr(w, r, &domain.PermissionError{Message: msgPermissionDenied})
		})
	}
}

// requestLogger logs one line per request with logrus.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			entry := h.log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
				"remote_addr": r.RemoteAddr,
			})
			switch {
			case ww.Status() >= http.StatusInternalServerError:
				entry.Error("request failed")
			case ww.Status() >= http.StatusBadRequest:
				entry.Warn("request rejected")
			default:
				entry.Info("request completed")
			}
		}()
		next.ServeHTTP(ww, r)
	})
}
