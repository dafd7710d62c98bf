package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jredh-dev/lostfound/internal/token"
	"github.com/jredh-dev/lostfound/pkg/apperrors"
	"github.com/jredh-dev/lostfound/pkg/logger"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserContextKey stores the verified caller in request context.
	UserContextKey contextKey = "user"
)

// Identify reads a bearer token and, if it verifies, stores the caller in
// the request context. Requests without a valid token continue anonymously.
func Identify(tokens *token.Service, log *zap.Logger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok || tokens == nil {
				next.ServeHTTP(w, r)
				return
			}
			id, err := tokens.Verify(r.Context(), raw)
			if err != nil {
				log.Debug("bearer token rejected", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware requires the caller to have the admin role.
// MUST be used after Identify so the caller is already in context.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserFromContext(r.Context())
		if !ok {
			writeStatus(w, apperrors.ErrUnauthenticated)
			return
		}
		if !id.IsAdmin() {
			writeStatus(w, apperrors.Clone(apperrors.ErrForbidden, "admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext extracts the verified caller from request context.
func GetUserFromContext(ctx context.Context) (token.Identity, bool) {
	id, ok := ctx.Value(UserContextKey).(token.Identity)
	return id, ok
}

// callerID is the verified caller's id, or "" for anonymous requests.
func callerID(r *http.Request) string {
	id, _ := GetUserFromContext(r.Context())
	return id.UserID
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func writeStatus(w http.ResponseWriter, e *apperrors.Error) {
	jsonOK(w, e.Status, map[string]*apperrors.Error{"error": e})
}
