package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carmarket/internal/auth"
	"carmarket/internal/constants"
	"carmarket/internal/db"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated identity resolved at the middleware
// boundary. IsAdmin comes from the session row, not the target account.
type Principal struct {
	UserID  string
	IsAdmin bool
}

type AuthMiddleware struct {
	sessions *db.SessionRepository
}

func NewAuthMiddleware(sessions *db.SessionRepository) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireSession resolves the session cookie and stores the principal in the
// request context. Absent, unknown, or expired sessions get a 401.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(constants.SessionCookieName)
		if err != nil || cookie.Value == "" {
			unauthorized(w, "No session, authorization denied")
			return
		}

		session, err := m.sessions.FindValidByTokenHash(auth.HashSessionToken(cookie.Value))
		if errors.Is(err, db.ErrNotFound) {
			unauthorized(w, "No session, authorization denied")
			return
		}
		if err != nil {
			slog.Error("error resolving session", "error", err)
			internalError(w)
			return
		}

		principal := Principal{UserID: session.UserID, IsAdmin: session.IsAdmin}
		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSelf rejects requests whose path id is not the caller's own account.
// Must run after RequireSession.
func RequireSelf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := GetPrincipal(r)
		if !ok {
			unauthorized(w, "No session, authorization denied")
			return
		}

		if principal.UserID != chi.URLParam(r, "id") {
			forbidden(w, "You can only modify your own profile")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks the caller's session-derived admin flag. Must run
// after RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := GetPrincipal(r)
		if !ok {
			unauthorized(w, "No session, authorization denied")
			return
		}

		if !principal.IsAdmin {
			forbidden(w, "Admin privileges required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func GetPrincipal(r *http.Request) (Principal, bool) {
	principal, ok := r.Context().Value(principalKey).(Principal)
	return principal, ok
}
