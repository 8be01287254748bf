package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyUser stores the signed in user
const ContextKeyUser ContextKey = "user"

// UserFromContext returns the user RequireSession admitted, or nil.
func UserFromContext(ctx context.Context) *users.User {
	u, _ := ctx.Value(ContextKeyUser).(*users.User)
	return u
}

// RequireSession guards HTML pages. While the session is still being restored it
// renders a loading placeholder that asks the browser to retry; without a user it
// redirects to the login page; otherwise the user is put in the request context.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	loadingTmpl, err := ParseTemplate("loading.html")
	if err != nil {
		log.Err(err).Msg("Failed to parse loading template")
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			snap := s.services.Session.Snapshot()
			switch {
			case snap.Initializing:
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", contentTypeHTML)
				w.WriteHeader(http.StatusServiceUnavailable)
				if loadingTmpl != nil {
					_ = loadingTmpl.Execute(w, map[string]interface{}{"AppName": s.config.GetAppName()})
				}
			case snap.User == nil:
				redirectSuccess(w, r, RouteLogin)
			default:
				next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyUser, snap.User)))
			}
		}
	}
}

// RequireSessionJSON is RequireSession for the console's JSON routes.
func (s *Server) RequireSessionJSON() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			snap := s.services.Session.Snapshot()
			switch {
			case snap.Initializing:
				w.Header().Set("Retry-After", "1")
				writeDetail(w, http.StatusServiceUnavailable, "Session is initializing")
			case snap.User == nil:
				w.Header().Set("HX-Redirect", RouteLogin)
				writeDetail(w, http.StatusUnauthorized, "Not signed in")
			default:
				next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyUser, snap.User)))
			}
		}
	}
}
