package httpapi

import (
	"net/http"

	"sentra.org/internal/auth"
)

// protect wraps a handler with an authorization requirement fixed at route
// registration time. An unauthenticated request gets 401 with a challenge
// header; an authenticated request with insufficient authority gets 403.
// The two are never collapsed.
func (a *API) protect(req auth.Requirement, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var principal *auth.Principal
		if p, ok := auth.PrincipalFromContext(r.Context()); ok {
			principal = &p
		}
		switch auth.Decide(principal, req) {
		case auth.Allow:
			next(w, r)
		case auth.DenyUnauthenticated:
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, r, http.StatusUnauthorized, labelAuthFailed,
				"Full authentication is required to access this resource")
		default:
			writeError(w, r, http.StatusForbidden, labelAccessDenied,
				"You do not have permission to access this resource")
		}
	}
}
