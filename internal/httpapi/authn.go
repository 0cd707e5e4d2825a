package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"sentra.org/internal/auth"
	"sentra.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Paths that an invalid token must never block. A bad Authorization header on
// these routes is ignored and the request proceeds unauthenticated.
var publicPaths = []string{
	"/api/v1/ping",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
}

var publicPrefixes = []string{
	"/api/v1/auth/",
	"/api/v1/public/",
}

// withAuth resolves a bearer access token into a request-scoped principal.
// A missing or non-bearer Authorization header is not an error here; the
// request proceeds unauthenticated and authorization decides downstream. A
// present but unresolvable token fails the request immediately, except on
// public paths.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get(authHeader))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		principal, err := a.auth.AuthenticateToken(r.Context(), token)
		if err != nil {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				obs.IncTokenFailure("expired")
				writeError(w, r, http.StatusUnauthorized, labelTokenExpired, "JWT token has expired")
			case errors.Is(err, auth.ErrInvalidToken):
				obs.IncTokenFailure("invalid")
				writeError(w, r, http.StatusUnauthorized, labelInvalidToken, "JWT token is invalid")
			default:
				obs.LogError("token authentication failed", err, map[string]any{
					"request_id": RequestIDFromContext(r.Context()),
				})
				writeError(w, r, http.StatusInternalServerError, labelInternal, "An unexpected error occurred")
			}
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an Authorization header value. The
// second return is false when the header is absent or not a bearer scheme.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
