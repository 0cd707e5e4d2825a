package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"sentra.org/internal/auth"
	"sentra.org/internal/obs"
)

// ReadyProbe checks downstream dependencies for the readiness endpoint.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. Routes are registered once at construction; the
// authorization requirement of each protected route is fixed here, not
// rediscovered per request.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	readyProbe ReadyProbe
	version    string
	validate   *validator.Validate
	rateBurst  int
	ratePerSec int
}

func New(svc *auth.Service, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       svc,
		readyProbe: rp,
		version:    version,
		validate:   newValidator(),
		rateBurst:  20,
		ratePerSec: 10,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// authentication flows
	a.mux.HandleFunc("/api/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/v1/auth/refresh-token", a.handleRefreshToken)
	a.mux.HandleFunc("/api/v1/auth/logout", a.handleLogout)

	// open endpoints
	a.mux.HandleFunc("/api/v1/public/hello", a.handlePublicHello)
	a.mux.HandleFunc("/api/v1/ping", a.handlePing)

	// protected endpoints
	a.mux.HandleFunc("/api/v1/user/profile",
		a.protect(auth.RequireAnyRole(auth.RoleUser, auth.RoleAdmin), a.handleUserProfile))
	a.mux.HandleFunc("/api/v1/admin/dashboard",
		a.protect(auth.RequireRole(auth.RoleAdmin), a.handleAdminDashboard))
	a.mux.HandleFunc("/api/v1/admin/users",
		a.protect(auth.RequireRole(auth.RoleAdmin), a.handleAdminCreateUser))
	a.mux.HandleFunc("/api/v1/admin/users/",
		a.protect(auth.RequireRoleWithAuthority(auth.RoleAdmin, string(auth.RoleAdmin)), a.handleAdminDeleteUser))
	a.mux.HandleFunc("/api/v1/moderator/content",
		a.protect(auth.RequireAnyRole(auth.RoleModerator, auth.RoleAdmin), a.handleModeratorContent))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Not Found", "resource not found")
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "sentra-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "sentra-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
