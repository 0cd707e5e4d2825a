package httpapi

import (
	"net/http"

	"sentra.org/internal/audit"
	"sentra.org/internal/auth"
	"sentra.org/internal/obs"
)

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

func pairResponse(pair auth.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, labelBadRequest, err.Error())
		return
	}
	if fields := a.validateStruct(req); fields != nil {
		writeValidationError(w, r, fields)
		return
	}

	pair, err := a.auth.Register(r.Context(), auth.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	obs.IncRegistration()
	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"email":    req.Email,
		"username": req.Username,
	})
	writeJSON(w, http.StatusOK, pairResponse(pair))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, labelBadRequest, err.Error())
		return
	}
	if fields := a.validateStruct(req); fields != nil {
		writeValidationError(w, r, fields)
		return
	}

	pair, err := a.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.ObserveLogin("failure")
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
			"email": req.Email,
		})
		handleAuthError(w, r, err)
		return
	}

	obs.ObserveLogin("success")
	_ = audit.LogEvent(r.Context(), "auth.login.succeeded", map[string]any{
		"email": req.Email,
	})
	writeJSON(w, http.StatusOK, pairResponse(pair))
}

func (a *API) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	pair, err := a.auth.Refresh(r.Context(), r.Header.Get(authHeader))
	if err != nil {
		obs.IncTokenFailure("refresh")
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token.refreshed", nil)
	writeJSON(w, http.StatusOK, pairResponse(pair))
}

// Logout is stateless: tokens stay valid until natural expiry.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := a.auth.Logout(r.Context()); err != nil {
		handleAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
