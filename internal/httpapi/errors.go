package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"sentra.org/internal/auth"
	"sentra.org/internal/obs"
)

// Error category labels surfaced in the response envelope. Authentication
// failures (401) and authorization failures (403) stay distinct.
const (
	labelValidationFailed = "Validation Failed"
	labelBadRequest       = "Bad Request"
	labelAuthFailed       = "Authentication Failed"
	labelTokenExpired     = "Token Expired"
	labelInvalidToken     = "Invalid Token"
	labelAccessDenied     = "Access Denied"
	labelUserNotFound     = "User Not Found"
	labelConflict         = "Conflict"
	labelInternal         = "Internal Server Error"
)

type errorResponse struct {
	Timestamp        time.Time         `json:"timestamp"`
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, label, msg string) {
	writeJSON(w, code, errorResponse{
		Timestamp: time.Now().UTC(),
		Status:    code,
		Error:     label,
		Message:   msg,
	})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Timestamp:        time.Now().UTC(),
		Status:           http.StatusBadRequest,
		Error:            labelValidationFailed,
		Message:          "Invalid input parameters",
		ValidationErrors: fields,
	})
}

// handleAuthError maps auth package sentinels to envelope responses. Unknown
// errors are logged in full server-side and surfaced as a generic 500.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		writeError(w, r, http.StatusUnauthorized, labelInvalidToken, "Invalid refresh token")
	case errors.Is(err, auth.ErrBadCredentials):
		writeError(w, r, http.StatusUnauthorized, labelAuthFailed, "Invalid email or password")
	case errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, r, http.StatusUnauthorized, labelAuthFailed, "User account is disabled")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, labelTokenExpired, "JWT token has expired")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, labelInvalidToken, "JWT token is invalid")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, labelConflict, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, labelUserNotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, labelBadRequest, err.Error())
	default:
		obs.LogError("auth operation failed", err, map[string]any{
			"request_id": RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
		})
		writeError(w, r, http.StatusInternalServerError, labelInternal, "An unexpected error occurred")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, labelBadRequest, "method not allowed")
}
