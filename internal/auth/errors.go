package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: conflict")

	ErrEmailTaken    = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUsernameTaken = fmt.Errorf("%w: username already registered", ErrConflict)

	ErrBadCredentials  = errors.New("auth: invalid email or password")
	ErrAccountDisabled = errors.New("auth: account disabled")

	// ErrInvalidToken covers malformed tokens, bad signatures and kind or
	// subject mismatches. ErrTokenExpired is kept separate so the HTTP layer
	// can report expiry distinctly.
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrInvalidRefreshToken is the single error every refresh failure
	// collapses to, so callers cannot probe why a token was rejected.
	ErrInvalidRefreshToken = errors.New("auth: invalid refresh token")
)
