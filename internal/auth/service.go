package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const bearerPrefix = "Bearer "

// Service composes the credential verifier, identity lookup and token
// service behind the client-facing auth operations. Token issuance and
// validation are pure computations; the store is the only shared state.
type Service struct {
	store  Store
	hasher *PasswordHasher
	tokens *TokenService
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source used for login stamps.
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the auth orchestration service.
func NewService(store Store, hasher *PasswordHasher, tokens *TokenService, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if hasher == nil {
		return nil, errors.New("auth: password hasher is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	svc := &Service{store: store, hasher: hasher, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterInput carries the registration fields after transport validation.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// Register creates an identity with the default role and returns a fresh
// token pair. The pre-checks below only produce friendlier error ordering;
// the store's uniqueness constraints are the final word on duplicates, so a
// race between two identical registrations still yields one conflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (TokenPair, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return TokenPair{}, fmt.Errorf("%w: email, username and password are required", ErrInvalidInput)
	}

	if taken, err := s.store.EmailExists(ctx, email); err != nil {
		return TokenPair{}, err
	} else if taken {
		return TokenPair{}, ErrEmailTaken
	}
	if taken, err := s.store.UsernameExists(ctx, username); err != nil {
		return TokenPair{}, err
	} else if taken {
		return TokenPair{}, ErrUsernameTaken
	}

	defaultRole, err := s.store.FindRoleByName(ctx, RoleUser)
	if err != nil {
		return TokenPair{}, fmt.Errorf("default role: %w", err)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return TokenPair{}, err
	}

	user := &User{
		Email:                 email,
		Username:              username,
		PasswordHash:          hash,
		FirstName:             strings.TrimSpace(in.FirstName),
		LastName:              strings.TrimSpace(in.LastName),
		Roles:                 []Role{*defaultRole},
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(user)
}

// Authenticate verifies credentials, stamps the last successful login and
// returns a fresh token pair. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return TokenPair{}, ErrBadCredentials
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrBadCredentials
		}
		return TokenPair{}, err
	}
	if !user.Active() {
		return TokenPair{}, ErrAccountDisabled
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return TokenPair{}, ErrBadCredentials
	}

	now := s.now().UTC()
	if err := s.store.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return TokenPair{}, err
	}
	user.LastLogin = &now
	return s.issuePair(user)
}

// Refresh exchanges a still-valid refresh token for a brand-new pair. The
// header value must carry the Bearer prefix. Every failure collapses to
// ErrInvalidRefreshToken. Refresh tokens are deliberately not single-use: a
// still-valid token can mint any number of pairs until natural expiry.
func (s *Service) Refresh(ctx context.Context, header string) (TokenPair, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])

	subject, err := s.tokens.ExtractSubject(token)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	user, err := s.store.FindUserByEmail(ctx, subject)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	if !user.Enabled {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	if err := s.tokens.Validate(token, TokenKindRefresh, user); err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	return s.issuePair(user)
}

// Logout exists for API symmetry only. Tokens stay valid until natural
// expiry; there is no server-side state to clear.
func (s *Service) Logout(ctx context.Context) error {
	return nil
}

// AuthenticateToken resolves and validates an access token into a principal
// for the per-request pipeline. The subject routes the lookup; the stored
// identity's current enabled flag and the full token validation decide.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (Principal, error) {
	subject, err := s.tokens.ExtractSubject(token)
	if err != nil {
		return Principal{}, err
	}
	user, err := s.store.FindUserByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, err
	}
	if !user.Enabled {
		return Principal{}, ErrInvalidToken
	}
	if err := s.tokens.Validate(token, TokenKindAccess, user); err != nil {
		return Principal{}, err
	}
	return NewPrincipal(user), nil
}

func (s *Service) issuePair(user *User) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
