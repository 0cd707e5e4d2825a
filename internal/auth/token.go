package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens. The two are
// structurally identical; a token of one kind is never accepted where the
// other is required.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

const (
	defaultIssuer     = "sentra"
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Claims is the signed payload embedded in every issued token.
type Claims struct {
	TokenKind TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService issues and validates self-contained HS256 tokens. The signing
// secret is injected at construction and never rotated at runtime.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) TokenOption {
	return func(ts *TokenService) {
		if strings.TrimSpace(issuer) != "" {
			ts.issuer = strings.TrimSpace(issuer)
		}
	}
}

// WithAccessTTL configures the access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(ts *TokenService) {
		if ttl > 0 {
			ts.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(ts *TokenService) {
		if fn != nil {
			ts.now = fn
		}
	}
}

// NewTokenService constructs a TokenService around the signing secret.
func NewTokenService(secret []byte, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	ts := &TokenService{
		secret:     secret,
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// AccessTTL returns the configured access token lifetime.
func (ts *TokenService) AccessTTL() time.Duration { return ts.accessTTL }

// IssueAccessToken signs a short-lived access token for the user.
func (ts *TokenService) IssueAccessToken(user *User) (string, error) {
	return ts.issue(user, TokenKindAccess, ts.accessTTL)
}

// IssueRefreshToken signs a longer-lived token used only to mint new pairs.
func (ts *TokenService) IssueRefreshToken(user *User) (string, error) {
	return ts.issue(user, TokenKindRefresh, ts.refreshTTL)
}

func (ts *TokenService) issue(user *User, kind TokenKind, ttl time.Duration) (string, error) {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return "", fmt.Errorf("%w: user email is required", ErrInvalidInput)
	}
	now := ts.now().UTC()
	claims := Claims{
		TokenKind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExtractSubject parses the token and returns its subject claim. Signature
// and expiry are checked, but the subject is good only for routing the
// identity lookup that precedes Validate; it must not be trusted for
// authorization on its own.
func (ts *TokenService) ExtractSubject(token string) (string, error) {
	claims, err := ts.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Validate checks the token against the expected kind and identity. It fails
// on a bad signature, a kind mismatch, an expired token (the boundary is
// exclusive: exp == now is already invalid) or a subject that is not the
// supplied user.
func (ts *TokenService) Validate(token string, kind TokenKind, user *User) error {
	claims, err := ts.parse(token)
	if err != nil {
		return err
	}
	if claims.TokenKind != kind {
		return ErrInvalidToken
	}
	if user == nil || !strings.EqualFold(claims.Subject, user.Email) {
		return ErrInvalidToken
	}
	return nil
}

func (ts *TokenService) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return ts.secret, nil
	},
		jwt.WithIssuer(ts.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return ts.now().UTC() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
