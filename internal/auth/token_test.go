package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testUser(email string) *User {
	return &User{ID: "u1", Email: email, Username: "tester", Enabled: true}
}

func newTestTokenService(t *testing.T, opts ...TokenOption) *TokenService {
	t.Helper()
	ts, err := NewTokenService([]byte("test-secret"), opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	ts := newTestTokenService(t)
	user := testUser("a@x.com")

	token, err := ts.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if err := ts.Validate(token, TokenKindAccess, user); err != nil {
		t.Fatalf("expected access token to validate, got %v", err)
	}
}

func TestKindMismatchRejected(t *testing.T) {
	ts := newTestTokenService(t)
	user := testUser("a@x.com")

	access, err := ts.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	refresh, err := ts.IssueRefreshToken(user)
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	if err := ts.Validate(access, TokenKindRefresh, user); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected access token rejected as refresh, got %v", err)
	}
	if err := ts.Validate(refresh, TokenKindAccess, user); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected refresh token rejected as access, got %v", err)
	}
}

func TestSubjectMismatchRejected(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueAccessToken(testUser("a@x.com"))
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if err := ts.Validate(token, TokenKindAccess, testUser("b@x.com")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token for a@x.com rejected for b@x.com, got %v", err)
	}
}

func TestExpiryBoundaryIsExclusive(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := issued
	ts := newTestTokenService(t,
		WithAccessTTL(time.Hour),
		WithClock(func() time.Time { return current }),
	)
	user := testUser("a@x.com")

	token, err := ts.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	current = issued.Add(time.Hour - time.Second)
	if err := ts.Validate(token, TokenKindAccess, user); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	// exp == now is already invalid.
	current = issued.Add(time.Hour)
	if err := ts.Validate(token, TokenKindAccess, user); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at the expiry instant, got %v", err)
	}

	current = issued.Add(2 * time.Hour)
	if err := ts.Validate(token, TokenKindAccess, user); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after expiry, got %v", err)
	}
}

func TestExtractSubjectRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	for _, email := range []string{"a@x.com", "admin@example.com", "user+tag@domain.org"} {
		token, err := ts.IssueAccessToken(testUser(email))
		if err != nil {
			t.Fatalf("IssueAccessToken(%s): %v", email, err)
		}
		subject, err := ts.ExtractSubject(token)
		if err != nil {
			t.Fatalf("ExtractSubject(%s): %v", email, err)
		}
		if subject != email {
			t.Fatalf("ExtractSubject = %q, want %q", subject, email)
		}
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	ts := newTestTokenService(t)
	user := testUser("a@x.com")

	token, err := ts.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if err := ts.Validate(tampered, TokenKindAccess, user); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected tampered token rejected, got %v", err)
	}

	if _, err := ts.ExtractSubject("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected malformed token rejected, got %v", err)
	}
	if _, err := ts.ExtractSubject(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected empty token rejected, got %v", err)
	}
}

func TestForeignSecretRejected(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService([]byte("different-secret"))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	user := testUser("a@x.com")

	token, err := other.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if err := ts.Validate(token, TokenKindAccess, user); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign-signed token rejected, got %v", err)
	}
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(nil); err == nil {
		t.Fatal("expected error for missing secret")
	}
}
