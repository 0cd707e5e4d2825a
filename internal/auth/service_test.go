package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	hasher := NewPasswordHasher(bcrypt.MinCost)
	tokens := newTestTokenService(t)
	svc, err := NewService(store, hasher, tokens)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	roles := []Role{
		{Name: RoleUser, Description: "Default user role"},
		{Name: RoleAdmin, Description: "Administrator role"},
		{Name: RoleModerator, Description: "Moderator role"},
	}
	if err := store.EnsureRoles(context.Background(), roles); err != nil {
		t.Fatalf("EnsureRoles: %v", err)
	}
	return svc, store
}

func registerInput(email, username string) RegisterInput {
	return RegisterInput{
		Email:     email,
		Username:  username,
		Password:  "Abc@12345",
		FirstName: "Test",
		LastName:  "User",
	}
}

func TestRegisterIssuesPairAndDefaultRole(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, registerInput("a@x.com", "a"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected non-empty token pair")
	}
	if pair.TokenType != "Bearer" {
		t.Fatalf("unexpected token type %q", pair.TokenType)
	}
	if pair.ExpiresIn != 3600 {
		t.Fatalf("unexpected expiresIn %d", pair.ExpiresIn)
	}

	user, err := store.FindUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if len(user.Roles) != 1 || user.Roles[0].Name != RoleUser {
		t.Fatalf("expected default role, got %v", user.RoleNames())
	}
	if !user.Active() {
		t.Fatal("expected new account to be active")
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("  A@X.Com ", "a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := store.FindUserByEmail(ctx, "a@x.com"); err != nil {
		t.Fatalf("expected normalized lookup to succeed: %v", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("a@x.com", "a")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, registerInput("a@x.com", "other")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.Register(ctx, registerInput("other@x.com", "a")); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := registerInput("race@x.com", "racer")
			_, err := svc.Register(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
	if conflicts != n-1 {
		t.Fatalf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("a@x.com", "a")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	pair, err := svc.Authenticate(ctx, "a@x.com", "Abc@12345")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected non-empty token pair")
	}

	user, err := store.FindUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("FindUserByEmail: %v", err)
	}
	if user.LastLogin == nil {
		t.Fatal("expected last login to be stamped")
	}
	if time.Since(*user.LastLogin) > time.Minute {
		t.Fatalf("stale last login: %v", user.LastLogin)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("a@x.com", "a")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "a@x.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@x.com", "Abc@12345"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials for unknown email, got %v", err)
	}

	user, _ := store.FindUserByEmail(ctx, "a@x.com")
	store.DisableUser(user.ID)
	if _, err := svc.Authenticate(ctx, "a@x.com", "Abc@12345"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, registerInput("a@x.com", "a"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	fresh, err := svc.Refresh(ctx, "Bearer "+pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		t.Fatal("expected fresh token pair")
	}

	// Refresh tokens are reusable until expiry; the old one still works.
	if _, err := svc.Refresh(ctx, "Bearer "+pair.RefreshToken); err != nil {
		t.Fatalf("expected refresh token to remain usable, got %v", err)
	}
}

func TestRefreshFailuresAreUniform(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, registerInput("a@x.com", "a"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing prefix", pair.RefreshToken},
		{"empty header", ""},
		{"garbage token", "Bearer not.a.jwt"},
		// An access token must never be accepted where a refresh is required.
		{"access token", "Bearer " + pair.AccessToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Refresh(ctx, tc.header); !errors.Is(err, ErrInvalidRefreshToken) {
				t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
			}
		})
	}

	user, _ := store.FindUserByEmail(ctx, "a@x.com")
	store.DisableUser(user.ID)
	if _, err := svc.Refresh(ctx, "Bearer "+pair.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for disabled account, got %v", err)
	}
}

func TestAuthenticateToken(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, registerInput("a@x.com", "a"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	principal, err := svc.AuthenticateToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("AuthenticateToken: %v", err)
	}
	if principal.User.Email != "a@x.com" || !principal.HasRole(RoleUser) {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	// A refresh token must never authenticate a request.
	if _, err := svc.AuthenticateToken(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected refresh token rejected, got %v", err)
	}

	user, _ := store.FindUserByEmail(ctx, "a@x.com")
	store.DisableUser(user.ID)
	if _, err := svc.AuthenticateToken(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token rejected for disabled account, got %v", err)
	}
}

func TestLogoutIsNoOp(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Register(ctx, registerInput("a@x.com", "a"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	// The token stays valid until natural expiry.
	if _, err := svc.AuthenticateToken(ctx, pair.AccessToken); err != nil {
		t.Fatalf("expected token still valid after logout, got %v", err)
	}
}

func TestBootstrap(t *testing.T) {
	store := NewMemoryStore()
	hasher := NewPasswordHasher(bcrypt.MinCost)
	tokens := newTestTokenService(t)
	svc, err := NewService(store, hasher, tokens)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	for _, name := range KnownRoles {
		if _, err := store.FindRoleByName(ctx, name); err != nil {
			t.Fatalf("expected role %s seeded: %v", name, err)
		}
	}
	admin, err := store.FindUserByEmail(ctx, defaultAdminEmail)
	if err != nil {
		t.Fatalf("expected default admin: %v", err)
	}
	if len(admin.Roles) != 1 || admin.Roles[0].Name != RoleAdmin {
		t.Fatalf("expected admin role, got %v", admin.RoleNames())
	}

	// Idempotent: a second run must not create anything new.
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	if n, _ := store.CountUsers(ctx); n != 1 {
		t.Fatalf("expected one user after re-bootstrap, got %d", n)
	}

	if _, err := svc.Authenticate(ctx, defaultAdminEmail, defaultAdminPassword); err != nil {
		t.Fatalf("expected default admin login to work: %v", err)
	}
}
