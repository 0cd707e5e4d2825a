package auth

import (
	"context"
	"testing"
)

func TestPrincipalContextRoundTrip(t *testing.T) {
	p := NewPrincipal(&User{ID: "u1", Email: "a@x.com", Roles: []Role{{Name: RoleUser}}})

	ctx := ContextWithPrincipal(context.Background(), p)
	got, ok := PrincipalFromContext(ctx)
	if !ok {
		t.Fatal("expected principal in context")
	}
	if got.User.Email != "a@x.com" || !got.HasRole(RoleUser) {
		t.Fatalf("unexpected principal: %+v", got)
	}
}

func TestPrincipalFromEmptyContext(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatal("expected no principal in fresh context")
	}
}
