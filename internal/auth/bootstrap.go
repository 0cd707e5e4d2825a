package auth

import (
	"context"
	"errors"
	"fmt"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminUsername = "admin"
	defaultAdminPassword = "Admin@123"
)

// Bootstrap seeds the immutable role set and, on an empty install, a default
// administrator account so the service is usable out of the box.
func (s *Service) Bootstrap(ctx context.Context) error {
	roles := []Role{
		{Name: RoleUser, Description: "Default user role"},
		{Name: RoleAdmin, Description: "Administrator role"},
		{Name: RoleModerator, Description: "Moderator role"},
	}
	if err := s.store.EnsureRoles(ctx, roles); err != nil {
		return fmt.Errorf("ensure roles: %w", err)
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	adminRole, err := s.store.FindRoleByName(ctx, RoleAdmin)
	if err != nil {
		return fmt.Errorf("admin role: %w", err)
	}
	hash, err := s.hasher.Hash(defaultAdminPassword)
	if err != nil {
		return err
	}
	admin := &User{
		Email:                 defaultAdminEmail,
		Username:              defaultAdminUsername,
		PasswordHash:          hash,
		FirstName:             "Admin",
		LastName:              "User",
		Roles:                 []Role{*adminRole},
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		// Another instance may have bootstrapped concurrently.
		if errors.Is(err, ErrConflict) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}
