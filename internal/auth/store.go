package auth

import (
	"context"
	"time"
)

// Store is the narrow persistence contract the auth core requires. Email,
// username and role-name uniqueness is ultimately the store's responsibility
// (a constraint, not the service's pre-check), so two concurrent
// registrations of the same identity can never both succeed.
type Store interface {
	// CreateUser persists the user and its role assignments atomically:
	// either both commit or neither does. Duplicate email or username must
	// surface as ErrEmailTaken / ErrUsernameTaken.
	CreateUser(ctx context.Context, user *User) error
	// FindUserByEmail returns the user with granted roles loaded, or
	// ErrNotFound.
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	// UpdateLastLogin stamps the last successful authentication time, the
	// only mutation the core ever applies to a stored identity.
	UpdateLastLogin(ctx context.Context, userID string, when time.Time) error

	FindRoleByName(ctx context.Context, name RoleName) (*Role, error)
	// EnsureRoles inserts any missing reference roles; existing rows are
	// left untouched.
	EnsureRoles(ctx context.Context, roles []Role) error
	CountUsers(ctx context.Context) (int, error)
}
