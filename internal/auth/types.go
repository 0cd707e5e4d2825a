package auth

import (
	"fmt"
	"strings"
	"time"
)

// RoleName identifies one of the closed set of roles seeded at install time.
type RoleName string

const (
	RoleUser      RoleName = "ROLE_USER"
	RoleAdmin     RoleName = "ROLE_ADMIN"
	RoleModerator RoleName = "ROLE_MODERATOR"
)

// KnownRoles lists every role the service recognises. Roles are immutable
// reference data; nothing creates or deletes them at request time.
var KnownRoles = []RoleName{RoleUser, RoleAdmin, RoleModerator}

// Valid reports whether the name belongs to the known role set.
func (r RoleName) Valid() bool {
	for _, known := range KnownRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRoleName validates a stored role string at the storage boundary.
func ParseRoleName(raw string) (RoleName, error) {
	r := RoleName(strings.TrimSpace(raw))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return r, nil
}

// Role groups authority that users hold zero or more of.
type Role struct {
	ID          string    `json:"id"`
	Name        RoleName  `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is the stored identity record. The auth core treats it as opaque and
// never mutates it except to stamp LastLogin on a successful login.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	Username              string     `json:"username"`
	PasswordHash          string     `json:"-"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	Roles                 []Role     `json:"roles"`
	Enabled               bool       `json:"enabled"`
	AccountNonExpired     bool       `json:"account_non_expired"`
	AccountNonLocked      bool       `json:"account_non_locked"`
	CredentialsNonExpired bool       `json:"credentials_non_expired"`
	LastLogin             *time.Time `json:"last_login,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Active reports whether every account-status flag permits authentication.
func (u *User) Active() bool {
	return u.Enabled && u.AccountNonExpired && u.AccountNonLocked && u.CredentialsNonExpired
}

// RoleNames returns the names of the user's granted roles.
func (u *User) RoleNames() []RoleName {
	names := make([]RoleName, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}

// TokenPair is what every successful auth operation returns to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}
