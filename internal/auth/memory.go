package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"sentra.org/internal/ids"
)

// MemoryStore is an in-memory Store used in tests and when the service runs
// without a database. Uniqueness is enforced under a single mutex, mirroring
// what the SQL schema guarantees with constraints.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*User  // keyed by ID
	byEmail    map[string]string // email -> ID
	byUsername map[string]string // username -> ID
	roles      map[RoleName]*Role
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore initialises an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		roles:      make(map[RoleName]*Role),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *User) error {
	email := normalizeEmail(user.Email)
	username := strings.TrimSpace(user.Username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return ErrEmailTaken
	}
	if _, taken := s.byUsername[username]; taken {
		return ErrUsernameTaken
	}
	if user.ID == "" {
		user.ID = ids.New()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := cloneUser(user)
	stored.Email = email
	stored.Username = username
	s.users[stored.ID] = stored
	s.byEmail[email] = stored.ID
	s.byUsername[username] = stored.ID
	return nil
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *MemoryStore) EmailExists(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[normalizeEmail(email)]
	return ok, nil
}

func (s *MemoryStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byUsername[strings.TrimSpace(username)]
	return ok, nil
}

func (s *MemoryStore) UpdateLastLogin(ctx context.Context, userID string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	stamp := when.UTC()
	user.LastLogin = &stamp
	user.UpdatedAt = stamp
	return nil
}

func (s *MemoryStore) FindRoleByName(ctx context.Context, name RoleName) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[name]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *role
	return &copied, nil
}

func (s *MemoryStore) EnsureRoles(ctx context.Context, roles []Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, role := range roles {
		if !role.Name.Valid() {
			return ErrInvalidInput
		}
		if _, ok := s.roles[role.Name]; ok {
			continue
		}
		if role.ID == "" {
			role.ID = ids.New()
		}
		if role.CreatedAt.IsZero() {
			role.CreatedAt = time.Now().UTC()
		}
		copied := role
		s.roles[role.Name] = &copied
	}
	return nil
}

func (s *MemoryStore) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// DisableUser flips the enabled flag; used by tests to simulate accounts
// disabled after token issuance.
func (s *MemoryStore) DisableUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[userID]; ok {
		user.Enabled = false
	}
}

func cloneUser(u *User) *User {
	copied := *u
	copied.Roles = make([]Role, len(u.Roles))
	copy(copied.Roles, u.Roles)
	if u.LastLogin != nil {
		stamp := *u.LastLogin
		copied.LastLogin = &stamp
	}
	return &copied
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
