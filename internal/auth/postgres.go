package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"sentra.org/internal/ids"
)

// PGStore implements Store on PostgreSQL through database/sql with the pgx
// driver. The schema's unique constraints on users.email, users.username and
// roles.name carry the uniqueness guarantees the service relies on.
type PGStore struct {
	db *sql.DB
}

var _ Store = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`insert into users(id, email, username, password_hash, first_name, last_name,
		   enabled, account_non_expired, account_non_locked, credentials_non_expired)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.FirstName, user.LastName,
		user.Enabled, user.AccountNonExpired, user.AccountNonLocked, user.CredentialsNonExpired,
	)
	if err != nil {
		return translateUniqueViolation(err)
	}
	for _, role := range user.Roles {
		_, err = tx.ExecContext(ctx,
			`insert into user_roles(user_id, role_id)
			 select $1, id from roles where name=$2`,
			user.ID, string(role.Name),
		)
		if err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

func (s *PGStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, email, username, password_hash, first_name, last_name,
		   enabled, account_non_expired, account_non_locked, credentials_non_expired,
		   last_login, created_at, updated_at
		 from users where email=$1`, email)

	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Enabled, &u.AccountNonExpired, &u.AccountNonLocked, &u.CredentialsNonExpired,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	roles, err := s.rolesForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles
	return &u, nil
}

func (s *PGStore) rolesForUser(ctx context.Context, userID string) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`select r.id, r.name, r.description, r.created_at
		 from roles r join user_roles ur on ur.role_id=r.id
		 where ur.user_id=$1 order by r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var (
			role Role
			name string
		)
		if err := rows.Scan(&role.ID, &name, &role.Description, &role.CreatedAt); err != nil {
			return nil, err
		}
		parsed, err := ParseRoleName(name)
		if err != nil {
			return nil, err
		}
		role.Name = parsed
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *PGStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where email=$1)`, email).Scan(&exists)
	return exists, err
}

func (s *PGStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where username=$1)`, username).Scan(&exists)
	return exists, err
}

func (s *PGStore) UpdateLastLogin(ctx context.Context, userID string, when time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update users set last_login=$2, updated_at=$2 where id=$1`, userID, when.UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) FindRoleByName(ctx context.Context, name RoleName) (*Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, description, created_at from roles where name=$1`, string(name))
	var (
		role Role
		raw  string
	)
	if err := row.Scan(&role.ID, &raw, &role.Description, &role.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	parsed, err := ParseRoleName(raw)
	if err != nil {
		return nil, err
	}
	role.Name = parsed
	return &role, nil
}

func (s *PGStore) EnsureRoles(ctx context.Context, roles []Role) error {
	for _, role := range roles {
		if role.ID == "" {
			role.ID = ids.New()
		}
		_, err := s.db.ExecContext(ctx,
			`insert into roles(id, name, description) values($1,$2,$3)
			 on conflict (name) do nothing`,
			role.ID, string(role.Name), role.Description,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from users`).Scan(&n)
	return n, err
}

// translateUniqueViolation maps the schema's unique constraints onto the
// conflict sentinels the service reports to clients.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return ErrUsernameTaken
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrEmailTaken
	default:
		return ErrConflict
	}
}
