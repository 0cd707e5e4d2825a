package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used unless configured otherwise.
const DefaultBcryptCost = 12

// PasswordHasher hashes and verifies credentials with bcrypt. Construct with
// NewPasswordHasher; the zero value falls back to the library default cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher with the given cost. Costs outside the
// bcrypt range are replaced with DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives a salted digest from the plaintext. Two calls on the same
// input produce different digests; only Verify can compare them.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether the plaintext matches the stored digest. A malformed
// digest verifies as false, indistinguishable from a plain mismatch.
func (h *PasswordHasher) Verify(password, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
