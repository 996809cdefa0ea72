package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the floor enforced when provisioning credentials.
// Login never re-checks length; existing hashes stay valid if the
// floor is raised later.
const MinPasswordLen = 8

var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLen)

// PasswordHasher hashes credentials at provisioning time and verifies
// them at login. Compare runs in constant time.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt-backed hasher. Costs outside the
// valid bcrypt range fall back to the library default.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
