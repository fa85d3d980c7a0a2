package users

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher abstracts the credential hashing choice.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(stored, plain string) bool
}

// BcryptHasher hashes credentials with bcrypt. Stored values that are not
// bcrypt hashes are compared verbatim, so documents seeded by earlier
// revisions of the system keep working until the next password change.
type BcryptHasher struct {
	Cost int
}

// Hash returns the bcrypt hash of plain.
func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare reports whether plain matches the stored credential.
func (h BcryptHasher) Compare(stored, plain string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	return stored == plain
}
