package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Credential holds the single configured username and its password hash.
// The plaintext password is hashed once at startup and discarded.
type Credential struct {
	username     string
	passwordHash []byte
}

func NewCredential(username, password string) (*Credential, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash configured password: %w", err)
	}
	return &Credential{
		username:     username,
		passwordHash: hash,
	}, nil
}

// Verify checks a basic-auth username/password pair against the configured
// credential. Both comparisons are constant-time.
func (c *Credential) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passOK := CheckPasswordHash(password, c.passwordHash)
	return userOK && passOK
}

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func CheckPasswordHash(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
