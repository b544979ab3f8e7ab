package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// HashPassword returns a salted bcrypt hash of secret. Only account creation
// and credential caching call it.
func HashPassword(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether secret matches the stored hash. A mismatch
// or a malformed hash is a plain false.
func VerifyPassword(secret, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret)) == nil
}
