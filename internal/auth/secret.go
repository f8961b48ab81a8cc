package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes a client secret for storage.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing secret: %w", err)
	}
	return string(hash), nil
}

// CheckSecret reports whether secret matches hash.
func CheckSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// GenerateSecret returns a random client secret.
func GenerateSecret() (string, error) {
	s, err := randomHex(24)
	if err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return s, nil
}
