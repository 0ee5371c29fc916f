package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Compared against when the user does not exist, so unknown usernames cost
// the same as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("helpdesk"), bcrypt.DefaultCost)

// HashPassword returns the bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches the bcrypt hash.
// An empty hash never matches.
func ComparePassword(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
