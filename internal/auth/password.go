package auth

import (
	"fmt"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost is applied to new password hashes.
	bcryptCost = 10

	// minPasswordEntropyBits rejects trivially guessable passwords at signup.
	minPasswordEntropyBits = 40
)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hashed password with its plaintext version.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// CheckPasswordStrength validates that a password carries enough entropy.
func CheckPasswordStrength(password string) error {
	return passwordvalidator.Validate(password, minPasswordEntropyBits)
}
