package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost can be lowered by tests through SetHashCost.
var bcryptCost = bcrypt.DefaultCost

// SetHashCost overrides the bcrypt cost. Values below bcrypt.MinCost are clamped.
func SetHashCost(cost int) {
	bcryptCost = max(cost, bcrypt.MinCost)
}

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword returns nil when password matches the bcrypt hash.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
