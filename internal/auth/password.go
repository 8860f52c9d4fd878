// Package auth issues and checks the dev server's credentials: HS256 JWTs
// and bcrypt password hashes.
package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost is low because the dev server hashes its seed users at startup
const bcryptCost = 8

// HashPassword generates a bcrypt hash of the password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks if the provided password matches the hash
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
