package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hash hashes a secret or password using bcrypt
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Check checks if a plaintext secret matches its hash
func Check(plaintext, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errors.New("invalid secret")
		}
		return err
	}
	return nil
}
