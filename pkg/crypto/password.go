package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest secret bcrypt will hash.
const MaxPasswordBytes = 72

// ErrMismatch is returned when a password does not match its hash.
var ErrMismatch = errors.New("crypto: password mismatch")

// HashPassword hashes plaintext using bcrypt.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword compares plaintext to hashed secret. Secrets longer than
// MaxPasswordBytes can never have been hashed and report ErrMismatch.
func ComparePassword(hash []byte, plain string) error {
	if len(plain) > MaxPasswordBytes {
		return ErrMismatch
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(plain)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return err
	}
	return nil
}
