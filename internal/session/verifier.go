package session

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a supplied password against the stored credential. The
// editor and manager never see the comparison scheme; deployments pick one
// at wiring time.
type Verifier interface {
	Verify(stored, supplied string) error
}

// PlainVerifier compares credentials with direct equality. It matches the
// legacy console's storage format and exists so records written by it keep
// working; new deployments should store bcrypt hashes and use
// BcryptVerifier.
type PlainVerifier struct{}

func (PlainVerifier) Verify(stored, supplied string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// BcryptVerifier expects the stored credential to be a bcrypt hash.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(stored, supplied string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword produces a bcrypt hash suitable for storage alongside
// BcryptVerifier.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// NewVerifier returns the verifier for a configured scheme name. Unknown
// schemes default to bcrypt.
func NewVerifier(scheme string) Verifier {
	if scheme == "plain" {
		return PlainVerifier{}
	}
	return BcryptVerifier{}
}
