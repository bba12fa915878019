package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces and verifies one-way password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// NewPasswordHasher returns the hasher registered under name.
func NewPasswordHasher(name string) (PasswordHasher, error) {
	switch name {
	case "", "bcrypt":
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	case "sha256":
		return SHA256Hasher{}, nil
	}
	return nil, fmt.Errorf("unknown password hasher %q", name)
}

// BcryptHasher stores salted bcrypt digests.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func (h BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SHA256Hasher stores unsalted hex-encoded SHA-256 digests, the format
// written by the legacy backend.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Verify(hash, password string) bool {
	computed, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
