package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HS256 secret accepted for session tokens.
const MinSecretLength = 32

// SessionClaims carries the session id inside a signed session token.
// Authorization data stays server-side; the token only names the session.
type SessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies session tokens.
type TokenSigner interface {
	Sign(sessionID string, userID int64, expiry time.Duration) (string, error)
	Verify(tokenString string) (*SessionClaims, error)
}

type jwtSigner struct {
	secret []byte
}

// NewTokenSigner creates a TokenSigner using an HS256 secret.
func NewTokenSigner(secret string) (TokenSigner, error) {
	if len(secret) < MinSecretLength {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	return &jwtSigner{secret: []byte(secret)}, nil
}

func (s *jwtSigner) Sign(sessionID string, userID int64, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *jwtSigner) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid && claims.ID != "" {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
