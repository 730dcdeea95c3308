// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/messvote/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims is the payload of a session token. Subject is the student id
// (or the admin username) and ID is the unique session id.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueToken signs a session token for subject. Every call gets a fresh
// session id, so two logins of the same student are distinct sessions.
func IssueToken(secret, subject, name, role string, ttl time.Duration, now time.Time) (string, *Claims, error) {
	sessionID, err := GenerateID(16)
	if err != nil {
		return "", nil, err
	}

	claims := &Claims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// ParseToken verifies signature and expiry and returns the claims. Expiry
// is judged against now, which must come from the clock tokens are issued on.
func ParseToken(secret, tokenString string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithIssuedAt(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if claims.Role != models.RoleStudent && claims.Role != models.RoleAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CheckAdmin compares the submitted credential against the configured one
// without leaking which half was wrong.
func CheckAdmin(username, password, wantUsername, wantPassword string) error {
	userOK := hmac.Equal(digest(username), digest(wantUsername))
	passOK := hmac.Equal(digest(password), digest(wantPassword))
	if !userOK || !passOK || wantUsername == "" {
		return ErrInvalidCredentials
	}
	return nil
}

// digest hashes before comparing so hmac.Equal sees equal-length inputs.
func digest(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}
