// Package auth issues and verifies the bearer tokens handed out at login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/flicky/marketplace-api/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload: the user id and role, plus expiry.
type Claims struct {
	ID   int64      `json:"id"`
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs with the current secret and accepts tokens signed with
// any of the previous secrets, so secrets can be rotated without logging
// everybody out.
type TokenManager struct {
	secret   []byte
	previous [][]byte
	expiry   time.Duration
	now      func() time.Time
}

func NewTokenManager(secret string, previous []string, expiry time.Duration) *TokenManager {
	m := &TokenManager{secret: []byte(secret), expiry: expiry, now: time.Now}
	for _, p := range previous {
		if p != "" {
			m.previous = append(m.previous, []byte(p))
		}
	}
	return m
}

func (m *TokenManager) Issue(user *model.User) (string, error) {
	now := m.now()
	claims := Claims{
		ID:   user.ID,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (m *TokenManager) Verify(raw string) (*Claims, error) {
	var lastErr error
	for _, secret := range m.secrets() {
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
		if err == nil && token.Valid {
			if claims.ID <= 0 || !claims.Role.Valid() {
				return nil, fmt.Errorf("%w: bad claims", ErrInvalidToken)
			}
			return claims, nil
		}
		lastErr = err
		// Only a signature mismatch is worth retrying with an older secret.
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidToken, lastErr)
}

func (m *TokenManager) secrets() [][]byte {
	return append([][]byte{m.secret}, m.previous...)
}
