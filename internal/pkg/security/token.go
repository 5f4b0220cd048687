package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reviewpilot/ReviewPilot/internal/pkg/env"
)

const tokenTTL = 30 * 24 * time.Hour

// AuthClaims are the JWT claims carried by an API session token.
type AuthClaims struct {
	UserID uint   `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func secret() ([]byte, error) {
	s := env.GetEnv("JWT_SECRET", "")
	if s == "" {
		return nil, errors.New("JWT_SECRET is not configured")
	}
	return []byte(s), nil
}

// GenerateAuthToken issues a signed bearer token for the user.
func GenerateAuthToken(userID uint, email, role string) (string, error) {
	key, err := secret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := AuthClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// VerifyAuthToken parses and validates a bearer token.
func VerifyAuthToken(token string) (*AuthClaims, error) {
	key, err := secret()
	if err != nil {
		return nil, err
	}

	claims := &AuthClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
