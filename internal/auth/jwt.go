// Package auth transforma tokens Bearer (JWT HS256) em access.Actor.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Project-FinanceHUB/financehub/internal/access"
	"github.com/Project-FinanceHUB/financehub/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidRole  = errors.New("invalid role in token")
)

type Claims struct {
	jwt.RegisteredClaims
	Role       models.Role `json:"role"`
	CompanyIDs []string    `json:"company_ids,omitempty"`
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue assina um token para o usuário (usado pela task de seed e nos testes).
func (t *Tokens) Issue(u models.User) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role:       u.Role,
		CompanyIDs: u.CompanyIDs,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (*access.Actor, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	if !claims.Role.IsValid() {
		return nil, ErrInvalidRole
	}
	return &access.Actor{
		UserID:     claims.Subject,
		Role:       claims.Role,
		CompanyIDs: claims.CompanyIDs,
	}, nil
}
