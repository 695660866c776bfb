// Package auth issues session tokens and resolves them into the principal
// that handlers pass to the services.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/joao-fontenele/storefront/internal/domain"
)

var ErrInvalidToken = errors.New("invalid session token")

type claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.StandardClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) Issue(p domain.Principal) (string, error) {
	now := i.now()
	c := claims{
		Email: p.Email,
		Role:  p.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   p.UserID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(i.ttl).Unix(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (i *Issuer) Parse(tokenStr string) (domain.Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if c.Subject == "" || !c.Role.Valid() {
		return domain.Principal{}, ErrInvalidToken
	}

	return domain.Principal{UserID: c.Subject, Email: c.Email, Role: c.Role}, nil
}
