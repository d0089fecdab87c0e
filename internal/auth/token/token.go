// Package token issues and verifies the signed session tokens carried by
// admins and paired devices.
package token

import (
	"errors"
	"time"

	autherrors "callsync/internal/auth/errors"
	"callsync/internal/shared/contextutil"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "callsync"

type Claims struct {
	Role  string            `json:"role"`
	Attrs map[string]string `json:"attrs,omitempty"`
	jwt.RegisteredClaims
}

type Signed struct {
	Value     string
	ExpiresAt time.Time
}

type Issuer interface {
	Issue(principalID, role string, attrs map[string]string) (Signed, error)
	Verify(raw string) (contextutil.Principal, error)
}

type hmacIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) Issuer {
	return NewIssuerWithClock(secret, ttl, time.Now)
}

func NewIssuerWithClock(secret string, ttl time.Duration, now func() time.Time) Issuer {
	return &hmacIssuer{secret: []byte(secret), ttl: ttl, now: now}
}

func (i *hmacIssuer) Issue(principalID, role string, attrs map[string]string) (Signed, error) {
	if principalID == "" || role == "" {
		return Signed{}, autherrors.ErrTokenGenerationFailed
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)
	claims := Claims{
		Role:  role,
		Attrs: attrs,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Signed{}, autherrors.ErrTokenGenerationFailed.WithCause(err)
	}

	return Signed{Value: value, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, algorithm and expiry. It never touches storage.
func (i *hmacIssuer) Verify(raw string) (contextutil.Principal, error) {
	if raw == "" {
		return contextutil.Principal{}, autherrors.ErrTokenMissing
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return contextutil.Principal{}, autherrors.ErrTokenExpired
		}
		return contextutil.Principal{}, autherrors.ErrInvalidToken.WithCause(err)
	}

	if claims.Subject == "" {
		return contextutil.Principal{}, autherrors.ErrInvalidToken
	}
	switch claims.Role {
	case contextutil.RoleAdmin, contextutil.RoleEmployee:
	default:
		return contextutil.Principal{}, autherrors.ErrInvalidToken
	}

	return contextutil.Principal{ID: claims.Subject, Role: claims.Role}, nil
}
