// Package auth issues and validates signed, time-limited session tokens.
// Tokens are self-contained JWTs carrying the account id as the subject
// claim; nothing is persisted and nothing can be revoked after issuance.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keyfold/keyfold/internal/common"
)

// Issuer mints and validates bearer tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an Issuer for the named signing algorithm (e.g.
// "HS256"). An unknown algorithm identifier is a configuration error.
func NewIssuer(secret []byte, algorithm string, ttl time.Duration) (*Issuer, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm: %s", algorithm)
	}
	return &Issuer{
		secret: secret,
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token asserting subjectID until now+TTL.
func (i *Issuer) Issue(subjectID string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	return jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
}

// Validate checks the token signature, structure and expiry, and returns the
// subject account id. A bad signature, malformed structure or passed expiry
// yields common.ErrTokenInvalid; a structurally valid token without a
// subject yields common.ErrSubjectMissing.
func (i *Issuer) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return "", common.ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", common.ErrSubjectMissing
	}
	return claims.Subject, nil
}
