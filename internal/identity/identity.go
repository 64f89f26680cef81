// Package identity turns bearer tokens into caller identities.
//
// Tokens are HS256-signed JWTs whose subject claim is the opaque owner handle
// stored with each link. Signing up and logging in happen elsewhere; this
// package only verifies tokens and, for tooling, issues them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingKey   = errors.New("signing key is empty")
)

const bearerPrefix = "Bearer "

type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type Option func(*Verifier)

// WithClock replaces the clock used when issuing and checking tokens.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

func NewVerifier(secret, issuer string, opts ...Option) *Verifier {
	v := &Verifier{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Issue signs a token for subject that is valid for ttl.
func (v *Verifier) Issue(subject string, ttl time.Duration) (string, error) {
	const op = "identity.Verifier.Issue"

	if len(v.secret) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrMissingKey)
	}

	now := v.now()
	claims := jwt.RegisteredClaims{
		Issuer:    v.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("%s: failed to sign token: %w", op, err)
	}

	return token, nil
}

// Verify checks the token signature, issuer and lifetime and returns the
// identity named by its subject.
func (v *Verifier) Verify(token string) (entity.Identity, error) {
	const op = "identity.Verifier.Verify"

	if len(v.secret) == 0 {
		return entity.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return entity.Identity{}, fmt.Errorf("%s: %w", op, ErrExpiredToken)
		}
		return entity.Identity{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return entity.Identity{}, fmt.Errorf("%s: %w: empty subject", op, ErrInvalidToken)
	}

	return entity.Identity{Subject: claims.Subject}, nil
}

// TokenFromHeader extracts the token from an Authorization header value.
// It reports false when the header does not carry a bearer token.
func TokenFromHeader(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id entity.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, or the anonymous identity.
func FromContext(ctx context.Context) entity.Identity {
	id, _ := ctx.Value(ctxKey{}).(entity.Identity)
	return id
}
