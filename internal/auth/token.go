package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"movie-favorites/internal/apperr"
)

// TokenCodec issues and verifies HS256 access tokens. It is immutable after
// construction and safe for concurrent use.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type CodecOption func(*TokenCodec)

// WithClock replaces time.Now as the codec's time source.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

func NewTokenCodec(secret, issuer string, ttl time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	codec := &TokenCodec{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

func (c *TokenCodec) Issue(subjectID string) (string, error) {
	if subjectID == "" {
		return "", errors.New("issue token: empty subject")
	}

	now := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify returns the subject of a well-formed, correctly signed, unexpired
// token from this issuer.
func (c *TokenCodec) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return "", apperr.Wrap(apperr.ErrUnauthenticated, "invalid or expired token", err)
	}
	if claims.Subject == "" {
		return "", apperr.Unauthenticated("invalid or expired token")
	}

	return claims.Subject, nil
}
