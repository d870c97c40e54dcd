// Package jwt issues and validates HMAC-signed JSON Web Tokens. A Manager is usually
// stored in the application context and used by handlers and middlewares.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// SimpleClaims carry the subject and the expiration time only.
type SimpleClaims struct {
	jwt.RegisteredClaims
}

// Validate rejects tokens without a subject. It's called by the parser after the
// registered claims were validated.
func (s SimpleClaims) Validate() error {
	if len(s.Subject) == 0 {
		return errors.New("subject is missing")
	}

	return nil
}

type Option func(*Manager)

// WithIssuer sets the issuer of generated tokens and requires it from decoded ones.
func WithIssuer(issuer string) Option {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

// WithLeeway tolerates the clock skew when validating time-based claims.
func WithLeeway(leeway time.Duration) Option {
	return func(m *Manager) {
		m.leeway = leeway
	}
}

type Manager struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

func NewManager(secret string, opts ...Option) *Manager {
	m := &Manager{
		secret: []byte(secret),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Generate signs the claims with HS256.
func (m *Manager) Generate(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// GenerateSimple issues a token for the subject, expiring after ttl.
func (m *Manager) GenerateSimple(subject string, ttl time.Duration) (string, error) {
	now := m.now()

	return m.Generate(SimpleClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
}

// Decode parses and validates the token into claims of type T. Claims implementing
// jwt.ClaimsValidator get their Validate method called as well.
func Decode[T any, PT interface {
	*T
	jwt.Claims
}](m *Manager, token string) (*T, error) {
	claims := PT(new(T))

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(m.leeway),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if len(m.issuer) > 0 {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return (*T)(claims), nil
}
