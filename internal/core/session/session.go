// Package session issues and verifies the signed tokens that carry a
// member's identity between requests.
//
// Tokens are HS256 JWTs with the member id in "sub" and the role in "role".
// The role is taken from the token as issued: a member whose role changed
// after login keeps the old role until they authenticate again.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campus-events/event-system/internal/core/domain"
)

const DefaultTTL = 24 * time.Hour

var (
	// ErrNoToken means the caller sent no token and is anonymous.
	ErrNoToken = errors.New("session: no token")
	// ErrInvalidToken means a token was sent but cannot be trusted.
	ErrInvalidToken = fmt.Errorf("%w: invalid session token", domain.ErrUnauthenticated)
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a key fixed at construction.
type Service struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service signing with secret. A ttl <= 0 means DefaultTTL.
func NewService(secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("session: signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{key: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue returns a signed token binding subjectID and role.
func (s *Service) Issue(subjectID string, role domain.Role) (string, error) {
	if subjectID == "" || !role.Valid() {
		return "", fmt.Errorf("session: cannot issue token for %q with role %q", subjectID, role)
	}
	now := s.now()
	c := claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
}

// Verify checks the signature and expiry of token and returns the identity
// embedded at issuance.
func (s *Service) Verify(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrNoToken
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	role := domain.Role(c.Role)
	if c.Subject == "" || !role.Valid() {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.Identity{SubjectID: c.Subject, Role: role}, nil
}
