package ports

import (
	"context"

	"github.com/campus-events/event-system/internal/core/domain"
)

// RegisterMemberInput carries the fields of a new account.
type RegisterMemberInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthService covers member registration, login and identity lookup.
type AuthService interface {
	Register(ctx context.Context, in RegisterMemberInput) (*domain.Member, error)
	// Authenticate returns a session token for the member with email.
	Authenticate(ctx context.Context, email, password string) (string, *domain.Member, error)
	// WhoAmI returns nil, nil for anonymous callers.
	WhoAmI(ctx context.Context, id *domain.Identity) (*domain.Member, error)
}

// TokenService issues and verifies session tokens.
type TokenService interface {
	Issue(subjectID string, role domain.Role) (string, error)
	Verify(token string) (domain.Identity, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}
