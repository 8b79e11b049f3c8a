package ports

import (
	"context"

	"github.com/campus-events/event-system/internal/core/domain"
)

// MemberRepository defines persistence for members.
type MemberRepository interface {
	// Create stores m and returns it with its ID set. A duplicate email
	// returns domain.ErrMemberExists.
	Create(ctx context.Context, m *domain.Member) (*domain.Member, error)
	FindByEmail(ctx context.Context, email string) (*domain.Member, error)
	FindByID(ctx context.Context, id string) (*domain.Member, error)
	// FindByIDs resolves many members at once. Unknown ids are absent from
	// the result rather than an error.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Member, error)
}
