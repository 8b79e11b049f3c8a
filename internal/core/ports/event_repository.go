package ports

import (
	"context"
	"errors"

	"github.com/campus-events/event-system/internal/core/domain"
)

// ErrVersionConflict is returned by EventRepository.Save when the stored
// event no longer has the version the caller loaded, or no longer exists.
var ErrVersionConflict = errors.New("event version conflict")

// ListEventsFilter narrows ListEvents. Empty fields do not filter.
type ListEventsFilter struct {
	Category string
	Search   string // case-insensitive match on title
}

// EventRepository persists event aggregates. Every write is a single
// document operation.
type EventRepository interface {
	// Create inserts e, setting its ID and Version.
	Create(ctx context.Context, e *domain.Event) error
	FindByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, filter ListEventsFilter) ([]*domain.Event, error)
	ListByParticipant(ctx context.Context, memberID string) ([]*domain.Event, error)
	// Save writes the organizer-editable fields of e only if the stored
	// version still equals e.Version, then increments e.Version. Otherwise
	// ErrVersionConflict. Participants and reviews are not written.
	Save(ctx context.Context, e *domain.Event) error
	// AddParticipant appends memberID in one conditional write.
	// domain.ErrAlreadyRegistered when present, domain.ErrEventNotFound when
	// the event does not exist.
	AddParticipant(ctx context.Context, eventID, memberID string) error
	// AddReview appends r in one conditional write. domain.ErrAlreadyReviewed
	// when r.MemberID already reviewed, domain.ErrEventNotFound when the
	// event does not exist.
	AddReview(ctx context.Context, eventID string, r domain.Review) error
	// Delete removes the event only if organizerID owns it. A missing or
	// foreign event returns domain.ErrEventNotFound.
	Delete(ctx context.Context, id, organizerID string) error
}

// ActivityRepository appends to the activity trail.
type ActivityRepository interface {
	Insert(ctx context.Context, a *domain.Activity) error
}
