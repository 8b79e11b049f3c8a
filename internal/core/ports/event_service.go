package ports

import (
	"context"
	"io"
	"time"

	"github.com/campus-events/event-system/internal/core/domain"
)

// Attachment is an uploaded image that has not been stored yet.
type Attachment struct {
	Content      io.Reader
	OriginalName string
}

// CreateEventInput is the DTO passed from the transport layer to EventService.
type CreateEventInput struct {
	Fields     domain.EventFields
	Attachment *Attachment // optional
	// IdempotencyKey, when set, makes a repeated create by the same
	// organizer return the first event instead of a new one.
	IdempotencyKey string
}

// UpdateEventInput carries a partial update and an optional replacement image.
type UpdateEventInput struct {
	Patch      domain.EventPatch
	Attachment *Attachment // optional
}

// ListEventsInput carries the optional list filters.
type ListEventsInput struct {
	Category string
	Search   string
}

// MemberRef is a member as shown inside an event view.
type MemberRef struct {
	ID    string
	Name  string
	Email string
}

// RatingView is one rating as exposed to clients.
type RatingView struct {
	MemberID string
	Value    int
}

// CommentView is one comment as exposed to clients.
type CommentView struct {
	MemberID  string
	Text      string
	CreatedAt time.Time
}

// EventView is the read model returned by every EventService operation.
type EventView struct {
	ID           string
	Title        string
	Description  string
	Organizer    MemberRef
	EventDate    time.Time
	EventTime    string
	Location     string
	Category     string
	ImageToken   string
	Participants []MemberRef
	Ratings      []RatingView
	Comments     []CommentView
	// AverageRating is nil when the event has no ratings.
	AverageRating *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EventService orchestrates authorization and aggregate mutations. A nil
// identity means the caller is anonymous.
type EventService interface {
	CreateEvent(ctx context.Context, id *domain.Identity, in CreateEventInput) (*EventView, error)
	ListEvents(ctx context.Context, in ListEventsInput) ([]EventView, error)
	GetEvent(ctx context.Context, eventID string) (*EventView, error)
	RegisterForEvent(ctx context.Context, id *domain.Identity, eventID string) error
	SubmitReview(ctx context.Context, id *domain.Identity, eventID string, rating int, comment string) error
	UpdateEvent(ctx context.Context, id *domain.Identity, eventID string, in UpdateEventInput) (*EventView, error)
	DeleteEvent(ctx context.Context, id *domain.Identity, eventID string) error
	MyRegistrations(ctx context.Context, id *domain.Identity) ([]EventView, error)
}

// AttachmentStore saves uploaded files and returns an opaque token. The
// core never reads the content back.
type AttachmentStore interface {
	Store(ctx context.Context, r io.Reader, originalName string) (string, error)
	// Remove deletes what Store saved under token. Used when the event
	// write that would have referenced it fails.
	Remove(ctx context.Context, token string) error
}

// IdempotencyStore remembers which event a create request key produced.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (eventID string, found bool, err error)
	Remember(ctx context.Context, scope, key, eventID string) error
}

// ActivityRecorder receives activity entries after a mutation commits.
type ActivityRecorder interface {
	Record(a domain.Activity)
}
