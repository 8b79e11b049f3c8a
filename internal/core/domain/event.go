package domain

import (
	"math"
	"strings"
	"time"
)

// EventFields are the organizer-editable fields of an event.
type EventFields struct {
	Title       string
	Description string
	EventDate   time.Time
	EventTime   string
	Location    string
	Category    string
	ImageToken  string
}

// EventPatch carries a partial update. Nil fields keep their current value.
// The organizer is deliberately absent: ownership never transfers.
type EventPatch struct {
	Title       *string
	Description *string
	EventDate   *time.Time
	EventTime   *string
	Location    *string
	Category    *string
	ImageToken  *string
}

// Event is the aggregate root. Participants and reviews live inside the same
// document so every invariant below is checked against one consistent
// snapshot, and Version guards the write of that snapshot.
//
// Invariants:
//   - OrganizerID never changes after NewEvent.
//   - Participants holds each member id at most once.
//   - Reviews holds at most one entry per member id.
//   - Only students are added to Participants or Reviews.
//   - Category is always one of Categories().
type Event struct {
	ID           string
	Title        string
	Description  string
	OrganizerID  string
	EventDate    time.Time
	EventTime    string
	Location     string
	Category     Category
	ImageToken   string
	Participants []string
	Reviews      []Review
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewEvent validates f and returns a new event owned by organizerID.
func NewEvent(organizerID string, f EventFields, now time.Time) (*Event, error) {
	if organizerID == "" {
		return nil, &MissingFieldError{Field: "organizer"}
	}
	if err := requireFields(f); err != nil {
		return nil, err
	}
	cat, err := ParseCategory(f.Category)
	if err != nil {
		return nil, err
	}

	return &Event{
		Title:        strings.TrimSpace(f.Title),
		Description:  f.Description,
		OrganizerID:  organizerID,
		EventDate:    f.EventDate.UTC(),
		EventTime:    strings.TrimSpace(f.EventTime),
		Location:     strings.TrimSpace(f.Location),
		Category:     cat,
		ImageToken:   f.ImageToken,
		Participants: []string{},
		Reviews:      []Review{},
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}

func requireFields(f EventFields) error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return &MissingFieldError{Field: "title"}
	case f.Category == "":
		return &MissingFieldError{Field: "category"}
	case f.EventDate.IsZero():
		return &MissingFieldError{Field: "event_date"}
	case strings.TrimSpace(f.EventTime) == "":
		return &MissingFieldError{Field: "event_time"}
	case strings.TrimSpace(f.Location) == "":
		return &MissingFieldError{Field: "location"}
	case strings.TrimSpace(f.Description) == "":
		return &MissingFieldError{Field: "description"}
	}
	return nil
}

// IsOwnedBy reports whether memberID created the event.
func (e *Event) IsOwnedBy(memberID string) bool {
	return memberID != "" && e.OrganizerID == memberID
}

// IsParticipant reports whether memberID is registered.
func (e *Event) IsParticipant(memberID string) bool {
	for _, p := range e.Participants {
		if p == memberID {
			return true
		}
	}
	return false
}

// HasReviewed reports whether memberID already left a review.
func (e *Event) HasReviewed(memberID string) bool {
	for _, r := range e.Reviews {
		if r.MemberID == memberID {
			return true
		}
	}
	return false
}

// Register adds memberID to the participants.
func (e *Event) Register(memberID string, role Role) error {
	if role != RoleStudent {
		return ErrWrongRole
	}
	if e.IsParticipant(memberID) {
		return ErrAlreadyRegistered
	}
	e.Participants = append(e.Participants, memberID)
	return nil
}

// AddReview appends the single review memberID may leave. A comment that is
// blank after trimming is dropped; the rating is still recorded.
func (e *Event) AddReview(memberID string, role Role, rating int, comment string, at time.Time) error {
	r, err := NewReview(memberID, role, rating, comment, at)
	if err != nil {
		return err
	}
	if e.HasReviewed(memberID) {
		return ErrAlreadyReviewed
	}
	e.Reviews = append(e.Reviews, r)
	return nil
}

// ApplyUpdate overwrites every field present in p. It validates the whole
// patch before touching e, so a rejected patch leaves e unchanged.
func (e *Event) ApplyUpdate(p EventPatch, now time.Time) error {
	var cat Category
	if p.Category != nil {
		c, err := ParseCategory(*p.Category)
		if err != nil {
			return err
		}
		cat = c
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &MissingFieldError{Field: "title"}
	}
	if p.EventDate != nil && p.EventDate.IsZero() {
		return &MissingFieldError{Field: "event_date"}
	}

	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.EventDate != nil {
		e.EventDate = p.EventDate.UTC()
	}
	if p.EventTime != nil {
		e.EventTime = strings.TrimSpace(*p.EventTime)
	}
	if p.Location != nil {
		e.Location = strings.TrimSpace(*p.Location)
	}
	if p.Category != nil {
		e.Category = cat
	}
	if p.ImageToken != nil {
		e.ImageToken = *p.ImageToken
	}
	e.UpdatedAt = now.UTC()
	return nil
}

// AverageRating returns the mean rating rounded to one decimal place.
// ok is false when nobody has rated the event yet.
func (e *Event) AverageRating() (avg float64, ok bool) {
	if len(e.Reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range e.Reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(e.Reviews))
	return math.Round(mean*10) / 10, true
}
