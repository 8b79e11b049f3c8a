package domain

import (
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one student's rating of an event, with an optional comment.
// A member has at most one review, and so at most one comment, per event.
type Review struct {
	MemberID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// HasComment reports whether the review carries a comment.
func (r Review) HasComment() bool { return r.Comment != "" }

// NewReview validates everything about a review that does not depend on the
// event. The one-review-per-member rule is checked where the review is
// appended.
func NewReview(memberID string, role Role, rating int, comment string, at time.Time) (Review, error) {
	if role != RoleStudent {
		return Review{}, ErrWrongRole
	}
	if rating < MinRating || rating > MaxRating {
		return Review{}, ErrInvalidRating
	}
	return Review{
		MemberID:  memberID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: at.UTC(),
	}, nil
}
