package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/ports"
)

const dateLayout = "2006-01-02"

var errBadDate = fmt.Errorf("%w: event_date must be YYYY-MM-DD or RFC 3339", domain.ErrInvalidInput)

// parseEventDate accepts a calendar date or a full RFC 3339 timestamp.
func parseEventDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errBadDate
}

func toEventFields(r createEventRequest) (domain.EventFields, error) {
	date, err := parseEventDate(r.EventDate)
	if err != nil {
		return domain.EventFields{}, err
	}
	return domain.EventFields{
		Title:       r.Title,
		Description: r.Description,
		EventDate:   date,
		EventTime:   r.EventTime,
		Location:    r.Location,
		Category:    r.Category,
	}, nil
}

func toEventPatch(r updateEventRequest) (domain.EventPatch, error) {
	p := domain.EventPatch{
		Title:       r.Title,
		Description: r.Description,
		EventTime:   r.EventTime,
		Location:    r.Location,
		Category:    r.Category,
	}
	if r.EventDate != nil {
		date, err := parseEventDate(*r.EventDate)
		if err != nil {
			return domain.EventPatch{}, err
		}
		p.EventDate = &date
	}
	return p, nil
}

// parseRating accepts whole numbers, including forms like 4.0, and leaves the
// 1-5 range check to the domain.
func parseRating(n json.Number) (int, error) {
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, domain.ErrInvalidRating
	}
	return int(f), nil
}

func (r updateEventRequest) empty() bool {
	return r.Title == nil && r.Description == nil && r.EventDate == nil &&
		r.EventTime == nil && r.Location == nil && r.Category == nil
}

func toEventResponse(v *ports.EventView) eventResponse {
	resp := eventResponse{
		ID:            v.ID,
		Title:         v.Title,
		Description:   v.Description,
		Organizer:     toMemberRef(v.Organizer),
		EventDate:     v.EventDate.Format(dateLayout),
		EventTime:     v.EventTime,
		Location:      v.Location,
		Category:      v.Category,
		ImageURL:      v.ImageToken,
		Participants:  make([]memberRefResponse, 0, len(v.Participants)),
		Ratings:       make([]ratingResponse, 0, len(v.Ratings)),
		Comments:      make([]commentResponse, 0, len(v.Comments)),
		AverageRating: v.AverageRating,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	for _, p := range v.Participants {
		resp.Participants = append(resp.Participants, toMemberRef(p))
	}
	for _, r := range v.Ratings {
		resp.Ratings = append(resp.Ratings, ratingResponse{MemberID: r.MemberID, Value: r.Value})
	}
	for _, c := range v.Comments {
		resp.Comments = append(resp.Comments, commentResponse{MemberID: c.MemberID, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return resp
}

func toEventResponses(views []ports.EventView) []eventResponse {
	out := make([]eventResponse, 0, len(views))
	for i := range views {
		out = append(out, toEventResponse(&views[i]))
	}
	return out
}

func toMemberRef(m ports.MemberRef) memberRefResponse {
	return memberRefResponse{ID: m.ID, Name: m.Name, Email: m.Email}
}
