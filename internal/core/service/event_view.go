package service

import (
	"context"
	"fmt"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/ports"
)

// detailView resolves the organizer and every participant to a MemberRef.
func (s *eventService) detailView(ctx context.Context, e *domain.Event) (*ports.EventView, error) {
	ids := make([]string, 0, len(e.Participants)+1)
	ids = append(ids, e.OrganizerID)
	ids = append(ids, e.Participants...)

	members, err := s.members.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve members: %w", err)
	}

	v := toEventView(e, members)
	v.Participants = make([]ports.MemberRef, 0, len(e.Participants))
	for _, p := range e.Participants {
		v.Participants = append(v.Participants, memberRef(p, members))
	}
	return &v, nil
}

// summaryViews resolves only the organizers; participants keep their ids.
func (s *eventService) summaryViews(ctx context.Context, events []*domain.Event) ([]ports.EventView, error) {
	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.OrganizerID]; ok {
			continue
		}
		seen[e.OrganizerID] = struct{}{}
		ids = append(ids, e.OrganizerID)
	}

	members, err := s.members.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve organizers: %w", err)
	}

	views := make([]ports.EventView, 0, len(events))
	for _, e := range events {
		v := toEventView(e, members)
		v.Participants = make([]ports.MemberRef, 0, len(e.Participants))
		for _, p := range e.Participants {
			v.Participants = append(v.Participants, ports.MemberRef{ID: p})
		}
		views = append(views, v)
	}
	return views, nil
}

func toEventView(e *domain.Event, members map[string]*domain.Member) ports.EventView {
	v := ports.EventView{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Organizer:   memberRef(e.OrganizerID, members),
		EventDate:   e.EventDate,
		EventTime:   e.EventTime,
		Location:    e.Location,
		Category:    string(e.Category),
		ImageToken:  e.ImageToken,
		Ratings:     make([]ports.RatingView, 0, len(e.Reviews)),
		Comments:    []ports.CommentView{},
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, r := range e.Reviews {
		v.Ratings = append(v.Ratings, ports.RatingView{MemberID: r.MemberID, Value: r.Rating})
		if r.HasComment() {
			v.Comments = append(v.Comments, ports.CommentView{MemberID: r.MemberID, Text: r.Comment, CreatedAt: r.CreatedAt})
		}
	}
	if avg, ok := e.AverageRating(); ok {
		v.AverageRating = &avg
	}
	return v
}

// memberRef falls back to the bare id when the member no longer exists.
func memberRef(id string, members map[string]*domain.Member) ports.MemberRef {
	m, ok := members[id]
	if !ok {
		return ports.MemberRef{ID: id}
	}
	return ports.MemberRef{ID: m.ID, Name: m.Name, Email: m.Email}
}
