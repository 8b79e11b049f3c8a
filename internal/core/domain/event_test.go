package domain

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validFields() EventFields {
	return EventFields{
		Title:       "Go Workshop",
		Description: "Hands-on concurrency",
		EventDate:   time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		EventTime:   "18:00",
		Location:    "Lab 3",
		Category:    "technical",
	}
}

func newTestEvent(t *testing.T) *Event {
	t.Helper()
	e, err := NewEvent("org-1", validFields(), testNow)
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	return e
}

func strPtr(s string) *string { return &s }

func TestNewEvent_KeepsCategoryVerbatim(t *testing.T) {
	e := newTestEvent(t)
	if e.Category != CategoryTechnical || string(e.Category) != "technical" {
		t.Fatalf("unexpected category: %q", e.Category)
	}
	if e.OrganizerID != "org-1" {
		t.Fatalf("unexpected organizer: %q", e.OrganizerID)
	}
	if len(e.Participants) != 0 || len(e.Reviews) != 0 {
		t.Fatalf("expected empty collections")
	}
}

func TestNewEvent_RejectsBadCategory(t *testing.T) {
	for _, cat := range []string{"Technical", "party", "club_activity", " sports"} {
		f := validFields()
		f.Category = cat
		if _, err := NewEvent("org-1", f, testNow); !errors.Is(err, ErrInvalidCategory) {
			t.Fatalf("category %q: expected ErrInvalidCategory, got %v", cat, err)
		}
	}

	f := validFields()
	f.Category = "club activity"
	if _, err := NewEvent("org-1", f, testNow); err != nil {
		t.Fatalf("expected 'club activity' to be accepted, got %v", err)
	}
}

func TestNewEvent_MissingFields(t *testing.T) {
	cases := map[string]func(*EventFields){
		"title":       func(f *EventFields) { f.Title = "  " },
		"category":    func(f *EventFields) { f.Category = "" },
		"event_date":  func(f *EventFields) { f.EventDate = time.Time{} },
		"event_time":  func(f *EventFields) { f.EventTime = "" },
		"location":    func(f *EventFields) { f.Location = "" },
		"description": func(f *EventFields) { f.Description = "" },
	}
	for field, mutate := range cases {
		f := validFields()
		mutate(&f)
		_, err := NewEvent("org-1", f, testNow)
		var mf *MissingFieldError
		if !errors.As(err, &mf) || mf.Field != field {
			t.Fatalf("%s: expected MissingFieldError, got %v", field, err)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input kind", field)
		}
	}
}

func TestEvent_RegisterTwice(t *testing.T) {
	e := newTestEvent(t)

	if err := e.Register("stu-1", RoleStudent); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := e.Register("stu-1", RoleStudent); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if len(e.Participants) != 1 {
		t.Fatalf("expected 1 participant, got %d", len(e.Participants))
	}
}

func TestEvent_RegisterOrganizerRejected(t *testing.T) {
	e := newTestEvent(t)
	if err := e.Register("org-2", RoleOrganizer); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("expected ErrWrongRole, got %v", err)
	}
	if len(e.Participants) != 0 {
		t.Fatalf("expected no participants")
	}
}

func TestEvent_AddReviewTwice(t *testing.T) {
	e := newTestEvent(t)

	if err := e.AddReview("stu-1", RoleStudent, 4, "  great  ", testNow); err != nil {
		t.Fatalf("first review: %v", err)
	}
	if err := e.AddReview("stu-1", RoleStudent, 5, "again", testNow); !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
	if len(e.Reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(e.Reviews))
	}
	if e.Reviews[0].Comment != "great" {
		t.Fatalf("expected trimmed comment, got %q", e.Reviews[0].Comment)
	}
}

func TestEvent_AddReviewBlankComment(t *testing.T) {
	e := newTestEvent(t)
	if err := e.AddReview("stu-1", RoleStudent, 3, "   ", testNow); err != nil {
		t.Fatalf("review: %v", err)
	}
	if e.Reviews[0].HasComment() {
		t.Fatalf("expected blank comment to be dropped")
	}
}

func TestEvent_AddReviewInvalidRating(t *testing.T) {
	e := newTestEvent(t)
	for _, r := range []int{0, 6, -1} {
		if err := e.AddReview("stu-1", RoleStudent, r, "", testNow); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d: expected ErrInvalidRating, got %v", r, err)
		}
	}
	if len(e.Reviews) != 0 {
		t.Fatalf("expected reviews unchanged")
	}
}

func TestNewReview(t *testing.T) {
	r, err := NewReview("stu-1", RoleStudent, 4, "  solid talk ", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Comment != "solid talk" || r.Rating != 4 || !r.CreatedAt.Equal(testNow) {
		t.Errorf("unexpected review: %+v", r)
	}

	if _, err := NewReview("org-1", RoleOrganizer, 4, "", testNow); !errors.Is(err, ErrWrongRole) {
		t.Errorf("expected ErrWrongRole, got %v", err)
	}
	if _, err := NewReview("stu-1", RoleStudent, 6, "", testNow); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
}

func TestEvent_AverageRating(t *testing.T) {
	e := newTestEvent(t)
	if _, ok := e.AverageRating(); ok {
		t.Fatalf("expected no rating on empty event")
	}

	for i, r := range []int{5, 3, 4} {
		if err := e.AddReview(string(rune('a'+i)), RoleStudent, r, "", testNow); err != nil {
			t.Fatalf("review: %v", err)
		}
	}
	avg, ok := e.AverageRating()
	if !ok || avg != 4.0 {
		t.Fatalf("expected 4.0, got %v (ok=%v)", avg, ok)
	}

	if err := e.AddReview("d", RoleStudent, 5, "", testNow); err != nil {
		t.Fatalf("review: %v", err)
	}
	// 17 / 4 = 4.25
	if avg, _ := e.AverageRating(); avg != 4.3 {
		t.Fatalf("expected 4.3, got %v", avg)
	}
}

func TestEvent_ApplyUpdate(t *testing.T) {
	e := newTestEvent(t)
	later := testNow.Add(time.Hour)

	err := e.ApplyUpdate(EventPatch{
		Title:    strPtr("Advanced Go"),
		Category: strPtr("seminar"),
	}, later)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if e.Title != "Advanced Go" || e.Category != CategorySeminar {
		t.Fatalf("patch not applied: %+v", e)
	}
	if e.Location != "Lab 3" || e.EventTime != "18:00" {
		t.Fatalf("absent fields should keep their values: %+v", e)
	}
	if e.OrganizerID != "org-1" {
		t.Fatalf("organizer changed")
	}
	if !e.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at to move")
	}
}

func TestEvent_ApplyUpdateRejectedLeavesEventUnchanged(t *testing.T) {
	e := newTestEvent(t)
	before := *e

	err := e.ApplyUpdate(EventPatch{
		Title:    strPtr("New title"),
		Category: strPtr("party"),
	}, testNow.Add(time.Hour))
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if e.Title != before.Title || e.Category != before.Category || !e.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("expected event unchanged after rejected patch")
	}

	if err := e.ApplyUpdate(EventPatch{Title: strPtr(" ")}, testNow); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected blank title to be rejected, got %v", err)
	}
}

func TestEvent_IsOwnedBy(t *testing.T) {
	e := newTestEvent(t)
	if !e.IsOwnedBy("org-1") || e.IsOwnedBy("org-2") || e.IsOwnedBy("") {
		t.Fatalf("unexpected ownership result")
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(string(c))
		if err != nil || got != c {
			t.Fatalf("expected %q to parse, got %q, %v", c, got, err)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind error
	}{
		{ErrAlreadyRegistered, ErrConflict},
		{ErrAlreadyReviewed, ErrConflict},
		{ErrMemberExists, ErrConflict},
		{ErrEventNotFound, ErrNotFound},
		{ErrInvalidRating, ErrInvalidInput},
		{ErrNotOwner, ErrUnauthorized},
		{ErrWrongRole, ErrUnauthorized},
		{ErrInvalidCredentials, ErrUnauthenticated},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.kind) {
			t.Fatalf("expected %v to be %v", tc.err, tc.kind)
		}
	}
}
