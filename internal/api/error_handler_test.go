package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/campus-events/event-system/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"missing field", &domain.MissingFieldError{Field: "title"}, http.StatusBadRequest, "title is required"},
		{"bad category", domain.ErrInvalidCategory, http.StatusBadRequest, "unknown category"},
		{"bad rating", domain.ErrInvalidRating, http.StatusBadRequest, "rating must be an integer between 1 and 5"},
		{"duplicate registration", domain.ErrAlreadyRegistered, http.StatusConflict, "already registered for this event"},
		{"duplicate review", domain.ErrAlreadyReviewed, http.StatusConflict, "already reviewed this event"},
		{"duplicate email", domain.ErrMemberExists, http.StatusConflict, "member already exists with this email"},
		{"bad password", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"anonymous", domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{"wrong role", domain.ErrWrongRole, http.StatusForbidden, "role not allowed for this action"},
		{"not owner", domain.ErrNotOwner, http.StatusForbidden, "only the organizer who created the event may change it"},
		{"no event", domain.ErrEventNotFound, http.StatusNotFound, "event not found"},
		{"no member", domain.ErrMemberNotFound, http.StatusNotFound, "member not found"},
		{"wrapped", fmt.Errorf("save event: %w", domain.ErrConcurrentUpdate), http.StatusConflict, "save event: conflict: event was modified concurrently"},
		{"echo error", echo.NewHTTPError(http.StatusUnprocessableEntity, "title is required"), http.StatusUnprocessableEntity, "title is required"},
		{"unexpected", errors.New("mongo: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, body.Error)
			}
		})
	}
}
