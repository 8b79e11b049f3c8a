package handler

import (
	"encoding/json"
	"time"
)

// createEventRequest is accepted as JSON or as multipart form fields with an
// optional "image" file part.
type createEventRequest struct {
	Title       string `json:"title"       form:"title"       validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"required"`
	EventDate   string `json:"event_date"  form:"event_date"  validate:"required"`
	EventTime   string `json:"event_time"  form:"event_time"  validate:"required"`
	Location    string `json:"location"    form:"location"    validate:"required"`
	Category    string `json:"category"    form:"category"    validate:"required"`
}

// updateEventRequest is a partial update: absent fields are left unchanged.
type updateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	EventDate   *string `json:"event_date"`
	EventTime   *string `json:"event_time"`
	Location    *string `json:"location"`
	Category    *string `json:"category"`
}

// reviewRequest keeps the rating as a raw number so fractional values reach
// rating validation instead of failing the bind.
type reviewRequest struct {
	Rating  json.Number `json:"rating" swaggertype:"integer"`
	Comment string      `json:"comment" validate:"max=2000"`
}

type memberRefResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type ratingResponse struct {
	MemberID string `json:"member_id"`
	Value    int    `json:"value"`
}

type commentResponse struct {
	MemberID  string    `json:"member_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type eventResponse struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Organizer     memberRefResponse   `json:"organizer"`
	EventDate     string              `json:"event_date"`
	EventTime     string              `json:"event_time"`
	Location      string              `json:"location"`
	Category      string              `json:"category"`
	ImageURL      string              `json:"image_url,omitempty"`
	Participants  []memberRefResponse `json:"participants"`
	Ratings       []ratingResponse    `json:"ratings"`
	Comments      []commentResponse   `json:"comments"`
	AverageRating *float64            `json:"average_rating"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse documents the envelope the HTTP error handler renders.
type errorResponse struct {
	Error string `json:"error"`
}
