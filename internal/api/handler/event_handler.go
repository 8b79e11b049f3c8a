package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/ports"
)

const (
	imageField           = "image"
	headerIdempotencyKey = "Idempotency-Key"
)

// EventHandler handles the event routes.
type EventHandler struct {
	service ports.EventService
}

// NewEventHandler creates an EventHandler backed by the given service.
func NewEventHandler(service ports.EventService) *EventHandler {
	return &EventHandler{service: service}
}

// Create handles POST /v1/events.
//
// @Summary      Create an event
// @Description  Organizers only. Accepts JSON, or multipart form fields with an optional "image" file.
// @Tags         events
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Replays the first result for a repeated key"
// @Param        body             body      createEventRequest  true   "Event details"
// @Success      201              {object}  eventResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	fields, err := toEventFields(req)
	if err != nil {
		return err
	}

	attachment, closeFn, err := openAttachment(c)
	if err != nil {
		return err
	}
	defer closeFn()

	view, err := h.service.CreateEvent(c.Request().Context(), identity(c), ports.CreateEventInput{
		Fields:         fields,
		Attachment:     attachment,
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey)),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toEventResponse(view))
}

// List handles GET /v1/events.
//
// @Summary      List events
// @Tags         events
// @Produce      json
// @Param        category  query     string  false  "Exact category"
// @Param        q         query     string  false  "Case-insensitive title search"
// @Success      200       {array}   eventResponse
// @Failure      400       {object}  errorResponse
// @Router       /v1/events [get]
func (h *EventHandler) List(c echo.Context) error {
	views, err := h.service.ListEvents(c.Request().Context(), ports.ListEventsInput{
		Category: c.QueryParam("category"),
		Search:   strings.TrimSpace(c.QueryParam("q")),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponses(views))
}

// Get handles GET /v1/events/:id.
//
// @Summary      Get an event
// @Tags         events
// @Produce      json
// @Param        id   path      string  true  "Event id"
// @Success      200  {object}  eventResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/events/{id} [get]
func (h *EventHandler) Get(c echo.Context) error {
	view, err := h.service.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(view))
}

// Register handles POST /v1/events/:id/registrations.
//
// @Summary      Register for an event
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event id"
// @Success      201  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/events/{id}/registrations [post]
func (h *EventHandler) Register(c echo.Context) error {
	if err := h.service.RegisterForEvent(c.Request().Context(), identity(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "registered"})
}

// Review handles POST /v1/events/:id/reviews.
//
// @Summary      Rate and optionally comment on an event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Event id"
// @Param        body  body      reviewRequest  true  "Rating 1-5 and optional comment"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/events/{id}/reviews [post]
func (h *EventHandler) Review(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if req.Rating == "" {
		return &domain.MissingFieldError{Field: "rating"}
	}
	rating, err := parseRating(req.Rating)
	if err != nil {
		return err
	}

	if err := h.service.SubmitReview(c.Request().Context(), identity(c), c.Param("id"), rating, req.Comment); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "review submitted"})
}

// Update handles PUT /v1/events/:id. Only fields present in the body change.
//
// @Summary      Update an event
// @Description  Only the organizer who created the event. Accepts JSON, or multipart form fields with an optional "image" file.
// @Tags         events
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Event id"
// @Param        body  body      updateEventRequest  true  "Fields to change"
// @Success      200   {object}  eventResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	req, err := bindUpdate(c)
	if err != nil {
		return err
	}
	patch, err := toEventPatch(req)
	if err != nil {
		return err
	}

	attachment, closeFn, err := openAttachment(c)
	if err != nil {
		return err
	}
	defer closeFn()

	if req.empty() && attachment == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no fields to update")
	}

	view, err := h.service.UpdateEvent(c.Request().Context(), identity(c), c.Param("id"), ports.UpdateEventInput{
		Patch:      patch,
		Attachment: attachment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponse(view))
}

// Delete handles DELETE /v1/events/:id.
//
// @Summary      Delete an event
// @Tags         events
// @Security     BearerAuth
// @Param        id   path  string  true  "Event id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteEvent(c.Request().Context(), identity(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MyRegistrations handles GET /v1/me/registrations.
//
// @Summary      Events the caller is registered for
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   eventResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/me/registrations [get]
func (h *EventHandler) MyRegistrations(c echo.Context) error {
	views, err := h.service.MyRegistrations(c.Request().Context(), identity(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponses(views))
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// bindUpdate reads a partial update. Form fields count as present only when
// the key was sent, so an empty value can still clear a field.
func bindUpdate(c echo.Context) (updateEventRequest, error) {
	var req updateEventRequest
	if !isMultipart(c) {
		if err := c.Bind(&req); err != nil {
			return req, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		return req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	field := func(name string) *string {
		vals, ok := form.Value[name]
		if !ok || len(vals) == 0 {
			return nil
		}
		v := vals[0]
		return &v
	}
	req.Title = field("title")
	req.Description = field("description")
	req.EventDate = field("event_date")
	req.EventTime = field("event_time")
	req.Location = field("location")
	req.Category = field("category")
	return req, nil
}

// openAttachment returns the uploaded image, or nil when the request has
// none. The returned close function is always safe to call.
func openAttachment(c echo.Context) (*ports.Attachment, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}

	fh, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, echo.NewHTTPError(http.StatusBadRequest, "invalid image upload")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, echo.NewHTTPError(http.StatusBadRequest, "invalid image upload")
	}
	return &ports.Attachment{Content: f, OriginalName: fh.Filename}, closeFile(f), nil
}

func closeFile(f multipart.File) func() {
	return func() { _ = f.Close() }
}
