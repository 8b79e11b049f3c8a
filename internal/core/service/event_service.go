package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/policy"
	"github.com/campus-events/event-system/internal/core/ports"
	"github.com/campus-events/event-system/internal/pkg/metrics"
)

// maxSaveAttempts bounds how many times an update is re-applied after losing
// its conditional write to another update of the same event.
const maxSaveAttempts = 3

const attachmentCleanupTimeout = 10 * time.Second

const tracerName = "github.com/campus-events/event-system/internal/core/service"

type eventService struct {
	events      ports.EventRepository
	members     ports.MemberRepository
	attachments ports.AttachmentStore
	idempotency ports.IdempotencyStore
	activity    ports.ActivityRecorder
	log         zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEventService returns an EventService implementation. attachments,
// idempotency and activity may be nil: uploads are then rejected, create
// requests are never replayed, and no activity trail is written.
func NewEventService(
	events ports.EventRepository,
	members ports.MemberRepository,
	attachments ports.AttachmentStore,
	idempotency ports.IdempotencyStore,
	activity ports.ActivityRecorder,
	log zerolog.Logger,
) ports.EventService {
	return &eventService{
		events:      events,
		members:     members,
		attachments: attachments,
		idempotency: idempotency,
		activity:    activity,
		log:         log,
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
	}
}

// CreateEvent authorizes the caller as an organizer, validates the fields and
// inserts the event. The attachment is stored only once the event is known
// to be valid.
func (s *eventService) CreateEvent(ctx context.Context, id *domain.Identity, in ports.CreateEventInput) (view *ports.EventView, err error) {
	ctx, span := s.startSpan(ctx, "CreateEvent", "")
	defer func() { finishSpan(span, err) }()

	if err := s.authorize(id, policy.ActionCreateEvent, policy.Resource{}); err != nil {
		return nil, err
	}

	e, err := domain.NewEvent(id.SubjectID, in.Fields, s.now())
	if err != nil {
		return nil, err
	}

	scope := "create_event:" + id.SubjectID
	if replay := s.replay(ctx, scope, in.IdempotencyKey); replay != nil {
		return s.detailView(ctx, replay)
	}

	if in.Attachment != nil {
		token, err := s.storeAttachment(ctx, in.Attachment)
		if err != nil {
			return nil, err
		}
		e.ImageToken = token
	}

	if err := s.events.Create(ctx, e); err != nil {
		s.log.Error().Err(err).Str("organizer_id", id.SubjectID).Msg("failed to create event")
		s.discardAttachment(ctx, e.ImageToken)
		return nil, fmt.Errorf("create event: %w", err)
	}

	if in.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Remember(ctx, scope, in.IdempotencyKey, e.ID); err != nil {
			s.log.Warn().Err(err).Str("event_id", e.ID).Msg("failed to remember idempotency key")
		}
	}

	metrics.EventsCreatedTotal.WithLabelValues(string(e.Category)).Inc()
	s.record(e.ID, id.SubjectID, domain.ActivityCreated)
	s.log.Info().Str("event_id", e.ID).Str("organizer_id", id.SubjectID).Str("category", string(e.Category)).Msg("event created")

	return s.detailView(ctx, e)
}

// replay returns the event an earlier request with the same key created, or
// nil. Lookup failures are logged and treated as a miss.
func (s *eventService) replay(ctx context.Context, scope, key string) *domain.Event {
	if key == "" || s.idempotency == nil {
		return nil
	}
	eventID, found, err := s.idempotency.Lookup(ctx, scope, key)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if !found {
		return nil
	}
	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil
	}
	s.log.Info().Str("idempotency_key", key).Str("event_id", e.ID).Msg("idempotent replay")
	return e
}

func (s *eventService) ListEvents(ctx context.Context, in ports.ListEventsInput) (views []ports.EventView, err error) {
	ctx, span := s.startSpan(ctx, "ListEvents", "")
	defer func() { finishSpan(span, err) }()

	if err := s.authorize(nil, policy.ActionListEvents, policy.Resource{}); err != nil {
		return nil, err
	}
	if in.Category != "" {
		if _, err := domain.ParseCategory(in.Category); err != nil {
			return nil, err
		}
	}

	events, err := s.events.List(ctx, ports.ListEventsFilter{Category: in.Category, Search: in.Search})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.summaryViews(ctx, events)
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (view *ports.EventView, err error) {
	ctx, span := s.startSpan(ctx, "GetEvent", eventID)
	defer func() { finishSpan(span, err) }()

	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(nil, policy.ActionReadEvent, policy.ResourceOf(e)); err != nil {
		return nil, err
	}
	return s.detailView(ctx, e)
}

// RegisterForEvent adds the caller to the participants. Registration
// depends on the role alone, so the event is never loaded: the store applies
// the duplicate check and the append as one operation.
func (s *eventService) RegisterForEvent(ctx context.Context, id *domain.Identity, eventID string) (err error) {
	ctx, span := s.startSpan(ctx, "RegisterForEvent", eventID)
	defer func() { finishSpan(span, err) }()

	if err := s.authorize(id, policy.ActionRegisterEvent, policy.Resource{}); err != nil {
		return err
	}

	err = s.events.AddParticipant(ctx, eventID, id.SubjectID)
	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		metrics.RegistrationsTotal.WithLabelValues("already_registered").Inc()
		s.log.Debug().Str("event_id", eventID).Str("member_id", id.SubjectID).Msg("duplicate registration rejected")
		return err
	case err != nil:
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	s.record(eventID, id.SubjectID, domain.ActivityRegistered)
	s.log.Info().Str("event_id", eventID).Str("member_id", id.SubjectID).Msg("member registered for event")
	return nil
}

func (s *eventService) SubmitReview(ctx context.Context, id *domain.Identity, eventID string, rating int, comment string) (err error) {
	ctx, span := s.startSpan(ctx, "SubmitReview", eventID)
	defer func() { finishSpan(span, err) }()

	if err := s.authorize(id, policy.ActionSubmitReview, policy.Resource{}); err != nil {
		return err
	}

	review, err := domain.NewReview(id.SubjectID, id.Role, rating, comment, s.now())
	if err == nil {
		err = s.events.AddReview(ctx, eventID, review)
	}
	switch {
	case errors.Is(err, domain.ErrAlreadyReviewed):
		metrics.ReviewsTotal.WithLabelValues("already_reviewed").Inc()
		return err
	case errors.Is(err, domain.ErrInvalidRating):
		metrics.ReviewsTotal.WithLabelValues("invalid_rating").Inc()
		return err
	case err != nil:
		return err
	}

	metrics.ReviewsTotal.WithLabelValues("ok").Inc()
	s.record(eventID, id.SubjectID, domain.ActivityReviewed)
	s.log.Info().Str("event_id", eventID).Str("member_id", id.SubjectID).Int("rating", rating).Msg("review submitted")
	return nil
}

// UpdateEvent applies the patch for the event's owner. A new attachment is
// stored after the patch has been validated against the current event.
func (s *eventService) UpdateEvent(ctx context.Context, id *domain.Identity, eventID string, in ports.UpdateEventInput) (view *ports.EventView, err error) {
	ctx, span := s.startSpan(ctx, "UpdateEvent", eventID)
	defer func() { finishSpan(span, err) }()

	var imageToken string
	e, err := s.mutate(ctx, id, policy.ActionUpdateEvent, eventID, func(e *domain.Event) error {
		now := s.now()
		if err := e.ApplyUpdate(in.Patch, now); err != nil {
			return err
		}
		if in.Attachment == nil {
			return nil
		}
		if imageToken == "" {
			token, err := s.storeAttachment(ctx, in.Attachment)
			if err != nil {
				return err
			}
			imageToken = token
		}
		return e.ApplyUpdate(domain.EventPatch{ImageToken: &imageToken}, now)
	})
	if err != nil {
		s.discardAttachment(ctx, imageToken)
		return nil, err
	}

	s.record(eventID, id.SubjectID, domain.ActivityUpdated)
	s.log.Info().Str("event_id", eventID).Str("organizer_id", id.SubjectID).Msg("event updated")
	return s.detailView(ctx, e)
}

func (s *eventService) DeleteEvent(ctx context.Context, id *domain.Identity, eventID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteEvent", eventID)
	defer func() { finishSpan(span, err) }()

	if err := s.authorizeRole(id, policy.ActionDeleteEvent); err != nil {
		return err
	}

	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return err
	}
	if err := s.authorize(id, policy.ActionDeleteEvent, policy.ResourceOf(e)); err != nil {
		return err
	}

	// The owner filter on the delete itself keeps this safe even though
	// ownership was checked on a separate read.
	if err := s.events.Delete(ctx, eventID, id.SubjectID); err != nil {
		return err
	}

	s.record(eventID, id.SubjectID, domain.ActivityDeleted)
	s.log.Info().Str("event_id", eventID).Str("organizer_id", id.SubjectID).Msg("event deleted")
	return nil
}

func (s *eventService) MyRegistrations(ctx context.Context, id *domain.Identity) (views []ports.EventView, err error) {
	ctx, span := s.startSpan(ctx, "MyRegistrations", "")
	defer func() { finishSpan(span, err) }()

	if id == nil {
		return nil, domain.ErrUnauthenticated
	}

	events, err := s.events.ListByParticipant(ctx, id.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return s.summaryViews(ctx, events)
}

// mutate loads the event, authorizes action against it, applies fn and saves
// the result with a conditional write. When the write loses to another
// update the event is reloaded and fn applied again against the newer state.
func (s *eventService) mutate(
	ctx context.Context,
	id *domain.Identity,
	action policy.Action,
	eventID string,
	fn func(*domain.Event) error,
) (*domain.Event, error) {
	if err := s.authorizeRole(id, action); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		e, err := s.events.FindByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(id, action, policy.ResourceOf(e)); err != nil {
			return nil, err
		}
		if err := fn(e); err != nil {
			return nil, err
		}

		err = s.events.Save(ctx, e)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) {
			return nil, fmt.Errorf("save event: %w", err)
		}

		metrics.VersionConflictsTotal.WithLabelValues(string(action)).Inc()
		s.log.Debug().Str("event_id", eventID).Int("attempt", attempt).Str("action", string(action)).Msg("version conflict, reapplying")
		if attempt >= maxSaveAttempts {
			return nil, domain.ErrConcurrentUpdate
		}
	}
}

func (s *eventService) authorize(id *domain.Identity, action policy.Action, res policy.Resource) error {
	d := policy.Authorize(id, action, res)
	if d.Allowed {
		return nil
	}
	metrics.PolicyDenialsTotal.WithLabelValues(string(action), string(d.Reason)).Inc()
	return d.Err()
}

// authorizeRole applies the checks that do not depend on the event, so a
// caller who can never perform action is not told whether the event exists.
func (s *eventService) authorizeRole(id *domain.Identity, action policy.Action) error {
	err := s.authorize(id, action, policy.Resource{})
	if errors.Is(err, domain.ErrNotOwner) {
		return nil
	}
	return err
}

func (s *eventService) storeAttachment(ctx context.Context, a *ports.Attachment) (string, error) {
	if s.attachments == nil {
		return "", fmt.Errorf("%w: attachments are not enabled", domain.ErrInvalidInput)
	}
	token, err := s.attachments.Store(ctx, a.Content, a.OriginalName)
	if err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}
	return token, nil
}

// discardAttachment removes an attachment no event ended up referencing.
// The token is logged either way so a failed removal can be traced.
func (s *eventService) discardAttachment(ctx context.Context, token string) {
	if token == "" || s.attachments == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), attachmentCleanupTimeout)
	defer cancel()

	if err := s.attachments.Remove(ctx, token); err != nil {
		s.log.Error().Err(err).Str("image_token", token).Msg("orphaned attachment not removed")
		return
	}
	s.log.Warn().Str("image_token", token).Msg("removed attachment of failed event write")
}

func (s *eventService) record(eventID, actorID string, action domain.ActivityAction) {
	if s.activity == nil {
		return
	}
	s.activity.Record(domain.Activity{
		EventID:    eventID,
		ActorID:    actorID,
		Action:     action,
		OccurredAt: s.now().UTC(),
	})
}

func (s *eventService) startSpan(ctx context.Context, op, eventID string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "EventService."+op)
	if eventID != "" {
		span.SetAttributes(attribute.String("event.id", eventID))
	}
	return ctx, span
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
