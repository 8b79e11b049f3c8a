package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/campus-events/event-system/internal/core/domain"
	"github.com/campus-events/event-system/internal/core/ports"
)

const collectionEvents = "events"

// EventRepository implements ports.EventRepository using MongoDB. Each event
// is one document holding its participants and reviews.
type EventRepository struct {
	col *mongo.Collection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventRepository {
	return &EventRepository{col: db.Collection(collectionEvents)}
}

type reviewDoc struct {
	MemberID  string    `bson:"member_id"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

type eventDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description"`
	OrganizerID  string             `bson:"organizer_id"`
	EventDate    time.Time          `bson:"event_date"`
	EventTime    string             `bson:"event_time"`
	Location     string             `bson:"location"`
	Category     string             `bson:"category"`
	ImageToken   string             `bson:"image_token,omitempty"`
	Participants []string           `bson:"participants"`
	Reviews      []reviewDoc        `bson:"reviews"`
	Version      int64              `bson:"version"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func toEventDoc(e *domain.Event) eventDoc {
	d := eventDoc{
		Title:        e.Title,
		Description:  e.Description,
		OrganizerID:  e.OrganizerID,
		EventDate:    e.EventDate.UTC(),
		EventTime:    e.EventTime,
		Location:     e.Location,
		Category:     string(e.Category),
		ImageToken:   e.ImageToken,
		Participants: append([]string{}, e.Participants...),
		Reviews:      make([]reviewDoc, 0, len(e.Reviews)),
		Version:      e.Version,
		CreatedAt:    e.CreatedAt.UTC(),
		UpdatedAt:    e.UpdatedAt.UTC(),
	}
	for _, r := range e.Reviews {
		d.Reviews = append(d.Reviews, reviewDoc{MemberID: r.MemberID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt.UTC()})
	}
	return d
}

func (d eventDoc) toDomain() *domain.Event {
	e := &domain.Event{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Description:  d.Description,
		OrganizerID:  d.OrganizerID,
		EventDate:    d.EventDate.UTC(),
		EventTime:    d.EventTime,
		Location:     d.Location,
		Category:     domain.Category(d.Category),
		ImageToken:   d.ImageToken,
		Participants: append([]string{}, d.Participants...),
		Reviews:      make([]domain.Review, 0, len(d.Reviews)),
		Version:      d.Version,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	for _, r := range d.Reviews {
		e.Reviews = append(e.Reviews, domain.Review{MemberID: r.MemberID, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt.UTC()})
	}
	return e
}

func eventIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "event_date", Value: 1}}},
		{Keys: bson.D{{Key: "participants", Value: 1}}},
		{Keys: bson.D{{Key: "organizer_id", Value: 1}}},
	}
}

// Create inserts e with version 1 and sets its ID.
func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toEventDoc(e)
	doc.Version = 1
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert event: unexpected id type %T", res.InsertedID)
	}
	e.ID = oid.Hex()
	e.Version = doc.Version
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrEventNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d eventDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return d.toDomain(), nil
}

// List returns events ordered by date. Search is a case-insensitive substring
// match on the title.
func (r *EventRepository) List(ctx context.Context, f ports.ListEventsFilter) ([]*domain.Event, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	}
	return r.find(ctx, filter)
}

func (r *EventRepository) ListByParticipant(ctx context.Context, memberID string) ([]*domain.Event, error) {
	return r.find(ctx, bson.M{"participants": memberID})
}

// Save writes the editable fields of e only if the stored version still
// equals e.Version. A missing document and a newer version both surface as
// ports.ErrVersionConflict; the caller reloads and finds out which.
// Participants and reviews are left to AddParticipant and AddReview, which
// do not bump the version, so registrations never make an update retry.
func (r *EventRepository) Save(ctx context.Context, e *domain.Event) error {
	oid, err := primitive.ObjectIDFromHex(e.ID)
	if err != nil {
		return domain.ErrEventNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toEventDoc(e)
	next := e.Version + 1
	update := bson.M{"$set": bson.M{
		"title":        doc.Title,
		"description":  doc.Description,
		"event_date":   doc.EventDate,
		"event_time":   doc.EventTime,
		"location":     doc.Location,
		"category":     doc.Category,
		"image_token":  doc.ImageToken,
		"updated_at":   doc.UpdatedAt,
		"version":      next,
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid, "version": e.Version}, update)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return ports.ErrVersionConflict
	}
	e.Version = next
	return nil
}

// AddParticipant pushes memberID unless it is already in participants. The
// filter and the push are one document operation, so concurrent
// registrations never lose each other or duplicate a member.
func (r *EventRepository) AddParticipant(ctx context.Context, eventID, memberID string) error {
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return domain.ErrEventNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "participants": bson.M{"$ne": memberID}},
		bson.M{"$push": bson.M{"participants": memberID}},
	)
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return r.missReason(ctx, oid, domain.ErrAlreadyRegistered)
}

// AddReview pushes rv unless its member already has a review on the event.
func (r *EventRepository) AddReview(ctx context.Context, eventID string, rv domain.Review) error {
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return domain.ErrEventNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := reviewDoc{MemberID: rv.MemberID, Rating: rv.Rating, Comment: rv.Comment, CreatedAt: rv.CreatedAt.UTC()}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "reviews.member_id": bson.M{"$ne": rv.MemberID}},
		bson.M{"$push": bson.M{"reviews": doc}},
	)
	if err != nil {
		return fmt.Errorf("add review: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	return r.missReason(ctx, oid, domain.ErrAlreadyReviewed)
}

// missReason tells a missing event apart from a failed precondition after a
// conditional push matched nothing.
func (r *EventRepository) missReason(ctx context.Context, oid primitive.ObjectID, precondition error) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count event: %w", err)
	}
	if n == 0 {
		return domain.ErrEventNotFound
	}
	return precondition
}

// Delete removes the event only when organizerID owns it.
func (r *EventRepository) Delete(ctx context.Context, id, organizerID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrEventNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "organizer_id": organizerID})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) find(ctx context.Context, filter bson.M) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "event_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]*domain.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toDomain())
	}
	return events, nil
}
