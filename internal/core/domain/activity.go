package domain

import "time"

// ActivityAction names a mutation recorded in the activity trail.
type ActivityAction string

const (
	ActivityCreated    ActivityAction = "created"
	ActivityUpdated    ActivityAction = "updated"
	ActivityDeleted    ActivityAction = "deleted"
	ActivityRegistered ActivityAction = "registered"
	ActivityReviewed   ActivityAction = "reviewed"
)

// Activity records who did what to an event. It is written after the
// mutation commits and is never read back by the core.
type Activity struct {
	EventID    string
	ActorID    string
	Action     ActivityAction
	OccurredAt time.Time
}
