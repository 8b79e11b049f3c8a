// Package policy decides whether an identity may perform an action on an
// event. It is a pure function of its inputs: no storage, no clock.
package policy

import "github.com/campus-events/event-system/internal/core/domain"

// Action is an operation subject to authorization.
type Action string

const (
	ActionCreateEvent   Action = "create_event"
	ActionUpdateEvent   Action = "update_event"
	ActionDeleteEvent   Action = "delete_event"
	ActionRegisterEvent Action = "register_event"
	ActionSubmitReview  Action = "submit_review"
	ActionReadEvent     Action = "read_event"
	ActionListEvents    Action = "list_events"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonWrongRole       Reason = "wrong_role"
	ReasonNotOwner        Reason = "not_owner"
	ReasonUnknownAction   Reason = "unknown_action"
)

// Resource is the part of an event the policy needs. The zero value stands
// for "no particular event", which is what create and list use.
type Resource struct {
	OrganizerID string
}

// ResourceOf extracts the policy-relevant view of e.
func ResourceOf(e *domain.Event) Resource {
	if e == nil {
		return Resource{}
	}
	return Resource{OrganizerID: e.OrganizerID}
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Err converts a denial into the matching domain error; nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return domain.ErrUnauthenticated
	case ReasonNotOwner:
		return domain.ErrNotOwner
	default:
		return domain.ErrWrongRole
	}
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason Reason) Decision { return Decision{Reason: reason} }

// Authorize applies the rules in order. id is nil for anonymous callers.
//
//	create_event                 organizer role
//	update_event, delete_event   caller created the event (role irrelevant)
//	register_event               student role
//	submit_review                student role
//	read_event, list_events      anyone
func Authorize(id *domain.Identity, action Action, res Resource) Decision {
	switch action {
	case ActionReadEvent, ActionListEvents:
		return allow()
	case ActionCreateEvent, ActionUpdateEvent, ActionDeleteEvent, ActionRegisterEvent, ActionSubmitReview:
	default:
		return deny(ReasonUnknownAction)
	}

	if id == nil || id.SubjectID == "" {
		return deny(ReasonUnauthenticated)
	}

	switch action {
	case ActionCreateEvent:
		return requireRole(id, domain.RoleOrganizer)
	case ActionUpdateEvent, ActionDeleteEvent:
		if res.OrganizerID == "" || res.OrganizerID != id.SubjectID {
			return deny(ReasonNotOwner)
		}
		return allow()
	default:
		return requireRole(id, domain.RoleStudent)
	}
}

func requireRole(id *domain.Identity, role domain.Role) Decision {
	if id.Role != role {
		return deny(ReasonWrongRole)
	}
	return allow()
}
