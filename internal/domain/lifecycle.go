package domain

import (
	"fmt"
	"time"
)

// Actor is the role requesting a state transition.
type Actor string

const (
	ActorOwner     Actor = "OWNER"
	ActorModerator Actor = "MODERATOR"
)

// StateAction is a requested lifecycle transition.
type StateAction string

const (
	ActionSendToReview StateAction = "SEND_TO_REVIEW"
	ActionCancelReview StateAction = "CANCEL_REVIEW"
	ActionPublishEvent StateAction = "PUBLISH_EVENT"
	ActionRejectEvent  StateAction = "REJECT_EVENT"
)

// Lead times: the minimum interval between "now" and the event start
// required for a mutation by the given actor.
const (
	OwnerLeadTime     = 2 * time.Hour
	ModeratorLeadTime = 1 * time.Hour
)

// ParseStateAction validates an action literal.
func ParseStateAction(s string) (StateAction, error) {
	switch a := StateAction(s); a {
	case ActionSendToReview, ActionCancelReview, ActionPublishEvent, ActionRejectEvent:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown state action %q", ErrInvalidInput, s)
	}
}

// guard is a transition precondition over (now, eventDate).
type guard func(now, eventDate time.Time) error

func leadTimeGuard(lead time.Duration) guard {
	return func(now, eventDate time.Time) error {
		if !eventDate.After(now.Add(lead)) {
			return fmt.Errorf("%w: event starts within %s", ErrConditionsNotMet, lead)
		}
		return nil
	}
}

type transitionRule struct {
	actor  Actor
	from   EventState
	action StateAction
	to     EventState
	guard  guard // nil means unconditional
}

// transitionTable is the complete set of permitted lifecycle transitions.
// Anything not listed here is rejected and leaves the event untouched.
var transitionTable = []transitionRule{
	{actor: ActorOwner, from: StatePending, action: ActionSendToReview, to: StatePending, guard: leadTimeGuard(OwnerLeadTime)},
	{actor: ActorOwner, from: StateCanceled, action: ActionSendToReview, to: StatePending, guard: leadTimeGuard(OwnerLeadTime)},
	{actor: ActorOwner, from: StatePending, action: ActionCancelReview, to: StateCanceled},
	{actor: ActorModerator, from: StatePending, action: ActionPublishEvent, to: StatePublished, guard: leadTimeGuard(ModeratorLeadTime)},
	{actor: ActorModerator, from: StatePending, action: ActionRejectEvent, to: StateCanceled},
}

// Transition decides whether actor may apply action to an event currently in
// state with the given start time. It is a pure function: on success the
// target state is returned, on rejection the zero state and an error wrapping
// ErrConflict, ErrConditionsNotMet or ErrInvalidInput.
func Transition(state EventState, actor Actor, action StateAction, now, eventDate time.Time) (EventState, error) {
	if _, err := ParseStateAction(string(action)); err != nil {
		return "", err
	}

	// PUBLISHED and CANCELED are terminal from the moderator's side,
	// whatever the requested action.
	if actor == ActorModerator {
		switch state {
		case StatePublished:
			return "", fmt.Errorf("%w: event is already published", ErrConflict)
		case StateCanceled:
			return "", fmt.Errorf("%w: event is already canceled", ErrConflict)
		}
	}

	for _, rule := range transitionTable {
		if rule.actor != actor || rule.from != state || rule.action != action {
			continue
		}
		if rule.guard != nil {
			if err := rule.guard(now, eventDate); err != nil {
				return "", err
			}
		}
		return rule.to, nil
	}
	return "", fmt.Errorf("%w: %s may not apply %s to a %s event", ErrConflict, actor, action, state)
}
