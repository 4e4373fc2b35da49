package domain

import "context"

// ActionKind is a user action reported to the interaction engine.
type ActionKind string

const (
	ActionView ActionKind = "VIEW"
	ActionLike ActionKind = "LIKE"
)

// RecommendedEvent is an (event id, score) pair produced by the interaction
// engine. The score is opaque and possibly stale; it is merged per request
// and never persisted.
type RecommendedEvent struct {
	EventID int64   `json:"event_id"`
	Score   float64 `json:"score"`
}

// InteractionStats is the client over the interaction/recommendation engine.
//
// CountsFor omits ids with no recorded interactions; callers treat a missing
// id as score 0.0, never as an error. RecommendationsFor returns pairs in the
// engine's own relevance order, which callers must preserve. RecordAction is
// fire-and-forget: it must never fail or delay the operation it is attached
// to, which is why it takes no context and returns nothing.
type InteractionStats interface {
	CountsFor(ctx context.Context, eventIDs []int64) (map[int64]float64, error)
	RecommendationsFor(ctx context.Context, userID int64, limit int) ([]RecommendedEvent, error)
	RecordAction(actorID, eventID int64, kind ActionKind)
}
