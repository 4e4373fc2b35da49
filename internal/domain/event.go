package domain

import (
	"context"
	"time"
)

// EventState is the moderation state of an event.
type EventState string

const (
	StatePending   EventState = "PENDING"
	StatePublished EventState = "PUBLISHED"
	StateCanceled  EventState = "CANCELED"
)

// Location is the venue coordinates of an event.
// swagger:model Location
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is the locally-owned catalog record. Rating is request-scoped: it is
// filled from the interaction engine while building a response and is never
// persisted. Version backs the compare-and-swap on updates.
type Event struct {
	ID                int64
	Title             string
	Annotation        string
	Description       string
	CategoryID        int64
	InitiatorID       int64
	EventDate         time.Time
	CreatedOn         time.Time
	PublishedOn       *time.Time
	Location          Location
	Paid              bool
	ParticipantLimit  int
	ConfirmedRequests int
	RequestModeration bool
	State             EventState
	Version           int64
	Rating            float64
}

// EventSort selects the ordering of a public listing. SortEventDate is
// applied by the store; SortRating is applied after merging scores.
type EventSort string

const (
	SortNone      EventSort = ""
	SortEventDate EventSort = "EVENT_DATE"
	SortRating    EventSort = "RATING"
)

// EventFilter is the normalized predicate set for EventRepository.Find.
// RangeStart is always set (defaulted to "now" by the service); RangeEnd is
// exclusive and optional.
type EventFilter struct {
	Text          string
	CategoryIDs   []int64
	Paid          *bool
	RangeStart    time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	// AdminView exposes all moderation states; otherwise only PUBLISHED
	// events are visible.
	AdminView bool
}

// EventRepository defines storage operations for events.
//
// Find must issue exactly one query per call: the returned slice is reused
// both for reference-id extraction and for output construction, so a second
// query could observe a different page under concurrent writes.
type EventRepository interface {
	Find(ctx context.Context, filter EventFilter, page Page, byEventDate bool) ([]*Event, error)
	FindByID(ctx context.Context, id int64) (*Event, error)
	// FindByOwnerAndID returns ErrNotFound unless the event exists and
	// belongs to ownerID.
	FindByOwnerAndID(ctx context.Context, ownerID, id int64) (*Event, error)
	FindByOwner(ctx context.Context, ownerID int64, page Page) ([]*Event, error)
	// FindByIDSet silently omits ids that do not exist.
	FindByIDSet(ctx context.Context, ids []int64) ([]*Event, error)
	Create(ctx context.Context, e *Event) error
	// Update persists e only if the stored version still equals e.Version
	// (compare-and-swap); a lost race returns ErrConflict. On success
	// e.Version is advanced.
	Update(ctx context.Context, e *Event) error
}

// EventView is the full merged read projection: the stored record plus the
// resolved category, initiator and interaction score. Category and Initiator
// are nil when the owning service could not resolve them.
// swagger:model EventView
type EventView struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	Category          *Category  `json:"category"`
	Initiator         *UserShort `json:"initiator"`
	EventDate         time.Time  `json:"event_date"`
	CreatedOn         time.Time  `json:"created_on"`
	PublishedOn       *time.Time `json:"published_on"`
	Location          Location   `json:"location"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participant_limit"`
	ConfirmedRequests int        `json:"confirmed_requests"`
	RequestModeration bool       `json:"request_moderation"`
	State             EventState `json:"state"`
	Rating            float64    `json:"rating"`
}

// EventSummary is the short projection used in owner listings,
// recommendations and compilations.
// swagger:model EventSummary
type EventSummary struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Category          *Category  `json:"category"`
	Initiator         *UserShort `json:"initiator"`
	EventDate         time.Time  `json:"event_date"`
	Location          Location   `json:"location"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participant_limit"`
	ConfirmedRequests int        `json:"confirmed_requests"`
	State             EventState `json:"state"`
	Rating            float64    `json:"rating"`
}

// NewEvent is the draft accepted when an initiator creates an event.
// Paid and RequestModeration default to false and true when nil.
type NewEvent struct {
	Title             string
	Annotation        string
	Description       string
	CategoryID        int64
	EventDate         time.Time
	Location          Location
	Paid              *bool
	ParticipantLimit  int
	RequestModeration *bool
}

// EventPatch is a partial update. Nil fields are left untouched; a patch
// never clears an existing field by omission.
type EventPatch struct {
	Title             *string
	Annotation        *string
	Description       *string
	CategoryID        *int64
	EventDate         *time.Time
	Location          *Location
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	StateAction       *StateAction
}

// EventSync is the trusted full-record payload the registration subsystem
// sends to keep counters in step. Pointer fields distinguish "omitted" from
// a zero value so a partial payload never resets stored flags.
type EventSync struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Annotation        string     `json:"annotation"`
	Description       string     `json:"description"`
	Category          *Category  `json:"category"`
	EventDate         time.Time  `json:"event_date"`
	PublishedOn       *time.Time `json:"published_on"`
	Location          *Location  `json:"location"`
	Paid              *bool      `json:"paid"`
	ParticipantLimit  *int       `json:"participant_limit"`
	ConfirmedRequests *int       `json:"confirmed_requests"`
	RequestModeration *bool      `json:"request_moderation"`
	State             EventState `json:"state"`
}

// EventListQuery carries the raw public/admin listing parameters before
// normalization by the service.
type EventListQuery struct {
	Text          string
	CategoryIDs   []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          EventSort
	From          int
	Size          int
	AdminView     bool
}

// EventService is the request-level aggregator over the local store, the
// identity directory, the category catalog and the interaction engine.
type EventService interface {
	List(ctx context.Context, q EventListQuery) ([]*EventView, error)
	// Get masks unpublished events as ErrNotFound unless viewed by their
	// owner, and emits best-effort VIEW telemetry when viewerID is set.
	Get(ctx context.Context, eventID int64, viewerID *int64) (*EventView, error)
	ListByOwner(ctx context.Context, ownerID int64, from, size int) ([]*EventSummary, error)
	GetOwned(ctx context.Context, ownerID, eventID int64) (*EventView, error)
	// Recommendations returns events in the interaction engine's relevance
	// order; ids the store no longer has are dropped silently.
	Recommendations(ctx context.Context, userID int64) ([]*EventSummary, error)
	Create(ctx context.Context, ownerID int64, draft NewEvent) (*EventView, error)
	Update(ctx context.Context, ownerID, eventID int64, patch EventPatch) (*EventView, error)
	// Moderate applies an administrator patch, including publish/reject
	// state actions.
	Moderate(ctx context.Context, eventID int64, patch EventPatch) (*EventView, error)
	CheckOwnership(ctx context.Context, eventID, ownerID int64) (bool, error)
	// Like records a LIKE action for actorID; the emission itself is
	// best-effort.
	Like(ctx context.Context, eventID, actorID int64) error
	// ApplyFull is the trusted write used by the registration subsystem to
	// sync counters. Omitted payload fields keep their stored values; it
	// refuses updates that would leave ConfirmedRequests above a positive
	// ParticipantLimit.
	ApplyFull(ctx context.Context, full *EventSync) (*EventView, error)
}
