package domain

import "errors"

// Sentinel errors shared across the service. Callers wrap these with
// fmt.Errorf("...: %w", err) to add detail and match with errors.Is.
var (
	// ErrNotFound covers missing events and compilations, and owner/event
	// mismatches (the two are deliberately indistinguishable to callers).
	ErrNotFound = errors.New("not found")

	// ErrUserNotFound means the identity directory has no such user.
	ErrUserNotFound = errors.New("user not found")

	// ErrCategoryNotFound means the category catalog has no such category.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrConflict covers state-machine rejections, edits of published
	// events, ownership violations and lost version races.
	ErrConflict = errors.New("conflict")

	// ErrConditionsNotMet is a time-dependent rejection (lead-time rules).
	// Unlike ErrConflict it becomes satisfiable as time passes.
	ErrConditionsNotMet = errors.New("conditions not met")

	// ErrInvalidInput covers malformed filters and unknown action literals.
	ErrInvalidInput = errors.New("invalid input")
)
