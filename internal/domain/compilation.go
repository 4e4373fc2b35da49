package domain

import "context"

// Compilation is a curated, optionally pinned set of event references.
type Compilation struct {
	ID       int64
	Title    string
	Pinned   bool
	EventIDs []int64
}

// CompilationView is the read projection with the referenced events resolved
// through the same aggregation pipeline as event listings.
// swagger:model CompilationView
type CompilationView struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	Pinned bool            `json:"pinned"`
	Events []*EventSummary `json:"events"`
}

// NewCompilation is the draft accepted when an administrator creates a
// compilation. Event ids that do not exist are dropped silently.
type NewCompilation struct {
	Title    string
	Pinned   bool
	EventIDs []int64
}

// CompilationPatch is a partial update; nil fields are left untouched. A nil
// EventIDs slice keeps the current membership (an empty non-nil slice clears
// it).
type CompilationPatch struct {
	Title    *string
	Pinned   *bool
	EventIDs []int64
}

// CompilationRepository defines storage operations for compilations and
// their event membership.
type CompilationRepository interface {
	Find(ctx context.Context, pinned *bool, page Page) ([]*Compilation, error)
	FindByID(ctx context.Context, id int64) (*Compilation, error)
	Create(ctx context.Context, c *Compilation) error
	// Update replaces the stored title, pinned flag and membership.
	Update(ctx context.Context, c *Compilation) error
	Delete(ctx context.Context, id int64) error
}

// CompilationService exposes compilation reads to everyone and mutations to
// administrators.
type CompilationService interface {
	List(ctx context.Context, pinned *bool, from, size int) ([]*CompilationView, error)
	Get(ctx context.Context, id int64) (*CompilationView, error)
	Create(ctx context.Context, draft NewCompilation) (*CompilationView, error)
	Update(ctx context.Context, id int64, patch CompilationPatch) (*CompilationView, error)
	Delete(ctx context.Context, id int64) error
}
