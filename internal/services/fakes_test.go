package services

import (
	"context"
	"fmt"
	"sync"

	"eventcatalog/internal/domain"
)

// fakeEventRepo is an in-memory EventRepository for tests. Update enforces
// the same version compare-and-swap as the postgres implementation.
type fakeEventRepo struct {
	mu          sync.Mutex
	byID        map[int64]*domain.Event
	nextID      int64
	findCalls   int
	updateCalls int
	findErr     error // if set, read methods return this error
	updateErr   error // if set, Update returns this error
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{
		byID:   make(map[int64]*domain.Event),
		nextID: 1,
	}
	for _, e := range events {
		f.byID[e.ID] = clone(e)
		if e.ID >= f.nextID {
			f.nextID = e.ID + 1
		}
	}
	return f
}

func clone(e *domain.Event) *domain.Event {
	c := *e
	if e.PublishedOn != nil {
		t := *e.PublishedOn
		c.PublishedOn = &t
	}
	return &c
}

func (f *fakeEventRepo) stored(id int64) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.byID[id])
}

func (f *fakeEventRepo) Find(ctx context.Context, filter domain.EventFilter, page domain.Page, byEventDate bool) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]*domain.Event, 0)
	for _, e := range f.byID {
		if !filter.AdminView && e.State != domain.StatePublished {
			continue
		}
		out = append(out, clone(e))
	}
	return out, nil
}

func (f *fakeEventRepo) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	if e, ok := f.byID[id]; ok {
		return clone(e), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) FindByOwnerAndID(ctx context.Context, ownerID, id int64) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.byID[id]; ok && e.InitiatorID == ownerID {
		return clone(e), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) FindByOwner(ctx context.Context, ownerID int64, page domain.Page) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Event, 0)
	for _, e := range f.byID {
		if e.InitiatorID == ownerID {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

func (f *fakeEventRepo) FindByIDSet(ctx context.Context, ids []int64) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]*domain.Event, 0)
	for _, id := range ids {
		if e, ok := f.byID[id]; ok {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = f.nextID
	f.nextID++
	e.Version = 0
	f.byID[e.ID] = clone(e)
	return nil
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.byID[e.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != e.Version {
		return fmt.Errorf("%w: event %d was modified concurrently", domain.ErrConflict, e.ID)
	}
	e.Version++
	f.byID[e.ID] = clone(e)
	return nil
}

// fakeDirectory is an in-memory UserDirectory.
type fakeDirectory struct {
	users    map[int64]*domain.User
	batchErr error // if set, ResolveMany returns this error
}

func newFakeDirectory(users ...*domain.User) *fakeDirectory {
	f := &fakeDirectory{users: make(map[int64]*domain.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeDirectory) ResolveMany(ctx context.Context, ids []int64) (map[int64]*domain.User, error) {
	if len(ids) == 0 {
		return map[int64]*domain.User{}, nil
	}
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make(map[int64]*domain.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeDirectory) ResolveOne(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("%w: user %d", domain.ErrUserNotFound, id)
}

// fakeCatalog is an in-memory CategoryCatalog.
type fakeCatalog struct {
	categories map[int64]*domain.Category
	batchErr   error
}

func newFakeCatalog(categories ...*domain.Category) *fakeCatalog {
	f := &fakeCatalog{categories: make(map[int64]*domain.Category)}
	for _, c := range categories {
		f.categories[c.ID] = c
	}
	return f
}

func (f *fakeCatalog) ResolveMany(ctx context.Context, ids []int64) (map[int64]*domain.Category, error) {
	if len(ids) == 0 {
		return map[int64]*domain.Category{}, nil
	}
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make(map[int64]*domain.Category)
	for _, id := range ids {
		if c, ok := f.categories[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (f *fakeCatalog) ResolveOne(ctx context.Context, id int64) (*domain.Category, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: category %d", domain.ErrCategoryNotFound, id)
}

type recordedAction struct {
	actorID int64
	eventID int64
	kind    domain.ActionKind
}

// fakeStats is an in-memory InteractionStats.
type fakeStats struct {
	mu        sync.Mutex
	counts    map[int64]float64
	countsErr error
	recs      []domain.RecommendedEvent
	recsErr   error
	recorded  []recordedAction
}

func (f *fakeStats) CountsFor(ctx context.Context, eventIDs []int64) (map[int64]float64, error) {
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	out := make(map[int64]float64)
	for _, id := range eventIDs {
		if score, ok := f.counts[id]; ok {
			out[id] = score
		}
	}
	return out, nil
}

func (f *fakeStats) RecommendationsFor(ctx context.Context, userID int64, limit int) ([]domain.RecommendedEvent, error) {
	if f.recsErr != nil {
		return nil, f.recsErr
	}
	if len(f.recs) > limit {
		return f.recs[:limit], nil
	}
	return f.recs, nil
}

func (f *fakeStats) RecordAction(actorID, eventID int64, kind domain.ActionKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, recordedAction{actorID: actorID, eventID: eventID, kind: kind})
}

func (f *fakeStats) actions() []recordedAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedAction(nil), f.recorded...)
}

// fakeCompilationRepo is an in-memory CompilationRepository.
type fakeCompilationRepo struct {
	byID   map[int64]*domain.Compilation
	nextID int64
}

func newFakeCompilationRepo(comps ...*domain.Compilation) *fakeCompilationRepo {
	f := &fakeCompilationRepo{
		byID:   make(map[int64]*domain.Compilation),
		nextID: 1,
	}
	for _, c := range comps {
		f.byID[c.ID] = c
		if c.ID >= f.nextID {
			f.nextID = c.ID + 1
		}
	}
	return f
}

func (f *fakeCompilationRepo) Find(ctx context.Context, pinned *bool, page domain.Page) ([]*domain.Compilation, error) {
	out := make([]*domain.Compilation, 0)
	for _, c := range f.byID {
		if pinned != nil && c.Pinned != *pinned {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCompilationRepo) FindByID(ctx context.Context, id int64) (*domain.Compilation, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCompilationRepo) Create(ctx context.Context, c *domain.Compilation) error {
	c.ID = f.nextID
	f.nextID++
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCompilationRepo) Update(ctx context.Context, c *domain.Compilation) error {
	if _, ok := f.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCompilationRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}
