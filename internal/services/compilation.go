package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventcatalog/internal/domain"
)

type compilationService struct {
	compilations   domain.CompilationRepository
	events         domain.EventRepository
	users          domain.UserDirectory
	categories     domain.CategoryCatalog
	stats          domain.InteractionStats
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewCompilationService(compilations domain.CompilationRepository,
	events domain.EventRepository,
	users domain.UserDirectory,
	categories domain.CategoryCatalog,
	stats domain.InteractionStats,
	logger *slog.Logger,
	timeout time.Duration,
) domain.CompilationService {
	return &compilationService{
		compilations:   compilations,
		events:         events,
		users:          users,
		categories:     categories,
		stats:          stats,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *compilationService) List(ctx context.Context, pinned *bool, from, size int) (views []*domain.CompilationView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "compilations.list")
	defer func() { endSpan(span, err) }()

	page, err := domain.NewPage(from, size)
	if err != nil {
		return nil, err
	}
	comps, err := s.compilations.Find(ctx, pinned, page)
	if err != nil {
		return nil, fmt.Errorf("find compilations: %w", err)
	}
	return s.project(ctx, comps)
}

func (s *compilationService) Get(ctx context.Context, id int64) (view *domain.CompilationView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "compilations.get")
	defer func() { endSpan(span, err) }()

	comp, err := s.compilations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.project(ctx, []*domain.Compilation{comp})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *compilationService) Create(ctx context.Context, draft domain.NewCompilation) (view *domain.CompilationView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "compilations.create")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(draft.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	eventIDs, err := s.existingEventIDs(ctx, draft.EventIDs)
	if err != nil {
		return nil, err
	}

	comp := &domain.Compilation{
		Title:    draft.Title,
		Pinned:   draft.Pinned,
		EventIDs: eventIDs,
	}
	if err = s.compilations.Create(ctx, comp); err != nil {
		return nil, fmt.Errorf("create compilation: %w", err)
	}
	s.logger.Info("compilation created", "compilation_id", comp.ID, "events", len(comp.EventIDs))

	views, err := s.project(ctx, []*domain.Compilation{comp})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *compilationService) Update(ctx context.Context, id int64, patch domain.CompilationPatch) (view *domain.CompilationView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "compilations.update")
	defer func() { endSpan(span, err) }()

	comp, err := s.compilations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		comp.Title = *patch.Title
	}
	if patch.Pinned != nil {
		comp.Pinned = *patch.Pinned
	}
	if patch.EventIDs != nil {
		eventIDs, err := s.existingEventIDs(ctx, patch.EventIDs)
		if err != nil {
			return nil, err
		}
		comp.EventIDs = eventIDs
	}

	if err = s.compilations.Update(ctx, comp); err != nil {
		return nil, err
	}
	s.logger.Info("compilation updated", "compilation_id", comp.ID)

	views, err := s.project(ctx, []*domain.Compilation{comp})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *compilationService) Delete(ctx context.Context, id int64) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "compilations.delete")
	defer func() { endSpan(span, err) }()

	if err = s.compilations.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("compilation deleted", "compilation_id", id)
	return nil
}

// existingEventIDs filters ids down to those the store still has, keeping
// the caller's order. Unknown references are dropped, not rejected.
func (s *compilationService) existingEventIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	events, err := s.events.FindByIDSet(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve compilation events: %w", err)
	}
	known := make(map[int64]struct{}, len(events))
	for _, e := range events {
		known[e.ID] = struct{}{}
	}
	out := make([]int64, 0, len(events))
	for _, id := range ids {
		if _, ok := known[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// project resolves every event referenced by comps through the same fan-out
// used for event listings, then assembles the views.
func (s *compilationService) project(ctx context.Context, comps []*domain.Compilation) ([]*domain.CompilationView, error) {
	idSet := make(map[int64]struct{})
	var ids []int64
	for _, c := range comps {
		for _, id := range c.EventIDs {
			if _, ok := idSet[id]; ok {
				continue
			}
			idSet[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	events, err := s.events.FindByIDSet(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load compilation events: %w", err)
	}
	byID := make(map[int64]*domain.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	refs := resolveRefs(ctx, s.users, s.categories, s.stats, s.logger, events)

	views := make([]*domain.CompilationView, 0, len(comps))
	for _, c := range comps {
		summaries := make([]*domain.EventSummary, 0, len(c.EventIDs))
		for _, id := range c.EventIDs {
			e, ok := byID[id]
			if !ok {
				continue
			}
			summaries = append(summaries, mergeSummary(e, refs, nil))
		}
		views = append(views, &domain.CompilationView{
			ID:     c.ID,
			Title:  c.Title,
			Pinned: c.Pinned,
			Events: summaries,
		})
	}
	return views, nil
}
