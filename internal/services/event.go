package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"eventcatalog/internal/domain"
)

var tracer = otel.Tracer("eventcatalog/services")

// recommendationLimit caps how many ranked events are requested from the
// interaction engine per user.
const recommendationLimit = 10

type eventService struct {
	events         domain.EventRepository
	users          domain.UserDirectory
	categories     domain.CategoryCatalog
	stats          domain.InteractionStats
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(events domain.EventRepository,
	users domain.UserDirectory,
	categories domain.CategoryCatalog,
	stats domain.InteractionStats,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		events:         events,
		users:          users,
		categories:     categories,
		stats:          stats,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// endSpan closes span, recording err when the operation failed.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *eventService) List(ctx context.Context, q domain.EventListQuery) (views []*domain.EventView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.list")
	defer func() { endSpan(span, err) }()

	start := time.Now()
	if q.RangeStart != nil {
		start = *q.RangeStart
	}
	if q.RangeEnd != nil && start.After(*q.RangeEnd) {
		return nil, fmt.Errorf("%w: range start is after range end", domain.ErrInvalidInput)
	}
	page, err := domain.NewPage(q.From, q.Size)
	if err != nil {
		return nil, err
	}

	filter := domain.EventFilter{
		Text:          q.Text,
		CategoryIDs:   q.CategoryIDs,
		Paid:          q.Paid,
		RangeStart:    start,
		RangeEnd:      q.RangeEnd,
		OnlyAvailable: q.OnlyAvailable,
		AdminView:     q.AdminView,
	}
	// One query per logical page: the result backs both the reference-id
	// extraction and the output, so a concurrent write cannot split the
	// page in two.
	events, err := s.events.Find(ctx, filter, page, q.Sort == domain.SortEventDate)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}

	refs := s.resolveRefs(ctx, events)
	views = make([]*domain.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, mergeView(e, refs))
	}

	if q.Sort == domain.SortRating {
		// Descending by score; ties broken by ascending id so repeated
		// calls return the same order.
		sort.SliceStable(views, func(i, j int) bool {
			if views[i].Rating != views[j].Rating {
				return views[i].Rating > views[j].Rating
			}
			return views[i].ID < views[j].ID
		})
	}
	return views, nil
}

func (s *eventService) Get(ctx context.Context, eventID int64, viewerID *int64) (view *domain.EventView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.get")
	defer func() { endSpan(span, err) }()

	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	// Unpublished events are invisible to anyone but their owner; report
	// them exactly like missing ones so their existence does not leak.
	if e.State != domain.StatePublished && (viewerID == nil || *viewerID != e.InitiatorID) {
		return nil, fmt.Errorf("%w: event %d", domain.ErrNotFound, eventID)
	}

	view = mergeView(e, s.resolveRefs(ctx, []*domain.Event{e}))

	if viewerID != nil {
		s.stats.RecordAction(*viewerID, e.ID, domain.ActionView)
	}
	return view, nil
}

func (s *eventService) ListByOwner(ctx context.Context, ownerID int64, from, size int) (summaries []*domain.EventSummary, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.list_by_owner")
	defer func() { endSpan(span, err) }()

	owner, err := s.users.ResolveOne(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	page, err := domain.NewPage(from, size)
	if err != nil {
		return nil, err
	}
	events, err := s.events.FindByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, fmt.Errorf("find events by owner: %w", err)
	}

	refs := s.resolveRefs(ctx, events)
	// The owner is already resolved; no need to trust the batch for it.
	refs.users[owner.ID] = owner

	summaries = make([]*domain.EventSummary, 0, len(events))
	for _, e := range events {
		summaries = append(summaries, mergeSummary(e, refs, nil))
	}
	return summaries, nil
}

func (s *eventService) GetOwned(ctx context.Context, ownerID, eventID int64) (view *domain.EventView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.get_owned")
	defer func() { endSpan(span, err) }()

	// Missing and not-owned are deliberately the same answer.
	e, err := s.events.FindByOwnerAndID(ctx, ownerID, eventID)
	if err != nil {
		return nil, err
	}
	return mergeView(e, s.resolveRefs(ctx, []*domain.Event{e})), nil
}

func (s *eventService) Recommendations(ctx context.Context, userID int64) (summaries []*domain.EventSummary, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.recommendations")
	defer func() { endSpan(span, err) }()

	if _, err = s.users.ResolveOne(ctx, userID); err != nil {
		return nil, err
	}

	recs, err := s.stats.RecommendationsFor(ctx, userID, recommendationLimit)
	if err != nil {
		// Recommendation outages degrade to an empty list.
		s.logger.Warn("recommendations unavailable", "user_id", userID, "err", err)
		return []*domain.EventSummary{}, nil
	}

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.EventID)
	}
	events, err := s.events.FindByIDSet(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate recommendations: %w", err)
	}
	byID := make(map[int64]*domain.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	refs := s.resolveRefs(ctx, events)

	// Output follows the engine's relevance order, not the store's; ids
	// the store no longer has are dropped without comment.
	summaries = make([]*domain.EventSummary, 0, len(recs))
	for _, rec := range recs {
		e, ok := byID[rec.EventID]
		if !ok {
			continue
		}
		score := rec.Score
		summaries = append(summaries, mergeSummary(e, refs, &score))
	}
	return summaries, nil
}

func (s *eventService) Create(ctx context.Context, ownerID int64, draft domain.NewEvent) (view *domain.EventView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.create")
	defer func() { endSpan(span, err) }()

	owner, err := s.users.ResolveOne(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	category, err := s.categories.ResolveOne(ctx, draft.CategoryID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !draft.EventDate.After(now.Add(domain.OwnerLeadTime)) {
		return nil, fmt.Errorf("%w: event must start more than %s from now", domain.ErrConditionsNotMet, domain.OwnerLeadTime)
	}
	if draft.ParticipantLimit < 0 {
		return nil, fmt.Errorf("%w: participant limit must not be negative", domain.ErrInvalidInput)
	}

	e := &domain.Event{
		Title:             draft.Title,
		Annotation:        draft.Annotation,
		Description:       draft.Description,
		CategoryID:        draft.CategoryID,
		InitiatorID:       ownerID,
		EventDate:         draft.EventDate,
		CreatedOn:         now,
		Location:          draft.Location,
		ParticipantLimit:  draft.ParticipantLimit,
		RequestModeration: true,
		State:             domain.StatePending,
	}
	if draft.Paid != nil {
		e.Paid = *draft.Paid
	}
	if draft.RequestModeration != nil {
		e.RequestModeration = *draft.RequestModeration
	}

	if err = s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", "event_id", e.ID, "initiator_id", ownerID)

	return &domain.EventView{
		ID:                e.ID,
		Title:             e.Title,
		Annotation:        e.Annotation,
		Description:       e.Description,
		Category:          category,
		Initiator:         owner.Short(),
		EventDate:         e.EventDate,
		CreatedOn:         e.CreatedOn,
		Location:          e.Location,
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		RequestModeration: e.RequestModeration,
		State:             e.State,
	}, nil
}

func (s *eventService) Update(ctx context.Context, ownerID, eventID int64, patch domain.EventPatch) (view *domain.EventView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.update")
	defer func() { endSpan(span, err) }()

	if _, err = s.users.ResolveOne(ctx, ownerID); err != nil {
		return nil, err
	}
	e, err := s.events.FindByOwnerAndID(ctx, ownerID, eventID)
	if err != nil {
		return nil, err
	}
	if e.State == domain.StatePublished {
		return nil, fmt.Errorf("%w: only pending or canceled events can be changed", domain.ErrConflict)
	}

	if err = s.applyPatch(ctx, e, patch); err != nil {
		return nil, err
	}

	// The lead time is re-checked only when the date itself changes;
	// SEND_TO_REVIEW carries its own guard inside Transition, and other
	// edits of a soon-starting draft are allowed.
	now := time.Now()
	if patch.EventDate != nil && !e.EventDate.After(now.Add(domain.OwnerLeadTime)) {
		return nil, fmt.Errorf("%w: event must start more than %s from now", domain.ErrConditionsNotMet, domain.OwnerLeadTime)
	}

	if patch.StateAction != nil {
		next, terr := domain.Transition(e.State, domain.ActorOwner, *patch.StateAction, now, e.EventDate)
		if terr != nil {
			return nil, terr
		}
		e.State = next
	}

	if err = s.events.Update(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("event updated", "event_id", e.ID, "initiator_id", ownerID, "state", e.State)

	return mergeView(e, s.resolveRefs(ctx, []*domain.Event{e})), nil
}

func (s *eventService) Moderate(ctx context.Context, eventID int64, patch domain.EventPatch) (view *domain.EventView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.moderate")
	defer func() { endSpan(span, err) }()

	e, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if patch.StateAction == nil && e.State != domain.StatePending {
		// Field-level moderator edits only make sense while the event is
		// on review; state changes go through the transition table below.
		switch e.State {
		case domain.StatePublished:
			return nil, fmt.Errorf("%w: event is already published", domain.ErrConflict)
		default:
			return nil, fmt.Errorf("%w: event is already canceled", domain.ErrConflict)
		}
	}

	if err = s.applyPatch(ctx, e, patch); err != nil {
		return nil, err
	}

	now := time.Now()
	if patch.EventDate != nil && !e.EventDate.After(now.Add(domain.ModeratorLeadTime)) {
		return nil, fmt.Errorf("%w: event must start more than %s from now", domain.ErrConditionsNotMet, domain.ModeratorLeadTime)
	}

	if patch.StateAction != nil {
		next, terr := domain.Transition(e.State, domain.ActorModerator, *patch.StateAction, now, e.EventDate)
		if terr != nil {
			return nil, terr
		}
		if next == domain.StatePublished && e.PublishedOn == nil {
			published := now
			e.PublishedOn = &published
		}
		e.State = next
	}

	// The compare-and-swap in Update is what turns two racing moderation
	// requests into one winner and one ErrConflict.
	if err = s.events.Update(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("event moderated", "event_id", e.ID, "state", e.State)

	return mergeView(e, s.resolveRefs(ctx, []*domain.Event{e})), nil
}

func (s *eventService) CheckOwnership(ctx context.Context, eventID, ownerID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	_, err := s.events.FindByOwnerAndID(ctx, ownerID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *eventService) Like(ctx context.Context, eventID, actorID int64) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.like")
	defer func() { endSpan(span, err) }()

	if _, err = s.events.FindByID(ctx, eventID); err != nil {
		return err
	}
	if _, err = s.users.ResolveOne(ctx, actorID); err != nil {
		return err
	}
	s.stats.RecordAction(actorID, eventID, domain.ActionLike)
	return nil
}

func (s *eventService) ApplyFull(ctx context.Context, full *domain.EventSync) (view *domain.EventView, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "events.apply_full")
	defer func() { endSpan(span, err) }()

	e, err := s.events.FindByID(ctx, full.ID)
	if err != nil {
		return nil, err
	}

	// Omitted payload fields keep their stored values.
	if full.Title != "" {
		e.Title = full.Title
	}
	if full.Annotation != "" {
		e.Annotation = full.Annotation
	}
	if full.Description != "" {
		e.Description = full.Description
	}
	if full.Category != nil && full.Category.ID != 0 {
		e.CategoryID = full.Category.ID
	}
	if !full.EventDate.IsZero() {
		e.EventDate = full.EventDate
	}
	if full.PublishedOn != nil {
		e.PublishedOn = full.PublishedOn
	}
	if full.Location != nil {
		e.Location = *full.Location
	}
	if full.ParticipantLimit != nil {
		if *full.ParticipantLimit < 0 {
			return nil, fmt.Errorf("%w: participant limit must not be negative", domain.ErrInvalidInput)
		}
		e.ParticipantLimit = *full.ParticipantLimit
	}
	if full.ConfirmedRequests != nil {
		e.ConfirmedRequests = *full.ConfirmedRequests
	}
	if full.Paid != nil {
		e.Paid = *full.Paid
	}
	if full.RequestModeration != nil {
		e.RequestModeration = *full.RequestModeration
	}
	if full.State != "" {
		e.State = full.State
	}

	// The registration subsystem owns this invariant; refuse writes that
	// would break it rather than storing an impossible counter.
	if e.ParticipantLimit > 0 && e.ConfirmedRequests > e.ParticipantLimit {
		return nil, fmt.Errorf("%w: confirmed requests %d exceed participant limit %d",
			domain.ErrConflict, e.ConfirmedRequests, e.ParticipantLimit)
	}

	if err = s.events.Update(ctx, e); err != nil {
		return nil, err
	}
	return mergeView(e, s.resolveRefs(ctx, []*domain.Event{e})), nil
}

// applyPatch copies the non-nil patch fields onto e. A patched category must
// exist in the catalog.
func (s *eventService) applyPatch(ctx context.Context, e *domain.Event, p domain.EventPatch) error {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Annotation != nil {
		e.Annotation = *p.Annotation
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.CategoryID != nil {
		if _, err := s.categories.ResolveOne(ctx, *p.CategoryID); err != nil {
			return err
		}
		e.CategoryID = *p.CategoryID
	}
	if p.EventDate != nil {
		e.EventDate = *p.EventDate
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Paid != nil {
		e.Paid = *p.Paid
	}
	if p.ParticipantLimit != nil {
		if *p.ParticipantLimit < 0 {
			return fmt.Errorf("%w: participant limit must not be negative", domain.ErrInvalidInput)
		}
		e.ParticipantLimit = *p.ParticipantLimit
	}
	if p.RequestModeration != nil {
		e.RequestModeration = *p.RequestModeration
	}
	return nil
}

// refData is the per-request reference data merged into output records.
type refData struct {
	users      map[int64]*domain.User
	categories map[int64]*domain.Category
	scores     map[int64]float64
}

func (s *eventService) resolveRefs(ctx context.Context, events []*domain.Event) refData {
	return resolveRefs(ctx, s.users, s.categories, s.stats, s.logger, events)
}

// resolveRefs batch-resolves the distinct initiators, categories and scores
// referenced by events. The three upstream calls run concurrently, and each
// degrades to an empty result on failure: a read page is never failed by a
// missing reference, the gap is logged and merged as null/0.0 instead.
func resolveRefs(ctx context.Context, users domain.UserDirectory, categories domain.CategoryCatalog,
	stats domain.InteractionStats, logger *slog.Logger, events []*domain.Event) refData {
	userIDs := make([]int64, 0, len(events))
	categoryIDs := make([]int64, 0, len(events))
	eventIDs := make([]int64, 0, len(events))
	seenUsers := make(map[int64]struct{})
	seenCategories := make(map[int64]struct{})
	for _, e := range events {
		eventIDs = append(eventIDs, e.ID)
		if _, ok := seenUsers[e.InitiatorID]; !ok {
			seenUsers[e.InitiatorID] = struct{}{}
			userIDs = append(userIDs, e.InitiatorID)
		}
		if _, ok := seenCategories[e.CategoryID]; !ok {
			seenCategories[e.CategoryID] = struct{}{}
			categoryIDs = append(categoryIDs, e.CategoryID)
		}
	}

	refs := refData{
		users:      map[int64]*domain.User{},
		categories: map[int64]*domain.Category{},
		scores:     map[int64]float64{},
	}
	if len(events) == 0 {
		return refs
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := users.ResolveMany(gctx, userIDs)
		if err != nil {
			logger.Warn("identity batch resolve degraded", "err", err)
			return nil
		}
		refs.users = m
		return nil
	})
	g.Go(func() error {
		m, err := categories.ResolveMany(gctx, categoryIDs)
		if err != nil {
			logger.Warn("category batch resolve degraded", "err", err)
			return nil
		}
		refs.categories = m
		return nil
	})
	g.Go(func() error {
		m, err := stats.CountsFor(gctx, eventIDs)
		if err != nil {
			logger.Warn("interaction counts degraded", "err", err)
			return nil
		}
		refs.scores = m
		return nil
	})
	_ = g.Wait()
	return refs
}

// mergeView builds the full projection of e from the resolved references.
// A missing score merges as exactly 0.0.
func mergeView(e *domain.Event, refs refData) *domain.EventView {
	v := &domain.EventView{
		ID:                e.ID,
		Title:             e.Title,
		Annotation:        e.Annotation,
		Description:       e.Description,
		EventDate:         e.EventDate,
		CreatedOn:         e.CreatedOn,
		PublishedOn:       e.PublishedOn,
		Location:          e.Location,
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		ConfirmedRequests: e.ConfirmedRequests,
		RequestModeration: e.RequestModeration,
		State:             e.State,
		Rating:            refs.scores[e.ID],
	}
	if c, ok := refs.categories[e.CategoryID]; ok {
		v.Category = c
	}
	if u, ok := refs.users[e.InitiatorID]; ok {
		v.Initiator = u.Short()
	}
	return v
}

// mergeSummary builds the short projection of e. When score is non-nil it
// overrides the batch-resolved rating (recommendations carry their own).
func mergeSummary(e *domain.Event, refs refData, score *float64) *domain.EventSummary {
	v := &domain.EventSummary{
		ID:                e.ID,
		Title:             e.Title,
		Annotation:        e.Annotation,
		EventDate:         e.EventDate,
		Location:          e.Location,
		Paid:              e.Paid,
		ParticipantLimit:  e.ParticipantLimit,
		ConfirmedRequests: e.ConfirmedRequests,
		State:             e.State,
		Rating:            refs.scores[e.ID],
	}
	if score != nil {
		v.Rating = *score
	}
	if c, ok := refs.categories[e.CategoryID]; ok {
		v.Category = c
	}
	if u, ok := refs.users[e.InitiatorID]; ok {
		v.Initiator = u.Short()
	}
	return v
}
