package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"eventcatalog/internal/domain"
)

const eventColumns = `id, title, annotation, description, category_id, initiator_id,
		event_date, created_on, published_on, location_lat, location_lon,
		paid, participant_limit, confirmed_requests, request_moderation, state, version`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// scanEvent scans one event row in eventColumns order.
func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var publishedNull sql.NullTime
	err := row.Scan(
		&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.InitiatorID,
		&e.EventDate, &e.CreatedOn, &publishedNull, &e.Location.Lat, &e.Location.Lon,
		&e.Paid, &e.ParticipantLimit, &e.ConfirmedRequests, &e.RequestModeration, &e.State, &e.Version,
	)
	if err != nil {
		return nil, err
	}
	if publishedNull.Valid {
		e.PublishedOn = &publishedNull.Time
	}
	return e, nil
}

func (r *eventRepository) Find(ctx context.Context, f domain.EventFilter, page domain.Page, byEventDate bool) ([]*domain.Event, error) {
	where := []string{}
	args := []any{}
	n := 1

	where = append(where, fmt.Sprintf("event_date >= $%d", n))
	args = append(args, f.RangeStart)
	n++

	if f.RangeEnd != nil {
		where = append(where, fmt.Sprintf("event_date < $%d", n))
		args = append(args, *f.RangeEnd)
		n++
	}
	if f.Text != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR annotation ILIKE $%d OR description ILIKE $%d)", n, n, n))
		args = append(args, "%"+f.Text+"%")
		n++
	}
	if len(f.CategoryIDs) > 0 {
		where = append(where, fmt.Sprintf("category_id = ANY($%d)", n))
		args = append(args, pq.Array(f.CategoryIDs))
		n++
	}
	if f.Paid != nil {
		where = append(where, fmt.Sprintf("paid = $%d", n))
		args = append(args, *f.Paid)
		n++
	}
	if f.OnlyAvailable {
		where = append(where, "(participant_limit = 0 OR confirmed_requests < participant_limit)")
	}
	if !f.AdminView {
		where = append(where, fmt.Sprintf("state = $%d", n))
		args = append(args, domain.StatePublished)
		n++
	}

	order := ""
	if byEventDate {
		order = "ORDER BY event_date ASC"
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE %s
		%s
		LIMIT $%d OFFSET $%d
	`, eventColumns, strings.Join(where, " AND "), order, n, n+1)
	args = append(args, page.Size, page.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) FindByOwnerAndID(ctx context.Context, ownerID, id int64) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1 AND initiator_id = $2`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) FindByOwner(ctx context.Context, ownerID int64, page domain.Page) ([]*domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE initiator_id = $1
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`, eventColumns)
	rows, err := r.DB.QueryContext(ctx, query, ownerID, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) FindByIDSet(ctx context.Context, ids []int64) ([]*domain.Event, error) {
	if len(ids) == 0 {
		return []*domain.Event{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = ANY($1)`, eventColumns)
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, annotation, description, category_id, initiator_id,
			event_date, created_on, location_lat, location_lon,
			paid, participant_limit, confirmed_requests, request_moderation, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, version
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID,
		e.EventDate, e.CreatedOn, e.Location.Lat, e.Location.Lon,
		e.Paid, e.ParticipantLimit, e.ConfirmedRequests, e.RequestModeration, e.State,
	).Scan(&e.ID, &e.Version)
}

// Update writes the whole record guarded by the version column. Two
// concurrent moderation requests can both pass their precondition check
// against a stale read; the compare-and-swap makes exactly one of them win.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events SET
			title = $1, annotation = $2, description = $3, category_id = $4,
			event_date = $5, published_on = $6, location_lat = $7, location_lon = $8,
			paid = $9, participant_limit = $10, confirmed_requests = $11,
			request_moderation = $12, state = $13, version = version + 1
		WHERE id = $14 AND version = $15
		RETURNING version
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Title, e.Annotation, e.Description, e.CategoryID,
		e.EventDate, e.PublishedOn, e.Location.Lat, e.Location.Lon,
		e.Paid, e.ParticipantLimit, e.ConfirmedRequests,
		e.RequestModeration, e.State, e.ID, e.Version,
	).Scan(&e.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	// No row matched: either the event is gone or the version moved.
	if _, lookupErr := r.FindByID(ctx, e.ID); lookupErr != nil {
		return lookupErr
	}
	return fmt.Errorf("%w: event %d was modified concurrently", domain.ErrConflict, e.ID)
}
