package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"eventcatalog/internal/domain"
)

var eventTestColumns = []string{
	"id", "title", "annotation", "description", "category_id", "initiator_id",
	"event_date", "created_on", "published_on", "location_lat", "location_lon",
	"paid", "participant_limit", "confirmed_requests", "request_moderation", "state", "version",
}

func eventRow(rows *sqlmock.Rows, e *domain.Event) *sqlmock.Rows {
	var published any
	if e.PublishedOn != nil {
		published = *e.PublishedOn
	}
	return rows.AddRow(
		e.ID, e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID,
		e.EventDate, e.CreatedOn, published, e.Location.Lat, e.Location.Lon,
		e.Paid, e.ParticipantLimit, e.ConfirmedRequests, e.RequestModeration, e.State, e.Version,
	)
}

func testEvent(id int64) *domain.Event {
	return &domain.Event{
		ID:                id,
		Title:             "go conf",
		Annotation:        "annual go conference",
		Description:       "talks and workshops",
		CategoryID:        2,
		InitiatorID:       7,
		EventDate:         time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC),
		CreatedOn:         time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		Paid:              true,
		ParticipantLimit:  100,
		ConfirmedRequests: 10,
		RequestModeration: true,
		State:             domain.StatePublished,
		Version:           3,
	}
}

func TestEventRepository_FindByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		id      int64
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "found",
			id:   1,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WithArgs(int64(1)).
					WillReturnRows(eventRow(sqlmock.NewRows(eventTestColumns), testEvent(1)))
			},
		},
		{
			name: "missing id maps to ErrNotFound",
			id:   99,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WithArgs(int64(99)).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "db error surfaces",
			id:   1,
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE id = \$1`).
					WithArgs(int64(1)).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
			require.NoError(t, err)
			defer db.Close()
			tt.mock(mock)

			repo := NewEventRepository(db)
			e, err := repo.FindByID(ctx, tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.id, e.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Find(t *testing.T) {
	ctx := context.Background()
	rangeStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("public view filters to published and adds text predicate", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`event_date >= \$1 AND \(title ILIKE \$2 OR annotation ILIKE \$2 OR description ILIKE \$2\) AND state = \$3`).
			WithArgs(rangeStart, "%conf%", domain.StatePublished, 10, 0).
			WillReturnRows(eventRow(sqlmock.NewRows(eventTestColumns), testEvent(1)))

		repo := NewEventRepository(db)
		events, err := repo.Find(ctx, domain.EventFilter{Text: "conf", RangeStart: rangeStart}, domain.Page{Number: 0, Size: 10}, false)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin view with every predicate and event_date ordering", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		rangeEnd := rangeStart.Add(72 * time.Hour)
		paid := true
		mock.ExpectQuery(`event_date >= \$1 AND event_date < \$2 AND category_id = ANY\(\$3\) AND paid = \$4 AND \(participant_limit = 0 OR confirmed_requests < participant_limit\)(.|\n)*ORDER BY event_date ASC`).
			WithArgs(rangeStart, rangeEnd, pq.Array([]int64{2, 3}), true, 20, 20).
			WillReturnRows(sqlmock.NewRows(eventTestColumns))

		repo := NewEventRepository(db)
		events, err := repo.Find(ctx, domain.EventFilter{
			CategoryIDs:   []int64{2, 3},
			Paid:          &paid,
			RangeStart:    rangeStart,
			RangeEnd:      &rangeEnd,
			OnlyAvailable: true,
			AdminView:     true,
		}, domain.Page{Number: 1, Size: 20}, true)
		require.NoError(t, err)
		require.Empty(t, events)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_FindByOwnerAndID(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM events WHERE id = \$1 AND initiator_id = \$2`).
		WithArgs(int64(5), int64(8)).
		WillReturnError(sql.ErrNoRows)

	repo := NewEventRepository(db)
	_, err = repo.FindByOwnerAndID(ctx, 8, 5)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_FindByIDSet(t *testing.T) {
	ctx := context.Background()

	t.Run("empty id set short-circuits without a query", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		repo := NewEventRepository(db)
		events, err := repo.FindByIDSet(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, events)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing ids are omitted", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		rows := eventRow(sqlmock.NewRows(eventTestColumns), testEvent(1))
		rows = eventRow(rows, testEvent(3))
		mock.ExpectQuery(`FROM events WHERE id = ANY\(\$1\)`).
			WithArgs(pq.Array([]int64{1, 2, 3})).
			WillReturnRows(rows)

		repo := NewEventRepository(db)
		events, err := repo.FindByIDSet(ctx, []int64{1, 2, 3})
		require.NoError(t, err)
		require.Len(t, events, 2)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	e := testEvent(0)
	e.State = domain.StatePending
	mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(
			e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID,
			e.EventDate, e.CreatedOn, e.Location.Lat, e.Location.Lon,
			e.Paid, e.ParticipantLimit, e.ConfirmedRequests, e.RequestModeration, e.State,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version"}).AddRow(int64(42), int64(0)))

	repo := NewEventRepository(db)
	require.NoError(t, repo.Create(ctx, e))
	require.Equal(t, int64(42), e.ID)
	require.Equal(t, int64(0), e.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("matching version advances", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		e := testEvent(1)
		mock.ExpectQuery(`UPDATE events SET`).
			WithArgs(
				e.Title, e.Annotation, e.Description, e.CategoryID,
				e.EventDate, e.PublishedOn, e.Location.Lat, e.Location.Lon,
				e.Paid, e.ParticipantLimit, e.ConfirmedRequests,
				e.RequestModeration, e.State, e.ID, e.Version,
			).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

		repo := NewEventRepository(db)
		require.NoError(t, repo.Update(ctx, e))
		require.Equal(t, int64(4), e.Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version maps to ErrConflict", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		e := testEvent(1)
		mock.ExpectQuery(`UPDATE events SET`).
			WillReturnError(sql.ErrNoRows)
		current := testEvent(1)
		current.Version = e.Version + 1
		mock.ExpectQuery(`FROM events WHERE id = \$1`).
			WithArgs(e.ID).
			WillReturnRows(eventRow(sqlmock.NewRows(eventTestColumns), current))

		repo := NewEventRepository(db)
		require.ErrorIs(t, repo.Update(ctx, e), domain.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleted event maps to ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
		require.NoError(t, err)
		defer db.Close()

		e := testEvent(1)
		mock.ExpectQuery(`UPDATE events SET`).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`FROM events WHERE id = \$1`).
			WithArgs(e.ID).
			WillReturnError(sql.ErrNoRows)

		repo := NewEventRepository(db)
		require.ErrorIs(t, repo.Update(ctx, e), domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
