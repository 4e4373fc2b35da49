package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventcatalog/internal/domain"
)

type compilationRepository struct {
	DB *sql.DB
}

func NewCompilationRepository(db *sql.DB) domain.CompilationRepository {
	return &compilationRepository{
		DB: db,
	}
}

func (r *compilationRepository) Find(ctx context.Context, pinned *bool, page domain.Page) ([]*domain.Compilation, error) {
	query := `
		SELECT c.id, c.title, c.pinned,
			COALESCE(array_agg(ce.event_id) FILTER (WHERE ce.event_id IS NOT NULL), '{}')
		FROM compilations c
		LEFT JOIN compilation_events ce ON ce.compilation_id = c.id
	`
	args := []any{}
	n := 1
	if pinned != nil {
		query += fmt.Sprintf(" WHERE c.pinned = $%d", n)
		args = append(args, *pinned)
		n++
	}
	query += fmt.Sprintf(" GROUP BY c.id ORDER BY c.id ASC LIMIT $%d OFFSET $%d", n, n+1)
	args = append(args, page.Size, page.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	comps := make([]*domain.Compilation, 0)
	for rows.Next() {
		c := &domain.Compilation{}
		var ids pq.Int64Array
		if err := rows.Scan(&c.ID, &c.Title, &c.Pinned, &ids); err != nil {
			return nil, err
		}
		c.EventIDs = []int64(ids)
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

func (r *compilationRepository) FindByID(ctx context.Context, id int64) (*domain.Compilation, error) {
	query := `
		SELECT c.id, c.title, c.pinned,
			COALESCE(array_agg(ce.event_id) FILTER (WHERE ce.event_id IS NOT NULL), '{}')
		FROM compilations c
		LEFT JOIN compilation_events ce ON ce.compilation_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`
	c := &domain.Compilation{}
	var ids pq.Int64Array
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Title, &c.Pinned, &ids)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c.EventIDs = []int64(ids)
	return c, nil
}

func (r *compilationRepository) Create(ctx context.Context, c *domain.Compilation) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO compilations (title, pinned) VALUES ($1, $2) RETURNING id`
	if err := tx.QueryRowContext(ctx, query, c.Title, c.Pinned).Scan(&c.ID); err != nil {
		return err
	}
	if err := insertMembership(ctx, tx, c.ID, c.EventIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *compilationRepository) Update(ctx context.Context, c *domain.Compilation) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE compilations SET title = $1, pinned = $2 WHERE id = $3`,
		c.Title, c.Pinned, c.ID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM compilation_events WHERE compilation_id = $1`, c.ID); err != nil {
		return err
	}
	if err := insertMembership(ctx, tx, c.ID, c.EventIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *compilationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM compilations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func insertMembership(ctx context.Context, tx *sql.Tx, compilationID int64, eventIDs []int64) error {
	for _, eventID := range eventIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO compilation_events (compilation_id, event_id) VALUES ($1, $2)`,
			compilationID, eventID); err != nil {
			return err
		}
	}
	return nil
}
