// Package repository implements the workshop store on PostgreSQL.
// It uses pgx directly (no ORM) for transparency and performance.
//
// Lifecycle state is never stored: the bucket queries derive it from the date
// columns with the same day-precision rules the classifier uses, so the two
// can never drift apart.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aptr/workshop-engine/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbconn is the subset of *pgxpool.Pool the repositories use. Tests stub it;
// production code always passes the pool.
type dbconn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WorkshopRepository handles persistence for workshop records.
type WorkshopRepository struct {
	db dbconn
}

// NewWorkshopRepository constructs a WorkshopRepository.
func NewWorkshopRepository(db *pgxpool.Pool) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

const workshopColumns = `id, title, topic, objective, description, instructions,
	tutors, start_date, end_date, created_at`

func scanWorkshop(row pgx.Row) (model.Workshop, error) {
	var w model.Workshop
	var start, end time.Time
	err := row.Scan(&w.ID, &w.Title, &w.Topic, &w.Objective, &w.Description,
		&w.Instructions, &w.Tutors, &start, &end, &w.CreatedAt)
	if err != nil {
		return model.Workshop{}, err
	}
	w.StartDate = model.DateOf(start)
	w.EndDate = model.DateOf(end)
	return w, nil
}

// Create inserts a validated workshop and returns it with a generated UUID.
func (r *WorkshopRepository) Create(ctx context.Context, w model.Workshop) (model.Workshop, error) {
	w.ID = uuid.New().String()
	w.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO workshops (id, title, topic, objective, description, instructions,
		 tutors, start_date, end_date, deleted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10)`,
		w.ID, w.Title, w.Topic, w.Objective, w.Description, w.Instructions,
		w.Tutors, w.StartDate.Time, w.EndDate.Time, w.CreatedAt,
	)
	if err != nil {
		return model.Workshop{}, fmt.Errorf("insert workshop: %w", err)
	}
	return w, nil
}

// FetchWorkshops returns all non-deleted workshops in a bucket, soonest
// start first. The bucket predicate mirrors the classifier:
// upcoming start > today, completed end < today, ongoing otherwise.
func (r *WorkshopRepository) FetchWorkshops(ctx context.Context, bucket model.LifecycleState) ([]model.Workshop, error) {
	var predicate string
	switch bucket {
	case model.StateUpcoming:
		predicate = `start_date > CURRENT_DATE`
	case model.StateOngoing:
		predicate = `start_date <= CURRENT_DATE AND end_date >= CURRENT_DATE`
	case model.StateCompleted:
		predicate = `end_date < CURRENT_DATE`
	default:
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+workshopColumns+`
		 FROM workshops
		 WHERE NOT deleted AND `+predicate+`
		 ORDER BY start_date ASC, created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s workshops: %w", bucket, err)
	}
	defer rows.Close()

	var workshops []model.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workshop: %w", err)
		}
		w.State = bucket
		workshops = append(workshops, w)
	}
	return workshops, rows.Err()
}

// GetByID returns a single non-deleted workshop or model.ErrNotFound.
func (r *WorkshopRepository) GetByID(ctx context.Context, id string) (model.Workshop, error) {
	w, err := scanWorkshop(r.db.QueryRow(ctx,
		`SELECT `+workshopColumns+`
		 FROM workshops WHERE id = $1 AND NOT deleted`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Workshop{}, model.ErrNotFound
		}
		return model.Workshop{}, fmt.Errorf("get workshop: %w", err)
	}
	return w, nil
}

// UpdateWorkshop overwrites a workshop record with an already-validated one.
func (r *WorkshopRepository) UpdateWorkshop(ctx context.Context, id string, w model.Workshop) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE workshops
		 SET title = $2, topic = $3, objective = $4, description = $5,
		     instructions = $6, tutors = $7, start_date = $8, end_date = $9
		 WHERE id = $1 AND NOT deleted`,
		id, w.Title, w.Topic, w.Objective, w.Description,
		w.Instructions, w.Tutors, w.StartDate.Time, w.EndDate.Time,
	)
	if err != nil {
		return fmt.Errorf("update workshop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// SoftDelete marks a workshop deleted so it disappears from every fetch.
// Deleting twice is a conflict, like the other already-applied operations.
// The check and the flip happen in one statement, so concurrent deletes
// serialize on the row and exactly one of them wins.
func (r *WorkshopRepository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE workshops SET deleted = true WHERE id = $1 AND NOT deleted`, id,
	)
	if err != nil {
		return fmt.Errorf("delete workshop: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// No row flipped: the workshop is missing or already deleted.
	var deleted bool
	err = r.db.QueryRow(ctx,
		`SELECT deleted FROM workshops WHERE id = $1`, id,
	).Scan(&deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("check workshop: %w", err)
	}
	return fmt.Errorf("workshop %s already deleted: %w", id, model.ErrConflict)
}
