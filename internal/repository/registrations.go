package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aptr/workshop-engine/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationRepository handles persistence for registrations and the
// feedback each registration may carry.
type RegistrationRepository struct {
	db dbconn
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Register creates a registration for the (workshop, attendee) pair.
//
// The workshop row is locked with SELECT ... FOR UPDATE so two concurrent
// registrations for the same pair serialize: the second transaction sees the
// first one's insert and reports model.ErrConflict instead of creating a
// duplicate. At most one active registration can exist per pair.
func (r *RegistrationRepository) Register(ctx context.Context, workshopID, attendeeID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var deleted bool
	err = tx.QueryRow(ctx,
		`SELECT deleted FROM workshops WHERE id = $1 FOR UPDATE`,
		workshopID,
	).Scan(&deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lock workshop row: %w", err)
	}
	if deleted {
		// Assign through err so the deferred rollback releases the
		// connection back to the pool.
		err = model.ErrNotFound
		return err
	}

	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE workshop_id = $1 AND attendee_id = $2`,
		workshopID, attendeeID,
	).Scan(&dupCount)
	if err != nil {
		return fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		err = fmt.Errorf("attendee %s already registered for workshop %s: %w",
			attendeeID, workshopID, model.ErrConflict)
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, workshop_id, attendee_id, registered_at, feedback_given)
		 VALUES ($1, $2, $3, $4, false)`,
		uuid.New().String(), workshopID, attendeeID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Deregister removes the registration for the (workshop, attendee) pair.
// A missing registration is reported as model.ErrConflict so the caller can
// fold it into an idempotent success.
func (r *RegistrationRepository) Deregister(ctx context.Context, workshopID, attendeeID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM registrations WHERE workshop_id = $1 AND attendee_id = $2`,
		workshopID, attendeeID,
	)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attendee %s not registered for workshop %s: %w",
			attendeeID, workshopID, model.ErrConflict)
	}
	return nil
}

// ListAttendees returns all attendees registered for a workshop, earliest
// registration first.
func (r *RegistrationRepository) ListAttendees(ctx context.Context, workshopID string) ([]model.Attendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.name, a.email
		 FROM registrations reg
		 JOIN attendees a ON a.id = reg.attendee_id
		 WHERE reg.workshop_id = $1
		 ORDER BY reg.registered_at ASC`,
		workshopID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var attendees []model.Attendee
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.ID, &a.Name, &a.Email); err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

// FetchAttendances returns the attendee's registrations whose workshop has
// completed, each with a workshop snapshot for presentation.
func (r *RegistrationRepository) FetchAttendances(ctx context.Context, attendeeID string) ([]model.Attendance, error) {
	rows, err := r.db.Query(ctx,
		`SELECT reg.attendee_id, reg.registered_at,
		        w.id, w.title, w.topic, w.objective, w.description, w.instructions,
		        w.tutors, w.start_date, w.end_date, w.created_at
		 FROM registrations reg
		 JOIN workshops w ON w.id = reg.workshop_id
		 WHERE reg.attendee_id = $1 AND NOT w.deleted AND w.end_date < CURRENT_DATE
		 ORDER BY w.end_date ASC`,
		attendeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	defer rows.Close()

	var attendances []model.Attendance
	for rows.Next() {
		var a model.Attendance
		var start, end time.Time
		err := rows.Scan(&a.AttendeeID, &a.RegisteredAt,
			&a.Workshop.ID, &a.Workshop.Title, &a.Workshop.Topic,
			&a.Workshop.Objective, &a.Workshop.Description, &a.Workshop.Instructions,
			&a.Workshop.Tutors, &start, &end, &a.Workshop.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		a.Workshop.StartDate = model.DateOf(start)
		a.Workshop.EndDate = model.DateOf(end)
		a.WorkshopID = a.Workshop.ID
		attendances = append(attendances, a)
	}
	return attendances, rows.Err()
}

// FetchFeedback returns the attendee's feedback for one workshop, or
// model.ErrNotFound when none has been submitted.
func (r *RegistrationRepository) FetchFeedback(ctx context.Context, attendeeID, workshopID string) (*model.Feedback, error) {
	var f model.Feedback
	err := r.db.QueryRow(ctx,
		`SELECT attendee_id, workshop_id, rating, comment, feedback_at
		 FROM registrations
		 WHERE attendee_id = $1 AND workshop_id = $2 AND feedback_given`,
		attendeeID, workshopID,
	).Scan(&f.AttendeeID, &f.WorkshopID, &f.Rating, &f.Comment, &f.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return &f, nil
}

// ListFeedbackByAttendee returns every feedback the attendee has submitted.
func (r *RegistrationRepository) ListFeedbackByAttendee(ctx context.Context, attendeeID string) ([]model.Feedback, error) {
	rows, err := r.db.Query(ctx,
		`SELECT attendee_id, workshop_id, rating, comment, feedback_at
		 FROM registrations
		 WHERE attendee_id = $1 AND feedback_given`,
		attendeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var feedback []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.AttendeeID, &f.WorkshopID, &f.Rating, &f.Comment, &f.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		feedback = append(feedback, f)
	}
	return feedback, rows.Err()
}

// SubmitFeedback records a rating and comment on the attendee's registration.
// The registration row is locked so a double submission serializes; the
// second attempt finds feedback_given already set and reports
// model.ErrConflict, preserving the at-most-one-feedback-per-pair rule.
func (r *RegistrationRepository) SubmitFeedback(ctx context.Context, attendeeID, workshopID string, rating int, comment string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var given bool
	err = tx.QueryRow(ctx,
		`SELECT feedback_given FROM registrations
		 WHERE attendee_id = $1 AND workshop_id = $2
		 FOR UPDATE`,
		attendeeID, workshopID,
	).Scan(&given)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lock registration row: %w", err)
	}
	if given {
		// Assign through err so the deferred rollback releases the
		// connection back to the pool.
		err = fmt.Errorf("feedback already submitted for workshop %s: %w",
			workshopID, model.ErrConflict)
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE registrations
		 SET rating = $3, comment = $4, feedback_given = true, feedback_at = $5
		 WHERE attendee_id = $1 AND workshop_id = $2`,
		attendeeID, workshopID, rating, comment, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store feedback: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// FeedbackSummary aggregates all feedback for one workshop.
func (r *RegistrationRepository) FeedbackSummary(ctx context.Context, workshopID string) (model.FeedbackSummary, error) {
	var summary model.FeedbackSummary
	var start, end time.Time
	err := r.db.QueryRow(ctx,
		`SELECT id, title, start_date, end_date
		 FROM workshops WHERE id = $1 AND NOT deleted`,
		workshopID,
	).Scan(&summary.WorkshopID, &summary.Title, &start, &end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.FeedbackSummary{}, model.ErrNotFound
		}
		return model.FeedbackSummary{}, fmt.Errorf("get workshop: %w", err)
	}
	summary.StartDate = model.DateOf(start)
	summary.EndDate = model.DateOf(end)

	rows, err := r.db.Query(ctx,
		`SELECT a.name, reg.rating, reg.comment
		 FROM registrations reg
		 JOIN attendees a ON a.id = reg.attendee_id
		 WHERE reg.workshop_id = $1 AND reg.feedback_given
		 ORDER BY reg.feedback_at ASC`,
		workshopID,
	)
	if err != nil {
		return model.FeedbackSummary{}, fmt.Errorf("list workshop feedback: %w", err)
	}
	defer rows.Close()

	var total int
	for rows.Next() {
		var entry model.FeedbackEntry
		if err := rows.Scan(&entry.AttendeeName, &entry.Rating, &entry.Comment); err != nil {
			return model.FeedbackSummary{}, fmt.Errorf("scan feedback entry: %w", err)
		}
		total += entry.Rating
		summary.Entries = append(summary.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return model.FeedbackSummary{}, err
	}

	summary.Count = len(summary.Entries)
	if summary.Count > 0 {
		summary.AverageRating = float64(total) / float64(summary.Count)
	}
	return summary, nil
}
