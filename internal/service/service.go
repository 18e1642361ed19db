// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer. Lifecycle classification
// and edit validation live in internal/lifecycle; this layer applies them
// before anything touches the store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aptr/workshop-engine/internal/engagement"
	"github.com/aptr/workshop-engine/internal/lifecycle"
	"github.com/aptr/workshop-engine/internal/model"
	"github.com/aptr/workshop-engine/internal/registration"
)

// WorkshopService orchestrates workshop, registration, and feedback
// operations.
type WorkshopService struct {
	workshops     WorkshopStore
	registrations RegistrationStore
	helper        *registration.Helper
	policy        engagement.Policy
	log           *slog.Logger
	clock         func() time.Time
}

// NewWorkshopService constructs a WorkshopService with its dependencies.
func NewWorkshopService(
	workshops WorkshopStore,
	registrations RegistrationStore,
	policy engagement.Policy,
	log *slog.Logger,
) *WorkshopService {
	if policy == "" {
		policy = engagement.PolicyAdvisory
	}
	return &WorkshopService{
		workshops:     workshops,
		registrations: registrations,
		helper:        registration.NewHelper(registrations),
		policy:        policy,
		log:           log,
		clock:         time.Now,
	}
}

// ListWorkshops returns all workshops in a bucket.
func (s *WorkshopService) ListWorkshops(ctx context.Context, bucket model.LifecycleState) ([]model.Workshop, error) {
	return s.workshops.FetchWorkshops(ctx, bucket)
}

// GetWorkshop returns one workshop with its derived state attached.
func (s *WorkshopService) GetWorkshop(ctx context.Context, id string) (model.Workshop, error) {
	w, err := s.workshops.GetByID(ctx, id)
	if err != nil {
		return model.Workshop{}, err
	}
	state, err := lifecycle.Classify(w.StartDate, w.EndDate, s.clock())
	if err != nil {
		return model.Workshop{}, fmt.Errorf("classify workshop %s: %w", id, err)
	}
	w.State = state
	return w, nil
}

// CreateWorkshop validates a proposal and persists it.
func (s *WorkshopService) CreateWorkshop(ctx context.Context, proposed model.WorkshopEdit) (model.Workshop, error) {
	now := s.clock()
	w, err := lifecycle.ValidateNew(proposed, now)
	if err != nil {
		return model.Workshop{}, err
	}
	state, err := lifecycle.Classify(w.StartDate, w.EndDate, now)
	if err != nil {
		return model.Workshop{}, err
	}

	created, err := s.workshops.Create(ctx, w)
	if err != nil {
		return model.Workshop{}, err
	}
	created.State = state
	s.log.Info("workshop created", "workshop_id", created.ID, "state", state)
	return created, nil
}

// EditWorkshop validates a proposal against the workshop's current lifecycle
// state and persists the normalized record.
func (s *WorkshopService) EditWorkshop(ctx context.Context, id string, proposed model.WorkshopEdit) (model.Workshop, error) {
	original, err := s.workshops.GetByID(ctx, id)
	if err != nil {
		return model.Workshop{}, err
	}

	now := s.clock()
	validated, err := lifecycle.ValidateEdit(original, proposed, now)
	if err != nil {
		return model.Workshop{}, err
	}
	if err := s.workshops.UpdateWorkshop(ctx, id, validated); err != nil {
		return model.Workshop{}, err
	}

	validated.State, _ = lifecycle.Classify(validated.StartDate, validated.EndDate, now)
	s.log.Info("workshop updated", "workshop_id", id, "state", validated.State)
	return validated, nil
}

// EditConstraints reports which fields of a workshop may currently be edited.
// This is a hint for form rendering; EditWorkshop re-validates regardless.
func (s *WorkshopService) EditConstraints(ctx context.Context, id string) (model.EditConstraintSet, error) {
	w, err := s.workshops.GetByID(ctx, id)
	if err != nil {
		return model.EditConstraintSet{}, err
	}
	now := s.clock()
	state, err := lifecycle.Classify(w.StartDate, w.EndDate, now)
	if err != nil {
		return model.EditConstraintSet{}, err
	}
	return lifecycle.ConstraintsFor(state, w, now), nil
}

// DeleteWorkshop soft-deletes a workshop.
func (s *WorkshopService) DeleteWorkshop(ctx context.Context, id string) error {
	if err := s.workshops.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info("workshop deleted", "workshop_id", id)
	return nil
}

// RegisterAttendee registers an attendee for a workshop that has not yet
// completed. The returned outcome is idempotent: repeat calls report
// AlreadyRegistered, never an error.
func (s *WorkshopService) RegisterAttendee(ctx context.Context, workshopID, attendeeID string) (model.RegistrationOutcome, error) {
	if err := s.requireNotCompleted(ctx, workshopID); err != nil {
		return model.RegistrationOutcome{}, err
	}
	outcome := s.helper.Register(ctx, workshopID, attendeeID)
	s.log.Info("register attempt", "workshop_id", workshopID, "attendee_id", attendeeID, "outcome", outcome.Outcome)
	return outcome, nil
}

// DeregisterAttendee removes an attendee's registration; completed workshops
// keep their registrations since those are attendance records.
func (s *WorkshopService) DeregisterAttendee(ctx context.Context, workshopID, attendeeID string) (model.RegistrationOutcome, error) {
	if err := s.requireNotCompleted(ctx, workshopID); err != nil {
		return model.RegistrationOutcome{}, err
	}
	outcome := s.helper.Deregister(ctx, workshopID, attendeeID)
	s.log.Info("deregister attempt", "workshop_id", workshopID, "attendee_id", attendeeID, "outcome", outcome.Outcome)
	return outcome, nil
}

func (s *WorkshopService) requireNotCompleted(ctx context.Context, workshopID string) error {
	w, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return err
	}
	state, err := lifecycle.Classify(w.StartDate, w.EndDate, s.clock())
	if err != nil {
		return err
	}
	if state == model.StateCompleted {
		return model.ErrWorkshopCompleted
	}
	return nil
}

// ListRegistrations returns the attendees registered for a workshop.
func (s *WorkshopService) ListRegistrations(ctx context.Context, workshopID string) ([]model.Attendee, error) {
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	return s.registrations.ListAttendees(ctx, workshopID)
}

// AttendedWorkshops returns the workshops an attendee attended to completion.
func (s *WorkshopService) AttendedWorkshops(ctx context.Context, attendeeID string) ([]model.Workshop, error) {
	attendances, err := s.registrations.FetchAttendances(ctx, attendeeID)
	if err != nil {
		return nil, err
	}
	workshops := make([]model.Workshop, 0, len(attendances))
	for _, a := range attendances {
		w := a.Workshop
		w.State = model.StateCompleted
		workshops = append(workshops, w)
	}
	return workshops, nil
}

// PendingFeedback returns the attendee's obligation queue, oldest completion
// first, and whether the configured policy blocks other actions while it is
// non-empty.
func (s *WorkshopService) PendingFeedback(ctx context.Context, attendeeID string) ([]model.Obligation, bool, error) {
	attendances, err := s.registrations.FetchAttendances(ctx, attendeeID)
	if err != nil {
		return nil, false, err
	}
	feedback, err := s.registrations.ListFeedbackByAttendee(ctx, attendeeID)
	if err != nil {
		return nil, false, err
	}

	queue := engagement.PendingObligations(attendances, feedback, s.clock())
	blocked := s.policy == engagement.PolicyBlocking && len(queue) > 0
	return queue, blocked, nil
}

// SubmitFeedback validates and records an attendee's feedback for a
// completed workshop.
func (s *WorkshopService) SubmitFeedback(ctx context.Context, attendeeID, workshopID string, rating int, comment string) error {
	if err := engagement.ValidateRating(rating); err != nil {
		return err
	}

	w, err := s.workshops.GetByID(ctx, workshopID)
	if err != nil {
		return err
	}
	state, err := lifecycle.Classify(w.StartDate, w.EndDate, s.clock())
	if err != nil {
		return err
	}
	if state != model.StateCompleted {
		return model.ErrFeedbackNotOpen
	}

	if err := s.registrations.SubmitFeedback(ctx, attendeeID, workshopID, rating, comment); err != nil {
		return err
	}
	s.log.Info("feedback submitted", "workshop_id", workshopID, "attendee_id", attendeeID, "rating", rating)
	return nil
}

// WorkshopFeedback returns the aggregated feedback for one workshop.
func (s *WorkshopService) WorkshopFeedback(ctx context.Context, workshopID string) (model.FeedbackSummary, error) {
	return s.registrations.FeedbackSummary(ctx, workshopID)
}
