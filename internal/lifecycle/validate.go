package lifecycle

import (
	"strings"
	"time"

	"github.com/aptr/workshop-engine/internal/model"
)

// ValidateEdit checks a proposed edit against the constraints of the
// workshop's current state and returns the normalized record to persist.
// Checks run in a fixed order and the first failure wins:
//
//  1. title and topic non-empty after trimming
//  2. tutors non-empty after trimming and dropping blanks
//  3. proposed end strictly after proposed start
//  4. state-specific date rules (see ConstraintsFor)
//
// The state is re-derived from the original dates, never trusted from the
// caller, so a client that ignored the constraint hints is still rejected.
func ValidateEdit(original model.Workshop, proposed model.WorkshopEdit, now time.Time) (model.Workshop, error) {
	title := strings.TrimSpace(proposed.Title)
	if title == "" {
		return model.Workshop{}, model.NewValidationError(model.ReasonTitleRequired, "title is required")
	}
	topic := strings.TrimSpace(proposed.Topic)
	if topic == "" {
		return model.Workshop{}, model.NewValidationError(model.ReasonTopicRequired, "topic is required")
	}
	tutors := proposed.Tutors.Normalize()
	if len(tutors) == 0 {
		return model.Workshop{}, model.NewValidationError(model.ReasonTutorsRequired, "at least one tutor is required")
	}

	start, err := model.ParseDate(proposed.StartDate)
	if err != nil {
		return model.Workshop{}, err
	}
	end, err := model.ParseDate(proposed.EndDate)
	if err != nil {
		return model.Workshop{}, err
	}
	if !end.After(start.Time) {
		return model.Workshop{}, model.NewValidationError(model.ReasonEndNotAfterStart, "end date must be after start date")
	}

	state, err := Classify(original.StartDate, original.EndDate, now)
	if err != nil {
		return model.Workshop{}, err
	}
	today := model.DateOf(now)

	switch state {
	case model.StateCompleted:
		if !start.Equal(original.StartDate.Time) || !end.Equal(original.EndDate.Time) {
			return model.Workshop{}, model.NewValidationError(model.ReasonCompletedDatesImmutable,
				"dates cannot be modified for completed workshops")
		}
	case model.StateOngoing:
		if !start.Equal(original.StartDate.Time) {
			return model.Workshop{}, model.NewValidationError(model.ReasonOngoingStartImmutable,
				"start date cannot be modified for ongoing workshops")
		}
		if end.Before(today.Time) {
			return model.Workshop{}, model.NewValidationError(model.ReasonOngoingEndInPast,
				"end date must be today or later for ongoing workshops")
		}
	default: // Upcoming
		if start.Before(today.Time) || end.Before(today.Time) {
			return model.Workshop{}, model.NewValidationError(model.ReasonUpcomingDateInPast,
				"dates must be today or later for upcoming workshops")
		}
	}

	return model.Workshop{
		ID:           original.ID,
		Title:        title,
		Topic:        topic,
		Objective:    strings.TrimSpace(proposed.Objective),
		Description:  strings.TrimSpace(proposed.Description),
		Instructions: strings.TrimSpace(proposed.Instructions),
		Tutors:       tutors,
		StartDate:    start,
		EndDate:      end,
		CreatedAt:    original.CreatedAt,
	}, nil
}

// ValidateNew checks a proposed workshop creation. New workshops follow the
// Upcoming/Ongoing rules relative to today: neither date may be in the past,
// and end must be strictly after start.
func ValidateNew(proposed model.WorkshopEdit, now time.Time) (model.Workshop, error) {
	today := model.DateOf(now)
	// Validate against a synthetic upcoming original so the required-field
	// and ordering checks run identically to an edit.
	original := model.Workshop{
		StartDate: model.Date{Time: today.AddDate(0, 0, 1)},
		EndDate:   model.Date{Time: today.AddDate(0, 0, 2)},
	}
	return ValidateEdit(original, proposed, now)
}
