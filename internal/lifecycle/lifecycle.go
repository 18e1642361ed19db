// Package lifecycle derives a workshop's temporal state from its dates and
// constrains which fields an edit may touch in that state. Everything here is
// a pure function of its inputs; the package never reads the wall clock
// except through defaults the caller can override.
package lifecycle

import (
	"time"

	"github.com/aptr/workshop-engine/internal/model"
)

// Field names as used in EditConstraintSet.Editable. These match the JSON
// field names of model.Workshop.
const (
	FieldTitle        = "title"
	FieldTopic        = "topic"
	FieldObjective    = "objective"
	FieldDescription  = "description"
	FieldInstructions = "instructions"
	FieldTutors       = "tutors"
	FieldStartDate    = "startDate"
	FieldEndDate      = "endDate"
)

var textFields = []string{
	FieldTitle, FieldTopic, FieldObjective,
	FieldDescription, FieldInstructions, FieldTutors,
}

// Classify derives the lifecycle state of a workshop from its dates at the
// reference instant now. Comparison is date-only: now is truncated to its
// calendar date, so same-day time-of-day never changes the answer.
//
// The three states partition the timeline:
//
//	Upcoming  ⇔ start > today
//	Ongoing   ⇔ start ≤ today ≤ end
//	Completed ⇔ end < today
//
// Returns model.ErrInvalidDate unless end is strictly after start.
func Classify(start, end model.Date, now time.Time) (model.LifecycleState, error) {
	if !end.After(start.Time) {
		return "", model.ErrInvalidDate
	}
	today := model.DateOf(now)
	switch {
	case start.After(today.Time):
		return model.StateUpcoming, nil
	case end.Before(today.Time):
		return model.StateCompleted, nil
	default:
		return model.StateOngoing, nil
	}
}

// ConstraintsFor reports which fields of a workshop in the given state may be
// edited, and the floors on its date fields. This is the presentation-time
// hint; ValidateEdit remains the authority on submit.
func ConstraintsFor(state model.LifecycleState, original model.Workshop, now time.Time) model.EditConstraintSet {
	today := model.DateOf(now)
	set := model.EditConstraintSet{State: state}
	switch state {
	case model.StateCompleted:
		// Nothing may change, dates included.
	case model.StateOngoing:
		set.Editable = append(append([]string{}, textFields...), FieldEndDate)
		floor := today
		set.EndFloor = &floor
	default: // Upcoming
		set.Editable = append(append([]string{}, textFields...), FieldStartDate, FieldEndDate)
		startFloor, endFloor := today, today
		set.StartFloor = &startFloor
		set.EndFloor = &endFloor
	}
	return set
}
