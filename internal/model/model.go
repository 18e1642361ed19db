// Package model defines the core domain types for the workshop engine.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LifecycleState is the derived temporal state of a workshop. It is never
// stored; it is recomputed from the workshop dates on every evaluation.
type LifecycleState string

const (
	StateUpcoming  LifecycleState = "UPCOMING"
	StateOngoing   LifecycleState = "ONGOING"
	StateCompleted LifecycleState = "COMPLETED"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date with day precision, anchored at midnight UTC.
// Time-of-day never participates in comparisons.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{t.UTC()}, nil
}

// DateOf truncates an instant to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// String formats the date back into YYYY-MM-DD form.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseBucket maps a wire-form bucket name onto its lifecycle state.
func ParseBucket(s string) (LifecycleState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upcoming":
		return StateUpcoming, nil
	case "ongoing":
		return StateOngoing, nil
	case "completed":
		return StateCompleted, nil
	default:
		return "", fmt.Errorf("unknown bucket %q", s)
	}
}

// Workshop is a workshop record as owned by the store. The engine reads these
// and proposes validated mutations; it never mutates them in place.
type Workshop struct {
	ID           string         `json:"workshopId"`
	Title        string         `json:"title"`
	Topic        string         `json:"topic"`
	Objective    string         `json:"objective"`
	Description  string         `json:"description"`
	Instructions string         `json:"instructions"`
	Tutors       []string       `json:"tutors"`
	StartDate    Date           `json:"startDate"`
	EndDate      Date           `json:"endDate"`
	State        LifecycleState `json:"state,omitempty"`
	CreatedAt    time.Time      `json:"createdAt,omitzero"`
}

// TutorList accepts either a JSON array of names or a single comma-joined
// string; both arrive from clients in the wild.
type TutorList []string

// UnmarshalJSON decodes a list of names or a comma-joined string.
func (t *TutorList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(b, &joined); err != nil {
		return err
	}
	*t = strings.Split(joined, ",")
	return nil
}

// Normalize trims every name and drops blanks, preserving order.
func (t TutorList) Normalize() []string {
	out := make([]string, 0, len(t))
	for _, name := range t {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// WorkshopEdit is a proposed create or update. Dates stay raw strings so the
// classifier owns parsing and can reject malformed input uniformly.
type WorkshopEdit struct {
	Title        string    `json:"title"`
	Topic        string    `json:"topic"`
	Objective    string    `json:"objective"`
	Description  string    `json:"description"`
	Instructions string    `json:"instructions"`
	Tutors       TutorList `json:"tutors"`
	StartDate    string    `json:"startDate"`
	EndDate      string    `json:"endDate"`
}

// EditConstraintSet tells a caller which fields it should let the user modify
// for a workshop in a given state. It is a presentation hint only; ValidateEdit
// re-checks every proposal regardless of what the caller disabled.
type EditConstraintSet struct {
	State    LifecycleState `json:"state"`
	Editable []string       `json:"editable"`
	// Floors are the minimum allowed values for editable date fields. A date
	// field absent from Editable must not change at all.
	StartFloor *Date `json:"startFloor,omitempty"`
	EndFloor   *Date `json:"endFloor,omitempty"`
}

// Attendance records that an attendee registered for a workshop and the
// workshop completed while they were registered. Created by the store, only
// read here.
type Attendance struct {
	AttendeeID   string    `json:"attendeeId"`
	WorkshopID   string    `json:"workshopId"`
	Workshop     Workshop  `json:"workshop"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Feedback is a submitted rating and comment for an attended workshop.
// At most one exists per (attendee, workshop) pair.
type Feedback struct {
	AttendeeID  string    `json:"attendeeId"`
	WorkshopID  string    `json:"workshopId"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// FeedbackEntry is one attendee's feedback inside a workshop summary.
type FeedbackEntry struct {
	AttendeeName string `json:"attendeeName"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
}

// FeedbackSummary aggregates all feedback submitted for one workshop.
type FeedbackSummary struct {
	WorkshopID    string          `json:"workshopId"`
	Title         string          `json:"title"`
	StartDate     Date            `json:"startDate"`
	EndDate       Date            `json:"endDate"`
	AverageRating float64         `json:"averageRating"`
	Count         int             `json:"count"`
	Entries       []FeedbackEntry `json:"entries"`
}

// Obligation is a pending requirement to submit feedback for an attended,
// completed workshop. Display fields are denormalized so callers can present
// the queue without further fetches.
type Obligation struct {
	WorkshopID string `json:"workshopId"`
	Title      string `json:"title"`
	Topic      string `json:"topic"`
	StartDate  Date   `json:"startDate"`
	EndDate    Date   `json:"endDate"`
}

// Outcome classifies the normalized result of a register/deregister attempt.
type Outcome string

const (
	OutcomeRegistered        Outcome = "REGISTERED"
	OutcomeAlreadyRegistered Outcome = "ALREADY_REGISTERED"
	OutcomeDeregistered      Outcome = "DEREGISTERED"
	OutcomeNotRegistered     Outcome = "NOT_REGISTERED"
	OutcomeFailed            Outcome = "FAILED"
)

// RegistrationOutcome makes register/deregister idempotent from the caller's
// viewpoint: a repeat of an already-applied operation reports success, never
// a conflict error.
type RegistrationOutcome struct {
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

// OK reports whether the outcome is any flavor of success.
func (o RegistrationOutcome) OK() bool {
	return o.Outcome != OutcomeFailed
}

// Attendee is a registered attendee account.
type Attendee struct {
	ID    string `json:"attendeeId"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
