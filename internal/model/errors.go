package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDate is returned when a date fails to parse or a workshop's
	// end date is not strictly after its start date.
	ErrInvalidDate = errors.New("invalid date or date range")
	// ErrInvalidRating is returned when a feedback rating is outside 0..5.
	ErrInvalidRating = errors.New("rating must be an integer between 0 and 5")
	// ErrIndexOutOfRange is returned when an obligation selection index does
	// not address the live queue.
	ErrIndexOutOfRange = errors.New("selection index out of range")
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an operation was already applied: duplicate
	// registration, missing registration on deregister, repeat feedback,
	// double delete.
	ErrConflict = errors.New("conflict")
	// ErrWorkshopCompleted is returned when registering or deregistering
	// against a workshop whose lifecycle has already completed.
	ErrWorkshopCompleted = errors.New("workshop already completed")
	// ErrFeedbackNotOpen is returned when feedback is submitted for a
	// workshop that has not completed yet.
	ErrFeedbackNotOpen = errors.New("feedback opens once the workshop completes")
)

// ValidationReason names the specific edit-validation check that failed.
type ValidationReason string

const (
	ReasonTitleRequired           ValidationReason = "TitleRequired"
	ReasonTopicRequired           ValidationReason = "TopicRequired"
	ReasonTutorsRequired          ValidationReason = "TutorsRequired"
	ReasonEndNotAfterStart        ValidationReason = "EndNotAfterStart"
	ReasonCompletedDatesImmutable ValidationReason = "CompletedDatesImmutable"
	ReasonOngoingStartImmutable   ValidationReason = "OngoingStartImmutable"
	ReasonOngoingEndInPast        ValidationReason = "OngoingEndInPast"
	ReasonUpcomingDateInPast      ValidationReason = "UpcomingDateInPast"
)

// ValidationError carries the first edit-validation check that failed so
// callers can surface a specific message without string matching.
type ValidationError struct {
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// NewValidationError constructs a ValidationError for a named reason.
func NewValidationError(reason ValidationReason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
