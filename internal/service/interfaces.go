package service

import (
	"context"

	"github.com/aptr/workshop-engine/internal/model"
)

// WorkshopStore is the slice of the store the service needs for workshop
// records. The pgx repository implements it.
type WorkshopStore interface {
	Create(ctx context.Context, w model.Workshop) (model.Workshop, error)
	FetchWorkshops(ctx context.Context, bucket model.LifecycleState) ([]model.Workshop, error)
	GetByID(ctx context.Context, id string) (model.Workshop, error)
	UpdateWorkshop(ctx context.Context, id string, w model.Workshop) error
	SoftDelete(ctx context.Context, id string) error
}

// RegistrationStore is the slice of the store covering registrations and the
// feedback they carry.
type RegistrationStore interface {
	Register(ctx context.Context, workshopID, attendeeID string) error
	Deregister(ctx context.Context, workshopID, attendeeID string) error
	ListAttendees(ctx context.Context, workshopID string) ([]model.Attendee, error)
	FetchAttendances(ctx context.Context, attendeeID string) ([]model.Attendance, error)
	FetchFeedback(ctx context.Context, attendeeID, workshopID string) (*model.Feedback, error)
	ListFeedbackByAttendee(ctx context.Context, attendeeID string) ([]model.Feedback, error)
	SubmitFeedback(ctx context.Context, attendeeID, workshopID string, rating int, comment string) error
	FeedbackSummary(ctx context.Context, workshopID string) (model.FeedbackSummary, error)
}
