// Package registration normalizes register/deregister results so repeat
// attempts are idempotent from the caller's viewpoint: a conflict from the
// store means the desired end state already holds and is reported as success.
package registration

import (
	"context"
	"errors"

	"github.com/aptr/workshop-engine/internal/model"
)

// Registrar is the slice of the store the helper needs. Implementations
// return model.ErrConflict when the operation was already applied.
type Registrar interface {
	Register(ctx context.Context, workshopID, attendeeID string) error
	Deregister(ctx context.Context, workshopID, attendeeID string) error
}

// Helper mediates register/deregister calls against the store.
type Helper struct {
	store Registrar
}

// NewHelper constructs a Helper over the given store.
func NewHelper(store Registrar) *Helper {
	return &Helper{store: store}
}

// Register registers the attendee for the workshop. An already-registered
// conflict folds into AlreadyRegistered: retrying after a timeout can never
// produce a worse outcome than the first attempt.
func (h *Helper) Register(ctx context.Context, workshopID, attendeeID string) model.RegistrationOutcome {
	err := h.store.Register(ctx, workshopID, attendeeID)
	switch {
	case err == nil:
		return model.RegistrationOutcome{Outcome: model.OutcomeRegistered}
	case errors.Is(err, model.ErrConflict):
		return model.RegistrationOutcome{Outcome: model.OutcomeAlreadyRegistered}
	default:
		return model.RegistrationOutcome{Outcome: model.OutcomeFailed, Detail: err.Error()}
	}
}

// Deregister removes the attendee's registration. A not-registered conflict
// folds into NotRegistered, the symmetric idempotent success.
func (h *Helper) Deregister(ctx context.Context, workshopID, attendeeID string) model.RegistrationOutcome {
	err := h.store.Deregister(ctx, workshopID, attendeeID)
	switch {
	case err == nil:
		return model.RegistrationOutcome{Outcome: model.OutcomeDeregistered}
	case errors.Is(err, model.ErrConflict):
		return model.RegistrationOutcome{Outcome: model.OutcomeNotRegistered}
	default:
		return model.RegistrationOutcome{Outcome: model.OutcomeFailed, Detail: err.Error()}
	}
}
