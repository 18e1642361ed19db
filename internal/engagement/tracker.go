// Package engagement tracks an attendee's pending feedback obligations: the
// workshops they attended to completion but have not yet rated. One Tracker
// serves one attendee session; the queue is never shared across sessions.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aptr/workshop-engine/internal/lifecycle"
	"github.com/aptr/workshop-engine/internal/model"
)

// ErrNoObligationSelected is returned when Submit or Cancel is called without
// a selected obligation. That is caller misuse, not a user-facing condition.
var ErrNoObligationSelected = errors.New("no obligation is selected")

// ErrSelectionInProgress is returned when Select is called while an
// obligation is already being collected; Cancel first.
var ErrSelectionInProgress = errors.New("an obligation is already selected")

// Phase is the tracker's position in the feedback-collection flow.
type Phase string

const (
	// PhaseIdle means the attendee has no pending obligations.
	PhaseIdle Phase = "IDLE"
	// PhaseAwaitingSelection means obligations exist but none is chosen.
	PhaseAwaitingSelection Phase = "AWAITING_SELECTION"
	// PhaseCollecting means one obligation is presented for feedback entry.
	PhaseCollecting Phase = "COLLECTING"
)

// Policy decides how hard pending obligations press on the attendee.
type Policy string

const (
	// PolicyAdvisory surfaces the queue as a badge the attendee opens
	// voluntarily. This is the default.
	PolicyAdvisory Policy = "ADVISORY"
	// PolicyBlocking withholds all other actions until the queue is empty.
	PolicyBlocking Policy = "BLOCKING"
)

// FeedbackSubmitter persists a single feedback record. The store enforces the
// at-most-one-feedback-per-pair rule; the tracker does not re-check it.
type FeedbackSubmitter interface {
	SubmitFeedback(ctx context.Context, attendeeID, workshopID string, rating int, comment string) error
}

// ValidateRating checks that a rating is within the accepted 0..5 range.
func ValidateRating(rating int) error {
	if rating < 0 || rating > 5 {
		return model.ErrInvalidRating
	}
	return nil
}

// PendingObligations derives the obligation queue from an attendee's
// attendances and already-submitted feedback. Only workshops that classify as
// Completed qualify, ordered by completion (end date) oldest first.
func PendingObligations(attendances []model.Attendance, feedback []model.Feedback, now time.Time) []model.Obligation {
	rated := make(map[string]bool, len(feedback))
	for _, f := range feedback {
		rated[f.WorkshopID] = true
	}

	var pending []model.Attendance
	for _, a := range attendances {
		if rated[a.WorkshopID] {
			continue
		}
		state, err := lifecycle.Classify(a.Workshop.StartDate, a.Workshop.EndDate, now)
		if err != nil || state != model.StateCompleted {
			continue
		}
		pending = append(pending, a)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Workshop.EndDate.Before(pending[j].Workshop.EndDate.Time)
	})

	queue := make([]model.Obligation, 0, len(pending))
	for _, a := range pending {
		queue = append(queue, model.Obligation{
			WorkshopID: a.WorkshopID,
			Title:      a.Workshop.Title,
			Topic:      a.Workshop.Topic,
			StartDate:  a.Workshop.StartDate,
			EndDate:    a.Workshop.EndDate,
		})
	}
	return queue
}

// Tracker is the per-attendee obligation state machine. Methods are safe for
// concurrent use within a process, though one session drives it in practice.
type Tracker struct {
	mu         sync.Mutex
	attendeeID string
	store      FeedbackSubmitter
	policy     Policy

	phase    Phase
	queue    []model.Obligation
	selected int
}

// NewTracker constructs an idle tracker for one attendee. An empty policy
// defaults to advisory.
func NewTracker(attendeeID string, store FeedbackSubmitter, policy Policy) *Tracker {
	if policy == "" {
		policy = PolicyAdvisory
	}
	return &Tracker{
		attendeeID: attendeeID,
		store:      store,
		policy:     policy,
		phase:      PhaseIdle,
	}
}

// Load rebuilds the queue from fresh attendance and feedback lists, dropping
// any selection in progress.
func (t *Tracker) Load(attendances []model.Attendance, feedback []model.Feedback, now time.Time) {
	queue := PendingObligations(attendances, feedback, now)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = queue
	t.selected = 0
	if len(queue) == 0 {
		t.phase = PhaseIdle
	} else {
		t.phase = PhaseAwaitingSelection
	}
}

// Phase reports the tracker's current phase.
func (t *Tracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Blocked reports whether the gating policy requires the caller to withhold
// other actions until every obligation is cleared.
func (t *Tracker) Blocked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.policy == PolicyBlocking && t.phase != PhaseIdle
}

// Pending returns a snapshot of the queue in presentation order.
func (t *Tracker) Pending() []model.Obligation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Obligation, len(t.queue))
	copy(out, t.queue)
	return out
}

// Select chooses the obligation at index for feedback entry. Index zero is
// the oldest pending obligation.
func (t *Tracker) Select(index int) (model.Obligation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.phase {
	case PhaseCollecting:
		return model.Obligation{}, ErrSelectionInProgress
	case PhaseIdle:
		return model.Obligation{}, model.ErrIndexOutOfRange
	}
	if index < 0 || index >= len(t.queue) {
		return model.Obligation{}, model.ErrIndexOutOfRange
	}
	t.selected = index
	t.phase = PhaseCollecting
	return t.queue[index], nil
}

// Submit validates and persists feedback for the selected obligation, then
// removes it from the queue. On a store failure the obligation stays selected
// so the attendee can retry.
func (t *Tracker) Submit(ctx context.Context, rating int, comment string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != PhaseCollecting {
		return ErrNoObligationSelected
	}
	if err := ValidateRating(rating); err != nil {
		return err
	}

	obligation := t.queue[t.selected]
	if err := t.store.SubmitFeedback(ctx, t.attendeeID, obligation.WorkshopID, rating, comment); err != nil {
		return fmt.Errorf("submit feedback for workshop %s: %w", obligation.WorkshopID, err)
	}

	t.queue = append(t.queue[:t.selected], t.queue[t.selected+1:]...)
	t.selected = 0
	if len(t.queue) == 0 {
		t.phase = PhaseIdle
	} else {
		t.phase = PhaseAwaitingSelection
	}
	return nil
}

// Cancel abandons the current selection without removing the obligation.
func (t *Tracker) Cancel() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != PhaseCollecting {
		return ErrNoObligationSelected
	}
	t.selected = 0
	t.phase = PhaseAwaitingSelection
	return nil
}
