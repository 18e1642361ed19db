package registration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aptr/workshop-engine/internal/model"
)

// fakeRegistrar keeps registrations in memory and reports conflicts the way
// the postgres store does.
type fakeRegistrar struct {
	registered map[string]bool
	failWith   error
}

func key(workshopID, attendeeID string) string {
	return workshopID + "/" + attendeeID
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{registered: make(map[string]bool)}
}

func (f *fakeRegistrar) Register(_ context.Context, workshopID, attendeeID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if f.registered[key(workshopID, attendeeID)] {
		return fmt.Errorf("attendee %s already registered: %w", attendeeID, model.ErrConflict)
	}
	f.registered[key(workshopID, attendeeID)] = true
	return nil
}

func (f *fakeRegistrar) Deregister(_ context.Context, workshopID, attendeeID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if !f.registered[key(workshopID, attendeeID)] {
		return fmt.Errorf("attendee %s not registered: %w", attendeeID, model.ErrConflict)
	}
	delete(f.registered, key(workshopID, attendeeID))
	return nil
}

func TestRegisterTwiceIsIdempotent(t *testing.T) {
	h := NewHelper(newFakeRegistrar())
	ctx := context.Background()

	first := h.Register(ctx, "ws-1", "att-1")
	if first.Outcome != model.OutcomeRegistered {
		t.Fatalf("first register: %+v", first)
	}
	second := h.Register(ctx, "ws-1", "att-1")
	if second.Outcome != model.OutcomeAlreadyRegistered {
		t.Fatalf("second register: %+v", second)
	}
	if !second.OK() {
		t.Fatal("already-registered must count as success")
	}
}

func TestDeregisterNeverRegisteredIsIdempotent(t *testing.T) {
	h := NewHelper(newFakeRegistrar())

	got := h.Deregister(context.Background(), "ws-1", "att-1")
	if got.Outcome != model.OutcomeNotRegistered {
		t.Fatalf("deregister: %+v", got)
	}
	if !got.OK() {
		t.Fatal("not-registered must count as success")
	}
}

func TestRegisterDeregisterRoundTrip(t *testing.T) {
	h := NewHelper(newFakeRegistrar())
	ctx := context.Background()

	if got := h.Register(ctx, "ws-1", "att-1"); got.Outcome != model.OutcomeRegistered {
		t.Fatalf("register: %+v", got)
	}
	if got := h.Deregister(ctx, "ws-1", "att-1"); got.Outcome != model.OutcomeDeregistered {
		t.Fatalf("deregister: %+v", got)
	}
	// The pair is gone; a repeat folds to NotRegistered.
	if got := h.Deregister(ctx, "ws-1", "att-1"); got.Outcome != model.OutcomeNotRegistered {
		t.Fatalf("repeat deregister: %+v", got)
	}
}

func TestStoreFailureSurfacesAsFailedWithDetail(t *testing.T) {
	store := newFakeRegistrar()
	store.failWith = errors.New("dial tcp: connection refused")
	h := NewHelper(store)
	ctx := context.Background()

	reg := h.Register(ctx, "ws-1", "att-1")
	if reg.Outcome != model.OutcomeFailed || reg.Detail == "" {
		t.Fatalf("register failure: %+v", reg)
	}
	dereg := h.Deregister(ctx, "ws-1", "att-1")
	if dereg.Outcome != model.OutcomeFailed || dereg.Detail == "" {
		t.Fatalf("deregister failure: %+v", dereg)
	}
	if reg.OK() || dereg.OK() {
		t.Fatal("failed outcomes must not report OK")
	}
}

func TestConflictIsNeverReportedAsFailed(t *testing.T) {
	store := newFakeRegistrar()
	h := NewHelper(store)
	ctx := context.Background()

	h.Register(ctx, "ws-1", "att-1")
	for i := 0; i < 3; i++ {
		if got := h.Register(ctx, "ws-1", "att-1"); got.Outcome == model.OutcomeFailed {
			t.Fatalf("attempt %d: conflict surfaced as failure: %+v", i, got)
		}
	}
}
