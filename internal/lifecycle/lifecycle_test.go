package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/aptr/workshop-engine/internal/model"
)

func date(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestClassifyPartitionsTimeline(t *testing.T) {
	start := date("2024-01-10")
	end := date("2024-01-20")

	cases := []struct {
		now  string
		want model.LifecycleState
	}{
		{"2024-01-01", model.StateUpcoming},
		{"2024-01-09", model.StateUpcoming},
		{"2024-01-10", model.StateOngoing}, // start day inclusive
		{"2024-01-15", model.StateOngoing},
		{"2024-01-20", model.StateOngoing}, // end day inclusive
		{"2024-01-21", model.StateCompleted},
		{"2024-06-01", model.StateCompleted},
	}
	for _, tc := range cases {
		now := date(tc.now).Time
		got, err := Classify(start, end, now)
		if err != nil {
			t.Fatalf("classify at %s: %v", tc.now, err)
		}
		if got != tc.want {
			t.Fatalf("classify at %s: got %s, want %s", tc.now, got, tc.want)
		}
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	start := date("2024-01-10")
	end := date("2024-01-20")

	// Any time-of-day on the end date must still classify as Ongoing.
	for _, hour := range []int{0, 9, 23} {
		now := time.Date(2024, 1, 20, hour, 59, 58, 0, time.UTC)
		got, err := Classify(start, end, now)
		if err != nil {
			t.Fatalf("classify: %v", err)
		}
		if got != model.StateOngoing {
			t.Fatalf("classify at hour %d: got %s, want ONGOING", hour, got)
		}
	}
}

func TestClassifyRejectsInvertedDates(t *testing.T) {
	now := date("2024-01-15").Time

	// Equal dates are invalid too: end must be strictly after start.
	for _, end := range []string{"2024-01-10", "2024-01-05"} {
		_, err := Classify(date("2024-01-10"), date(end), now)
		if !errors.Is(err, model.ErrInvalidDate) {
			t.Fatalf("end %s: got %v, want ErrInvalidDate", end, err)
		}
	}
}

func TestConstraintsForCompletedFreezesEverything(t *testing.T) {
	w := model.Workshop{StartDate: date("2024-01-10"), EndDate: date("2024-01-20")}
	now := date("2024-02-01").Time

	set := ConstraintsFor(model.StateCompleted, w, now)
	if len(set.Editable) != 0 {
		t.Fatalf("expected no editable fields, got %v", set.Editable)
	}
	if set.StartFloor != nil || set.EndFloor != nil {
		t.Fatal("expected no date floors on a completed workshop")
	}
}

func TestConstraintsForOngoingFreezesStart(t *testing.T) {
	w := model.Workshop{StartDate: date("2024-01-10"), EndDate: date("2024-01-20")}
	now := date("2024-01-15").Time

	set := ConstraintsFor(model.StateOngoing, w, now)
	if contains(set.Editable, FieldStartDate) {
		t.Fatal("start date must not be editable while ongoing")
	}
	if !contains(set.Editable, FieldEndDate) {
		t.Fatal("end date must be editable while ongoing")
	}
	if set.EndFloor == nil || set.EndFloor.String() != "2024-01-15" {
		t.Fatalf("expected end floor today, got %v", set.EndFloor)
	}
}

func TestConstraintsForUpcomingFloorsBothDates(t *testing.T) {
	w := model.Workshop{StartDate: date("2024-03-10"), EndDate: date("2024-03-20")}
	now := date("2024-01-15").Time

	set := ConstraintsFor(model.StateUpcoming, w, now)
	for _, f := range []string{FieldTitle, FieldTutors, FieldStartDate, FieldEndDate} {
		if !contains(set.Editable, f) {
			t.Fatalf("expected %s editable on an upcoming workshop", f)
		}
	}
	if set.StartFloor == nil || set.StartFloor.String() != "2024-01-15" {
		t.Fatalf("expected start floor today, got %v", set.StartFloor)
	}
	if set.EndFloor == nil || set.EndFloor.String() != "2024-01-15" {
		t.Fatalf("expected end floor today, got %v", set.EndFloor)
	}
}

func contains(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
