package booking

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusRequested, StatusConfirmed, true},
		{StatusRequested, StatusCancelled, true},
		{StatusRequested, StatusCheckedOut, false},
		{StatusConfirmed, StatusCheckedOut, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusReturned, false},
		{StatusCheckedOut, StatusReturned, true},
		{StatusCheckedOut, StatusCancelled, false},
		{StatusReturned, StatusConfirmed, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusConfirmed, StatusConfirmed, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestApplyTransitionStampsTimestamps(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	r := &Reservation{Status: StatusConfirmed}

	if err := ApplyTransition(r, StatusCheckedOut, now); err != nil {
		t.Fatalf("ApplyTransition to checked_out: %v", err)
	}
	if r.Status != StatusCheckedOut {
		t.Fatalf("status = %s, want checked_out", r.Status)
	}
	if r.CheckedOutAt == nil || !r.CheckedOutAt.Equal(now) {
		t.Fatalf("CheckedOutAt not stamped")
	}

	later := now.Add(48 * time.Hour)
	if err := ApplyTransition(r, StatusReturned, later); err != nil {
		t.Fatalf("ApplyTransition to returned: %v", err)
	}
	if r.ReturnedAt == nil || !r.ReturnedAt.Equal(later) {
		t.Fatalf("ReturnedAt not stamped")
	}
}

func TestApplyTransitionRejectsIllegalMove(t *testing.T) {
	r := &Reservation{Status: StatusReturned}
	err := ApplyTransition(r, StatusCancelled, time.Now())
	if err == nil {
		t.Fatalf("expected error for returned -> cancelled")
	}
	te, ok := err.(*TransitionError)
	if !ok {
		t.Fatalf("error type = %T, want *TransitionError", err)
	}
	if te.From != StatusReturned || te.To != StatusCancelled {
		t.Fatalf("unexpected transition error: %v", te)
	}
	if r.Status != StatusReturned || r.CancelledAt != nil {
		t.Fatalf("reservation mutated on rejected transition")
	}
}

func TestTerminalStatuses(t *testing.T) {
	if !StatusReturned.Terminal() || !StatusCancelled.Terminal() {
		t.Fatalf("returned/cancelled should be terminal")
	}
	for _, s := range NonTerminalStatuses {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
