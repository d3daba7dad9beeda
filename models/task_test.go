package models

import (
	"testing"
	"time"
)

func TestTaskStatusTerminal(t *testing.T) {
	terminal := []TaskStatus{TaskStatusCompleted, TaskStatusFailed, TaskStatusTimeout, TaskStatusDisputed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusProcessing} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestParseTaskStatus(t *testing.T) {
	if got := ParseTaskStatus("completed"); got != TaskStatusCompleted {
		t.Errorf("got %s", got)
	}
	if got := ParseTaskStatus(""); got != TaskStatusPending {
		t.Errorf("empty status must default to pending, got %s", got)
	}
	if got := ParseTaskStatus("exploded"); got != TaskStatusPending {
		t.Errorf("unknown status must default to pending, got %s", got)
	}
}

func TestReservationExpired(t *testing.T) {
	now := time.Now()

	live := WorkerReservation{ExpiresAt: now.Add(time.Minute)}
	if live.Expired(now) {
		t.Error("future expiry must not be expired")
	}

	stale := WorkerReservation{ExpiresAt: now.Add(-time.Second)}
	if !stale.Expired(now) {
		t.Error("past expiry must be expired")
	}

	unset := WorkerReservation{}
	if unset.Expired(now) {
		t.Error("zero expiry means no lease bound, never expired")
	}
}
