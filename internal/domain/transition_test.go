package domain

import (
	"testing"
	"time"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		from        BookingStatus
		target      BookingStatus
		wantChanged bool
		wantErr     error
	}{
		{name: "scheduled to confirmed", from: StatusScheduled, target: StatusConfirmed, wantChanged: true},
		{name: "scheduled to completed", from: StatusScheduled, target: StatusCompleted, wantChanged: true},
		{name: "scheduled to cancelled", from: StatusScheduled, target: StatusCancelled, wantChanged: true},
		{name: "confirmed to completed", from: StatusConfirmed, target: StatusCompleted, wantChanged: true},
		{name: "confirmed to cancelled", from: StatusConfirmed, target: StatusCancelled, wantChanged: true},
		{name: "confirmed back to scheduled", from: StatusConfirmed, target: StatusScheduled, wantErr: ErrInvalidTransition},
		{name: "cancel twice is a no-op", from: StatusCancelled, target: StatusCancelled, wantChanged: false},
		{name: "complete twice is a no-op", from: StatusCompleted, target: StatusCompleted, wantChanged: false},
		{name: "completed cannot be cancelled", from: StatusCompleted, target: StatusCancelled, wantErr: ErrInvalidTransition},
		{name: "cancelled cannot be completed", from: StatusCancelled, target: StatusCompleted, wantErr: ErrInvalidTransition},
		{name: "cancelled cannot be confirmed", from: StatusCancelled, target: StatusConfirmed, wantErr: ErrInvalidTransition},
		{name: "unknown target", from: StatusScheduled, target: BookingStatus("shipped"), wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := Booking{ID: "booking-1", Status: tt.from}
			out, changed, err := Transition(in, tt.target, now)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if changed != tt.wantChanged {
				t.Fatalf("expected changed=%v, got %v", tt.wantChanged, changed)
			}
			if !changed {
				if out.Status != tt.from {
					t.Fatalf("no-op must keep status %s, got %s", tt.from, out.Status)
				}
				return
			}
			if out.Status != tt.target {
				t.Fatalf("expected status %s, got %s", tt.target, out.Status)
			}
		})
	}

	t.Run("timestamps are set on the move that reaches the state", func(t *testing.T) {
		t.Parallel()

		b := Booking{ID: "booking-2", Status: StatusScheduled}
		b, _, err := Transition(b, StatusConfirmed, now)
		if err != nil {
			t.Fatalf("confirm: %v", err)
		}
		if b.ConfirmedAt == nil || !b.ConfirmedAt.Equal(now) {
			t.Fatalf("expected confirmed_at %v, got %v", now, b.ConfirmedAt)
		}

		later := now.Add(time.Hour)
		b, _, err = Transition(b, StatusCompleted, later)
		if err != nil {
			t.Fatalf("complete: %v", err)
		}
		if b.CompletedAt == nil || !b.CompletedAt.Equal(later) {
			t.Fatalf("expected completed_at %v, got %v", later, b.CompletedAt)
		}

		// Idempotent re-complete keeps the original timestamp.
		again, changed, err := Transition(b, StatusCompleted, later.Add(time.Hour))
		if err != nil || changed {
			t.Fatalf("expected no-op, got changed=%v err=%v", changed, err)
		}
		if !again.CompletedAt.Equal(later) {
			t.Fatalf("no-op must not move completed_at")
		}
	})
}
