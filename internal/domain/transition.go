package domain

import "time"

// Transition applies target to the booking's current status and returns the
// updated booking. The second return reports whether anything changed:
// re-cancelling a cancelled booking or re-completing a completed one is a
// no-op success so duplicate client requests stay harmless. Completed and
// Cancelled are terminal; any other move out of them is ErrInvalidTransition.
// The caller persists the result.
func Transition(b Booking, target BookingStatus, now time.Time) (Booking, bool, error) {
	if !validStatus(target) {
		return Booking{}, false, ErrInvalidTransition
	}
	if b.Status == target {
		return b, false, nil
	}

	switch b.Status {
	case StatusScheduled:
		switch target {
		case StatusConfirmed:
			b.Status = StatusConfirmed
			b.ConfirmedAt = timePtr(now)
			return b, true, nil
		case StatusCompleted:
			b.Status = StatusCompleted
			b.CompletedAt = timePtr(now)
			return b, true, nil
		case StatusCancelled:
			b.Status = StatusCancelled
			b.CancelledAt = timePtr(now)
			return b, true, nil
		}
	case StatusConfirmed:
		switch target {
		case StatusCompleted:
			b.Status = StatusCompleted
			b.CompletedAt = timePtr(now)
			return b, true, nil
		case StatusCancelled:
			b.Status = StatusCancelled
			b.CancelledAt = timePtr(now)
			return b, true, nil
		}
	}
	return Booking{}, false, ErrInvalidTransition
}

func validStatus(s BookingStatus) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func timePtr(t time.Time) *time.Time {
	return &t
}
