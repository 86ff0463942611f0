package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/carebridge/booking-api/internal/clock"
	"github.com/carebridge/booking-api/internal/domain"
	"github.com/carebridge/booking-api/internal/metrics"
	"github.com/carebridge/booking-api/internal/notify"
)

// BookingRepository persists bookings. UpdateBookingStatus is conditioned
// on the expected current status and returns ErrPersistenceConflict when
// a concurrent writer got there first.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking domain.Booking) error
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, booking domain.Booking, expected domain.BookingStatus) error
}

// TicketClaimer spends verification tickets. Peek runs pre-flight checks
// without spending; Claim is the atomic single-use consumption.
type TicketClaimer interface {
	Peek(id string) (domain.VerificationTicket, error)
	Claim(id string) (domain.VerificationTicket, error)
}

type BookingService struct {
	repo     BookingRepository
	tickets  TicketClaimer
	registry *AdapterRegistry
	notifier notify.Notifier
	clock    clock.Clock
	logger   *log.Logger
}

func NewBookingService(repo BookingRepository, tickets TicketClaimer, registry *AdapterRegistry, notifier notify.Notifier, clk clock.Clock, opts ...BookingServiceOption) *BookingService {
	svc := &BookingService{
		repo:     repo,
		tickets:  tickets,
		registry: registry,
		notifier: notifier,
		clock:    clk,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type BookingServiceOption func(*BookingService)

// WithBookingLogger overrides the default logger.
func WithBookingLogger(logger *log.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type CreateBookingInput struct {
	TicketID  string
	Kind      domain.BookingKind
	SubjectID string
	Payload   map[string]any
}

// CreateBooking spends a verification ticket and creates the booking in
// Scheduled status. The ticket is claimed only after all checks pass; once
// claimed it is never refunded, even if persistence fails afterwards, so a
// retry needs a fresh code. Exactly one booking results from a ticket:
// concurrent calls with the same ticket leave one winner and
// ErrTicketAlreadyUsed for the rest. Confirmation delivery failure does
// not undo the booking.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	adapter, err := s.registry.Adapter(in.Kind)
	if err != nil {
		return domain.Booking{}, err
	}
	if in.SubjectID == "" {
		return domain.Booking{}, fmt.Errorf("%w: subject_id is required", domain.ErrValidationFailed)
	}

	ticket, err := s.tickets.Peek(in.TicketID)
	if err != nil {
		return domain.Booking{}, err
	}
	if ticket.BoundSubject != "" && ticket.BoundSubject != in.SubjectID {
		return domain.Booking{}, domain.ErrSubjectMismatch
	}
	if err := adapter.Validate(in.Payload); err != nil {
		return domain.Booking{}, err
	}

	ticket, err = s.tickets.Claim(in.TicketID)
	if err != nil {
		return domain.Booking{}, err
	}

	booking := domain.Booking{
		ID:        newUUID(),
		Kind:      in.Kind,
		SubjectID: in.SubjectID,
		Payload:   in.Payload,
		Status:    domain.StatusScheduled,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return domain.Booking{}, err
	}
	metrics.BookingsCreatedTotal.WithLabelValues(string(in.Kind)).Inc()

	err = s.notifier.Send(ctx, ticket.Identity, notify.TemplateBookingConfirmed, map[string]any{
		"booking_id": booking.ID,
		"kind":       string(booking.Kind),
		"status":     adapter.StatusLabel(booking.Status),
	})
	if err != nil {
		metrics.NotifierFailuresTotal.Inc()
		s.logger.Printf("WARN: booking %s created but confirmation delivery failed: %v", booking.ID, err)
	}

	return booking, nil
}

const maxTransitionAttempts = 3

// TransitionBooking moves a booking to the target status. The write is
// compare-and-swap'd against the status read at the start of the attempt;
// a conflicting concurrent transition triggers a bounded re-read-and-retry.
// Idempotent no-ops (re-cancel, re-complete) return the current row
// without writing.
func (s *BookingService) TransitionBooking(ctx context.Context, id string, target domain.BookingStatus) (domain.Booking, error) {
	var lastErr error
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		current, err := s.repo.GetBooking(ctx, id)
		if err != nil {
			return domain.Booking{}, err
		}

		updated, changed, err := domain.Transition(current, target, s.clock.Now())
		if err != nil {
			return domain.Booking{}, err
		}
		if !changed {
			return current, nil
		}

		if err := s.repo.UpdateBookingStatus(ctx, updated, current.Status); err != nil {
			if errors.Is(err, domain.ErrPersistenceConflict) {
				lastErr = err
				continue
			}
			return domain.Booking{}, err
		}

		metrics.BookingTransitionsTotal.WithLabelValues(string(target)).Inc()
		return updated, nil
	}
	return domain.Booking{}, lastErr
}

// GetBooking returns a booking by id.
func (s *BookingService) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}
