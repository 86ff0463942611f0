package codestore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge/booking-api/internal/clock"
	"github.com/carebridge/booking-api/internal/domain"
)

const defaultTicketTTL = 2 * time.Minute

// TicketRegistry tracks verification tickets between a successful code
// verification and the booking creation that spends them. Claim is a
// compare-and-swap on the used flag: a ticket authorizes exactly one
// booking, and a claim is never refunded.
type TicketRegistry struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	tickets map[string]domain.VerificationTicket
}

func NewTicketRegistry(clk clock.Clock, ttl time.Duration) *TicketRegistry {
	if ttl <= 0 {
		ttl = defaultTicketTTL
	}
	return &TicketRegistry{
		clock:   clk,
		ttl:     ttl,
		tickets: make(map[string]domain.VerificationTicket),
	}
}

// Issue mints a fresh unused ticket.
func (r *TicketRegistry) Issue(identity, purpose, boundSubject string) domain.VerificationTicket {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket := domain.VerificationTicket{
		ID:           uuid.NewString(),
		Identity:     identity,
		Purpose:      purpose,
		BoundSubject: boundSubject,
		IssuedAt:     r.clock.Now(),
	}
	r.tickets[ticket.ID] = ticket
	return ticket
}

// Peek reports the ticket's state without spending it. Used by the
// booking workflow to run pre-flight checks before the claim.
func (r *TicketRegistry) Peek(id string) (domain.VerificationTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return domain.VerificationTicket{}, domain.ErrTicketNotFound
	}
	if ticket.UsedAt != nil {
		return domain.VerificationTicket{}, domain.ErrTicketAlreadyUsed
	}
	if r.clock.Now().Sub(ticket.IssuedAt) > r.ttl {
		return domain.VerificationTicket{}, domain.ErrTicketExpired
	}
	return ticket, nil
}

// Claim marks the ticket used and returns it. Exactly one concurrent
// claim succeeds; later ones observe ErrTicketAlreadyUsed. Tickets older
// than the grace window fail with ErrTicketExpired.
func (r *TicketRegistry) Claim(id string) (domain.VerificationTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return domain.VerificationTicket{}, domain.ErrTicketNotFound
	}
	if ticket.UsedAt != nil {
		return domain.VerificationTicket{}, domain.ErrTicketAlreadyUsed
	}

	now := r.clock.Now()
	if now.Sub(ticket.IssuedAt) > r.ttl {
		delete(r.tickets, id)
		return domain.VerificationTicket{}, domain.ErrTicketExpired
	}

	usedAt := now
	ticket.UsedAt = &usedAt
	r.tickets[id] = ticket
	return ticket, nil
}

// Sweep drops tickets past the grace window. Used tickets are kept until
// then so a duplicate claim still reads as "already used".
func (r *TicketRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	removed := 0
	for id, ticket := range r.tickets {
		if now.Sub(ticket.IssuedAt) > r.ttl {
			delete(r.tickets, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on the given interval until the context is cancelled.
func (r *TicketRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
