package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/carebridge/booking-api/internal/clock"
	"github.com/carebridge/booking-api/internal/domain"
	"github.com/carebridge/booking-api/internal/metrics"
	"github.com/carebridge/booking-api/internal/notify"
)

// CodeStore holds pending verification codes keyed by (identity, purpose).
// Consume must be atomic: under concurrent calls for the same key exactly
// one caller succeeds.
type CodeStore interface {
	Put(ctx context.Context, code domain.VerificationCode) error
	Peek(ctx context.Context, identity, purpose string) (domain.VerificationCode, error)
	Consume(ctx context.Context, identity, purpose, supplied string) (domain.VerificationCode, error)
}

// TicketIssuer mints single-use tickets for verified identities.
type TicketIssuer interface {
	Issue(identity, purpose, boundSubject string) domain.VerificationTicket
}

// SubjectFinder resolves a subject account by id.
type SubjectFinder interface {
	GetSubjectByID(ctx context.Context, id string) (domain.Subject, error)
}

type CodeService struct {
	store    CodeStore
	tickets  TicketIssuer
	subjects SubjectFinder
	notifier notify.Notifier
	clock    clock.Clock
	logger   *log.Logger
	codeTTL  time.Duration
}

const defaultCodeTTL = 5 * time.Minute

func NewCodeService(store CodeStore, tickets TicketIssuer, subjects SubjectFinder, notifier notify.Notifier, clk clock.Clock, opts ...CodeServiceOption) *CodeService {
	svc := &CodeService{
		store:    store,
		tickets:  tickets,
		subjects: subjects,
		notifier: notifier,
		clock:    clk,
		logger:   log.Default(),
		codeTTL:  defaultCodeTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CodeServiceOption func(*CodeService)

// WithCodeTTL overrides the default TTL for new codes.
func WithCodeTTL(d time.Duration) CodeServiceOption {
	return func(s *CodeService) {
		if d > 0 {
			s.codeTTL = d
		}
	}
}

// WithCodeLogger overrides the default logger.
func WithCodeLogger(logger *log.Logger) CodeServiceOption {
	return func(s *CodeService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type IssueCodeInput struct {
	Identity  string
	Purpose   string
	SubjectID string
}

// IssueCode generates a fresh code for (identity, purpose), replacing any
// prior unconsumed one, and requests delivery. When delivery cannot be
// attempted the code stays stored and ErrNotifierUnavailable is returned:
// the caller may retry delivery without invalidating the code.
func (s *CodeService) IssueCode(ctx context.Context, in IssueCodeInput) error {
	if !strings.Contains(in.Identity, "@") {
		return fmt.Errorf("%w: identity must be an email address", domain.ErrValidationFailed)
	}
	if in.Purpose == "" {
		return fmt.Errorf("%w: purpose is required", domain.ErrValidationFailed)
	}
	if in.SubjectID != "" {
		if _, err := s.subjects.GetSubjectByID(ctx, in.SubjectID); err != nil {
			return err
		}
	}

	digits, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := s.clock.Now()
	code := domain.VerificationCode{
		Identity:     in.Identity,
		Purpose:      in.Purpose,
		Code:         digits,
		BoundSubject: in.SubjectID,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.codeTTL),
	}
	if err := s.store.Put(ctx, code); err != nil {
		return err
	}
	metrics.CodesIssuedTotal.WithLabelValues(in.Purpose).Inc()

	err = s.notifier.Send(ctx, in.Identity, notify.TemplateVerificationCode, map[string]any{
		"code":       digits,
		"purpose":    in.Purpose,
		"expires_at": code.ExpiresAt.Format(time.RFC3339),
	})
	if err != nil {
		metrics.NotifierFailuresTotal.Inc()
		return fmt.Errorf("%w: %v", domain.ErrNotifierUnavailable, err)
	}
	return nil
}

type VerifyCodeInput struct {
	Identity string
	Purpose  string
	Code     string
}

// VerifyCode consumes the stored code and mints a single-use ticket. A
// given code yields at most one ticket.
func (s *CodeService) VerifyCode(ctx context.Context, in VerifyCodeInput) (domain.VerificationTicket, error) {
	entry, err := s.store.Consume(ctx, in.Identity, in.Purpose, in.Code)
	metrics.CodeVerificationsTotal.WithLabelValues(verifyOutcome(err)).Inc()
	if err != nil {
		return domain.VerificationTicket{}, err
	}
	return s.tickets.Issue(entry.Identity, entry.Purpose, entry.BoundSubject), nil
}

func verifyOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrCodeNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCodeExpired):
		return "expired"
	case errors.Is(err, domain.ErrCodeAlreadyConsumed):
		return "already_consumed"
	case errors.Is(err, domain.ErrCodeMismatch):
		return "mismatch"
	}
	return "error"
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
