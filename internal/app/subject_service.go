package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carebridge/booking-api/internal/clock"
	"github.com/carebridge/booking-api/internal/domain"
)

// SubjectRepository persists subject accounts.
type SubjectRepository interface {
	CreateSubject(ctx context.Context, subject domain.Subject) error
	GetSubjectByID(ctx context.Context, id string) (domain.Subject, error)
	GetSubjectByEmail(ctx context.Context, email string) (domain.Subject, error)
}

type SubjectService struct {
	repo  SubjectRepository
	clock clock.Clock
}

func NewSubjectService(repo SubjectRepository, clk clock.Clock) *SubjectService {
	return &SubjectService{repo: repo, clock: clk}
}

// RegisterSubject creates a subject account for the email, or returns the
// existing one: registration is idempotent by email so portal clients can
// re-submit without special casing.
func (s *SubjectService) RegisterSubject(ctx context.Context, email, name string) (domain.Subject, bool, error) {
	if !strings.Contains(email, "@") {
		return domain.Subject{}, false, fmt.Errorf("%w: email is required", domain.ErrValidationFailed)
	}

	subject := domain.Subject{
		ID:        newUUID(),
		Email:     email,
		Name:      name,
		CreatedAt: s.clock.Now(),
	}
	err := s.repo.CreateSubject(ctx, subject)
	if err == nil {
		return subject, true, nil
	}
	if !errors.Is(err, domain.ErrValidationFailed) {
		return domain.Subject{}, false, err
	}

	existing, lookupErr := s.repo.GetSubjectByEmail(ctx, email)
	if lookupErr != nil {
		return domain.Subject{}, false, lookupErr
	}
	return existing, false, nil
}

// GetSubject returns a subject by id.
func (s *SubjectService) GetSubject(ctx context.Context, id string) (domain.Subject, error) {
	return s.repo.GetSubjectByID(ctx, id)
}
