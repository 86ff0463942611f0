package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/carebridge/booking-api/internal/clock"
	"github.com/carebridge/booking-api/internal/domain"
)

type fakeSubjectRepo struct {
	byEmail map[string]domain.Subject
	byID    map[string]domain.Subject
}

func newFakeSubjectRepo() *fakeSubjectRepo {
	return &fakeSubjectRepo{
		byEmail: make(map[string]domain.Subject),
		byID:    make(map[string]domain.Subject),
	}
}

func (f *fakeSubjectRepo) CreateSubject(_ context.Context, subject domain.Subject) error {
	if _, exists := f.byEmail[subject.Email]; exists {
		return fmt.Errorf("%w: email already registered", domain.ErrValidationFailed)
	}
	f.byEmail[subject.Email] = subject
	f.byID[subject.ID] = subject
	return nil
}

func (f *fakeSubjectRepo) GetSubjectByID(_ context.Context, id string) (domain.Subject, error) {
	subject, ok := f.byID[id]
	if !ok {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	return subject, nil
}

func (f *fakeSubjectRepo) GetSubjectByEmail(_ context.Context, email string) (domain.Subject, error) {
	subject, ok := f.byEmail[email]
	if !ok {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	return subject, nil
}

func TestSubjectService_RegisterSubject(t *testing.T) {
	ctx := context.Background()
	svc := NewSubjectService(newFakeSubjectRepo(), clock.NewFixed(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))

	subject, created, err := svc.RegisterSubject(ctx, "a@x.com", "Alex")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if !created {
		t.Fatal("expected first registration to create the account")
	}
	if subject.ID == "" || subject.Email != "a@x.com" {
		t.Fatalf("unexpected subject: %+v", subject)
	}

	again, created, err := svc.RegisterSubject(ctx, "a@x.com", "Alex Again")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if created {
		t.Fatal("expected re-registration to return the existing account")
	}
	if again.ID != subject.ID {
		t.Fatalf("expected same account, got %s vs %s", again.ID, subject.ID)
	}
}

func TestSubjectService_RegisterSubject_InvalidEmail(t *testing.T) {
	svc := NewSubjectService(newFakeSubjectRepo(), clock.NewFixed(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))

	_, _, err := svc.RegisterSubject(context.Background(), "not-an-email", "")
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
}

func TestSubjectService_GetSubject(t *testing.T) {
	ctx := context.Background()
	svc := NewSubjectService(newFakeSubjectRepo(), clock.NewFixed(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))

	subject, _, err := svc.RegisterSubject(ctx, "a@x.com", "Alex")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.GetSubject(ctx, subject.ID)
	if err != nil {
		t.Fatalf("get subject: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("unexpected subject: %+v", got)
	}

	if _, err := svc.GetSubject(ctx, "missing"); !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}
