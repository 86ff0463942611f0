package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge/booking-api/internal/domain"
)

// SubjectRegistrar creates or resolves subject accounts.
type SubjectRegistrar interface {
	RegisterSubject(ctx context.Context, email, name string) (domain.Subject, bool, error)
	GetSubject(ctx context.Context, id string) (domain.Subject, error)
}

type registerSubjectRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type subjectResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleRegisterSubject returns an HTTP handler for subject registration.
// Registration is idempotent by email: re-submitting returns the existing
// account with 200 instead of 201.
func HandleRegisterSubject(svc SubjectRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerSubjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		subject, created, err := svc.RegisterSubject(r.Context(), req.Email, req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if created {
			w.WriteHeader(http.StatusCreated)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(subjectResponse{
			ID:        subject.ID,
			Email:     subject.Email,
			Name:      subject.Name,
			CreatedAt: subject.CreatedAt,
		})
	}
}

// HandleGetSubject returns an HTTP handler for fetching a subject.
func HandleGetSubject(svc SubjectRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, err := svc.GetSubject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(subjectResponse{
			ID:        subject.ID,
			Email:     subject.Email,
			Name:      subject.Name,
			CreatedAt: subject.CreatedAt,
		})
	}
}
