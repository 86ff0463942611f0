package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carebridge/booking-api/internal/app"
	"github.com/carebridge/booking-api/internal/domain"
)

// BookingCreator is the minimal interface needed to create bookings.
type BookingCreator interface {
	CreateBooking(ctx context.Context, in app.CreateBookingInput) (domain.Booking, error)
}

// BookingTransitioner moves bookings between statuses.
type BookingTransitioner interface {
	TransitionBooking(ctx context.Context, id string, target domain.BookingStatus) (domain.Booking, error)
}

// BookingReader fetches bookings for read-back.
type BookingReader interface {
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
}

// BookingLister fetches every booking belonging to a subject.
type BookingLister interface {
	ListBookingsBySubject(ctx context.Context, subjectID string) ([]domain.Booking, error)
}

// StatusLabeler renders a status in the vocabulary of a booking kind.
type StatusLabeler interface {
	StatusLabel(kind domain.BookingKind, status domain.BookingStatus) string
}

type createBookingRequest struct {
	TicketID  string         `json:"ticket_id"`
	Kind      string         `json:"kind"`
	SubjectID string         `json:"subject_id"`
	Payload   map[string]any `json:"payload"`
}

type bookingResponse struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	SubjectID   string         `json:"subject_id"`
	Payload     map[string]any `json:"payload"`
	Status      string         `json:"status"`
	KindStatus  string         `json:"kind_status"`
	CreatedAt   time.Time      `json:"created_at"`
	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
}

func toBookingResponse(b domain.Booking, labels StatusLabeler) bookingResponse {
	return bookingResponse{
		ID:          b.ID,
		Kind:        string(b.Kind),
		SubjectID:   b.SubjectID,
		Payload:     b.Payload,
		Status:      string(b.Status),
		KindStatus:  labels.StatusLabel(b.Kind, b.Status),
		CreatedAt:   b.CreatedAt,
		ConfirmedAt: b.ConfirmedAt,
		CompletedAt: b.CompletedAt,
		CancelledAt: b.CancelledAt,
	}
}

// HandleCreateBooking returns an HTTP handler that spends a verification
// ticket and creates a booking.
func HandleCreateBooking(svc BookingCreator, labels StatusLabeler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.TicketID == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "ticket_id is required")
			return
		}

		booking, err := svc.CreateBooking(r.Context(), app.CreateBookingInput{
			TicketID:  req.TicketID,
			Kind:      domain.BookingKind(req.Kind),
			SubjectID: req.SubjectID,
			Payload:   req.Payload,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toBookingResponse(booking, labels))
	}
}

type transitionRequest struct {
	Target string `json:"target"`
}

// HandleTransitionBooking returns an HTTP handler for status transitions.
// Idempotent re-cancels and re-completes return 200 with the current row.
func HandleTransitionBooking(svc BookingTransitioner, labels StatusLabeler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req transitionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Target == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "target is required")
			return
		}

		booking, err := svc.TransitionBooking(r.Context(), id, domain.BookingStatus(req.Target))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(toBookingResponse(booking, labels))
	}
}

// HandleGetBooking returns an HTTP handler for fetching a single booking.
func HandleGetBooking(svc BookingReader, labels StatusLabeler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		booking, err := svc.GetBooking(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(toBookingResponse(booking, labels))
	}
}

// HandleListSubjectBookings returns an HTTP handler listing a subject's
// bookings, newest first.
func HandleListSubjectBookings(svc BookingLister, labels StatusLabeler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookings, err := svc.ListBookingsBySubject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]bookingResponse, 0, len(bookings))
		for _, b := range bookings {
			out = append(out, toBookingResponse(b, labels))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"bookings": out})
	}
}
