package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/carebridge/booking-api/internal/app"
	"github.com/carebridge/booking-api/internal/domain"
)

// CodeIssuer is the minimal interface needed to issue verification codes.
type CodeIssuer interface {
	IssueCode(ctx context.Context, in app.IssueCodeInput) error
}

// CodeVerifier is the minimal interface needed to verify codes.
type CodeVerifier interface {
	VerifyCode(ctx context.Context, in app.VerifyCodeInput) (domain.VerificationTicket, error)
}

type issueCodeRequest struct {
	Email     string `json:"email"`
	Purpose   string `json:"purpose"`
	SubjectID string `json:"subject_id"`
}

// HandleIssueCode returns an HTTP handler for requesting a verification
// code. Delivery failure is reported but leaves the code stored, so the
// client may retry the request without invalidating a code that was
// already delivered through another channel.
func HandleIssueCode(svc CodeIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req issueCodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		err := svc.IssueCode(r.Context(), app.IssueCodeInput{
			Identity:  req.Email,
			Purpose:   req.Purpose,
			SubjectID: req.SubjectID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]bool{"accepted": true})
	}
}

type verifyCodeRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
}

type ticketResponse struct {
	TicketID     string    `json:"ticket_id"`
	Identity     string    `json:"identity"`
	Purpose      string    `json:"purpose"`
	BoundSubject string    `json:"bound_subject,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// HandleVerifyCode returns an HTTP handler for exchanging a code for a
// single-use verification ticket.
func HandleVerifyCode(svc CodeVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyCodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Email == "" || req.Purpose == "" || req.Code == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "email, purpose and code are required")
			return
		}

		ticket, err := svc.VerifyCode(r.Context(), app.VerifyCodeInput{
			Identity: req.Email,
			Purpose:  req.Purpose,
			Code:     req.Code,
		})
		if err != nil {
			// Mismatches and stale codes share a deliberately terse
			// envelope; the code itself is never echoed back.
			if errors.Is(err, domain.ErrCodeMismatch) {
				writeError(w, http.StatusUnauthorized, codeCodeMismatch, "verification failed")
				return
			}
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(ticketResponse{
			TicketID:     ticket.ID,
			Identity:     ticket.Identity,
			Purpose:      ticket.Purpose,
			BoundSubject: ticket.BoundSubject,
			IssuedAt:     ticket.IssuedAt,
		})
	}
}
