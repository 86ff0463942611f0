package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/carebridge/booking-api/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidID           = "invalid_id"
	codeValidationFailed    = "validation_failed"
	codeUnknownKind         = "unknown_kind"
	codeCodeNotFound        = "code_not_found"
	codeCodeExpired         = "code_expired"
	codeCodeAlreadyConsumed = "code_already_consumed"
	codeCodeMismatch        = "code_mismatch"
	codeTicketNotFound      = "ticket_not_found"
	codeTicketExpired       = "ticket_expired"
	codeTicketAlreadyUsed   = "ticket_already_used"
	codeSubjectMismatch     = "subject_mismatch"
	codeSubjectNotFound     = "subject_not_found"
	codeBookingNotFound     = "booking_not_found"
	codeInvalidTransition   = "invalid_transition"
	codeConflict            = "conflict"
	codeNotifierUnavailable = "notifier_unavailable"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps a service error onto the HTTP envelope. Unknown
// errors are reported as opaque 500s.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		writeError(w, http.StatusUnprocessableEntity, codeValidationFailed, err.Error())
	case errors.Is(err, domain.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, codeUnknownKind, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrCodeNotFound):
		writeError(w, http.StatusNotFound, codeCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusGone, codeCodeExpired, err.Error())
	case errors.Is(err, domain.ErrCodeAlreadyConsumed):
		writeError(w, http.StatusConflict, codeCodeAlreadyConsumed, err.Error())
	case errors.Is(err, domain.ErrCodeMismatch):
		writeError(w, http.StatusUnauthorized, codeCodeMismatch, err.Error())
	case errors.Is(err, domain.ErrTicketNotFound):
		writeError(w, http.StatusNotFound, codeTicketNotFound, err.Error())
	case errors.Is(err, domain.ErrTicketExpired):
		writeError(w, http.StatusGone, codeTicketExpired, err.Error())
	case errors.Is(err, domain.ErrTicketAlreadyUsed):
		writeError(w, http.StatusConflict, codeTicketAlreadyUsed, err.Error())
	case errors.Is(err, domain.ErrSubjectMismatch):
		writeError(w, http.StatusForbidden, codeSubjectMismatch, err.Error())
	case errors.Is(err, domain.ErrSubjectNotFound):
		writeError(w, http.StatusNotFound, codeSubjectNotFound, err.Error())
	case errors.Is(err, domain.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, codeBookingNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrPersistenceConflict):
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, domain.ErrNotifierUnavailable):
		writeError(w, http.StatusBadGateway, codeNotifierUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
