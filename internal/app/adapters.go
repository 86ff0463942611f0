package app

import (
	"fmt"
	"time"

	"github.com/carebridge/booking-api/internal/domain"
)

// DomainAdapter plugs one portal workflow into the shared booking flow:
// it validates the kind-specific payload and maps the generic status to
// the vocabulary that workflow's clients expect.
type DomainAdapter interface {
	Kind() domain.BookingKind
	Validate(payload map[string]any) error
	StatusLabel(status domain.BookingStatus) string
}

// AdapterRegistry dispatches on booking kind.
type AdapterRegistry struct {
	adapters map[domain.BookingKind]DomainAdapter
}

// NewAdapterRegistry registers the adapter for every supported kind.
func NewAdapterRegistry() *AdapterRegistry {
	adapters := []DomainAdapter{
		payloadAdapter{
			kind:     domain.KindDoctorAppointment,
			required: []string{"doctor_id"},
			timeKeys: []string{"scheduled_at"},
		},
		payloadAdapter{
			kind:     domain.KindLabTest,
			required: []string{"test_name"},
			timeKeys: []string{"scheduled_at"},
		},
		payloadAdapter{
			kind:     domain.KindVaccination,
			required: []string{"vaccine"},
			timeKeys: []string{"scheduled_at"},
		},
		payloadAdapter{
			kind:     domain.KindMentalHealthSession,
			required: []string{"therapist_id"},
			timeKeys: []string{"scheduled_at"},
		},
		payloadAdapter{
			kind:     domain.KindHealthCheckup,
			required: []string{"package_name"},
			timeKeys: []string{"scheduled_at"},
		},
		payloadAdapter{
			kind:      domain.KindPharmacyOrder,
			listKeys:  []string{"items"},
			statusMap: pharmacyStatusLabels,
		},
		payloadAdapter{
			kind:     domain.KindNutritionistBooking,
			required: []string{"nutritionist_id"},
			timeKeys: []string{"scheduled_at"},
		},
		payloadAdapter{
			kind:     domain.KindRecordAccess,
			required: []string{"record_id"},
		},
	}

	m := make(map[domain.BookingKind]DomainAdapter, len(adapters))
	for _, a := range adapters {
		m[a.Kind()] = a
	}
	return &AdapterRegistry{adapters: m}
}

func (r *AdapterRegistry) Adapter(kind domain.BookingKind) (DomainAdapter, error) {
	adapter, ok := r.adapters[kind]
	if !ok {
		return nil, domain.ErrUnknownKind
	}
	return adapter, nil
}

// StatusLabel maps a generic status into the kind's vocabulary, falling
// back to the generic label for unregistered kinds.
func (r *AdapterRegistry) StatusLabel(kind domain.BookingKind, status domain.BookingStatus) string {
	adapter, ok := r.adapters[kind]
	if !ok {
		return string(status)
	}
	return adapter.StatusLabel(status)
}

// Pharmacy orders keep the vocabulary their clients already use.
var pharmacyStatusLabels = map[domain.BookingStatus]string{
	domain.StatusScheduled: "pending",
	domain.StatusConfirmed: "processing",
	domain.StatusCompleted: "delivered",
	domain.StatusCancelled: "cancelled",
}

// payloadAdapter is a declarative adapter: required string fields,
// RFC 3339 timestamp fields, and non-empty list fields.
type payloadAdapter struct {
	kind      domain.BookingKind
	required  []string
	timeKeys  []string
	listKeys  []string
	statusMap map[domain.BookingStatus]string
}

func (a payloadAdapter) Kind() domain.BookingKind {
	return a.kind
}

func (a payloadAdapter) Validate(payload map[string]any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload is required", domain.ErrValidationFailed)
	}
	for _, key := range a.required {
		v, ok := payload[key].(string)
		if !ok || v == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrValidationFailed, key)
		}
	}
	for _, key := range a.timeKeys {
		v, ok := payload[key].(string)
		if !ok || v == "" {
			return fmt.Errorf("%w: %s is required", domain.ErrValidationFailed, key)
		}
		if _, err := time.Parse(time.RFC3339, v); err != nil {
			return fmt.Errorf("%w: %s must be an RFC 3339 timestamp", domain.ErrValidationFailed, key)
		}
	}
	for _, key := range a.listKeys {
		items, ok := payload[key].([]any)
		if !ok || len(items) == 0 {
			return fmt.Errorf("%w: %s must be a non-empty list", domain.ErrValidationFailed, key)
		}
	}
	return nil
}

func (a payloadAdapter) StatusLabel(status domain.BookingStatus) string {
	if label, ok := a.statusMap[status]; ok {
		return label
	}
	return string(status)
}
