package domain

import "time"

// BookingKind identifies which portal workflow a booking belongs to.
type BookingKind string

const (
	KindDoctorAppointment   BookingKind = "doctor-appointment"
	KindLabTest             BookingKind = "lab-test"
	KindVaccination         BookingKind = "vaccination"
	KindMentalHealthSession BookingKind = "mental-health-session"
	KindHealthCheckup       BookingKind = "health-checkup"
	KindPharmacyOrder       BookingKind = "pharmacy-order"
	KindNutritionistBooking BookingKind = "nutritionist-booking"
	KindRecordAccess        BookingKind = "record-access"
)

// Kinds lists every supported booking kind.
func Kinds() []BookingKind {
	return []BookingKind{
		KindDoctorAppointment,
		KindLabTest,
		KindVaccination,
		KindMentalHealthSession,
		KindHealthCheckup,
		KindPharmacyOrder,
		KindNutritionistBooking,
		KindRecordAccess,
	}
}

type BookingStatus string

const (
	StatusScheduled BookingStatus = "scheduled"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Booking is a confirmed reservation in one of the portal workflows.
// Status changes only through Transition; bookings are never deleted,
// cancellation is a terminal status.
type Booking struct {
	ID          string
	Kind        BookingKind
	SubjectID   string
	Payload     map[string]any
	Status      BookingStatus
	CreatedAt   time.Time
	ConfirmedAt *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Subject is the account a booking belongs to.
type Subject struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}
