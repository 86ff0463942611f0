package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for the verification and booking flows.
var (
	CodesIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_codes_issued_total",
			Help: "Total number of verification codes issued, by purpose",
		},
		[]string{"purpose"},
	)

	CodeVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "code_verifications_total",
			Help: "Total number of verification attempts, by outcome",
		},
		[]string{"outcome"},
	)

	BookingsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total number of bookings created, by kind",
		},
		[]string{"kind"},
	)

	BookingTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Total number of booking status transitions, by target status",
		},
		[]string{"target"},
	)

	NotifierFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_failures_total",
			Help: "Total number of failed notification deliveries",
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(CodesIssuedTotal)
	prometheus.MustRegister(CodeVerificationsTotal)
	prometheus.MustRegister(BookingsCreatedTotal)
	prometheus.MustRegister(BookingTransitionsTotal)
	prometheus.MustRegister(NotifierFailuresTotal)
}
