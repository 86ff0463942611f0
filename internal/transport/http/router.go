package http

import (
	"log"
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps carries everything the HTTP surface needs. Fields are
// interfaces so handler tests can plug in stubs.
type RouterDeps struct {
	Issuer       CodeIssuer
	Verifier     CodeVerifier
	Creator      BookingCreator
	Transitioner BookingTransitioner
	Reader       BookingReader
	Lister       BookingLister
	Subjects     SubjectRegistrar
	Labels       StatusLabeler
	CORSOrigins  []string
	Logger       *log.Logger
}

// NewRouter assembles the service's routes and middleware.
func NewRouter(deps RouterDeps) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(func(next stdhttp.Handler) stdhttp.Handler {
		return RequestLogger(next, deps.Logger)
	})

	r.Get("/health", HealthHandler)
	r.Method(stdhttp.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/codes", HandleIssueCode(deps.Issuer))
	r.Post("/codes/verify", HandleVerifyCode(deps.Verifier))

	r.Post("/bookings", HandleCreateBooking(deps.Creator, deps.Labels))
	r.Get("/bookings/{id}", HandleGetBooking(deps.Reader, deps.Labels))
	r.Post("/bookings/{id}/transition", HandleTransitionBooking(deps.Transitioner, deps.Labels))
	r.Post("/subjects", HandleRegisterSubject(deps.Subjects))
	r.Get("/subjects/{id}", HandleGetSubject(deps.Subjects))
	r.Get("/subjects/{id}/bookings", HandleListSubjectBookings(deps.Lister, deps.Labels))

	r.NotFound(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		writeError(w, stdhttp.StatusNotFound, codeNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		writeError(w, stdhttp.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	return r
}
