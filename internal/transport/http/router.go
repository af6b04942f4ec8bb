// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services, and translate coded errors; no business logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"civid/internal/appointment"
	"civid/internal/authz"
	"civid/internal/biometric"
	"civid/internal/center"
	"civid/internal/credential"
	"civid/internal/ratelimit"
	"civid/internal/request"
	"civid/internal/schedule"
)

// Handler bundles the domain services behind the router.
type Handler struct {
	requests     *request.Service
	centers      *center.Service
	schedules    *schedule.Service
	appointments *appointment.Service
	captures     *biometric.Service
	credentials  *credential.Service
	tokens       *authz.TokenService
	logger       *slog.Logger
}

func NewHandler(
	requests *request.Service,
	centers *center.Service,
	schedules *schedule.Service,
	appointments *appointment.Service,
	captures *biometric.Service,
	credentials *credential.Service,
	tokens *authz.TokenService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		requests:     requests,
		centers:      centers,
		schedules:    schedules,
		appointments: appointments,
		captures:     captures,
		credentials:  credentials,
		tokens:       tokens,
		logger:       logger,
	}
}

// NewRouter wires all endpoints under /api/v1 plus the operational surface.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(authz.Middleware(h.tokens))

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		submitLimiter := ratelimit.NewSlidingWindow(10, time.Minute)
		verifyLimiter := ratelimit.NewSlidingWindow(60, time.Minute)

		r.Route("/requests", func(r chi.Router) {
			r.With(ratelimit.Middleware(submitLimiter)).Post("/", h.handleSubmitRequest)
			r.Get("/", h.handleListRequests)
			r.Get("/{requestID}", h.handleGetRequest)
			r.Post("/{requestID}/decision", h.handleDecideRequest)
			r.Get("/{requestID}/appointment", h.handleAppointmentForRequest)
		})

		r.Route("/centers", func(r chi.Router) {
			r.Post("/", h.handleCreateCenter)
			r.Get("/", h.handleListCenters)
			r.Get("/{centerID}", h.handleGetCenter)
			r.Put("/{centerID}/template", h.handleUpdateTemplate)
			r.Put("/{centerID}/status", h.handleSetCenterStatus)
			r.Get("/{centerID}/availability", h.handleAvailability)
			r.Get("/{centerID}/schedule/{month}", h.handleMonthSchedule)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", h.handleBookAppointment)
			r.Get("/", h.handleListAppointments)
			r.Get("/{appointmentID}", h.handleGetAppointment)
			r.Post("/{appointmentID}/complete", h.handleCompleteAppointment)
			r.Post("/{appointmentID}/cancel", h.handleCancelAppointment)
			r.Post("/{appointmentID}/miss", h.handleMissAppointment)
		})

		r.Route("/captures", func(r chi.Router) {
			r.Post("/", h.handleRecordCapture)
			r.Get("/{captureID}", h.handleGetCapture)
			r.Post("/{captureID}/review", h.handleReviewCapture)
		})

		r.Route("/credentials", func(r chi.Router) {
			r.Post("/", h.handleIssueCredential)
			r.Get("/{credentialID}", h.handleGetCredential)
			r.Post("/{credentialID}/revoke", h.handleRevokeCredential)
			r.With(ratelimit.Middleware(verifyLimiter)).Get("/verify/{number}", h.handleVerifyCredential)
		})

		r.Get("/users/{userID}/request", h.handleActiveRequest)
		r.Get("/users/{userID}/credentials", h.handleCredentialHistory)
	})

	return r
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
