package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"clinicbook/internal/config"
	"clinicbook/internal/logging"
	"clinicbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Pinger reports store reachability for health checks.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services bundles the core operations the HTTP surface exposes.
type Services struct {
	Auth         *service.AuthService
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
	Payments     *service.PaymentService
	Directory    *service.DirectoryService
	Store        Pinger
}

// HTTPServer is the public REST API of the clinic.
type HTTPServer struct {
	cfg      config.HTTPConfig
	services Services
	limiter  *rateLimiter
	server   *http.Server
	logger   *zerolog.Logger
}

func NewHTTPServer(cfg config.HTTPConfig, rl config.RateLimitConfig, services Services, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		services: services,
		limiter:  newRateLimiter(rl),
		logger:   logging.Component(logger, "http"),
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return srv
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors(s.cfg.CORSOrigins))
	r.Use(s.limiter.Middleware)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealthz)

	r.Get("/appointmentOptions", s.handleAppointmentOptions)
	r.Get("/appointmentSpecialty", s.handleSpecialties)

	r.Route("/bookings", func(r chi.Router) {
		r.With(s.guard(Authenticated)).Get("/", s.handleOwnerBookings)
		r.Post("/", s.handleCreateBooking)
		r.With(s.guard(Authenticated, AdminRole)).Get("/export", s.handleExportBookings)
		r.Get("/{id}", s.handleGetBooking)
	})

	r.Get("/jwt", s.handleIssueToken)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleCreateUser)
		r.Get("/admin/{email}", s.handleIsAdmin)
		r.With(s.guard(Authenticated, AdminRole)).Put("/admin/{id}", s.handlePromote)
	})

	r.Route("/doctors", func(r chi.Router) {
		r.Use(s.guard(Authenticated, AdminRole))
		r.Get("/", s.handleListDoctors)
		r.Post("/", s.handleAddDoctor)
		r.Delete("/{id}", s.handleRemoveDoctor)
	})

	r.Post("/create-payment-intent", s.handleCreatePaymentIntent)
	r.With(s.guard(Authenticated)).Post("/payments", s.handleRecordPayment)

	return r
}

// Handler exposes the routed handler for in-process tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
