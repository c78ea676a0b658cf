package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/eshaffer321/rentlink-backend/internal/api/handlers"
	"github.com/eshaffer321/rentlink-backend/internal/api/middleware"
	"github.com/eshaffer321/rentlink-backend/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
	RequestTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		RequestTimeout: 30 * time.Second,
	}
}

// Services are the application services the handlers call.
type Services struct {
	Tenants   *service.TenantService
	Reminders *service.ReminderService
	Matching  *service.MatchingService
	Payments  *service.PaymentService
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	services   Services
}

// NewServer creates a new API server.
// Routes whose service is nil are not mounted.
func NewServer(cfg Config, services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	if s.config.RateLimitRPS > 0 {
		s.router.Use(middleware.RateLimit(middleware.NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)))
	}

	s.router.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "http_request",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(chimw.Recoverer)

	if s.config.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.config.RequestTimeout))
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	s.router.Route("/api", func(r chi.Router) {
		if s.services.Tenants != nil {
			tenants := handlers.NewTenantsHandler(s.services.Tenants, s.logger)
			r.Get("/tenants", tenants.List)
			r.Post("/tenants", tenants.Create)
			r.Get("/tenants/{id}", tenants.Get)
			r.Delete("/tenants/{id}", tenants.Delete)

			r.Get("/accounts", tenants.ListAccounts)
			r.Post("/accounts", tenants.CreateAccount)
		}

		if s.services.Reminders != nil {
			reminders := handlers.NewRemindersHandler(s.services.Reminders, s.logger)
			r.Get("/reminders", reminders.List)
			r.Post("/reminders", reminders.Create)
			r.Put("/reminders/update", reminders.MarkSent)
			r.Post("/reminders/schedule", reminders.Schedule)
			r.Get("/reminders/due", reminders.Due)
			r.Post("/reminders/send", reminders.Send)
		}

		if s.services.Matching != nil {
			matching := handlers.NewMatchingHandler(s.services.Matching, s.logger)
			r.Post("/matching/runs", matching.Run)
			r.Get("/matching/runs", matching.ListRuns)
			r.Get("/matching/runs/{id}", matching.GetRun)
			r.Post("/matching/rerun", matching.Rerun)

			r.Get("/transactions", matching.ListTransactions)
			r.Get("/transactions/{id}", matching.GetTransaction)
			r.Get("/transactions/{id}/history", matching.History)
			r.Put("/transactions/{id}/match", matching.Override)
		}

		if s.services.Payments != nil && s.services.Matching != nil {
			payments := handlers.NewPaymentsHandler(s.services.Payments, s.services.Matching, s.logger)
			r.Post("/transactions/{id}/payment", payments.PayTransaction)
			r.Get("/payments", payments.List)
			r.Post("/payments", payments.Create)
			r.Get("/payees", payments.SearchPayees)
			r.Post("/payees", payments.RegisterPayee)
			r.Get("/balance", payments.Balance)
		}
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
