// Package server wires the HTTP surface: router, middleware, and the
// per-route authorization guards.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/binfleet/binfleet/internal/handler"
	"github.com/binfleet/binfleet/internal/server/middleware"
	"github.com/binfleet/binfleet/internal/session"
	"github.com/binfleet/binfleet/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	LoginRateLimit  int // attempts per IP per minute
	PersistentLogin handler.PersistentLogin
	BcryptCost      int
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		LoginRateLimit:  10,
		PersistentLogin: handler.PersistentLogin{Janitor: true},
	}
}

// Server is the top-level HTTP server. It owns the chi router, the store,
// and the session manager.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	sessions   *session.Manager
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired, ready for
// ListenAndServe.
func New(cfg Config, st *store.Store, sessions *session.Manager, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handler.NewAuthHandler(s.store, s.sessions, s.cfg.PersistentLogin, s.cfg.BcryptCost, s.logger)
	binHandler := handler.NewBinHandler(s.store, s.logger)
	janitorHandler := handler.NewJanitorHandler(s.store, s.cfg.BcryptCost, s.logger)
	collectionHandler := handler.NewCollectionHandler(s.store, s.logger)
	notificationHandler := handler.NewNotificationHandler(s.store, s.logger)
	reportHandler := handler.NewReportHandler(s.store, s.logger)
	profileHandler := handler.NewProfileHandler(s.store, s.cfg.BcryptCost, s.logger)

	// Health checks, no auth.
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(s.sessions))

		// Login endpoints: unauthenticated, rate limited per IP.
		r.Group(func(r chi.Router) {
			if s.cfg.LoginRateLimit > 0 {
				r.Use(middleware.LoginRateLimit(s.cfg.LoginRateLimit))
			}
			r.Post("/auth/admin/login", authHandler.AdminLogin)
			r.Post("/auth/janitor/login", authHandler.JanitorLogin)
		})
		r.Post("/auth/logout", authHandler.Logout)

		// Admin surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			r.Get("/bins", binHandler.List)
			r.Post("/bins", binHandler.Create)
			r.Get("/bins/{binID}", binHandler.Get)
			r.Put("/bins/{binID}", binHandler.Update)
			r.Delete("/bins/{binID}", binHandler.Delete)
			r.Post("/bins/{binID}/assign", binHandler.Assign)

			r.Get("/janitors", janitorHandler.List)
			r.Post("/janitors", janitorHandler.Create)
			r.Get("/janitors/{janitorID}", janitorHandler.Get)
			r.Put("/janitors/{janitorID}", janitorHandler.Update)
			r.Delete("/janitors/{janitorID}", janitorHandler.Delete)

			r.Get("/collections", collectionHandler.List)
			r.Get("/reports", reportHandler.List)
			r.Post("/reports", reportHandler.Create)
			r.Get("/dashboard/stats", reportHandler.DashboardStats)
		})

		// Janitor surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJanitor())

			r.Post("/bins/{binID}/collect", collectionHandler.Collect)
			r.Get("/me", profileHandler.Me)
			r.Put("/me", profileHandler.UpdateMe)
			r.Post("/me/password", profileHandler.ChangePassword)
			r.Get("/me/assignments", profileHandler.MyAssignments)
			r.Get("/me/collections", collectionHandler.Mine)
		})

		// Any authenticated identity.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin())

			r.Get("/notifications", notificationHandler.List)
			r.Post("/notifications/{notificationID}/read", notificationHandler.MarkRead)
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz reports 200 when the database is reachable, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// ListenAndServe starts the server and blocks until SIGINT or SIGTERM,
// then drains in-flight requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the chi router, useful for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
