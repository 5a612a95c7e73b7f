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

	"github.com/MustakimRidoyMR/rewards-admin/internal/auditlog"
	"github.com/MustakimRidoyMR/rewards-admin/internal/editor"
	"github.com/MustakimRidoyMR/rewards-admin/internal/handler"
	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
	"github.com/MustakimRidoyMR/rewards-admin/internal/recordstore"
	"github.com/MustakimRidoyMR/rewards-admin/internal/server/middleware"
	"github.com/MustakimRidoyMR/rewards-admin/internal/service"
	"github.com/MustakimRidoyMR/rewards-admin/internal/session"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	LoginRatePerMin int
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		LoginRatePerMin: 10,
	}
}

// Server is the top-level HTTP server for the rewards admin console. It owns
// the Chi router, the session manager, the record editor, and the action log.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *recordstore.Client
	sessions   *session.Manager
	editor     *editor.Editor
	audit      *auditlog.Log
	tokens     *service.TokenService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, store *recordstore.Client, sessions *session.Manager, ed *editor.Editor, audit *auditlog.Log, tokens *service.TokenService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		editor:   ed,
		audit:    audit,
		tokens:   tokens,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {
		sessionHandler := handler.NewSessionHandler(s.sessions, s.tokens)
		userHandler := handler.NewUserHandler(s.editor, s.audit)
		logsHandler := handler.NewLogsHandler(s.audit)

		// Login is unauthenticated and rate limited per client IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.LoginRatePerMin))
			r.Post("/session", sessionHandler.Login)
		})

		// Everything below requires a valid session token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.tokens))

			r.Get("/session", sessionHandler.Me)
			r.Delete("/session", sessionHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermUserManagement))
				r.Get("/users/{email}", userHandler.Get)
				r.Get("/logs", logsHandler.List)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermLimitedEdit))
				r.Patch("/users/{email}", userHandler.Patch)
			})
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the record store is
// reachable, or 503 when it is not.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if err := s.store.Ping(r.Context(), recordstore.UsersFolder); err != nil {
		checks["record_store"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["record_store"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning.
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
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
