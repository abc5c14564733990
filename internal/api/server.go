// Package api exposes the db-hub services over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/luisdotcom/db-hub/internal/app"
	"github.com/luisdotcom/db-hub/internal/auth"
	"github.com/luisdotcom/db-hub/internal/config"
)

// Server is the HTTP front end of an App.
type Server struct {
	app      *app.App
	sessions *auth.Manager
	cfg      config.ServerConfig
	logger   *slog.Logger
	router   chi.Router
}

// NewServer builds the router. Everything except the root, /health and
// /auth/* requires a session.
func NewServer(a *app.App, sessions *auth.Manager, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{app: a, sessions: sessions, cfg: cfg, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Get("/session", s.handleSession)
		r.Post("/logout", s.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)

		r.Route("/api/query", func(r chi.Router) {
			r.Post("/execute", s.handleExecute)
			r.Get("/classify", s.handleClassify)

			r.Get("/databases/{target}", s.handleListDatabases)
			r.Post("/databases/{target}", s.handleCreateDatabase)
			r.Delete("/databases/{target}", s.handleDropDatabase)
			r.Delete("/databases/{target}/{name}", s.handleDropDatabase)

			r.Get("/tables/{target}", s.handleListTables)
			r.Get("/views/{target}", s.handleListViews)
			r.Get("/procedures/{target}", s.handleListProcedures)
			r.Get("/functions/{target}", s.handleListFunctions)
			r.Get("/triggers/{target}", s.handleListTriggers)
			r.Get("/refresh/{target}", s.handleRefresh)

			r.Get("/schema/primary-keys/{target}/{table}", s.handlePrimaryKeys)
			r.Get("/schema/indexes/{target}/{table}", s.handleIndexes)
			r.Get("/schema/foreign-keys/{target}/{table}", s.handleForeignKeys)
			r.Get("/schema/{target}/{table}", s.handleTableSchema)
			r.Get("/schema/{target}/{table}/detail", s.handleTableDetail)

			r.Get("/definition/{target}/{type}/{name}", s.handleDefinition)
			r.Post("/quick-action", s.handleQuickAction)

			r.Post("/data/update", s.handleUpdateRow)
			r.Post("/data/delete", s.handleDeleteRow)

			r.Get("/connection/test/{target}", s.handleTestConnection)
		})

		r.Route("/api/history", func(r chi.Router) {
			r.Get("/", s.handleListHistory)
			r.Post("/", s.handleAddHistory)
			r.Delete("/", s.handleClearHistory)
			r.Delete("/{id}", s.handleDeleteHistory)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", s.handleListConnections)
			r.Post("/", s.handleCreateConnection)
			r.Get("/{id}", s.handleGetConnection)
			r.Put("/{id}", s.handleUpdateConnection)
			r.Delete("/{id}", s.handleDeleteConnection)
		})
	})
	return r
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	s.logger.Info("HTTP API listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	s.logger.Info("shutting down HTTP API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Database Query API",
		"version": s.app.Version(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"open_handles": s.app.OpenHandles(),
	})
}
