// Package server exposes tutoring sessions over HTTP, SSE and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/registry"
	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/store"
)

// UserHeader carries the caller's identity. Authentication happens in
// front of this service.
const UserHeader = "X-User-ID"

// Server routes tutoring requests to live sessions.
type Server struct {
	sessions registry.Store
	factory  *session.Factory
	records  store.SessionRepo
	logger   *zap.Logger
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSessionRepo lets session listings include persisted sessions that
// are not currently in memory.
func WithSessionRepo(r store.SessionRepo) Option {
	return func(s *Server) { s.records = r }
}

// New creates a server over a session registry.
func New(sessions registry.Store, factory *session.Factory, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		factory:  factory,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	r.Route("/api/tutor", func(r chi.Router) {
		r.Use(requireUser)

		r.Post("/sessions", s.createSession)
		r.Get("/sessions", s.listSessions)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.getStatus)
			r.Get("/stream", s.streamStart)
			r.Post("/respond", s.respond)
			r.Post("/pause", s.pause)
			r.Post("/resume", s.resume)
			r.Post("/end", s.end)
			r.Get("/history", s.history)
			r.Get("/ws", s.chat)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// Streams stay open for a whole turn.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errc
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

type userKey struct{}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(UserHeader)
		if user == "" {
			user = r.URL.Query().Get("user")
		}
		if user == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

func userFrom(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps session and registry errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrTurnInProgress),
		errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrNotStarted),
		errors.Is(err, session.ErrSessionEnded),
		errors.Is(err, session.ErrNotPaused):
		return http.StatusConflict
	case errors.Is(err, registry.ErrFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrEmptyInput),
		errors.Is(err, session.ErrInvalidSelection):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
