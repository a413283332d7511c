package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/registry"
	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/tutor"
)

type sessionItem struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	State        string    `json:"state"`
	StudentLevel string    `json:"student_level"`
	Paused       bool      `json:"is_paused"`
	Live         bool      `json:"live"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var sel tutor.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := s.factory.New(r.Context(), userFrom(r.Context()), sel)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if _, err := s.sessions.Create(r.Context(), o); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": o.ID(),
		"status":     o.Status(),
		"message":    "Session created successfully",
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFrom(ctx)

	items := []sessionItem{}
	seen := make(map[string]bool)
	for _, e := range s.sessions.ListByUser(ctx, user) {
		st := e.Session().Status()
		items = append(items, sessionItem{
			SessionID:    st.SessionID,
			Title:        st.Selection.DisplayChapter(),
			State:        string(st.State.Current),
			StudentLevel: string(st.StudentLevel),
			Paused:       st.Paused,
			Live:         true,
			UpdatedAt:    e.LastUsed(),
		})
		seen[st.SessionID] = true
	}

	if s.records != nil {
		recs, err := s.records.List(ctx, user, 50)
		if err != nil {
			s.logger.Error("list sessions failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list sessions")
			return
		}
		for _, rec := range recs {
			if seen[rec.ID] {
				continue
			}
			items = append(items, sessionItem{
				SessionID:    rec.ID,
				Title:        rec.Title,
				State:        rec.State,
				StudentLevel: rec.StudentLevel,
				Paused:       rec.Paused,
				UpdatedAt:    rec.UpdatedAt,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": items})
}

// entry finds the caller's session, writing the error response when it
// cannot.
func (s *Server) entry(w http.ResponseWriter, r *http.Request) (*registry.Entry, bool) {
	e, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) {
			s.logger.Error("load session failed", zap.String("session_id", chi.URLParam(r, "id")), zap.Error(err))
		}
		writeError(w, statusFor(err), "session not found")
		return nil, false
	}
	if e.Session().UserID() != userFrom(r.Context()) {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return e, true
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e.Session().Status())
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": e.ID(),
		"history":    e.Session().History(),
	})
}

func (s *Server) streamStart(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	s.streamTurn(w, r, e, tutor.EventReady, func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
		err := o.Start(ctx, sink)
		if errors.Is(err, session.ErrAlreadyStarted) {
			// A reconnecting client only needs the ready frame.
			return nil
		}
		return err
	})
}

type respondRequest struct {
	Message string `json:"message"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.streamTurn(w, r, e, tutor.EventComplete, func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
		return o.HandleInput(ctx, sink, req.Message)
	})
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	s.streamTurn(w, r, e, tutor.EventComplete, func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
		return o.Resume(ctx, sink)
	})
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	err := e.Turn(r.Context(), nil, func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
		return o.Pause(ctx, sink)
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	st := e.Session().Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Session paused",
		"state":   st.State.Current,
	})
}

func (s *Server) end(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}
	var events tutor.Collector
	err := e.Turn(r.Context(), &events, func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
		return o.End(ctx, sink)
	})
	switch {
	case err == nil, errors.Is(err, session.ErrNotStarted), errors.Is(err, session.ErrSessionEnded):
	default:
		if statusFor(err) == http.StatusInternalServerError {
			s.logger.Error("end session failed", zap.String("session_id", e.ID()), zap.Error(err))
		}
		writeError(w, statusFor(err), err.Error())
		return
	}

	if err := s.sessions.Remove(r.Context(), e.ID()); err != nil && !errors.Is(err, registry.ErrNotFound) {
		s.logger.Warn("remove ended session failed", zap.String("session_id", e.ID()), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Session ended successfully",
		"summary": e.Session().Summary(),
		"events":  events.Events(),
	})
}

// streamTurn runs op as one turn and relays its events as server-sent
// events, closing with a frame of kind done. Errors raised before the
// first event become plain JSON error responses.
func (s *Server) streamTurn(w http.ResponseWriter, r *http.Request, e *registry.Entry, done tutor.EventKind, op registry.TurnFunc) {
	stream := &sseStream{w: w}
	err := e.Turn(r.Context(), stream, op)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("turn failed", zap.String("session_id", e.ID()), zap.Error(err))
		}
		if !stream.Started() {
			writeError(w, status, err.Error())
			return
		}
		stream.send(map[string]any{"event": tutor.EventError, "message": err.Error()})
		return
	}
	stream.send(map[string]any{"event": done, "state": e.Session().Status().State.Current})
}

// sseStream writes events as "data:" frames, sending the stream headers
// with the first frame.
type sseStream struct {
	w       http.ResponseWriter
	mu      sync.Mutex
	started bool
}

func (s *sseStream) Emit(e tutor.Event) { s.send(e) }

func (s *sseStream) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *sseStream) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	fmt.Fprintf(s.w, "data: %s\n\n", b)
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
