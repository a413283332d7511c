package server

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/registry"
	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/tutor"
)

// wsMessage is one inbound chat frame. Action defaults to "message".
type wsMessage struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

// chat runs a session over a WebSocket: every inbound frame is one turn,
// every event is one outbound frame, and each turn ends with a complete
// frame. A session that has not started is started on connect.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entry(w, r)
	if !ok {
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		s.logger.Error("websocket accept failed", zap.String("session_id", e.ID()), zap.Error(err))
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	logger := s.logger.With(zap.String("session_id", e.ID()))

	send := func(v any) {
		if err := wsjson.Write(ctx, c, v); err != nil {
			logger.Debug("websocket write failed", zap.Error(err))
		}
	}
	sink := tutor.SinkFunc(func(ev tutor.Event) { send(ev) })

	run := func(done tutor.EventKind, op registry.TurnFunc) {
		if err := e.Turn(ctx, sink, op); err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				logger.Error("turn failed", zap.Error(err))
			}
			send(map[string]any{"event": tutor.EventError, "message": err.Error()})
			return
		}
		send(map[string]any{"event": done, "state": e.Session().Status().State.Current})
	}

	if e.Session().Phase() == session.PhaseNotStarted {
		run(tutor.EventReady, func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
			return o.Start(ctx, sink)
		})
	} else {
		send(map[string]any{"event": tutor.EventReady, "state": e.Session().Status().State.Current})
	}

	for {
		var msg wsMessage
		if err := wsjson.Read(ctx, c, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				logger.Debug("websocket closed by client")
			} else {
				logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		var op registry.TurnFunc
		switch msg.Action {
		case "", "message":
			text := msg.Message
			op = func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
				return o.HandleInput(ctx, sink, text)
			}
		case "pause":
			op = func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
				return o.Pause(ctx, sink)
			}
		case "resume":
			op = func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
				return o.Resume(ctx, sink)
			}
		case "end":
			op = func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
				return o.End(ctx, sink)
			}
		default:
			send(map[string]any{"event": tutor.EventError, "message": "unknown action " + msg.Action})
			continue
		}
		run(tutor.EventComplete, op)

		if e.Session().Phase() == session.PhaseEnded {
			c.Close(websocket.StatusNormalClosure, "session ended")
			return
		}
	}
}
