// Package chat is the terminal conversation with a tutoring session.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/registry"
	"github.com/abhisek/tutorly/internal/router"
	"github.com/abhisek/tutorly/internal/screen"
	"github.com/abhisek/tutorly/internal/screens/summary"
	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/tutor"
	"github.com/abhisek/tutorly/internal/ui/components"
	"github.com/abhisek/tutorly/internal/ui/layout"
)

// Options configures a chat screen.
type Options struct {
	// Sessions, when set, forgets the session once it has ended.
	Sessions registry.Store
	Logger   *zap.Logger
}

// ChatScreen drives one session: every submitted line is a turn whose
// events stream into the transcript as they are emitted.
type ChatScreen struct {
	entry    *registry.Entry
	sessions registry.Store
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	input      components.TextInput
	transcript transcript
	status     session.Status
	liveState  tutor.State

	busy   bool
	events <-chan tutor.Event
	done   <-chan error
	errMsg string
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)
var _ screen.StatusProvider = (*ChatScreen)(nil)
var _ screen.Closer = (*ChatScreen)(nil)

// New creates a chat screen for a registered session.
func New(e *registry.Entry, opts Options) *ChatScreen {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &ChatScreen{
		entry:    e,
		sessions: opts.Sessions,
		logger:   logger.With(zap.String("session_id", e.ID())),
		ctx:      ctx,
		cancel:   cancel,
		input:    components.NewTextInput("Type a reply, or /pause, /resume, /end", 500),
		status:   e.Session().Status(),
	}
	s.liveState = s.status.State.Current
	for _, m := range e.Session().History() {
		if m.Role == "user" {
			s.transcript.add(lineLearner, m.Content)
		} else {
			s.transcript.add(lineTutor, m.Content)
		}
	}
	if s.status.Paused {
		s.transcript.add(lineNotice, "This session is paused. Type /resume when you are ready.")
	}
	return s
}

func (s *ChatScreen) Init() tea.Cmd {
	return tea.Batch(s.input.Init(), s.begin())
}

// begin starts a session that has never run.
func (s *ChatScreen) begin() tea.Cmd {
	if s.entry.Session().Phase() != session.PhaseNotStarted {
		return nil
	}
	return s.runTurn(func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
		return o.Start(ctx, sink)
	})
}

func (s *ChatScreen) Title() string {
	return layout.Truncate(s.status.Selection.DisplayChapter(), 40)
}

func (s *ChatScreen) Status() string {
	st := string(s.liveState)
	if st == "" {
		st = string(tutor.StateIdle)
	}
	st = strings.ReplaceAll(st, "_", " ")
	if s.status.TotalTopics > 0 {
		st += fmt.Sprintf("  topic %d/%d", max(s.status.TopicNumber, 1), s.status.TotalTopics)
	}
	return st
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.busy {
		return []layout.KeyHint{
			{Key: "", Description: "Tutor is responding..."},
			{Key: "Esc", Description: "Leave"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "/pause /resume /end", Description: "Session"},
		{Key: "Esc", Description: "Leave"},
	}
}

// Close stops the running turn, if any.
func (s *ChatScreen) Close() {
	s.cancel()
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		s.apply(msg.Event)
		return s, s.wait()

	case turnDoneMsg:
		return s, s.finishTurn(msg.Err)

	case tea.KeyMsg:
		if msg.String() == "enter" {
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// submit turns the typed line into a turn.
func (s *ChatScreen) submit() tea.Cmd {
	if s.busy {
		return nil
	}
	text := s.input.Take()
	if text == "" {
		return nil
	}
	s.errMsg = ""

	switch strings.ToLower(text) {
	case "/pause":
		return s.runTurn(func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
			return o.Pause(ctx, sink)
		})
	case "/resume":
		return s.runTurn(func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
			return o.Resume(ctx, sink)
		})
	case "/end":
		return s.runTurn(func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
			return o.End(ctx, sink)
		})
	}

	s.transcript.add(lineLearner, text)
	return s.runTurn(func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error {
		return o.HandleInput(ctx, sink, text)
	})
}

// runTurn runs op in the background and returns the command that relays
// its first event.
func (s *ChatScreen) runTurn(op registry.TurnFunc) tea.Cmd {
	events := make(chan tutor.Event, 16)
	done := make(chan error, 1)
	ctx := s.ctx
	entry := s.entry

	go func() {
		err := entry.Turn(ctx, tutor.ChanSink(ctx, events), op)
		close(events)
		done <- err
	}()

	s.busy = true
	s.events = events
	s.done = done
	return s.wait()
}

func (s *ChatScreen) wait() tea.Cmd {
	events, done := s.events, s.done
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		if ev, ok := <-events; ok {
			return eventMsg{Event: ev}
		}
		return turnDoneMsg{Err: <-done}
	}
}

func (s *ChatScreen) finishTurn(err error) tea.Cmd {
	s.busy = false
	s.events, s.done = nil, nil
	s.status = s.entry.Session().Status()
	s.liveState = s.status.State.Current

	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case errors.Is(err, session.ErrEmptyInput),
			errors.Is(err, session.ErrNotPaused),
			errors.Is(err, session.ErrSessionEnded),
			errors.Is(err, registry.ErrTurnInProgress):
			s.logger.Debug("turn rejected", zap.Error(err))
		default:
			s.logger.Error("turn failed", zap.Error(err))
		}
		s.errMsg = err.Error()
		return nil
	}

	if s.entry.Session().Phase() != session.PhaseEnded {
		return nil
	}
	if s.sessions != nil {
		if err := s.sessions.Remove(context.Background(), s.entry.ID()); err != nil && !errors.Is(err, registry.ErrNotFound) {
			s.logger.Warn("remove ended session failed", zap.Error(err))
		}
	}
	sum := summary.New(s.entry.Session().Summary(), s.status.Selection.DisplayChapter())
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: sum} }
}

// apply adds an event to the transcript.
func (s *ChatScreen) apply(ev tutor.Event) {
	if ev.State != "" {
		s.liveState = ev.State
	}
	switch ev.Kind {
	case tutor.EventAgentSpeak, tutor.EventAskQuestion, tutor.EventSuggestBreak,
		tutor.EventLessonComplete, tutor.EventSessionComplete:
		s.transcript.add(lineTutor, ev.Content)
	case tutor.EventAssessmentFeedback:
		kind := lineWrong
		if ok, _ := ev.Data["is_correct"].(bool); ok {
			kind = lineRight
		}
		s.transcript.add(kind, ev.Content)
	case tutor.EventTransition, tutor.EventSessionPaused:
		s.transcript.add(lineNotice, ev.Content)
	}
}
