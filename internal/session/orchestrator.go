package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/tutor"
)

// Phase is the driver lifecycle, coarser than the tutor state.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning    Phase = "running"
	PhaseEnded      Phase = "ended"
)

var (
	ErrNotStarted     = errors.New("session not started")
	ErrAlreadyStarted = errors.New("session already started")
	ErrSessionEnded   = errors.New("session has ended")
	ErrEmptyInput     = errors.New("empty input")
	ErrNotPaused      = errors.New("session is not paused")
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfig replaces the default Config.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg.withDefaults() }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStateObserver registers fn to be called after every state change,
// including changes that are later rolled back by a failed turn.
func WithStateObserver(fn func(from, to tutor.State)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// Orchestrator drives one tutoring session. Each turn method runs the
// state machine until it needs learner input and reports everything it
// says through the sink it was given. Turns are serialized; read methods
// return the view published at the end of the last turn and never block
// on a running turn.
type Orchestrator struct {
	sc       *tutor.Context
	machine  *tutor.Machine
	provider llm.Provider
	cfg      Config
	logger   *zap.Logger
	observer func(from, to tutor.State)

	turnMu sync.Mutex
	phase  Phase

	viewMu  sync.RWMutex
	status  Status
	summary Summary
	history []tutor.Message
}

// New creates an orchestrator for sc. A context restored from a snapshot
// continues in the phase its state implies.
func New(sc *tutor.Context, provider llm.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sc:       sc,
		provider: provider,
		cfg:      DefaultConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(zap.String("session_id", sc.SessionID))
	o.machine = tutor.NewMachine(sc, o.logger)

	switch sc.CurrentState {
	case tutor.StateIdle:
		o.phase = PhaseNotStarted
	case tutor.StateSessionComplete:
		o.phase = PhaseEnded
	default:
		o.phase = PhaseRunning
	}
	o.publish()
	return o
}

// ID returns the session id.
func (o *Orchestrator) ID() string { return o.sc.SessionID }

// UserID returns the owning learner.
func (o *Orchestrator) UserID() string { return o.sc.UserID }

// Context returns the live session context. Callers must not touch it
// while a turn is running.
func (o *Orchestrator) Context() *tutor.Context { return o.sc }

// Phase returns the driver phase as of the last completed turn.
func (o *Orchestrator) Phase() Phase {
	o.viewMu.RLock()
	defer o.viewMu.RUnlock()
	return o.status.Phase
}

// Status returns the session status as of the last completed turn.
func (o *Orchestrator) Status() Status {
	o.viewMu.RLock()
	defer o.viewMu.RUnlock()
	return o.status
}

// Summary returns the learning summary as of the last completed turn.
func (o *Orchestrator) Summary() Summary {
	o.viewMu.RLock()
	defer o.viewMu.RUnlock()
	return o.summary
}

// History returns the conversation as of the last completed turn.
func (o *Orchestrator) History() []tutor.Message {
	o.viewMu.RLock()
	defer o.viewMu.RUnlock()
	return append([]tutor.Message(nil), o.history...)
}

// Start begins the session: the tutor welcomes the learner and runs until
// the first question is asked.
func (o *Orchestrator) Start(ctx context.Context, sink tutor.Sink) error {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	switch o.phase {
	case PhaseRunning:
		return ErrAlreadyStarted
	case PhaseEnded:
		return ErrSessionEnded
	}
	return o.transact("start", func() error {
		o.phase = PhaseRunning
		o.sc.MarkStarted()
		o.emit(sink, tutor.EventSessionStart, "", nil, tutor.StateIdle)
		if !o.fire(tutor.TriggerStart) {
			return nil
		}
		return o.drain(ctx, sink)
	})
}

// HandleInput processes one learner message.
func (o *Orchestrator) HandleInput(ctx context.Context, sink tutor.Sink, text string) error {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	if err := o.checkRunning(); err != nil {
		return err
	}
	if isBlank(text) {
		return ErrEmptyInput
	}
	return o.transact("input", func() error {
		return o.dispatch(ctx, sink, text)
	})
}

// Pause suspends the session as if the learner asked for a break.
func (o *Orchestrator) Pause(ctx context.Context, sink tutor.Sink) error {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	if err := o.checkRunning(); err != nil {
		return err
	}
	if o.sc.Paused {
		return nil
	}
	return o.transact("pause", func() error {
		o.takeBreak(sink)
		return nil
	})
}

// Resume continues a paused session with the next lesson introduction.
func (o *Orchestrator) Resume(ctx context.Context, sink tutor.Sink) error {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	if err := o.checkRunning(); err != nil {
		return err
	}
	if !o.sc.Paused {
		return ErrNotPaused
	}
	return o.transact("resume", func() error {
		return o.resume(ctx, sink)
	})
}

// End finishes the session with a closing message and final summary.
func (o *Orchestrator) End(ctx context.Context, sink tutor.Sink) error {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	if err := o.checkRunning(); err != nil {
		return err
	}
	return o.transact("end", func() error {
		return o.endSession(ctx, sink)
	})
}

func (o *Orchestrator) checkRunning() error {
	switch o.phase {
	case PhaseNotStarted:
		return ErrNotStarted
	case PhaseEnded:
		return ErrSessionEnded
	}
	return nil
}

// transact runs fn against the session and restores the context it had
// before fn when fn fails. The caller holds turnMu.
func (o *Orchestrator) transact(name string, fn func() error) error {
	saved := o.sc.Clone()
	savedPhase := o.phase

	err := fn()
	if err != nil {
		o.sc.Restore(saved)
		o.phase = savedPhase
		o.logger.Warn("turn rolled back",
			zap.String("turn", name),
			zap.String("state", string(o.sc.CurrentState)),
			zap.Error(err))
	}
	o.publish()
	return err
}

// drain runs behaviors until one leaves the state unchanged, which means
// the tutor is waiting for the learner.
func (o *Orchestrator) drain(ctx context.Context, sink tutor.Sink) error {
	for step := 0; step < o.cfg.MaxDrainSteps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		state := o.sc.CurrentState
		o.emit(sink, tutor.EventStateChange, "", nil, state)

		moved, err := o.behave(ctx, sink, state)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
	}
	o.logger.Error("drain step limit reached",
		zap.Int("max_steps", o.cfg.MaxDrainSteps),
		zap.String("state", string(o.sc.CurrentState)))
	return nil
}

func (o *Orchestrator) emit(sink tutor.Sink, kind tutor.EventKind, content string, data map[string]any, state tutor.State) {
	if sink == nil {
		return
	}
	sink.Emit(tutor.Event{
		Kind:      kind,
		Content:   content,
		Data:      data,
		State:     state,
		Timestamp: o.sc.Now(),
	})
}

func (o *Orchestrator) notify(from, to tutor.State) {
	if o.observer != nil {
		o.observer(from, to)
	}
}

func (o *Orchestrator) transitionTo(target tutor.State) bool {
	from := o.sc.CurrentState
	if !o.machine.TransitionTo(target) {
		return false
	}
	o.notify(from, target)
	return true
}

func (o *Orchestrator) fire(trigger tutor.Trigger) bool {
	from := o.sc.CurrentState
	to, ok := o.machine.ProcessTrigger(trigger)
	if ok {
		o.notify(from, to)
	}
	return ok
}

func (o *Orchestrator) force(target tutor.State) {
	from := o.sc.CurrentState
	o.machine.Force(target)
	o.notify(from, target)
}

// moveOn transitions to target, announcing the move with its transition
// phrase when it has one.
func (o *Orchestrator) moveOn(sink tutor.Sink, target tutor.State) bool {
	from := o.sc.CurrentState
	if o.machine.CanTransitionTo(target) {
		if phrase := TransitionPhrase(from, target); phrase != "" {
			o.emit(sink, tutor.EventTransition, phrase, nil, "")
		}
	}
	return o.transitionTo(target)
}

func (o *Orchestrator) publish() {
	st := o.buildStatus()
	sum := o.buildSummary()
	hist := append([]tutor.Message(nil), o.sc.History...)

	o.viewMu.Lock()
	defer o.viewMu.Unlock()
	o.status = st
	o.summary = sum
	o.history = hist
}
