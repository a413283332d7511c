// Package registry keeps live tutoring sessions addressable by id.
package registry

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/tutor"
)

var (
	// ErrNotFound is returned for an unknown session id.
	ErrNotFound = errors.New("session not found")

	// ErrTurnInProgress is returned when a session is already handling a turn.
	ErrTurnInProgress = errors.New("session is busy with another turn")

	// ErrFull is returned when the registry is at capacity and every
	// session is mid-turn.
	ErrFull = errors.New("session registry is full")
)

// Store holds live sessions.
type Store interface {
	Create(ctx context.Context, o *session.Orchestrator) (*Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Remove(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) []*Entry
}

// Loader rebuilds a session that is not in memory, typically from a
// persisted snapshot. It returns (nil, nil) when the id is unknown.
type Loader func(ctx context.Context, id string) (*session.Orchestrator, error)

// Persister records sessions and their events outside the process.
type Persister interface {
	SaveSession(ctx context.Context, o *session.Orchestrator) error
	AppendEvent(ctx context.Context, sessionID string, e tutor.Event) error
}

// Options configures a Memory registry.
type Options struct {
	// MaxSessions bounds the number of live sessions. Zero means 1000.
	MaxSessions int

	// IdleTTL is how long a session may sit unused before Sweep drops
	// it. Zero disables expiry.
	IdleTTL time.Duration

	// SweepInterval is how often Run sweeps. Zero means one minute.
	SweepInterval time.Duration

	Loader    Loader
	Persister Persister
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Memory is an in-process Store. The least recently used idle session is
// evicted when a new one does not fit.
type Memory struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front is most recently used
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty registry.
func NewMemory(opts Options) *Memory {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	m := &Memory{
		opts:    opts,
		logger:  opts.Logger,
		now:     opts.Clock,
		entries: make(map[string]*list.Element),
		lru:     list.New(),
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Create registers a new session. The session is persisted once so it
// can be listed and reloaded before its first turn.
func (m *Memory) Create(ctx context.Context, o *session.Orchestrator) (*Entry, error) {
	e, err := m.insert(ctx, o)
	if err != nil {
		return nil, err
	}
	if m.opts.Persister != nil {
		if err := m.opts.Persister.SaveSession(ctx, o); err != nil {
			m.logger.Error("persist new session failed", zap.String("session_id", o.ID()), zap.Error(err))
		}
	}
	m.logger.Info("session created", zap.String("session_id", o.ID()), zap.String("user_id", o.UserID()))
	return e, nil
}

// Get returns a live session, asking the Loader for one that is not in
// memory.
func (m *Memory) Get(ctx context.Context, id string) (*Entry, error) {
	m.mu.Lock()
	if el, ok := m.entries[id]; ok {
		m.lru.MoveToFront(el)
		e := el.Value.(*Entry)
		m.mu.Unlock()
		return e, nil
	}
	m.mu.Unlock()

	if m.opts.Loader == nil {
		return nil, ErrNotFound
	}
	o, err := m.opts.Loader(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}

	e, err := m.insert(ctx, o)
	if errors.Is(err, errExists) {
		// Another caller loaded it first.
		return m.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	m.logger.Info("session loaded", zap.String("session_id", id))
	return e, nil
}

// Remove drops a session from memory. Persisted state is left alone.
func (m *Memory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[id]
	if !ok {
		return ErrNotFound
	}
	m.lru.Remove(el)
	delete(m.entries, id)
	el.Value.(*Entry).gone.Store(true)
	return nil
}

// ListByUser returns the user's live sessions, most recently used first.
func (m *Memory) ListByUser(_ context.Context, userID string) []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Entry
	for el := m.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*Entry)
		if e.orch.UserID() == userID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of live sessions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops sessions idle for longer than IdleTTL as of now and
// returns how many were dropped. Sessions mid-turn are skipped.
func (m *Memory) Sweep(ctx context.Context, now time.Time) int {
	if m.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var expired []*Entry
	for el := m.lru.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*Entry)
		if e.LastUsed().Before(cutoff) && e.turn.TryLock() {
			m.lru.Remove(el)
			delete(m.entries, e.ID())
			expired = append(expired, e)
		}
		el = prev
	}
	m.mu.Unlock()

	for _, e := range expired {
		m.retire(ctx, e, "expired")
	}
	if len(expired) > 0 {
		m.logger.Info("idle sessions swept", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps every SweepInterval until ctx is done.
func (m *Memory) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	m.logger.Info("session sweeper started",
		zap.Duration("interval", m.opts.SweepInterval),
		zap.Duration("ttl", m.opts.IdleTTL))
	for {
		select {
		case <-ticker.C:
			m.Sweep(ctx, m.now())
		case <-ctx.Done():
			m.logger.Info("session sweeper stopped")
			return nil
		}
	}
}

var errExists = errors.New("session already registered")

func (m *Memory) insert(ctx context.Context, o *session.Orchestrator) (*Entry, error) {
	m.mu.Lock()

	if _, ok := m.entries[o.ID()]; ok {
		m.mu.Unlock()
		return nil, errExists
	}

	var evicted *Entry
	if len(m.entries) >= m.opts.MaxSessions {
		for el := m.lru.Back(); el != nil; el = el.Prev() {
			e := el.Value.(*Entry)
			if e.turn.TryLock() {
				m.lru.Remove(el)
				delete(m.entries, e.ID())
				evicted = e
				break
			}
		}
		if evicted == nil {
			m.mu.Unlock()
			return nil, ErrFull
		}
	}

	e := &Entry{orch: o, reg: m}
	e.touch(m.now())
	m.entries[o.ID()] = m.lru.PushFront(e)
	m.mu.Unlock()

	if evicted != nil {
		m.retire(ctx, evicted, "evicted")
	}
	return e, nil
}

// retire persists a session that left memory. The caller holds its turn lock.
func (m *Memory) retire(ctx context.Context, e *Entry, reason string) {
	defer e.turn.Unlock()
	e.gone.Store(true)
	if m.opts.Persister != nil {
		if err := m.opts.Persister.SaveSession(ctx, e.orch); err != nil {
			m.logger.Error("persist retired session failed", zap.String("session_id", e.ID()), zap.Error(err))
		}
	}
	m.logger.Debug("session "+reason, zap.String("session_id", e.ID()))
}

// Entry is one live session.
type Entry struct {
	orch *session.Orchestrator
	reg  *Memory

	turn sync.Mutex
	gone atomic.Bool

	mu       sync.Mutex
	lastUsed time.Time
}

// ID returns the session id.
func (e *Entry) ID() string { return e.orch.ID() }

// Session returns the orchestrator. Its read methods are safe at any time.
func (e *Entry) Session() *session.Orchestrator { return e.orch }

// LastUsed returns when the session last started a turn.
func (e *Entry) LastUsed() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUsed
}

func (e *Entry) touch(t time.Time) {
	e.mu.Lock()
	e.lastUsed = t
	e.mu.Unlock()
}

// TurnFunc runs one turn against a session.
type TurnFunc func(ctx context.Context, o *session.Orchestrator, sink tutor.Sink) error

// Turn runs fn with exclusive use of the session. A second turn started
// while one is running fails with ErrTurnInProgress instead of waiting.
// Every event fn emits goes to sink and to the persister; the session is
// saved when fn returns, whether or not it failed.
func (e *Entry) Turn(ctx context.Context, sink tutor.Sink, fn TurnFunc) error {
	if !e.turn.TryLock() {
		return ErrTurnInProgress
	}
	defer e.turn.Unlock()
	if e.gone.Load() {
		return ErrNotFound
	}

	e.touch(e.reg.now())
	e.reg.mu.Lock()
	if el, ok := e.reg.entries[e.ID()]; ok {
		e.reg.lru.MoveToFront(el)
	}
	e.reg.mu.Unlock()

	p := e.reg.opts.Persister
	if p == nil {
		return fn(ctx, e.orch, sink)
	}

	logger := e.reg.logger.With(zap.String("session_id", e.ID()))
	record := tutor.SinkFunc(func(ev tutor.Event) {
		if err := p.AppendEvent(ctx, e.ID(), ev); err != nil {
			logger.Error("persist event failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
		}
	})
	if sink == nil {
		sink = tutor.Discard
	}

	err := fn(ctx, e.orch, tutor.Tee(sink, record))
	if serr := p.SaveSession(context.WithoutCancel(ctx), e.orch); serr != nil {
		logger.Error("persist session failed", zap.Error(serr))
	}
	return err
}
