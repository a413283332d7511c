package tutor

import "go.uber.org/zap"

// Machine applies the transition table to one session context.
// It is not safe for concurrent use; the owning orchestrator serializes turns.
type Machine struct {
	ctx    *Context
	logger *zap.Logger
}

// NewMachine binds a machine to c. A nil logger disables logging.
func NewMachine(c *Context, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{ctx: c, logger: logger}
}

// Current returns the current state.
func (m *Machine) Current() State { return m.ctx.CurrentState }

// CanTransitionTo reports whether a rule leads from the current state to
// target with a passing guard. Only the first rule naming target is consulted.
func (m *Machine) CanTransitionTo(target State) bool {
	for _, r := range RulesFrom(m.ctx.CurrentState) {
		if r.To == target {
			return r.Allows(m.ctx)
		}
	}
	return false
}

// ValidTransitions returns every target reachable right now, in table order.
func (m *Machine) ValidTransitions() []State {
	var out []State
	for _, r := range RulesFrom(m.ctx.CurrentState) {
		if r.Allows(m.ctx) {
			out = append(out, r.To)
		}
	}
	return out
}

// TransitionTo moves to target when legal. An illegal request leaves the
// state untouched, logs a warning and returns false.
func (m *Machine) TransitionTo(target State) bool {
	from := m.ctx.CurrentState
	if !m.CanTransitionTo(target) {
		m.logger.Warn("invalid transition",
			zap.String("session_id", m.ctx.SessionID),
			zap.String("from", string(from)),
			zap.String("to", string(target)))
		return false
	}
	m.move(target)
	m.logger.Debug("state transition",
		zap.String("session_id", m.ctx.SessionID),
		zap.String("from", string(from)),
		zap.String("to", string(target)))
	return true
}

// NextAutoState returns the target of the first passing auto rule, or false
// when the current state is waiting for external input.
func (m *Machine) NextAutoState() (State, bool) {
	for _, r := range RulesFrom(m.ctx.CurrentState) {
		if r.Trigger == TriggerAuto && r.Allows(m.ctx) {
			return r.To, true
		}
	}
	return "", false
}

// ProcessTrigger fires the first rule matching trigger whose guard passes
// and returns the new state.
func (m *Machine) ProcessTrigger(trigger Trigger) (State, bool) {
	for _, r := range RulesFrom(m.ctx.CurrentState) {
		if r.Trigger != trigger || !r.Allows(m.ctx) {
			continue
		}
		if m.TransitionTo(r.To) {
			return r.To, true
		}
	}
	return "", false
}

// HasTrigger reports whether trigger could fire from the current state.
func (m *Machine) HasTrigger(trigger Trigger) bool {
	for _, r := range RulesFrom(m.ctx.CurrentState) {
		if r.Trigger == trigger && r.Allows(m.ctx) {
			return true
		}
	}
	return false
}

// Force moves to target without consulting the table. Reserved for learner
// commands that apply from any state: ending the session and pausing it.
func (m *Machine) Force(target State) {
	from := m.ctx.CurrentState
	m.move(target)
	m.logger.Info("forced transition",
		zap.String("session_id", m.ctx.SessionID),
		zap.String("from", string(from)),
		zap.String("to", string(target)))
}

func (m *Machine) move(target State) {
	m.ctx.PreviousState = m.ctx.CurrentState
	m.ctx.CurrentState = target
}

// IsTerminal reports whether the current state is terminal.
func (m *Machine) IsTerminal() bool { return m.ctx.CurrentState.IsTerminal() }

// IsTeaching reports whether the current state is a teaching state.
func (m *Machine) IsTeaching() bool { return m.ctx.CurrentState.IsTeaching() }

// IsAssessment reports whether the current state is an assessment state.
func (m *Machine) IsAssessment() bool { return m.ctx.CurrentState.IsAssessment() }

// Reset returns the machine to idle, remembering where it was.
func (m *Machine) Reset() {
	m.move(StateIdle)
}

// StateInfo is a point-in-time description of the machine.
type StateInfo struct {
	Current          State   `json:"current_state"`
	Previous         *State  `json:"previous_state"`
	ValidTransitions []State `json:"valid_transitions"`
	IsTerminal       bool    `json:"is_terminal"`
	IsTeaching       bool    `json:"is_teaching"`
	IsAssessment     bool    `json:"is_assessment"`
}

// Info describes the current state.
func (m *Machine) Info() StateInfo {
	info := StateInfo{
		Current:          m.ctx.CurrentState,
		ValidTransitions: m.ValidTransitions(),
		IsTerminal:       m.IsTerminal(),
		IsTeaching:       m.IsTeaching(),
		IsAssessment:     m.IsAssessment(),
	}
	if info.ValidTransitions == nil {
		info.ValidTransitions = []State{}
	}
	if m.ctx.PreviousState != "" {
		prev := m.ctx.PreviousState
		info.Previous = &prev
	}
	return info
}
