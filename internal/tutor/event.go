package tutor

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// EventKind tags an event in the stream.
type EventKind string

const (
	EventSessionStart       EventKind = "session_start"
	EventStateChange        EventKind = "state_change"
	EventAgentSpeak         EventKind = "agent_speak"
	EventAskQuestion        EventKind = "ask_question"
	EventAssessmentFeedback EventKind = "assessment_feedback"
	EventTransition         EventKind = "transition"
	EventSuggestBreak       EventKind = "suggest_break"
	EventLessonComplete     EventKind = "lesson_complete"
	EventSessionComplete    EventKind = "session_complete"
	EventSessionPaused      EventKind = "session_paused"
	EventInputReceived      EventKind = "input_received"

	// Transport framing kinds; never produced by the orchestrator.
	EventReady    EventKind = "ready"
	EventComplete EventKind = "complete"
	EventError    EventKind = "error"
)

// Event is one unit of the stream relayed to the learner's client.
type Event struct {
	Kind      EventKind
	Content   string
	Data      map[string]any
	State     State // empty means no state
	Timestamp time.Time
}

// NewEvent builds an event stamped with the current time.
func NewEvent(kind EventKind, content string, data map[string]any, state State) Event {
	return Event{Kind: kind, Content: content, Data: data, State: state, Timestamp: time.Now().UTC()}
}

type wireEvent struct {
	Event     EventKind      `json:"event"`
	Content   string         `json:"content"`
	Data      map[string]any `json:"data"`
	State     *State         `json:"state"`
	Timestamp string         `json:"timestamp"`
}

// MarshalJSON renders the transport payload
// {event, content, data, state|null, timestamp}.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{
		Event:     e.Kind,
		Content:   e.Content,
		Data:      e.Data,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if w.Data == nil {
		w.Data = map[string]any{}
	}
	if e.State != "" {
		st := e.State
		w.State = &st
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the transport payload.
func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	e.Kind = w.Event
	e.Content = w.Content
	e.Data = w.Data
	e.State = ""
	if w.State != nil {
		e.State = *w.State
	}
	e.Timestamp = time.Time{}
	if w.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
		if err != nil {
			return err
		}
		e.Timestamp = ts
	}
	return nil
}

// Sink receives events in emission order.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Collector buffers events in memory.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends e.
func (c *Collector) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of everything collected so far.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Kinds returns the kinds of the collected events in order.
func (c *Collector) Kinds() []EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]EventKind, len(c.events))
	for i, e := range c.events {
		out[i] = e.Kind
	}
	return out
}

// Reset drops collected events.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// ChanSink forwards events to ch, blocking until the consumer receives them
// or ctx is done.
func ChanSink(ctx context.Context, ch chan<- Event) Sink {
	return SinkFunc(func(e Event) {
		select {
		case ch <- e:
		case <-ctx.Done():
		}
	})
}

// Tee emits every event to each sink in turn.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(e)
			}
		}
	})
}
