package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	// LLM request log only.
	SessionID string // exact session
	Purpose   string // exact purpose, or a family: "tutor" matches "tutor:assessment"
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	SessionID    string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request event.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one request purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// TutorEventData is one tutor event as it is written to the log.
// Data holds the event payload already encoded as JSON.
type TutorEventData struct {
	SessionID string
	Kind      string
	State     string
	Content   string
	Data      json.RawMessage
	Timestamp time.Time
}

// TutorEvent is a stored tutor event.
type TutorEvent struct {
	ID       int
	Sequence int64
	TutorEventData
}

// EventRepo provides append and query access to the event logs.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns LLM events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one LLM event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates LLM usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates LLM usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// AppendTutorEvent records one event emitted to a student.
	AppendTutorEvent(ctx context.Context, data TutorEventData) error

	// QueryTutorEvents returns a session's events in emission order.
	QueryTutorEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]TutorEvent, error)
}

// SessionRecord is the persisted form of a tutoring session. Snapshot is
// the session context serialized by the tutor package; the other fields
// are denormalized from it for listing.
type SessionRecord struct {
	ID           string
	UserID       string
	Board        string
	Subject      string
	Chapter      string
	Title        string
	State        string
	StudentLevel string
	Paused       bool
	Snapshot     json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionRepo persists session snapshots.
type SessionRepo interface {
	// Save inserts or replaces a session. CreatedAt is kept from the
	// first save.
	Save(ctx context.Context, rec SessionRecord) error

	// Get returns a session, or nil if it does not exist.
	Get(ctx context.Context, id string) (*SessionRecord, error)

	// List returns sessions ordered by most recent update. An empty
	// userID lists every user's sessions.
	List(ctx context.Context, userID string, limit int) ([]SessionRecord, error)

	// Delete removes a session and its events.
	Delete(ctx context.Context, id string) error
}
