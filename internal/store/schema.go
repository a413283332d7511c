package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names used by the repositories.
const (
	tableSessions    = "tutor_sessions"
	tableTutorEvents = "tutor_events"
	tableLLMEvents   = "llm_request_events"
)

var (
	// sessionsColumns holds the columns for the "tutor_sessions" table.
	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "board", Type: field.TypeString, Default: ""},
		{Name: "subject", Type: field.TypeString, Default: ""},
		{Name: "chapter", Type: field.TypeString, Default: ""},
		{Name: "title", Type: field.TypeString, Default: ""},
		{Name: "state", Type: field.TypeString},
		{Name: "student_level", Type: field.TypeString, Default: ""},
		{Name: "paused", Type: field.TypeBool, Default: false},
		{Name: "snapshot", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// sessionsTable holds the schema information for the "tutor_sessions" table.
	sessionsTable = &schema.Table{
		Name:       tableSessions,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "tutorsession_user_id_updated_at",
				Unique:  false,
				Columns: []*schema.Column{sessionsColumns[1], sessionsColumns[11]},
			},
		},
	}

	// tutorEventsColumns holds the columns for the "tutor_events" table.
	tutorEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "session_id", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString},
		{Name: "state", Type: field.TypeString, Nullable: true},
		{Name: "content", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "data", Type: field.TypeJSON, Nullable: true},
	}
	// tutorEventsTable holds the schema information for the "tutor_events" table.
	tutorEventsTable = &schema.Table{
		Name:       tableTutorEvents,
		Columns:    tutorEventsColumns,
		PrimaryKey: []*schema.Column{tutorEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "tutorevent_session_id_sequence",
				Unique:  false,
				Columns: []*schema.Column{tutorEventsColumns[3], tutorEventsColumns[1]},
			},
		},
	}

	// llmEventsColumns holds the columns for the "llm_request_events" table.
	llmEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString, Default: ""},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// llmEventsTable holds the schema information for the "llm_request_events" table.
	llmEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    llmEventsColumns,
		PrimaryKey: []*schema.Column{llmEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "llmrequestevent_purpose",
				Unique:  false,
				Columns: []*schema.Column{llmEventsColumns[5]},
			},
			{
				Name:    "llmrequestevent_session_id",
				Unique:  false,
				Columns: []*schema.Column{llmEventsColumns[6]},
			},
		},
	}

	// tables lists every table the migrator creates.
	tables = []*schema.Table{
		sessionsTable,
		tutorEventsTable,
		llmEventsTable,
	}
)
