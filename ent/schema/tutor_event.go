package schema

import (
	"encoding/json"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TutorEvent is one event emitted to a student during a turn.
type TutorEvent struct {
	ent.Schema
}

func (TutorEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (TutorEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty(),
		field.String("kind").
			NotEmpty().
			Comment("Event kind such as tutor_message or state_change"),
		field.String("state").
			Optional().
			Comment("Tutor state when the event was emitted"),
		field.Text("content").
			Default(""),
		field.JSON("data", json.RawMessage{}).
			Optional(),
	}
}

func (TutorEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id", "sequence"),
	}
}
