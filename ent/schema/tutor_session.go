package schema

import (
	"encoding/json"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TutorSession is the latest snapshot of one tutoring session. The
// listing columns are copied out of the snapshot on every save.
type TutorSession struct {
	ent.Schema
}

func (TutorSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("user_id"),
		field.String("board").Default(""),
		field.String("subject").Default(""),
		field.String("chapter").Default(""),
		field.String("title").Default(""),
		field.String("state"),
		field.String("student_level").Default(""),
		field.Bool("paused").Default(false),
		field.JSON("snapshot", json.RawMessage{}).
			Comment("Serialized session context"),
		field.Time("created_at").
			Immutable(),
		field.Time("updated_at"),
	}
}

func (TutorSession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "updated_at"),
	}
}
