package store

import (
	"sort"
	"testing"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
	"github.com/google/go-cmp/cmp"

	entschema "github.com/abhisek/tutorly/ent/schema"
)

// entFields flattens a schema's mixin and own fields, adding the implicit
// int id when the schema does not declare one.
func entFields(s ent.Interface) map[string]*field.Descriptor {
	out := make(map[string]*field.Descriptor)
	for _, m := range s.Mixin() {
		for _, f := range m.Fields() {
			d := f.Descriptor()
			out[d.Name] = d
		}
	}
	for _, f := range s.Fields() {
		d := f.Descriptor()
		out[d.Name] = d
	}
	if _, ok := out["id"]; !ok {
		out["id"] = &field.Descriptor{Name: "id", Info: &field.TypeInfo{Type: field.TypeInt}}
	}
	return out
}

func TestMigrationTablesMatchEntSchema(t *testing.T) {
	tests := []struct {
		schema ent.Interface
		table  *schema.Table
	}{
		{entschema.TutorSession{}, sessionsTable},
		{entschema.TutorEvent{}, tutorEventsTable},
		{entschema.LLMRequestEvent{}, llmEventsTable},
	}
	for _, tt := range tests {
		t.Run(tt.table.Name, func(t *testing.T) {
			fields := entFields(tt.schema)

			var want, got []string
			for name := range fields {
				want = append(want, name)
			}
			for _, c := range tt.table.Columns {
				got = append(got, c.Name)
			}
			sort.Strings(want)
			sort.Strings(got)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("columns differ (-schema +table):\n%s", diff)
			}

			for _, c := range tt.table.Columns {
				d := fields[c.Name]
				if d.Info.Type != c.Type {
					t.Errorf("%s: schema type %v, table type %v", c.Name, d.Info.Type, c.Type)
				}
				if d.Optional != c.Nullable {
					t.Errorf("%s: schema optional %v, table nullable %v", c.Name, d.Optional, c.Nullable)
				}
			}
		})
	}
}
