package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func evaluationSchema() *Schema {
	return &Schema{
		Name:        "test-evaluation",
		Description: "Grades a practice answer",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"correct":    map[string]any{"type": "boolean"},
				"feedback":   map[string]any{"type": "string"},
				"confidence": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				"difficulty": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
			},
			"required": []any{"correct", "feedback"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"correct":true,"feedback":"Spot on.","confidence":90,"difficulty":"easy"}`, false},
		{"valid without optional", `{"correct":false,"feedback":"Check the normal."}`, false},
		{"missing required", `{"correct":true}`, true},
		{"wrong type", `{"correct":"yes","feedback":"ok"}`, true},
		{"invalid enum", `{"correct":true,"feedback":"ok","difficulty":"extreme"}`, true},
		{"out of range", `{"correct":true,"feedback":"ok","confidence":101}`, true},
		{"malformed json", `{"correct":tru`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(evaluationSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got %T", err)
			}
			if string(inv.Content) != tt.raw {
				t.Fatalf("error content = %s, want %s", inv.Content, tt.raw)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`"plain text"`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedQuestions(t *testing.T) {
	schema := &Schema{
		Name:        "test-questions",
		Description: "Nested test",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"text":    map[string]any{"type": "string"},
							"options": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						},
						"required": []any{"text"},
					},
				},
			},
			"required": []any{"questions"},
		},
	}

	valid := json.RawMessage(`{"questions":[{"text":"What is the angle of incidence?","options":["A) 30","B) 60"]}]}`)
	if err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"questions":[{"options":[1,2]}]}`)
	if err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for a question without text")
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		Correct  bool   `json:"correct"`
		Feedback string `json:"feedback"`
	}
	if err := Decode(&Response{Content: json.RawMessage(`{"correct":true,"feedback":"Well done"}`)}, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.Correct || out.Feedback != "Well done" {
		t.Errorf("decoded %+v", out)
	}

	err := Decode(&Response{Content: json.RawMessage(`{"correct":"yes"}`)}, &out)
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *ErrInvalidResponse, got %T: %v", err, err)
	}
	if !IsMalformed(err) {
		t.Error("a reply that does not fit the target should count as malformed")
	}

	if err := Decode(nil, &out); !IsMalformed(err) {
		t.Errorf("nil response: got %v", err)
	}
}
