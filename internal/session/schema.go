package session

import "github.com/abhisek/tutorly/internal/llm"

// AssessmentSchema defines the JSON schema for the initial assessment.
var AssessmentSchema = &llm.Schema{
	Name:        "assessment-questions",
	Description: "Questions that gauge the student's prior knowledge of the chapter",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []any{"mcq", "true_false", "short_answer"},
						},
						"question": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Answer options like \"A) ...\" for mcq, empty otherwise",
						},
						"correct": map[string]any{
							"type":        "string",
							"description": "Option letter for mcq, true or false, or the expected short answer",
						},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []any{"easy", "medium", "hard"},
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "One sentence explaining the correct answer",
						},
					},
					"required":             []any{"type", "question", "options", "correct", "difficulty", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

// EvaluationSchema defines the JSON schema for grading a free-form answer.
var EvaluationSchema = &llm.Schema{
	Name:        "answer-evaluation",
	Description: "Whether the student's answer is correct, with brief feedback",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct": map[string]any{
				"type":        "boolean",
				"description": "True when the answer is correct or clearly on the right track",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "Feedback for the student (1-2 sentences)",
			},
		},
		"required":             []any{"correct", "feedback"},
		"additionalProperties": false,
	},
}
