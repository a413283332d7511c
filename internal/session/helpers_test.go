package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/tutor"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 4, 2, 16, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func lightOutline() *tutor.Outline {
	return &tutor.Outline{
		Title: "Light - Reflection and Refraction",
		Sections: []tutor.Section{
			{
				Title:              "Reflection",
				LearningObjectives: []string{"State the laws of reflection", "Locate images in plane mirrors"},
				Subtopics: []tutor.Subtopic{
					{Title: "Laws of reflection", KeyPoints: []string{"angle of incidence equals angle of reflection", "normal lies in the same plane"}},
				},
			},
			{
				Title:              "Refraction",
				LearningObjectives: []string{"Describe bending of light"},
				Subtopics: []tutor.Subtopic{
					{Title: "Snell's law", KeyPoints: []string{"n1 sin i = n2 sin r"}},
				},
			},
		},
	}
}

func newTestSession(clock *fakeClock, opts ...tutor.ContextOption) *tutor.Context {
	opts = append([]tutor.ContextOption{tutor.WithClock(clock.Now), tutor.WithOutline(lightOutline())}, opts...)
	return tutor.NewContext("sess-42", "learner-7", tutor.Selection{
		Board:       "cbse",
		Subject:     "science",
		Chapter:     "light",
		SubjectName: "Science",
		ChapterName: "Light - Reflection and Refraction",
	}, opts...)
}

func text(s string) llm.MockResponse {
	return llm.MockText(s)
}

func jsonResponse(t *testing.T, v any) llm.MockResponse {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal canned response: %v", err)
	}
	return llm.MockResponse{Content: b}
}

func verdict(t *testing.T, correct bool, feedback string) llm.MockResponse {
	return jsonResponse(t, evaluationOutput{Correct: correct, Feedback: feedback})
}

func threeQuestions() assessmentOutput {
	return assessmentOutput{Questions: []assessmentQuestionOutput{
		{
			Type:        "mcq",
			Question:    "Which law relates the angles of incidence and reflection?",
			Options:     []string{"A) They are equal", "B) They add to 90", "C) They are unrelated"},
			Correct:     "A",
			Difficulty:  "easy",
			Explanation: "The angle of incidence equals the angle of reflection.",
		},
		{
			Type:        "true_false",
			Question:    "A plane mirror forms a real image.",
			Options:     []string{},
			Correct:     "false",
			Difficulty:  "medium",
			Explanation: "Plane mirrors form virtual images.",
		},
		{
			Type:        "short_answer",
			Question:    "What is the unit of refractive index?",
			Options:     []string{},
			Correct:     "none",
			Difficulty:  "hard",
			Explanation: "It is a ratio of speeds, so it has no unit.",
		},
	}}
}

// tutorLLM answers every request from its shape: plain utterances for
// unstructured calls, canned questions and verdicts for structured ones.
type tutorLLM struct {
	mu        sync.Mutex
	questions *assessmentOutput
	verdicts  []bool
	purposes  []string
	requests  []llm.Request
}

func (p *tutorLLM) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	purpose := llm.PurposeFrom(ctx)
	p.purposes = append(p.purposes, purpose)
	p.requests = append(p.requests, req)

	var content json.RawMessage
	switch req.Schema {
	case AssessmentSchema:
		out := assessmentOutput{}
		if p.questions != nil {
			out = *p.questions
		}
		content, _ = json.Marshal(out)
	case EvaluationSchema:
		correct := true
		if len(p.verdicts) > 0 {
			correct = p.verdicts[0]
			p.verdicts = p.verdicts[1:]
		}
		feedback := "Not yet, think about the normal."
		if correct {
			feedback = "Well reasoned."
		}
		content, _ = json.Marshal(evaluationOutput{Correct: correct, Feedback: feedback})
	default:
		content = llm.TextContent(fmt.Sprintf("utterance %d for %s", len(p.requests), purpose))
	}
	return &llm.Response{Content: content, Model: "tutor-llm", StopReason: "end"}, nil
}

func (p *tutorLLM) ModelID() string { return "tutor-llm" }

func (p *tutorLLM) Purposes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.purposes...)
}

func noAssessment() Option {
	cfg := DefaultConfig()
	cfg.AssessmentEnabled = false
	return WithConfig(cfg)
}

// statesOf returns the states announced by state_change events.
func statesOf(events []tutor.Event) []tutor.State {
	var out []tutor.State
	for _, e := range events {
		if e.Kind == tutor.EventStateChange {
			out = append(out, e.State)
		}
	}
	return out
}

func eventsOfKind(events []tutor.Event, kind tutor.EventKind) []tutor.Event {
	var out []tutor.Event
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
