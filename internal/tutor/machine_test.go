package tutor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// guardScenarios spans every combination the guards distinguish.
func guardScenarios() map[string]func() *Context {
	return map[string]func() *Context{
		"no outline": func() *Context {
			return newTestContext(newFakeClock())
		},
		"first topic": func() *Context {
			return newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
		},
		"last topic": func() *Context {
			c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
			c.SectionIndex = 1
			return c
		},
		"first topic, break due": func() *Context {
			return newTestContext(newFakeClock(), WithOutline(twoSectionOutline()), WithBreakThreshold(0))
		},
		"last topic, break due": func() *Context {
			c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()), WithBreakThreshold(0))
			c.SectionIndex = 1
			return c
		},
		"cursor exhausted": func() *Context {
			c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
			c.SectionIndex = 2
			return c
		},
		"assessment skipped": func() *Context {
			c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
			c.AssessmentSkipped = true
			return c
		},
	}
}

func TestTransitions_UniqueEdges(t *testing.T) {
	seen := map[string]bool{}
	for _, r := range Transitions() {
		key := fmt.Sprintf("%s->%s", r.From, r.To)
		if seen[key] {
			t.Errorf("duplicate edge %s", key)
		}
		seen[key] = true
	}
}

func TestMachine_CanTransitionTo_MatchesTable(t *testing.T) {
	for name, build := range guardScenarios() {
		t.Run(name, func(t *testing.T) {
			for _, from := range AllStates() {
				for _, to := range AllStates() {
					c := build()
					c.CurrentState = from
					m := NewMachine(c, nil)

					want := false
					for _, r := range Transitions() {
						if r.From == from && r.To == to {
							want = r.Allows(c)
							break
						}
					}
					if got := m.CanTransitionTo(to); got != want {
						t.Errorf("%s -> %s: CanTransitionTo = %v, want %v", from, to, got, want)
					}
				}
			}
		})
	}
}

func TestMachine_TopicSummaryGuards_ExactlyOne(t *testing.T) {
	tests := []struct {
		name     string
		complete bool
		breakDue bool
		want     State
	}{
		{"continue", false, false, StateLessonIntroduction},
		{"break", false, true, StateBreakSuggestion},
		{"complete", true, false, StateLessonComplete},
		{"complete beats break", true, true, StateLessonComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
			if tt.complete {
				c.SectionIndex = 1
			}
			if tt.breakDue {
				c.TimeSinceLastBreakMinutes = c.BreakThresholdMinutes
			}
			c.CurrentState = StateTopicSummary

			var passing []State
			for _, r := range RulesFrom(StateTopicSummary) {
				if r.Trigger == TriggerAuto && r.Allows(c) {
					passing = append(passing, r.To)
				}
			}
			if len(passing) != 1 {
				t.Fatalf("passing auto rules = %v, want exactly one", passing)
			}
			if passing[0] != tt.want {
				t.Errorf("target = %s, want %s", passing[0], tt.want)
			}

			got, ok := NewMachine(c, nil).NextAutoState()
			if !ok || got != tt.want {
				t.Errorf("NextAutoState = (%s, %v), want %s", got, ok, tt.want)
			}
		})
	}
}

func TestMachine_LessonIntroductionGuards_ExactlyOne(t *testing.T) {
	for name, build := range guardScenarios() {
		c := build()
		c.CurrentState = StateLessonIntroduction
		n := 0
		for _, r := range RulesFrom(StateLessonIntroduction) {
			if r.Trigger == TriggerAuto && r.Allows(c) {
				n++
			}
		}
		if n != 1 {
			t.Errorf("%s: %d passing auto rules, want 1", name, n)
		}
	}
}

func TestMachine_TransitionTo_Illegal(t *testing.T) {
	c := newTestContext(newFakeClock())
	m := NewMachine(c, nil)

	if m.TransitionTo(StateGuidedPractice) {
		t.Fatal("idle -> guided_practice should be rejected")
	}
	if c.CurrentState != StateIdle {
		t.Errorf("CurrentState = %s, want idle", c.CurrentState)
	}
	if c.PreviousState != "" {
		t.Errorf("PreviousState = %q, want empty", c.PreviousState)
	}
}

func TestMachine_TransitionTo_SetsPrevious(t *testing.T) {
	c := newTestContext(newFakeClock())
	m := NewMachine(c, nil)

	require.True(t, m.TransitionTo(StateCourseSetup))
	assert.Equal(t, StateCourseSetup, c.CurrentState)
	assert.Equal(t, StateIdle, c.PreviousState)
}

func TestMachine_ProcessTrigger(t *testing.T) {
	c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
	m := NewMachine(c, nil)

	if _, ok := m.ProcessTrigger(TriggerComplete); ok {
		t.Fatal("complete should not fire from idle")
	}
	got, ok := m.ProcessTrigger(TriggerStart)
	if !ok || got != StateCourseSetup {
		t.Fatalf("ProcessTrigger(start) = (%s, %v)", got, ok)
	}
}

func TestMachine_NextAutoState_WaitingStates(t *testing.T) {
	waiting := []State{
		StateIdle, StateInitialAssessment, StateGuidedPractice,
		StateBreakSuggestion, StateAnsweringQuestion, StateHandlingConfusion,
		StateSessionComplete, StateSessionPaused,
	}
	for _, s := range waiting {
		c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
		c.CurrentState = s
		if next, ok := NewMachine(c, nil).NextAutoState(); ok {
			t.Errorf("%s: NextAutoState = %s, want none", s, next)
		}
	}
}

func TestMachine_QuestionAndReturn(t *testing.T) {
	c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
	c.CurrentState = StateConceptExplanation
	m := NewMachine(c, nil)

	in := ClassifyInput{Text: "why does this work?", State: c.CurrentState}
	if got := Classify(in); got != IntentQuestion {
		t.Fatalf("Classify = %s, want question", got)
	}

	if got, ok := m.ProcessTrigger(TriggerUserQuestion); !ok || got != StateAnsweringQuestion {
		t.Fatalf("user_question -> (%s, %v)", got, ok)
	}
	if got, ok := m.ProcessTrigger(TriggerReturn); !ok || got != StateConceptExplanation {
		t.Fatalf("return -> (%s, %v), want concept_explanation", got, ok)
	}
}

func TestMachine_AssessmentSkippedFallsThrough(t *testing.T) {
	c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
	c.CurrentState = StateInitialAssessment
	m := NewMachine(c, nil)

	if _, ok := m.NextAutoState(); ok {
		t.Fatal("assessment should wait for answers")
	}
	c.AssessmentSkipped = true
	got, ok := m.NextAutoState()
	if !ok || got != StateLessonIntroduction {
		t.Errorf("NextAutoState = (%s, %v), want lesson_introduction", got, ok)
	}
}

func TestMachine_ForceAndReset(t *testing.T) {
	c := newTestContext(newFakeClock())
	c.CurrentState = StateInitialAssessment
	m := NewMachine(c, nil)

	m.Force(StateSessionComplete)
	assert.Equal(t, StateSessionComplete, c.CurrentState)
	assert.Equal(t, StateInitialAssessment, c.PreviousState)
	assert.True(t, m.IsTerminal())

	m.Reset()
	assert.Equal(t, StateIdle, c.CurrentState)
	assert.Equal(t, StateSessionComplete, c.PreviousState)
}

func TestMachine_Info(t *testing.T) {
	c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
	c.CurrentState = StateConceptExplanation
	c.PreviousState = StateLessonIntroduction

	info := NewMachine(c, nil).Info()
	assert.Equal(t, StateConceptExplanation, info.Current)
	require.NotNil(t, info.Previous)
	assert.Equal(t, StateLessonIntroduction, *info.Previous)
	assert.Equal(t, []State{StateExampleDemonstration, StateAnsweringQuestion, StateSessionComplete}, info.ValidTransitions)
	assert.True(t, info.IsTeaching)
	assert.False(t, info.IsAssessment)
	assert.False(t, info.IsTerminal)
}

func TestState_Classification(t *testing.T) {
	teaching := 0
	for _, s := range AllStates() {
		if s.IsTeaching() {
			teaching++
		}
	}
	if teaching != 6 {
		t.Errorf("teaching states = %d, want 6", teaching)
	}
	if len(AllStates()) != 16 {
		t.Errorf("states = %d, want 16", len(AllStates()))
	}
	if !StateAssessmentReview.IsAssessment() || StateIdle.IsAssessment() {
		t.Error("assessment classification wrong")
	}
	if _, err := ParseState("nap_time"); err == nil {
		t.Error("ParseState should reject unknown values")
	}
}
