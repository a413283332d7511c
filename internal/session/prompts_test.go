package session

import (
	"strings"
	"testing"

	"github.com/abhisek/tutorly/internal/tutor"
)

func TestSystemPrompt_FillsContext(t *testing.T) {
	sc := newTestSession(newFakeClock())
	sc.Topic = "mirrors"
	sc.StudentLevel = tutor.LevelBeginner

	got := SystemPrompt(sc, tutor.StateConceptExplanation)

	for _, want := range []string{
		"specializing in science for cbse curriculum",
		"- Subject: Science",
		"- Board: cbse",
		"- Specific focus: mirrors",
		"Student level: New to this topic, needs simple explanations and extra support",
		"Current topic: Laws of reflection",
		"Key points to cover: angle of incidence equals angle of reflection, normal lies in the same plane",
		"Student level: beginner",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("SystemPrompt() missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "{") {
		t.Errorf("SystemPrompt() left a placeholder:\n%s", got)
	}
}

func TestSystemPrompt_LessonIntroductionObjectives(t *testing.T) {
	sc := newTestSession(newFakeClock())
	got := SystemPrompt(sc, tutor.StateLessonIntroduction)
	if !strings.Contains(got, "Learning objectives: State the laws of reflection, Locate images in plane mirrors") {
		t.Errorf("SystemPrompt() objectives missing:\n%s", got)
	}
	if strings.Contains(got, "Specific focus") {
		t.Errorf("SystemPrompt() has topic focus without a topic:\n%s", got)
	}
}

func TestSystemPrompt_RecentConceptsOnly(t *testing.T) {
	sc := newTestSession(newFakeClock())
	for _, c := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"} {
		sc.ConceptsCovered = append(sc.ConceptsCovered, c)
	}
	got := SystemPrompt(sc, tutor.StateCheckUnderstanding)
	if !strings.Contains(got, "Key concepts covered: c3, c4, c5, c6, c7") {
		t.Errorf("SystemPrompt() concepts:\n%s", got)
	}
}

func TestSystemPrompt_Idle(t *testing.T) {
	sc := newTestSession(newFakeClock())
	got := SystemPrompt(sc, tutor.StateIdle)
	if !strings.HasPrefix(got, "You are an expert, friendly tutor") {
		t.Errorf("SystemPrompt(idle) = %q", got)
	}
	if strings.Contains(got, "Your task") {
		t.Errorf("SystemPrompt(idle) has state instructions:\n%s", got)
	}
}

func TestAssessmentSummary(t *testing.T) {
	sc := newTestSession(newFakeClock())
	if got := assessmentSummary(sc); got != "No assessment completed yet." {
		t.Errorf("assessmentSummary() = %q", got)
	}

	sc.AssessmentResponses = []tutor.AssessmentResponse{
		{IsCorrect: true, Difficulty: tutor.DifficultyEasy},
		{IsCorrect: false, Difficulty: tutor.DifficultyHard},
	}
	want := "Score: 1/2 (50%)\nQ1 (easy): Correct\nQ2 (hard): Incorrect\n"
	if got := assessmentSummary(sc); got != want {
		t.Errorf("assessmentSummary() = %q, want %q", got, want)
	}
}

func TestSystemPrompt_SessionCompleteNumbers(t *testing.T) {
	sc := newTestSession(newFakeClock())
	sc.AssessmentScore = 66.666
	sc.TotalTimeSpentMinutes = 41.6
	sc.TopicProgress = make([]tutor.TopicProgress, 3)

	got := SystemPrompt(sc, tutor.StateSessionComplete)
	for _, want := range []string{"Topics covered: 3", "Assessment score: 67%", "Time spent: 42 minutes"} {
		if !strings.Contains(got, want) {
			t.Errorf("SystemPrompt() missing %q\n%s", want, got)
		}
	}
}

func TestTransitionPhrase(t *testing.T) {
	tests := []struct {
		from, to tutor.State
		want     string
	}{
		{tutor.StateConceptExplanation, tutor.StateExampleDemonstration, "Let me show you an example to make this clearer."},
		{tutor.StateGuidedPractice, tutor.StateCheckUnderstanding, "Great work! Let me check if you've got this."},
		{tutor.StateAssessmentReview, tutor.StateLessonIntroduction, "Now that I understand where you are, let's start our lesson!"},
		{tutor.StateLessonIntroduction, tutor.StateConceptExplanation, ""},
		{tutor.StateTopicSummary, tutor.StateBreakSuggestion, ""},
	}
	for _, tt := range tests {
		if got := TransitionPhrase(tt.from, tt.to); got != tt.want {
			t.Errorf("TransitionPhrase(%s, %s) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSoundsCorrect(t *testing.T) {
	tests := []struct {
		feedback string
		want     bool
	}{
		{"Correct! Nicely done.", true},
		{"You're right on track.", true},
		{"Not quite, try again.", false},
		{"That is incorrect.", true},
	}
	for _, tt := range tests {
		if got := soundsCorrect(tt.feedback); got != tt.want {
			t.Errorf("soundsCorrect(%q) = %v, want %v", tt.feedback, got, tt.want)
		}
	}
}
