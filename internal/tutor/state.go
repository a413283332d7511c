package tutor

import "fmt"

// State is a pedagogical state of a tutoring session.
type State string

const (
	StateIdle        State = "idle"
	StateCourseSetup State = "course_setup"

	StateInitialAssessment State = "initial_assessment"
	StateAssessmentReview  State = "assessment_review"

	StateLessonIntroduction   State = "lesson_introduction"
	StateConceptExplanation   State = "concept_explanation"
	StateExampleDemonstration State = "example_demonstration"
	StateGuidedPractice       State = "guided_practice"
	StateCheckUnderstanding   State = "check_understanding"
	StateTopicSummary         State = "topic_summary"

	StateLessonComplete  State = "lesson_complete"
	StateBreakSuggestion State = "break_suggestion"

	StateAnsweringQuestion State = "answering_question"
	StateHandlingConfusion State = "handling_confusion"

	StateSessionComplete State = "session_complete"
	StateSessionPaused   State = "session_paused"
)

// AllStates lists every state in declaration order.
func AllStates() []State {
	return []State{
		StateIdle, StateCourseSetup,
		StateInitialAssessment, StateAssessmentReview,
		StateLessonIntroduction, StateConceptExplanation, StateExampleDemonstration,
		StateGuidedPractice, StateCheckUnderstanding, StateTopicSummary,
		StateLessonComplete, StateBreakSuggestion,
		StateAnsweringQuestion, StateHandlingConfusion,
		StateSessionComplete, StateSessionPaused,
	}
}

// ParseState converts a stored value back into a State.
func ParseState(s string) (State, error) {
	for _, st := range AllStates() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown tutor state %q", s)
}

// IsTerminal reports whether no further teaching happens without a resume.
func (s State) IsTerminal() bool {
	return s == StateSessionComplete || s == StateSessionPaused
}

// IsTeaching reports whether s is one of the six main-cycle states.
func (s State) IsTeaching() bool {
	switch s {
	case StateLessonIntroduction, StateConceptExplanation, StateExampleDemonstration,
		StateGuidedPractice, StateCheckUnderstanding, StateTopicSummary:
		return true
	}
	return false
}

// IsAssessment reports whether s belongs to the assessment phase.
func (s State) IsAssessment() bool {
	return s == StateInitialAssessment || s == StateAssessmentReview
}

// IsInterruption reports whether s handles a learner question or confusion.
func (s State) IsInterruption() bool {
	return s == StateAnsweringQuestion || s == StateHandlingConfusion
}

func (s State) String() string { return string(s) }

// Trigger names the cause of a transition attempt.
type Trigger string

const (
	TriggerAuto         Trigger = "auto"
	TriggerStart        Trigger = "start"
	TriggerComplete     Trigger = "complete"
	TriggerUserQuestion Trigger = "user_question"
	TriggerUserConfused Trigger = "user_confused"
	TriggerUserAccept   Trigger = "user_accept"
	TriggerUserDecline  Trigger = "user_decline"
	TriggerUserEnd      Trigger = "user_end"
	TriggerResume       Trigger = "resume"
	TriggerReturn       Trigger = "return"
)

// Level is the learner proficiency derived from the initial assessment.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel converts a stored value back into a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown student level %q", s)
}

// Description returns the prompt-facing description of the level.
func (l Level) Description() string {
	switch l {
	case LevelBeginner:
		return "New to this topic, needs simple explanations and extra support"
	case LevelIntermediate:
		return "Has some background, can handle standard explanations"
	case LevelAdvanced:
		return "Strong foundation, can explore deeper concepts"
	}
	return "Standard level"
}

// Difficulty grades an assessment question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType selects the answer matching policy.
type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionTrueFalse   QuestionType = "true_false"
	QuestionShortAnswer QuestionType = "short_answer"
)
