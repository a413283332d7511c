package tutor

// GuardView is the read-only slice of session context that guards consult.
type GuardView interface {
	IsLessonComplete() bool
	ShouldSuggestBreak() bool
	HasCurrentTopic() bool
	AssessmentWasSkipped() bool
}

// Guard gates a rule. Guards must be pure.
type Guard func(GuardView) bool

// Rule is one legal edge of the tutoring flow.
type Rule struct {
	From    State
	To      State
	Trigger Trigger
	Guard   Guard
}

// Allows reports whether the rule's guard passes for v.
func (r Rule) Allows(v GuardView) bool {
	return r.Guard == nil || r.Guard(v)
}

func nextTopicDue(v GuardView) bool {
	return !v.IsLessonComplete() && !v.ShouldSuggestBreak()
}

func breakDue(v GuardView) bool {
	return v.ShouldSuggestBreak() && !v.IsLessonComplete()
}

func lessonDone(v GuardView) bool { return v.IsLessonComplete() }

func hasTopic(v GuardView) bool { return v.HasCurrentTopic() }

func noTopic(v GuardView) bool { return !v.HasCurrentTopic() }

func assessmentSkipped(v GuardView) bool { return v.AssessmentWasSkipped() }

// Declaration order is significant: the first passing rule wins.
var rules = []Rule{
	{From: StateIdle, To: StateCourseSetup, Trigger: TriggerStart},
	{From: StateCourseSetup, To: StateInitialAssessment, Trigger: TriggerAuto},

	{From: StateInitialAssessment, To: StateAssessmentReview, Trigger: TriggerComplete},
	{From: StateInitialAssessment, To: StateLessonIntroduction, Trigger: TriggerAuto, Guard: assessmentSkipped},
	{From: StateAssessmentReview, To: StateLessonIntroduction, Trigger: TriggerAuto},

	{From: StateLessonIntroduction, To: StateLessonComplete, Trigger: TriggerAuto, Guard: noTopic},
	{From: StateLessonIntroduction, To: StateConceptExplanation, Trigger: TriggerAuto, Guard: hasTopic},
	{From: StateConceptExplanation, To: StateExampleDemonstration, Trigger: TriggerAuto},
	{From: StateExampleDemonstration, To: StateGuidedPractice, Trigger: TriggerAuto},
	{From: StateGuidedPractice, To: StateCheckUnderstanding, Trigger: TriggerComplete},
	{From: StateCheckUnderstanding, To: StateTopicSummary, Trigger: TriggerAuto},

	{From: StateTopicSummary, To: StateLessonIntroduction, Trigger: TriggerAuto, Guard: nextTopicDue},
	{From: StateTopicSummary, To: StateBreakSuggestion, Trigger: TriggerAuto, Guard: breakDue},
	{From: StateTopicSummary, To: StateLessonComplete, Trigger: TriggerAuto, Guard: lessonDone},

	{From: StateBreakSuggestion, To: StateSessionPaused, Trigger: TriggerUserAccept},
	{From: StateBreakSuggestion, To: StateLessonIntroduction, Trigger: TriggerUserDecline},
	{From: StateSessionPaused, To: StateLessonIntroduction, Trigger: TriggerResume},

	{From: StateLessonComplete, To: StateSessionComplete, Trigger: TriggerAuto},

	{From: StateConceptExplanation, To: StateAnsweringQuestion, Trigger: TriggerUserQuestion},
	{From: StateExampleDemonstration, To: StateAnsweringQuestion, Trigger: TriggerUserQuestion},
	{From: StateGuidedPractice, To: StateAnsweringQuestion, Trigger: TriggerUserQuestion},
	{From: StateCheckUnderstanding, To: StateHandlingConfusion, Trigger: TriggerUserConfused},

	{From: StateAnsweringQuestion, To: StateConceptExplanation, Trigger: TriggerReturn},
	{From: StateAnsweringQuestion, To: StateExampleDemonstration, Trigger: TriggerReturn},
	{From: StateAnsweringQuestion, To: StateGuidedPractice, Trigger: TriggerReturn},
	{From: StateHandlingConfusion, To: StateConceptExplanation, Trigger: TriggerReturn},

	{From: StateLessonIntroduction, To: StateSessionComplete, Trigger: TriggerUserEnd},
	{From: StateConceptExplanation, To: StateSessionComplete, Trigger: TriggerUserEnd},
	{From: StateExampleDemonstration, To: StateSessionComplete, Trigger: TriggerUserEnd},
	{From: StateGuidedPractice, To: StateSessionComplete, Trigger: TriggerUserEnd},
	{From: StateCheckUnderstanding, To: StateSessionComplete, Trigger: TriggerUserEnd},
	{From: StateTopicSummary, To: StateSessionComplete, Trigger: TriggerUserEnd},
}

// rulesByState indexes the table once; it is shared read-only by every machine.
var rulesByState = func() map[State][]Rule {
	m := make(map[State][]Rule)
	for _, r := range rules {
		m[r.From] = append(m[r.From], r)
	}
	return m
}()

// Transitions returns a copy of the transition table in declaration order.
func Transitions() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// RulesFrom returns the rules leaving s in declaration order.
func RulesFrom(s State) []Rule {
	return rulesByState[s]
}
