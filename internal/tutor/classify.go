package tutor

import (
	"strings"
	"unicode"
)

// Intent is the symbolic meaning of a learner message.
type Intent string

const (
	IntentEndSession       Intent = "end_session"
	IntentTakeBreak        Intent = "take_break"
	IntentResume           Intent = "resume"
	IntentContinue         Intent = "continue"
	IntentReady            Intent = "ready"
	IntentAssessmentAnswer Intent = "assessment_answer"
	IntentPracticeAnswer   Intent = "practice_answer"
	IntentQuestion         Intent = "question"
	IntentConfusion        Intent = "confusion"
	IntentConversation     Intent = "conversation"
)

// ClassifyInput is everything the classifier may look at.
type ClassifyInput struct {
	Text   string
	State  State
	Paused bool
}

// IntentRule maps a message onto an intent, or returns "" to defer to the
// next rule.
type IntentRule interface {
	Name() string
	Match(in *ClassifyInput, msg *Utterance) Intent
}

// Utterance is a learner message lower-cased and split into words.
type Utterance struct {
	Raw   string
	Lower string
	Words []string
}

func normalize(text string) *Utterance {
	lower := strings.ToLower(strings.TrimSpace(text))
	lower = strings.ReplaceAll(lower, "’", "'")
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	return &Utterance{Raw: text, Lower: lower, Words: words}
}

// HasPhrase reports whether phrase occurs as a run of whole words.
func (n *Utterance) HasPhrase(phrase string) bool {
	want := strings.Fields(phrase)
	if len(want) == 0 || len(want) > len(n.Words) {
		return false
	}
	for i := 0; i+len(want) <= len(n.Words); i++ {
		match := true
		for j, w := range want {
			if n.Words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// HasAny reports whether any of phrases occurs.
func (n *Utterance) HasAny(phrases []string) bool {
	for _, p := range phrases {
		if n.HasPhrase(p) {
			return true
		}
	}
	return false
}

var (
	endWords         = []string{"quit", "exit", "end", "stop", "bye"}
	breakWords       = []string{"break", "pause", "rest"}
	resumeWords      = []string{"resume", "continue", "back", "ready"}
	affirmatives     = []string{"yes", "yeah", "yep", "ok", "okay", "sure", "next", "go on", "ready"}
	interrogatives   = []string{"what", "why", "how", "when", "where", "can", "could", "would", "is", "are", "do", "does"}
	confusionPhrases = []string{"confused", "don't understand", "don't get", "lost", "unclear", "huh", "what do you mean"}
)

type keywordRule struct {
	name   string
	words  []string
	intent Intent
}

func (r keywordRule) Name() string { return r.name }

func (r keywordRule) Match(_ *ClassifyInput, msg *Utterance) Intent {
	if msg.HasAny(r.words) {
		return r.intent
	}
	return ""
}

type resumeRule struct{}

func (resumeRule) Name() string { return "resume" }

func (resumeRule) Match(in *ClassifyInput, msg *Utterance) Intent {
	if !msg.HasAny(resumeWords) {
		return ""
	}
	if in.Paused {
		return IntentResume
	}
	return IntentContinue
}

type affirmativeRule struct{}

func (affirmativeRule) Name() string { return "affirmative" }

func (affirmativeRule) Match(_ *ClassifyInput, msg *Utterance) Intent {
	text := strings.TrimRight(msg.Lower, ".!")
	for _, a := range affirmatives {
		if text == a {
			return IntentReady
		}
	}
	return ""
}

type stateRule struct {
	state  State
	intent Intent
}

func (r stateRule) Name() string { return "state:" + string(r.state) }

func (r stateRule) Match(in *ClassifyInput, _ *Utterance) Intent {
	if in.State == r.state {
		return r.intent
	}
	return ""
}

type questionRule struct{}

func (questionRule) Name() string { return "question" }

func (questionRule) Match(_ *ClassifyInput, msg *Utterance) Intent {
	if strings.Contains(msg.Raw, "?") {
		return IntentQuestion
	}
	if len(msg.Words) == 0 {
		return ""
	}
	for _, w := range interrogatives {
		if msg.Words[0] == w {
			return IntentQuestion
		}
	}
	return ""
}

// DefaultIntentRules returns the classification rules in precedence order.
// A paused learner typing "continue" must resume, so the resume rule runs
// before the affirmative rule; termination outranks everything.
func DefaultIntentRules() []IntentRule {
	return []IntentRule{
		keywordRule{name: "end", words: endWords, intent: IntentEndSession},
		keywordRule{name: "break", words: breakWords, intent: IntentTakeBreak},
		resumeRule{},
		affirmativeRule{},
		stateRule{state: StateInitialAssessment, intent: IntentAssessmentAnswer},
		stateRule{state: StateGuidedPractice, intent: IntentPracticeAnswer},
		questionRule{},
		keywordRule{name: "confusion", words: confusionPhrases, intent: IntentConfusion},
	}
}

var defaultIntentRules = DefaultIntentRules()

// Classify maps learner text onto an intent using the default rules.
func Classify(in ClassifyInput) Intent {
	intent, _ := RunIntentRules(defaultIntentRules, &in)
	return intent
}

// RunIntentRules returns the first matching intent and the rule that
// produced it, or IntentConversation when nothing matches.
func RunIntentRules(rules []IntentRule, in *ClassifyInput) (Intent, string) {
	msg := normalize(in.Text)
	for _, r := range rules {
		if intent := r.Match(in, msg); intent != "" {
			return intent, r.Name()
		}
	}
	return IntentConversation, "default"
}
