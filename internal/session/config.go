package session

// Config holds the orchestrator's model-call settings and loop limits.
type Config struct {
	// MaxTokens and Temperature apply to every tutor utterance.
	MaxTokens   int
	Temperature float64

	// HistoryWindow is how many recent messages are sent with each call.
	HistoryWindow int

	// MaxDrainSteps caps the number of behaviors one turn may run.
	MaxDrainSteps int

	// AssessmentEnabled turns the initial assessment on. When off the
	// session goes straight from the welcome to the first lesson.
	AssessmentEnabled   bool
	AssessmentMaxTokens int

	// EvaluationTemperature is used when grading free-form answers.
	EvaluationTemperature float64
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		MaxTokens:             1000,
		Temperature:           0.8,
		HistoryWindow:         8,
		MaxDrainSteps:         50,
		AssessmentEnabled:     true,
		AssessmentMaxTokens:   2000,
		EvaluationTemperature: 0.2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = d.HistoryWindow
	}
	if c.MaxDrainSteps <= 0 {
		c.MaxDrainSteps = d.MaxDrainSteps
	}
	if c.AssessmentMaxTokens <= 0 {
		c.AssessmentMaxTokens = d.AssessmentMaxTokens
	}
	return c
}
