package tutor

import "time"

// DefaultBreakThresholdMinutes is how long a learner works before a break is offered.
const DefaultBreakThresholdMinutes = 25.0

// Selection identifies the curriculum a session teaches.
type Selection struct {
	Board       string `json:"board"`
	Subject     string `json:"subject"`
	Chapter     string `json:"chapter"`
	Topic       string `json:"topic,omitempty"`
	BoardName   string `json:"board_name,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`
	ChapterName string `json:"chapter_name,omitempty"`
}

// DisplayBoard returns the board display name, falling back to its id.
func (s Selection) DisplayBoard() string { return orDefault(s.BoardName, s.Board) }

// DisplaySubject returns the subject display name, falling back to its id.
func (s Selection) DisplaySubject() string { return orDefault(s.SubjectName, s.Subject) }

// DisplayChapter returns the chapter display name, falling back to its id.
func (s Selection) DisplayChapter() string { return orDefault(s.ChapterName, s.Chapter) }

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// Message is one entry of the conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	State     State     `json:"state"`
}

// TopicProgress tracks the learner's work on one subtopic.
type TopicProgress struct {
	TopicIndex          int       `json:"topic_index"`
	TopicTitle          string    `json:"topic_title"`
	StartedAt           time.Time `json:"started_at"`
	CompletedAt         time.Time `json:"completed_at,omitzero"`
	ConceptsCovered     []string  `json:"concepts_covered,omitempty"`
	ExamplesShown       int       `json:"examples_shown"`
	PracticeAttempted   int       `json:"practice_problems_attempted"`
	PracticeCorrect     int       `json:"practice_problems_correct"`
	UnderstandingChecks int       `json:"understanding_checks"`
	UnderstandingPassed int       `json:"understanding_passed"`
}

// Completed reports whether the topic summary has been given.
func (p TopicProgress) Completed() bool { return !p.CompletedAt.IsZero() }

// Context is the mutable aggregate for one learner's session. It is owned by
// a single orchestrator and must not be mutated concurrently.
type Context struct {
	SessionID string
	UserID    string
	Selection

	CurrentState  State
	PreviousState State

	Outline       *Outline
	SectionIndex  int
	SubtopicIndex int

	StudentLevel        Level
	AssessmentQuestions []AssessmentQuestion
	AssessmentResponses []AssessmentResponse
	AssessmentScore     float64
	AssessmentIndex     int
	AssessmentSkipped   bool

	TopicProgress         []TopicProgress
	ConceptsCovered       []string
	TotalTimeSpentMinutes float64

	SessionStartedAt      time.Time
	LastActivityAt        time.Time
	CurrentPhaseStartedAt time.Time

	TimeSinceLastBreakMinutes float64
	BreakThresholdMinutes     float64
	BreaksTaken               int

	History         []Message
	PendingQuestion string

	Paused             bool
	RequestedEnd       bool
	NeedsClarification bool

	now func() time.Time
}

// ContextOption configures a new Context.
type ContextOption func(*Context)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) ContextOption {
	return func(c *Context) { c.now = now }
}

// WithOutline attaches a curriculum outline.
func WithOutline(o *Outline) ContextOption {
	return func(c *Context) { c.Outline = o }
}

// WithBreakThreshold overrides the default break threshold.
func WithBreakThreshold(minutes float64) ContextOption {
	return func(c *Context) { c.BreakThresholdMinutes = minutes }
}

// NewContext creates an idle session context.
func NewContext(sessionID, userID string, sel Selection, opts ...ContextOption) *Context {
	c := &Context{
		SessionID:             sessionID,
		UserID:                userID,
		Selection:             sel,
		CurrentState:          StateIdle,
		StudentLevel:          LevelIntermediate,
		BreakThresholdMinutes: DefaultBreakThresholdMinutes,
		now:                   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the context clock's current time in UTC.
func (c *Context) Now() time.Time {
	if c.now == nil {
		return time.Now().UTC()
	}
	return c.now().UTC()
}

// CurrentTopic returns the subtopic at the cursor, or false when no outline
// is loaded or the cursor is out of bounds.
func (c *Context) CurrentTopic() (Topic, bool) {
	if c.Outline == nil || c.SectionIndex < 0 || c.SectionIndex >= len(c.Outline.Sections) {
		return Topic{}, false
	}
	sec := c.Outline.Sections[c.SectionIndex]
	if c.SubtopicIndex < 0 || c.SubtopicIndex >= len(sec.Subtopics) {
		return Topic{}, false
	}
	return Topic{
		Section:       sec,
		Subtopic:      sec.Subtopics[c.SubtopicIndex],
		SectionIndex:  c.SectionIndex,
		SubtopicIndex: c.SubtopicIndex,
	}, true
}

// HasCurrentTopic reports whether the cursor points at a subtopic.
func (c *Context) HasCurrentTopic() bool {
	_, ok := c.CurrentTopic()
	return ok
}

// AdvanceToNextTopic moves the cursor forward, exhausting the subtopics of
// the current section before moving to the next section. It returns false
// without touching the cursor when there is nowhere to go.
func (c *Context) AdvanceToNextTopic() bool {
	if c.Outline == nil || c.SectionIndex >= len(c.Outline.Sections) {
		return false
	}
	sections := c.Outline.Sections
	if c.SubtopicIndex < len(sections[c.SectionIndex].Subtopics)-1 {
		c.SubtopicIndex++
		return true
	}
	if c.SectionIndex < len(sections)-1 {
		c.SectionIndex++
		c.SubtopicIndex = 0
		return true
	}
	return false
}

// IsLessonComplete reports whether the cursor is at or past the final
// subtopic. A session without an outline is trivially complete.
func (c *Context) IsLessonComplete() bool {
	if c.Outline == nil {
		return true
	}
	sections := c.Outline.Sections
	if c.SectionIndex >= len(sections) {
		return true
	}
	if c.SectionIndex == len(sections)-1 {
		return c.SubtopicIndex >= len(sections[c.SectionIndex].Subtopics)-1
	}
	return false
}

// ShouldSuggestBreak reports whether the learner has worked past the threshold.
func (c *Context) ShouldSuggestBreak() bool {
	return c.TimeSinceLastBreakMinutes >= c.BreakThresholdMinutes
}

// AssessmentWasSkipped reports whether the assessment was abandoned.
func (c *Context) AssessmentWasSkipped() bool { return c.AssessmentSkipped }

// UpdateTimeTracking recomputes the derived elapsed-time fields.
func (c *Context) UpdateTimeTracking() {
	now := c.Now()
	if !c.SessionStartedAt.IsZero() {
		c.TotalTimeSpentMinutes = now.Sub(c.SessionStartedAt).Minutes()
	}
	if !c.CurrentPhaseStartedAt.IsZero() {
		c.TimeSinceLastBreakMinutes = now.Sub(c.CurrentPhaseStartedAt).Minutes()
	}
}

// RecordBreak counts a break and restarts the since-last-break clock.
func (c *Context) RecordBreak() {
	c.BreaksTaken++
	c.TimeSinceLastBreakMinutes = 0
	c.CurrentPhaseStartedAt = c.Now()
}

// MarkStarted stamps the session timing fields.
func (c *Context) MarkStarted() {
	now := c.Now()
	c.SessionStartedAt = now
	c.LastActivityAt = now
	c.CurrentPhaseStartedAt = now
}

// MarkPhaseStart restarts the working-phase clock without counting a break.
func (c *Context) MarkPhaseStart() {
	c.CurrentPhaseStartedAt = c.Now()
	c.TimeSinceLastBreakMinutes = 0
}

// AddMessage appends to the history, tagged with the current state.
func (c *Context) AddMessage(role, content string) {
	now := c.Now()
	c.History = append(c.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
		State:     c.CurrentState,
	})
	c.LastActivityAt = now
}

// RecentHistory returns the last n messages.
func (c *Context) RecentHistory(n int) []Message {
	if n <= 0 || len(c.History) == 0 {
		return nil
	}
	if n > len(c.History) {
		n = len(c.History)
	}
	return c.History[len(c.History)-n:]
}

// CurrentTopicProgress returns the progress record of the active topic.
func (c *Context) CurrentTopicProgress() *TopicProgress {
	if len(c.TopicProgress) == 0 {
		return nil
	}
	return &c.TopicProgress[len(c.TopicProgress)-1]
}

// BeginTopic opens a progress record for t.
func (c *Context) BeginTopic(t Topic) {
	c.TopicProgress = append(c.TopicProgress, TopicProgress{
		TopicIndex: len(c.TopicProgress),
		TopicTitle: t.Subtopic.Title,
		StartedAt:  c.Now(),
	})
}

// CoverConcept records concept on the session and the active topic.
func (c *Context) CoverConcept(concept string) {
	c.ConceptsCovered = append(c.ConceptsCovered, concept)
	if p := c.CurrentTopicProgress(); p != nil {
		p.ConceptsCovered = append(p.ConceptsCovered, concept)
	}
}

// TopicsCompleted counts topics whose summary was given.
func (c *Context) TopicsCompleted() int {
	n := 0
	for _, p := range c.TopicProgress {
		if p.Completed() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy. The outline is shared since nothing mutates it.
func (c *Context) Clone() *Context {
	cp := *c
	cp.AssessmentQuestions = cloneQuestions(c.AssessmentQuestions)
	cp.AssessmentResponses = append([]AssessmentResponse(nil), c.AssessmentResponses...)
	cp.ConceptsCovered = append([]string(nil), c.ConceptsCovered...)
	cp.History = append([]Message(nil), c.History...)
	cp.TopicProgress = make([]TopicProgress, len(c.TopicProgress))
	for i, p := range c.TopicProgress {
		p.ConceptsCovered = append([]string(nil), p.ConceptsCovered...)
		cp.TopicProgress[i] = p
	}
	if c.TopicProgress == nil {
		cp.TopicProgress = nil
	}
	return &cp
}

// Restore overwrites c with the contents of from, keeping c's identity.
func (c *Context) Restore(from *Context) {
	*c = *from.Clone()
}

func cloneQuestions(qs []AssessmentQuestion) []AssessmentQuestion {
	if qs == nil {
		return nil
	}
	out := make([]AssessmentQuestion, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
