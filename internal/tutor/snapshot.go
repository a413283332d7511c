package tutor

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the flat, persistable form of a Context. The leading fields
// are enough to resume a session; the rest carry the detail needed to
// continue it exactly where it stopped.
type Snapshot struct {
	SessionID             string     `json:"session_id"`
	UserID                string     `json:"user_id"`
	Board                 string     `json:"board"`
	Subject               string     `json:"subject"`
	Chapter               string     `json:"chapter"`
	Topic                 *string    `json:"topic"`
	BoardName             string     `json:"board_name"`
	SubjectName           string     `json:"subject_name"`
	ChapterName           string     `json:"chapter_name"`
	CurrentState          State      `json:"current_state"`
	StudentLevel          Level      `json:"student_level"`
	AssessmentScore       float64    `json:"assessment_score"`
	SectionIndex          int        `json:"current_section_index"`
	SubtopicIndex         int        `json:"current_subtopic_index"`
	ConceptsCovered       []string   `json:"concepts_covered"`
	TotalTimeSpentMinutes float64    `json:"total_time_spent_minutes"`
	BreaksTaken           int        `json:"breaks_taken"`
	Paused                bool       `json:"is_paused"`
	SessionStartedAt      *time.Time `json:"session_started_at"`
	LastActivityAt        *time.Time `json:"last_activity_at"`

	PreviousState             State                `json:"previous_state,omitempty"`
	CurrentPhaseStartedAt     *time.Time           `json:"current_phase_started_at,omitempty"`
	TimeSinceLastBreakMinutes float64              `json:"time_since_last_break_minutes,omitempty"`
	BreakThresholdMinutes     float64              `json:"break_threshold_minutes,omitempty"`
	RequestedEnd              bool                 `json:"student_requested_end,omitempty"`
	Outline                   *Outline             `json:"outline,omitempty"`
	AssessmentQuestions       []AssessmentQuestion `json:"assessment_questions,omitempty"`
	AssessmentResponses       []AssessmentResponse `json:"assessment_responses,omitempty"`
	AssessmentIndex           int                  `json:"assessment_index,omitempty"`
	AssessmentSkipped         bool                 `json:"assessment_skipped,omitempty"`
	TopicProgress             []TopicProgress      `json:"topic_progress,omitempty"`
	History                   []Message            `json:"conversation_history,omitempty"`
}

// Snapshot captures c for persistence.
func (c *Context) Snapshot() Snapshot {
	s := Snapshot{
		SessionID:             c.SessionID,
		UserID:                c.UserID,
		Board:                 c.Board,
		Subject:               c.Subject,
		Chapter:               c.Chapter,
		BoardName:             c.BoardName,
		SubjectName:           c.SubjectName,
		ChapterName:           c.ChapterName,
		CurrentState:          c.CurrentState,
		StudentLevel:          c.StudentLevel,
		AssessmentScore:       c.AssessmentScore,
		SectionIndex:          c.SectionIndex,
		SubtopicIndex:         c.SubtopicIndex,
		ConceptsCovered:       append([]string{}, c.ConceptsCovered...),
		TotalTimeSpentMinutes: c.TotalTimeSpentMinutes,
		BreaksTaken:           c.BreaksTaken,
		Paused:                c.Paused,
		SessionStartedAt:      timePtr(c.SessionStartedAt),
		LastActivityAt:        timePtr(c.LastActivityAt),

		PreviousState:             c.PreviousState,
		CurrentPhaseStartedAt:     timePtr(c.CurrentPhaseStartedAt),
		TimeSinceLastBreakMinutes: c.TimeSinceLastBreakMinutes,
		BreakThresholdMinutes:     c.BreakThresholdMinutes,
		RequestedEnd:              c.RequestedEnd,
		Outline:                   c.Outline,
		AssessmentIndex:           c.AssessmentIndex,
		AssessmentSkipped:         c.AssessmentSkipped,
	}
	if c.Topic != "" {
		topic := c.Topic
		s.Topic = &topic
	}
	cp := c.Clone()
	s.AssessmentQuestions = cp.AssessmentQuestions
	s.AssessmentResponses = cp.AssessmentResponses
	s.TopicProgress = cp.TopicProgress
	s.History = cp.History
	return s
}

// FromSnapshot rebuilds a Context. Unknown state or level values are rejected.
func FromSnapshot(s Snapshot, opts ...ContextOption) (*Context, error) {
	sel := Selection{
		Board:       s.Board,
		Subject:     s.Subject,
		Chapter:     s.Chapter,
		BoardName:   s.BoardName,
		SubjectName: s.SubjectName,
		ChapterName: s.ChapterName,
	}
	if s.Topic != nil {
		sel.Topic = *s.Topic
	}
	c := NewContext(s.SessionID, s.UserID, sel, opts...)

	if s.CurrentState != "" {
		st, err := ParseState(string(s.CurrentState))
		if err != nil {
			return nil, fmt.Errorf("restore session %s: %w", s.SessionID, err)
		}
		c.CurrentState = st
	}
	if s.PreviousState != "" {
		st, err := ParseState(string(s.PreviousState))
		if err != nil {
			return nil, fmt.Errorf("restore session %s: %w", s.SessionID, err)
		}
		c.PreviousState = st
	}
	if s.StudentLevel != "" {
		lvl, err := ParseLevel(string(s.StudentLevel))
		if err != nil {
			return nil, fmt.Errorf("restore session %s: %w", s.SessionID, err)
		}
		c.StudentLevel = lvl
	}

	c.AssessmentScore = s.AssessmentScore
	c.SectionIndex = s.SectionIndex
	c.SubtopicIndex = s.SubtopicIndex
	c.ConceptsCovered = append([]string(nil), s.ConceptsCovered...)
	c.TotalTimeSpentMinutes = s.TotalTimeSpentMinutes
	c.BreaksTaken = s.BreaksTaken
	c.Paused = s.Paused
	c.SessionStartedAt = timeVal(s.SessionStartedAt)
	c.LastActivityAt = timeVal(s.LastActivityAt)
	c.CurrentPhaseStartedAt = timeVal(s.CurrentPhaseStartedAt)
	c.TimeSinceLastBreakMinutes = s.TimeSinceLastBreakMinutes
	if s.BreakThresholdMinutes > 0 {
		c.BreakThresholdMinutes = s.BreakThresholdMinutes
	}
	c.RequestedEnd = s.RequestedEnd
	if s.Outline != nil {
		c.Outline = s.Outline
	}
	c.AssessmentQuestions = cloneQuestions(s.AssessmentQuestions)
	c.AssessmentResponses = append([]AssessmentResponse(nil), s.AssessmentResponses...)
	c.AssessmentIndex = s.AssessmentIndex
	c.AssessmentSkipped = s.AssessmentSkipped
	for _, p := range s.TopicProgress {
		p.ConceptsCovered = append([]string(nil), p.ConceptsCovered...)
		c.TopicProgress = append(c.TopicProgress, p)
	}
	c.History = append([]Message(nil), s.History...)
	return c, nil
}

// MarshalSnapshot encodes c as snapshot JSON.
func MarshalSnapshot(c *Context) ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

// UnmarshalSnapshot decodes snapshot JSON into a Context.
func UnmarshalSnapshot(data []byte, opts ...ContextOption) (*Context, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	return FromSnapshot(s, opts...)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
