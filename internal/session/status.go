package session

import (
	"strings"

	"github.com/abhisek/tutorly/internal/tutor"
)

// Status is a point-in-time view of a session for clients.
type Status struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id"`
	Selection tutor.Selection `json:"selection"`
	Phase     Phase           `json:"phase"`
	State     tutor.StateInfo `json:"state"`
	Paused    bool            `json:"is_paused"`

	StudentLevel      tutor.Level `json:"student_level"`
	AssessmentScore   float64     `json:"assessment_score"`
	AssessmentSkipped bool        `json:"assessment_skipped"`

	CurrentSection  string `json:"current_section,omitempty"`
	CurrentTopic    string `json:"current_topic,omitempty"`
	TopicNumber     int    `json:"topic_number"`
	TotalTopics     int    `json:"total_topics"`
	TopicsCompleted int    `json:"topics_completed"`

	TimeSpentMinutes float64 `json:"time_spent_minutes"`
	BreaksTaken      int     `json:"breaks_taken"`
}

// Summary is what the learner achieved, as reported at the end.
type Summary struct {
	SessionID         string                `json:"session_id"`
	TopicsCovered     int                   `json:"topics_covered"`
	TopicsCompleted   int                   `json:"topics_completed"`
	ConceptsLearned   []string              `json:"concepts_learned"`
	AssessmentScore   float64               `json:"assessment_score"`
	AssessmentSkipped bool                  `json:"assessment_skipped"`
	TimeSpentMinutes  float64               `json:"time_spent_minutes"`
	StudentLevel      tutor.Level           `json:"student_level"`
	BreaksTaken       int                   `json:"breaks_taken"`
	Topics            []tutor.TopicProgress `json:"topics"`
}

func (s Summary) eventData() map[string]any {
	return map[string]any{
		"topics_covered":     s.TopicsCovered,
		"concepts_learned":   s.ConceptsLearned,
		"assessment_score":   s.AssessmentScore,
		"time_spent_minutes": s.TimeSpentMinutes,
		"student_level":      string(s.StudentLevel),
	}
}

func (o *Orchestrator) buildStatus() Status {
	c := o.sc
	st := Status{
		SessionID:         c.SessionID,
		UserID:            c.UserID,
		Selection:         c.Selection,
		Phase:             o.phase,
		State:             o.machine.Info(),
		Paused:            c.Paused,
		StudentLevel:      c.StudentLevel,
		AssessmentScore:   c.AssessmentScore,
		AssessmentSkipped: c.AssessmentSkipped,
		TotalTopics:       c.Outline.TopicCount(),
		TopicsCompleted:   c.TopicsCompleted(),
		TimeSpentMinutes:  elapsedMinutes(c),
		BreaksTaken:       c.BreaksTaken,
	}
	if t, ok := c.CurrentTopic(); ok {
		st.CurrentSection = t.Section.Title
		st.CurrentTopic = t.Subtopic.Title
		st.TopicNumber = topicNumber(c.Outline, t) + 1
	}
	return st
}

func (o *Orchestrator) buildSummary() Summary {
	c := o.sc
	topics := make([]tutor.TopicProgress, len(c.TopicProgress))
	for i, p := range c.TopicProgress {
		p.ConceptsCovered = append([]string(nil), p.ConceptsCovered...)
		topics[i] = p
	}
	return Summary{
		SessionID:         c.SessionID,
		TopicsCovered:     len(c.TopicProgress),
		TopicsCompleted:   c.TopicsCompleted(),
		ConceptsLearned:   append([]string{}, c.ConceptsCovered...),
		AssessmentScore:   c.AssessmentScore,
		AssessmentSkipped: c.AssessmentSkipped,
		TimeSpentMinutes:  c.TotalTimeSpentMinutes,
		StudentLevel:      c.StudentLevel,
		BreaksTaken:       c.BreaksTaken,
		Topics:            topics,
	}
}

// elapsedMinutes reads the session clock without updating the context.
func elapsedMinutes(c *tutor.Context) float64 {
	if c.SessionStartedAt.IsZero() {
		return c.TotalTimeSpentMinutes
	}
	if c.CurrentState == tutor.StateSessionComplete || c.Paused {
		return c.TotalTimeSpentMinutes
	}
	return c.Now().Sub(c.SessionStartedAt).Minutes()
}

// topicNumber is the zero-based position of t across the whole outline.
func topicNumber(o *tutor.Outline, t tutor.Topic) int {
	n := 0
	for i := 0; i < t.SectionIndex; i++ {
		n += len(o.Sections[i].Subtopics)
	}
	return n + t.SubtopicIndex
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
