package tutor

import "strings"

// AssessmentQuestion is one generated question of the initial assessment.
type AssessmentQuestion struct {
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Difficulty    Difficulty   `json:"difficulty"`
	Explanation   string       `json:"explanation,omitempty"`
}

// AssessmentResponse records a learner's answer to an assessment question.
type AssessmentResponse struct {
	QuestionIndex int          `json:"question_index"`
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	StudentAnswer string       `json:"student_answer"`
	CorrectAnswer string       `json:"correct_answer"`
	IsCorrect     bool         `json:"is_correct"`
	Difficulty    Difficulty   `json:"difficulty"`
}

// CheckAnswer grades answer against q. Matching is deliberately coarse:
// multiple choice compares the leading letter, true/false compares the
// boolean reading of both sides, short answers need an exact
// case-insensitive match.
func CheckAnswer(answer string, q AssessmentQuestion) bool {
	given := strings.ToUpper(strings.TrimSpace(answer))
	want := strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))

	switch q.Type {
	case QuestionMCQ:
		if want == "" {
			return given == ""
		}
		return strings.HasPrefix(given, want) || given == want
	case QuestionTrueFalse:
		return truthy(given) == truthy(want)
	default:
		return strings.EqualFold(given, want)
	}
}

func truthy(s string) bool {
	switch s {
	case "TRUE", "T", "YES", "Y":
		return true
	}
	return false
}

// LevelForRatio maps a correct/total ratio onto a learner level.
func LevelForRatio(ratio float64) Level {
	switch {
	case ratio >= 0.8:
		return LevelAdvanced
	case ratio >= 0.5:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

// CorrectResponses counts correct assessment responses.
func (c *Context) CorrectResponses() int {
	n := 0
	for _, r := range c.AssessmentResponses {
		if r.IsCorrect {
			n++
		}
	}
	return n
}

// ScoreAssessment derives the score (0-100) and level from the recorded
// responses. Without responses it leaves both untouched.
func (c *Context) ScoreAssessment() {
	total := len(c.AssessmentResponses)
	if total == 0 {
		return
	}
	ratio := float64(c.CorrectResponses()) / float64(total)
	c.AssessmentScore = ratio * 100
	c.StudentLevel = LevelForRatio(ratio)
}

// RecordAssessmentAnswer grades answer against the question at the
// assessment cursor, appends the response and advances the cursor.
func (c *Context) RecordAssessmentAnswer(answer string) (AssessmentResponse, AssessmentQuestion, bool) {
	if c.AssessmentIndex >= len(c.AssessmentQuestions) {
		return AssessmentResponse{}, AssessmentQuestion{}, false
	}
	q := c.AssessmentQuestions[c.AssessmentIndex]
	resp := AssessmentResponse{
		QuestionIndex: c.AssessmentIndex,
		QuestionText:  q.Text,
		QuestionType:  q.Type,
		StudentAnswer: answer,
		CorrectAnswer: q.CorrectAnswer,
		IsCorrect:     CheckAnswer(answer, q),
		Difficulty:    q.Difficulty,
	}
	c.AssessmentResponses = append(c.AssessmentResponses, resp)
	c.AssessmentIndex++
	return resp, q, true
}

// AssessmentPending reports whether questions remain unanswered.
func (c *Context) AssessmentPending() bool {
	return c.AssessmentIndex < len(c.AssessmentQuestions)
}
