package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/tutor"
)

// behave runs what the tutor does on entering state and reports whether
// the state changed as a result.
func (o *Orchestrator) behave(ctx context.Context, sink tutor.Sink, state tutor.State) (bool, error) {
	switch state {
	case tutor.StateCourseSetup:
		return o.courseSetup(ctx, sink)
	case tutor.StateInitialAssessment:
		return o.initialAssessment(ctx, sink)
	case tutor.StateAssessmentReview:
		return o.assessmentReview(ctx, sink)
	case tutor.StateLessonIntroduction:
		return o.lessonIntroduction(ctx, sink)
	case tutor.StateConceptExplanation:
		return o.conceptExplanation(ctx, sink)
	case tutor.StateExampleDemonstration:
		return o.exampleDemonstration(ctx, sink)
	case tutor.StateGuidedPractice:
		return false, o.ask(ctx, sink, "practice")
	case tutor.StateCheckUnderstanding:
		return false, o.ask(ctx, sink, "understanding_check")
	case tutor.StateTopicSummary:
		return o.topicSummary(ctx, sink)
	case tutor.StateAnsweringQuestion, tutor.StateHandlingConfusion:
		return false, o.answerPending(ctx, sink)
	case tutor.StateBreakSuggestion:
		return false, o.suggestBreak(ctx, sink)
	case tutor.StateLessonComplete:
		return o.lessonComplete(ctx, sink)
	case tutor.StateSessionComplete:
		return false, o.sessionComplete(ctx, sink)
	case tutor.StateIdle, tutor.StateSessionPaused:
		return false, nil
	}
	return false, fmt.Errorf("no behavior for state %q", state)
}

func (o *Orchestrator) courseSetup(ctx context.Context, sink tutor.Sink) (bool, error) {
	text, err := o.say(ctx, welcomeInstruction)
	if err != nil {
		return false, err
	}
	o.emit(sink, tutor.EventAgentSpeak, text, nil, tutor.StateCourseSetup)
	return o.moveOn(sink, tutor.StateInitialAssessment), nil
}

func (o *Orchestrator) initialAssessment(ctx context.Context, sink tutor.Sink) (bool, error) {
	if o.sc.AssessmentPending() {
		o.presentQuestion(sink, o.sc.AssessmentIndex)
		return false, nil
	}

	var questions []tutor.AssessmentQuestion
	if o.cfg.AssessmentEnabled {
		var err error
		questions, err = o.generateAssessment(ctx)
		if err != nil {
			return false, err
		}
	}
	if len(questions) == 0 {
		o.sc.AssessmentSkipped = true
		o.logger.Warn("initial assessment skipped",
			zap.Bool("enabled", o.cfg.AssessmentEnabled))
		return o.transitionTo(tutor.StateLessonIntroduction), nil
	}

	o.sc.AssessmentQuestions = questions
	o.sc.AssessmentResponses = nil
	o.sc.AssessmentIndex = 0
	o.presentQuestion(sink, 0)
	return false, nil
}

func (o *Orchestrator) presentQuestion(sink tutor.Sink, index int) {
	q := o.sc.AssessmentQuestions[index]
	content := fmt.Sprintf("**Question %d:** %s\n\n", index+1, q.Text)
	if len(q.Options) > 0 {
		content += strings.Join(q.Options, "\n")
	}
	o.sc.AddMessage("assistant", content)

	options := q.Options
	if options == nil {
		options = []string{}
	}
	o.emit(sink, tutor.EventAskQuestion, content, map[string]any{
		"question_index":  index,
		"question_type":   string(q.Type),
		"options":         options,
		"total_questions": len(o.sc.AssessmentQuestions),
	}, tutor.StateInitialAssessment)
}

type assessmentOutput struct {
	Questions []assessmentQuestionOutput `json:"questions"`
}

type assessmentQuestionOutput struct {
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     string   `json:"correct"`
	Difficulty  string   `json:"difficulty"`
	Explanation string   `json:"explanation"`
}

// generateAssessment asks the model for the assessment questions. Output
// that does not parse yields no questions and no error, so the caller
// skips the assessment instead of failing the turn.
func (o *Orchestrator) generateAssessment(ctx context.Context) ([]tutor.AssessmentQuestion, error) {
	ctx = o.llmContext(ctx, "tutor:assessment")

	req := llm.Request{
		System: SystemPrompt(o.sc, tutor.StateInitialAssessment),
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: assessmentInstruction},
		},
		Schema:      AssessmentSchema,
		MaxTokens:   o.cfg.AssessmentMaxTokens,
		Temperature: o.cfg.Temperature,
	}

	resp, err := o.provider.Generate(ctx, req)
	if err != nil {
		if llm.IsMalformed(err) {
			o.logger.Warn("assessment response rejected", zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("assessment generation: %w", err)
	}

	var out assessmentOutput
	if err := llm.Decode(resp, &out); err != nil {
		o.logger.Warn("parse assessment response", zap.Error(err))
		return nil, nil
	}

	questions := make([]tutor.AssessmentQuestion, 0, len(out.Questions))
	for _, q := range out.Questions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		questions = append(questions, tutor.AssessmentQuestion{
			Text:          q.Question,
			Type:          questionType(q.Type),
			Options:       q.Options,
			CorrectAnswer: q.Correct,
			Difficulty:    difficulty(q.Difficulty),
			Explanation:   q.Explanation,
		})
	}
	return questions, nil
}

func questionType(s string) tutor.QuestionType {
	switch t := tutor.QuestionType(strings.ToLower(s)); t {
	case tutor.QuestionMCQ, tutor.QuestionTrueFalse, tutor.QuestionShortAnswer:
		return t
	}
	return tutor.QuestionMCQ
}

func difficulty(s string) tutor.Difficulty {
	switch d := tutor.Difficulty(strings.ToLower(s)); d {
	case tutor.DifficultyEasy, tutor.DifficultyMedium, tutor.DifficultyHard:
		return d
	}
	return tutor.DifficultyMedium
}

// llmContext labels a model call with its purpose and this session.
func (o *Orchestrator) llmContext(ctx context.Context, purpose string) context.Context {
	return llm.WithPurpose(llm.WithSession(ctx, o.sc.SessionID), purpose)
}

func (o *Orchestrator) assessmentReview(ctx context.Context, sink tutor.Sink) (bool, error) {
	text, err := o.say(ctx, "")
	if err != nil {
		return false, err
	}
	o.emit(sink, tutor.EventAgentSpeak, text, map[string]any{
		"student_level":    string(o.sc.StudentLevel),
		"assessment_score": o.sc.AssessmentScore,
	}, tutor.StateAssessmentReview)
	return o.moveOn(sink, tutor.StateLessonIntroduction), nil
}

func (o *Orchestrator) lessonIntroduction(ctx context.Context, sink tutor.Sink) (bool, error) {
	topic, ok := o.sc.CurrentTopic()
	if !ok {
		next, ok := o.machine.NextAutoState()
		if !ok {
			return false, nil
		}
		return o.transitionTo(next), nil
	}

	// A learner returning from a pause re-enters the topic they left.
	if p := o.sc.CurrentTopicProgress(); p == nil || p.Completed() || p.TopicTitle != topic.Subtopic.Title {
		o.sc.BeginTopic(topic)
	}

	text, err := o.say(ctx, "")
	if err != nil {
		return false, err
	}
	o.emit(sink, tutor.EventAgentSpeak, text, map[string]any{
		"topic":   topic.Subtopic.Title,
		"section": topic.Section.Title,
	}, tutor.StateLessonIntroduction)
	return o.moveOn(sink, tutor.StateConceptExplanation), nil
}

func (o *Orchestrator) conceptExplanation(ctx context.Context, sink tutor.Sink) (bool, error) {
	text, err := o.say(ctx, "")
	if err != nil {
		return false, err
	}
	if topic, ok := o.sc.CurrentTopic(); ok && !o.conceptCovered(topic.Subtopic.Title) {
		o.sc.CoverConcept(topic.Subtopic.Title)
	}
	o.emit(sink, tutor.EventAgentSpeak, text, nil, tutor.StateConceptExplanation)
	return o.moveOn(sink, tutor.StateExampleDemonstration), nil
}

func (o *Orchestrator) conceptCovered(concept string) bool {
	p := o.sc.CurrentTopicProgress()
	if p == nil {
		return false
	}
	for _, c := range p.ConceptsCovered {
		if c == concept {
			return true
		}
	}
	return false
}

func (o *Orchestrator) exampleDemonstration(ctx context.Context, sink tutor.Sink) (bool, error) {
	text, err := o.say(ctx, "")
	if err != nil {
		return false, err
	}
	if p := o.sc.CurrentTopicProgress(); p != nil {
		p.ExamplesShown++
	}
	o.emit(sink, tutor.EventAgentSpeak, text, nil, tutor.StateExampleDemonstration)
	return o.moveOn(sink, tutor.StateGuidedPractice), nil
}

// ask poses a practice problem or an understanding check and waits.
func (o *Orchestrator) ask(ctx context.Context, sink tutor.Sink, kind string) error {
	state := o.sc.CurrentState
	text, err := o.say(ctx, "")
	if err != nil {
		return err
	}
	o.emit(sink, tutor.EventAskQuestion, text, map[string]any{"type": kind}, state)
	return nil
}

func (o *Orchestrator) topicSummary(ctx context.Context, sink tutor.Sink) (bool, error) {
	text, err := o.say(ctx, "")
	if err != nil {
		return false, err
	}
	if p := o.sc.CurrentTopicProgress(); p != nil && !p.Completed() {
		p.CompletedAt = o.sc.Now()
	}
	o.emit(sink, tutor.EventAgentSpeak, text, nil, tutor.StateTopicSummary)

	o.sc.UpdateTimeTracking()
	target, ok := o.machine.NextAutoState()
	if !ok {
		return false, nil
	}
	if !o.moveOn(sink, target) {
		return false, nil
	}
	if target == tutor.StateLessonIntroduction || target == tutor.StateBreakSuggestion {
		o.sc.AdvanceToNextTopic()
	}
	return true, nil
}

func (o *Orchestrator) answerPending(ctx context.Context, sink tutor.Sink) error {
	state := o.sc.CurrentState
	text, err := o.say(ctx, "")
	if err != nil {
		return err
	}
	o.sc.PendingQuestion = ""
	o.emit(sink, tutor.EventAgentSpeak, text, nil, state)
	return nil
}

func (o *Orchestrator) suggestBreak(ctx context.Context, sink tutor.Sink) error {
	text, err := o.say(ctx, "")
	if err != nil {
		return err
	}
	o.emit(sink, tutor.EventSuggestBreak, text, map[string]any{
		"time_elapsed_minutes": o.sc.TotalTimeSpentMinutes,
	}, tutor.StateBreakSuggestion)
	return nil
}

func (o *Orchestrator) lessonComplete(ctx context.Context, sink tutor.Sink) (bool, error) {
	o.sc.UpdateTimeTracking()
	text, err := o.say(ctx, "")
	if err != nil {
		return false, err
	}
	o.emit(sink, tutor.EventLessonComplete, text, map[string]any{
		"topics_covered": len(o.sc.TopicProgress),
		"time_spent":     o.sc.TotalTimeSpentMinutes,
	}, tutor.StateLessonComplete)
	return o.transitionTo(tutor.StateSessionComplete), nil
}

func (o *Orchestrator) sessionComplete(ctx context.Context, sink tutor.Sink) error {
	o.sc.UpdateTimeTracking()
	text, err := o.say(ctx, "")
	if err != nil {
		return err
	}
	o.phase = PhaseEnded
	o.emit(sink, tutor.EventSessionComplete, text, map[string]any{
		"final_summary": o.buildSummary().eventData(),
	}, tutor.StateSessionComplete)
	o.logger.Info("session complete",
		zap.Int("topics_covered", len(o.sc.TopicProgress)),
		zap.Float64("time_spent_minutes", o.sc.TotalTimeSpentMinutes))
	return nil
}

// say asks the model for the tutor's next utterance in the current state
// and records it in the history. instruction, when set, is sent as the
// final user message without being recorded.
func (o *Orchestrator) say(ctx context.Context, instruction string) (string, error) {
	state := o.sc.CurrentState
	ctx = o.llmContext(ctx, "tutor:"+string(state))

	req := llm.Request{
		System:      SystemPrompt(o.sc, state),
		Messages:    o.messages(instruction),
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}

	resp, err := o.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", state, err)
	}

	text := strings.TrimSpace(resp.Text())
	o.sc.AddMessage("assistant", text)
	return text, nil
}

func (o *Orchestrator) messages(instruction string) []llm.Message {
	recent := o.sc.RecentHistory(o.cfg.HistoryWindow)
	msgs := make([]llm.Message, 0, len(recent)+2)
	for _, m := range recent {
		role := llm.RoleUser
		if m.Role == "assistant" {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	if instruction != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: instruction})
	}
	if len(msgs) == 0 || msgs[0].Role != llm.RoleUser {
		msgs = append([]llm.Message{{Role: llm.RoleUser, Content: openingMessage}}, msgs...)
	}
	return msgs
}

type evaluationOutput struct {
	Correct  bool   `json:"correct"`
	Feedback string `json:"feedback"`
}

// evaluate grades a free-form answer with a structured call. When the
// model's output is unusable it falls back to a plain reply and reads
// correctness from its wording.
func (o *Orchestrator) evaluate(ctx context.Context, prompt string) (evaluationOutput, error) {
	ctx = o.llmContext(ctx, "tutor:evaluate")
	state := o.sc.CurrentState

	req := llm.Request{
		System:      SystemPrompt(o.sc, state),
		Messages:    o.messages(prompt),
		Schema:      EvaluationSchema,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.EvaluationTemperature,
	}

	resp, err := o.provider.Generate(ctx, req)
	if err != nil && !llm.IsMalformed(err) {
		return evaluationOutput{}, fmt.Errorf("evaluate answer: %w", err)
	}

	var out evaluationOutput
	if err == nil {
		if jerr := llm.Decode(resp, &out); jerr == nil && strings.TrimSpace(out.Feedback) != "" {
			out.Feedback = strings.TrimSpace(out.Feedback)
			o.sc.AddMessage("assistant", out.Feedback)
			return out, nil
		} else if jerr != nil {
			err = jerr
		}
	}
	o.logger.Warn("structured evaluation unusable, falling back to text", zap.Error(err))

	text, err := o.say(ctx, prompt)
	if err != nil {
		return evaluationOutput{}, err
	}
	return evaluationOutput{Correct: soundsCorrect(text), Feedback: text}, nil
}

// soundsCorrect is the wording heuristic used when no structured verdict
// is available.
func soundsCorrect(feedback string) bool {
	lower := strings.ToLower(feedback)
	return strings.Contains(lower, "correct") || strings.Contains(lower, "right")
}
