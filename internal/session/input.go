package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/tutor"
)

// dispatch records the learner's message, classifies it and reacts.
func (o *Orchestrator) dispatch(ctx context.Context, sink tutor.Sink, text string) error {
	state := o.sc.CurrentState
	o.sc.AddMessage("user", text)

	intent := tutor.Classify(tutor.ClassifyInput{
		Text:   text,
		State:  state,
		Paused: o.sc.Paused,
	})
	o.logger.Debug("input classified",
		zap.String("state", string(state)),
		zap.String("intent", string(intent)))
	o.emit(sink, tutor.EventInputReceived, "", map[string]any{"input_type": string(intent)}, "")

	switch intent {
	case tutor.IntentQuestion:
		return o.handleQuestion(ctx, sink, text)
	case tutor.IntentConfusion:
		return o.handleConfusion(ctx, sink, text)
	case tutor.IntentAssessmentAnswer:
		return o.handleAssessmentAnswer(ctx, sink, text)
	case tutor.IntentPracticeAnswer:
		return o.handlePracticeAnswer(ctx, sink, text)
	case tutor.IntentContinue, tutor.IntentReady:
		return o.continueLesson(ctx, sink, intent)
	case tutor.IntentEndSession:
		return o.endSession(ctx, sink)
	case tutor.IntentTakeBreak:
		o.takeBreak(sink)
		return nil
	case tutor.IntentResume:
		return o.resume(ctx, sink)
	}
	return o.converse(ctx, sink, text)
}

func (o *Orchestrator) handleQuestion(ctx context.Context, sink tutor.Sink, text string) error {
	o.sc.PendingQuestion = text
	prev := o.sc.CurrentState

	if !prev.IsTeaching() || !o.machine.HasTrigger(tutor.TriggerUserQuestion) {
		return o.answerInPlace(ctx, sink, answerInstruction(text))
	}

	o.fire(tutor.TriggerUserQuestion)
	if err := o.drain(ctx, sink); err != nil {
		return err
	}
	if o.sc.CurrentState.IsInterruption() && o.transitionTo(prev) {
		o.emit(sink, tutor.EventStateChange, "", nil, prev)
	}
	return nil
}

func (o *Orchestrator) handleConfusion(ctx context.Context, sink tutor.Sink, text string) error {
	o.sc.PendingQuestion = text
	if !o.fire(tutor.TriggerUserConfused) {
		return o.answerInPlace(ctx, sink, confusionInstruction(text))
	}
	return o.drain(ctx, sink)
}

// answerInPlace replies without leaving the current state.
func (o *Orchestrator) answerInPlace(ctx context.Context, sink tutor.Sink, instruction string) error {
	reply, err := o.say(ctx, instruction)
	if err != nil {
		return err
	}
	o.sc.PendingQuestion = ""
	o.emit(sink, tutor.EventAgentSpeak, reply, nil, "")
	return nil
}

func (o *Orchestrator) handleAssessmentAnswer(ctx context.Context, sink tutor.Sink, text string) error {
	resp, q, ok := o.sc.RecordAssessmentAnswer(text)
	if !ok {
		return o.continueLesson(ctx, sink, tutor.IntentContinue)
	}

	feedback := "Correct!"
	if !resp.IsCorrect {
		feedback = "Not quite. The answer is " + q.CorrectAnswer + "."
		if q.Explanation != "" {
			feedback += " " + q.Explanation
		}
	}
	o.emit(sink, tutor.EventAssessmentFeedback, feedback, map[string]any{"is_correct": resp.IsCorrect}, "")

	if o.sc.AssessmentPending() {
		o.presentQuestion(sink, o.sc.AssessmentIndex)
		return nil
	}

	o.sc.ScoreAssessment()
	o.logger.Info("assessment scored",
		zap.Float64("score", o.sc.AssessmentScore),
		zap.String("level", string(o.sc.StudentLevel)))
	if !o.fire(tutor.TriggerComplete) {
		return nil
	}
	return o.drain(ctx, sink)
}

func (o *Orchestrator) handlePracticeAnswer(ctx context.Context, sink tutor.Sink, text string) error {
	verdict, err := o.evaluate(ctx, practiceEvaluationPrompt(text))
	if err != nil {
		return err
	}
	if p := o.sc.CurrentTopicProgress(); p != nil {
		p.PracticeAttempted++
		if verdict.Correct {
			p.PracticeCorrect++
		}
	}
	o.emit(sink, tutor.EventAgentSpeak, verdict.Feedback, map[string]any{"is_correct": verdict.Correct}, tutor.StateGuidedPractice)

	if verdict.Correct {
		if !o.moveOn(sink, tutor.StateCheckUnderstanding) {
			return nil
		}
	} else if !o.fire(tutor.TriggerComplete) {
		return nil
	}
	return o.drain(ctx, sink)
}

func (o *Orchestrator) continueLesson(ctx context.Context, sink tutor.Sink, intent tutor.Intent) error {
	cur := o.sc.CurrentState

	switch {
	case cur == tutor.StateBreakSuggestion:
		if intent == tutor.IntentReady {
			o.takeBreak(sink)
			return nil
		}
		if !o.fire(tutor.TriggerUserDecline) {
			return nil
		}
		o.sc.MarkPhaseStart()
		return o.drain(ctx, sink)

	case cur.IsInterruption():
		return o.returnFromInterruption(ctx, sink)
	}

	next, ok := o.machine.NextAutoState()
	if !ok {
		o.emit(sink, tutor.EventAgentSpeak, continueMessage, nil, "")
		return nil
	}
	if !o.moveOn(sink, next) {
		return nil
	}
	return o.drain(ctx, sink)
}

// returnFromInterruption goes back to the teaching state the learner
// interrupted, or to the first return target the table offers.
func (o *Orchestrator) returnFromInterruption(ctx context.Context, sink tutor.Sink) error {
	prev := o.sc.PreviousState
	if prev.IsTeaching() && o.machine.CanTransitionTo(prev) {
		o.transitionTo(prev)
	} else if !o.fire(tutor.TriggerReturn) {
		return nil
	}
	return o.drain(ctx, sink)
}

func (o *Orchestrator) endSession(ctx context.Context, sink tutor.Sink) error {
	o.sc.RequestedEnd = true
	if !o.fire(tutor.TriggerUserEnd) {
		o.force(tutor.StateSessionComplete)
	}
	return o.drain(ctx, sink)
}

func (o *Orchestrator) takeBreak(sink tutor.Sink) {
	o.sc.UpdateTimeTracking()
	o.sc.RecordBreak()
	o.sc.Paused = true
	if o.sc.CurrentState != tutor.StateBreakSuggestion || !o.fire(tutor.TriggerUserAccept) {
		o.force(tutor.StateSessionPaused)
	}
	o.emit(sink, tutor.EventSessionPaused, pausedMessage, nil, tutor.StateSessionPaused)
}

func (o *Orchestrator) resume(ctx context.Context, sink tutor.Sink) error {
	o.sc.Paused = false
	o.sc.MarkPhaseStart()
	if !o.fire(tutor.TriggerResume) {
		o.force(tutor.StateLessonIntroduction)
	}
	return o.drain(ctx, sink)
}

// converse handles free text. During an understanding check the message
// is the learner's answer and is graded; elsewhere the tutor just replies.
func (o *Orchestrator) converse(ctx context.Context, sink tutor.Sink, text string) error {
	if o.sc.CurrentState == tutor.StateCheckUnderstanding {
		verdict, err := o.evaluate(ctx, checkEvaluationPrompt(text))
		if err != nil {
			return err
		}
		if p := o.sc.CurrentTopicProgress(); p != nil {
			p.UnderstandingChecks++
			if verdict.Correct {
				p.UnderstandingPassed++
			}
		}
		o.emit(sink, tutor.EventAgentSpeak, verdict.Feedback, map[string]any{"is_correct": verdict.Correct}, tutor.StateCheckUnderstanding)
		return nil
	}

	reply, err := o.say(ctx, "")
	if err != nil {
		return err
	}
	o.emit(sink, tutor.EventAgentSpeak, reply, nil, "")
	return nil
}
