package tutor

import (
	"testing"
	"time"
)

func TestContext_AdvanceToNextTopic_SubtopicsFirst(t *testing.T) {
	c := newTestContext(newFakeClock(), WithOutline(threeByTwoOutline()))

	want := [][2]int{{0, 1}, {1, 0}, {1, 1}, {2, 0}, {2, 1}}
	for i, w := range want {
		if !c.AdvanceToNextTopic() {
			t.Fatalf("step %d: AdvanceToNextTopic returned false", i)
		}
		if c.SectionIndex != w[0] || c.SubtopicIndex != w[1] {
			t.Fatalf("step %d: cursor = (%d,%d), want (%d,%d)", i, c.SectionIndex, c.SubtopicIndex, w[0], w[1])
		}
	}
}

func TestContext_AdvanceToNextTopic_IdempotentAtEnd(t *testing.T) {
	c := newTestContext(newFakeClock(), WithOutline(threeByTwoOutline()))
	c.SectionIndex, c.SubtopicIndex = 2, 1

	for i := 0; i < 3; i++ {
		if c.AdvanceToNextTopic() {
			t.Fatalf("call %d: advanced past the final subtopic", i)
		}
		if c.SectionIndex != 2 || c.SubtopicIndex != 1 {
			t.Fatalf("call %d: cursor moved to (%d,%d)", i, c.SectionIndex, c.SubtopicIndex)
		}
	}
}

func TestContext_AdvanceToNextTopic_NoOutline(t *testing.T) {
	c := newTestContext(newFakeClock())
	if c.AdvanceToNextTopic() {
		t.Error("advance without outline should fail")
	}
}

func TestContext_IsLessonComplete(t *testing.T) {
	tests := []struct {
		name    string
		outline *Outline
		section int
		sub     int
		want    bool
	}{
		{"no outline", nil, 0, 0, true},
		{"empty outline", &Outline{}, 0, 0, true},
		{"first of many", threeByTwoOutline(), 0, 0, false},
		{"last section, first subtopic", threeByTwoOutline(), 2, 0, false},
		{"last subtopic", threeByTwoOutline(), 2, 1, true},
		{"past end", threeByTwoOutline(), 3, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContext(newFakeClock(), WithOutline(tt.outline))
			c.SectionIndex, c.SubtopicIndex = tt.section, tt.sub
			if got := c.IsLessonComplete(); got != tt.want {
				t.Errorf("IsLessonComplete = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContext_CurrentTopic(t *testing.T) {
	c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
	c.SectionIndex = 1

	topic, ok := c.CurrentTopic()
	if !ok {
		t.Fatal("expected a current topic")
	}
	if topic.Subtopic.Title != "Snell's law" || topic.Section.Title != "Refraction" {
		t.Errorf("topic = %q / %q", topic.Section.Title, topic.Subtopic.Title)
	}

	c.SubtopicIndex = 5
	if _, ok := c.CurrentTopic(); ok {
		t.Error("out-of-bounds cursor should have no topic")
	}
}

func TestContext_BreakRecording(t *testing.T) {
	clock := newFakeClock()
	c := newTestContext(clock)
	c.MarkStarted()

	clock.Advance(30 * time.Minute)
	c.UpdateTimeTracking()
	if !c.ShouldSuggestBreak() {
		t.Fatal("break should be due after 30 minutes")
	}

	c.RecordBreak()
	if c.ShouldSuggestBreak() {
		t.Fatal("break should not be due right after recording one")
	}
	if c.BreaksTaken != 1 {
		t.Errorf("BreaksTaken = %d, want 1", c.BreaksTaken)
	}

	clock.Advance(24 * time.Minute)
	c.UpdateTimeTracking()
	if c.ShouldSuggestBreak() {
		t.Fatal("break should not be due before the threshold")
	}

	clock.Advance(time.Minute)
	c.UpdateTimeTracking()
	if !c.ShouldSuggestBreak() {
		t.Fatal("break should be due once the threshold is reached")
	}
	if c.TotalTimeSpentMinutes != 55 {
		t.Errorf("TotalTimeSpentMinutes = %v, want 55", c.TotalTimeSpentMinutes)
	}
}

func TestContext_UpdateTimeTracking_Idempotent(t *testing.T) {
	clock := newFakeClock()
	c := newTestContext(clock)
	c.MarkStarted()
	clock.Advance(10 * time.Minute)

	c.UpdateTimeTracking()
	first := c.TotalTimeSpentMinutes
	c.UpdateTimeTracking()
	if c.TotalTimeSpentMinutes != first {
		t.Errorf("second update changed total: %v -> %v", first, c.TotalTimeSpentMinutes)
	}
}

func TestContext_AddMessage(t *testing.T) {
	clock := newFakeClock()
	c := newTestContext(clock)
	c.CurrentState = StateConceptExplanation

	c.AddMessage("user", "hello")
	c.AddMessage("assistant", "hi")
	c.AddMessage("user", "again")

	if len(c.History) != 3 {
		t.Fatalf("history length = %d", len(c.History))
	}
	if c.History[0].State != StateConceptExplanation {
		t.Errorf("message state = %s", c.History[0].State)
	}
	if !c.LastActivityAt.Equal(clock.Now()) {
		t.Errorf("LastActivityAt = %v", c.LastActivityAt)
	}
	recent := c.RecentHistory(2)
	if len(recent) != 2 || recent[0].Content != "hi" {
		t.Errorf("RecentHistory(2) = %+v", recent)
	}
	if got := c.RecentHistory(10); len(got) != 3 {
		t.Errorf("RecentHistory(10) length = %d", len(got))
	}
}

func TestContext_CloneIsDeep(t *testing.T) {
	c := newTestContext(newFakeClock(), WithOutline(twoSectionOutline()))
	topic, _ := c.CurrentTopic()
	c.BeginTopic(topic)
	c.CoverConcept("mirrors")
	c.AddMessage("assistant", "welcome")

	cp := c.Clone()
	c.CoverConcept("lenses")
	c.TopicProgress[0].ExamplesShown++
	c.History[0].Content = "changed"

	if len(cp.ConceptsCovered) != 1 {
		t.Errorf("clone concepts = %v", cp.ConceptsCovered)
	}
	if len(cp.TopicProgress[0].ConceptsCovered) != 1 {
		t.Errorf("clone topic concepts = %v", cp.TopicProgress[0].ConceptsCovered)
	}
	if cp.TopicProgress[0].ExamplesShown != 0 {
		t.Error("clone topic progress shares storage")
	}
	if cp.History[0].Content != "welcome" {
		t.Error("clone history shares storage")
	}

	c.Restore(cp)
	if len(c.ConceptsCovered) != 1 || c.History[0].Content != "welcome" {
		t.Error("Restore did not roll back")
	}
}
