package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorly/internal/router"
	"github.com/abhisek/tutorly/internal/screen"
	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/tutor"
	"github.com/abhisek/tutorly/internal/ui/layout"
	"github.com/abhisek/tutorly/internal/ui/theme"
)

// SummaryScreen displays what the learner achieved in a finished session.
type SummaryScreen struct {
	summary session.Summary
	title   string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a new SummaryScreen. title names the chapter.
func New(sum session.Summary, title string) *SummaryScreen {
	return &SummaryScreen{summary: sum, title: title}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	center := func(style lipgloss.Style, text string) string {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(text))
	}

	var b strings.Builder

	b.WriteString(center(theme.Title, "Session complete!"))
	b.WriteString("\n")
	if s.title != "" {
		b.WriteString(center(theme.Subtitle, s.title))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(center(theme.Body, fmt.Sprintf(
		"Topics: %d/%d        Time: %s        Breaks: %d",
		sum.TopicsCompleted, sum.TopicsCovered, formatMinutes(sum.TimeSpentMinutes), sum.BreaksTaken)))
	b.WriteString("\n")

	score := fmt.Sprintf("Assessment: %.0f%%", sum.AssessmentScore*100)
	if sum.AssessmentSkipped {
		score = "Assessment: skipped"
	}
	b.WriteString(center(theme.Hint, fmt.Sprintf("%s        Level: %s", score, levelName(sum.StudentLevel))))
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", min(width-8, 60)))

	if len(sum.Topics) > 0 {
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim), "Topics"))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n\n")
		for _, tp := range sum.Topics {
			b.WriteString(center(topicStyle(tp), topicLine(tp)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(sum.ConceptsLearned) > 0 {
		b.WriteString(center(lipgloss.NewStyle().Foreground(theme.TextDim), "Concepts"))
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
		b.WriteString("\n\n")
		for _, c := range sum.ConceptsLearned {
			b.WriteString(center(theme.Body, "• "+c))
			b.WriteString("\n")
		}
	}

	return layout.TailLines(b.String(), max(height, 1))
}

func topicLine(tp tutor.TopicProgress) string {
	mark := "…"
	if !tp.CompletedAt.IsZero() {
		mark = "✓"
	}
	line := fmt.Sprintf("%s %s", mark, tp.TopicTitle)
	if tp.PracticeAttempted > 0 {
		line += fmt.Sprintf("    practice %d/%d", tp.PracticeCorrect, tp.PracticeAttempted)
	}
	return line
}

func topicStyle(tp tutor.TopicProgress) lipgloss.Style {
	if tp.CompletedAt.IsZero() {
		return lipgloss.NewStyle().Foreground(theme.TextDim)
	}
	return lipgloss.NewStyle().Foreground(theme.Success)
}

func formatMinutes(m float64) string {
	total := int(m*60 + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func levelName(l tutor.Level) string {
	if l == "" {
		return "unknown"
	}
	return string(l)
}
