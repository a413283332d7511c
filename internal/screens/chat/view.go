package chat

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"

	"github.com/abhisek/tutorly/internal/ui/components"
	"github.com/abhisek/tutorly/internal/ui/layout"
	"github.com/abhisek/tutorly/internal/ui/theme"
)

type lineKind int

const (
	lineTutor lineKind = iota
	lineLearner
	lineNotice
	lineRight
	lineWrong
)

type line struct {
	kind lineKind
	text string

	// rendered caches the markdown rendering of a tutor line at width.
	rendered string
	width    int
}

type transcript struct {
	lines    []line
	renderer *glamour.TermRenderer
	wrap     int
}

func (t *transcript) add(kind lineKind, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	t.lines = append(t.lines, line{kind: kind, text: text})
}

// markdown renders tutor text, falling back to plain wrapping when the
// renderer is unavailable.
func (t *transcript) markdown(text string, width int) string {
	if t.renderer == nil || t.wrap != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			t.renderer, t.wrap = r, width
		}
	}
	if t.renderer != nil {
		if out, err := t.renderer.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func (t *transcript) render(width int) string {
	var b strings.Builder
	for i := range t.lines {
		l := &t.lines[i]
		switch l.kind {
		case lineTutor:
			if l.width != width || l.rendered == "" {
				l.rendered = t.markdown(l.text, width-2)
				l.width = width
			}
			b.WriteString(theme.Tutor.Render("Tutor"))
			b.WriteString("\n")
			b.WriteString(l.rendered)
		case lineLearner:
			b.WriteString(theme.Learner.Render("You"))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(width - 2).PaddingLeft(2).Render(l.text))
		case lineNotice:
			b.WriteString(theme.Notice.Width(width).Render(l.text))
		case lineRight:
			b.WriteString(theme.Correct.Render("✓ ") + lipgloss.NewStyle().Width(width-2).Render(l.text))
		case lineWrong:
			b.WriteString(theme.Incorrect.Render("✗ ") + lipgloss.NewStyle().Width(width-2).Render(l.text))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *ChatScreen) View(width, height int) string {
	inner := max(width-4, 20)

	var top strings.Builder
	if s.status.TotalTopics > 0 {
		bar := components.ProgressBar{
			Label: "Topics",
			Done:  s.status.TopicsCompleted,
			Total: s.status.TotalTopics,
			Width: min(inner, 60),
		}
		top.WriteString(bar.View())
		if s.status.CurrentTopic != "" {
			top.WriteString("   ")
			top.WriteString(theme.Hint.Render(layout.Truncate(s.status.CurrentTopic, max(inner-64, 10))))
		}
		top.WriteString("\n")
	}
	state := theme.StateBadge.Render(strings.ReplaceAll(string(s.liveState), "_", " "))
	if s.status.Paused {
		state += " " + theme.PausedBadge.Render("paused")
	}
	top.WriteString(state)

	var bottom strings.Builder
	switch {
	case s.busy:
		bottom.WriteString(theme.Hint.Render("Tutor is thinking..."))
		bottom.WriteString("\n")
	case s.errMsg != "":
		bottom.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render("Error: " + s.errMsg))
		bottom.WriteString("\n")
	}
	bottom.WriteString(s.input.View())

	topH := lipgloss.Height(top.String())
	bottomH := lipgloss.Height(bottom.String())
	avail := max(height-topH-bottomH-2, 1)
	body := layout.TailLines(s.transcript.render(inner), avail)

	content := top.String() + "\n\n" + body + "\n" + bottom.String()
	return lipgloss.NewStyle().Padding(0, 2).Render(content)
}
