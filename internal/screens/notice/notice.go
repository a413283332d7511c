// Package notice shows a message that the user acknowledges and dismisses,
// such as a failure to open a session.
package notice

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorly/internal/router"
	"github.com/abhisek/tutorly/internal/screen"
	"github.com/abhisek/tutorly/internal/ui/theme"
)

// NoticeScreen displays a titled message.
type NoticeScreen struct {
	title   string
	message string
	isError bool
}

var _ screen.Screen = (*NoticeScreen)(nil)

// New creates an informational notice.
func New(title, message string) *NoticeScreen {
	return &NoticeScreen{title: title, message: message}
}

// Error creates a notice for a failed action.
func Error(title string, err error) *NoticeScreen {
	return &NoticeScreen{title: title, message: err.Error(), isError: true}
}

func (n *NoticeScreen) Init() tea.Cmd {
	return nil
}

func (n *NoticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && kmsg.String() == "enter" {
		return n, func() tea.Msg { return router.PopScreenMsg{} }
	}
	return n, nil
}

func (n *NoticeScreen) View(width, height int) string {
	color := theme.Text
	if n.isError {
		color = theme.Error
	}
	body := lipgloss.NewStyle().
		Foreground(color).
		Width(min(width-8, 70)).
		Render(n.message)

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(body + "\n\n" + theme.Hint.Render("Press Enter to go back"))
}

func (n *NoticeScreen) Title() string {
	return n.title
}
