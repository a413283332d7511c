package app

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tutorly/internal/outline"
	"github.com/abhisek/tutorly/internal/router"
	"github.com/abhisek/tutorly/internal/screens/notice"
	"github.com/abhisek/tutorly/internal/tutor"
)

type catalog []outline.Entry

func (c catalog) List() []outline.Entry { return c }

func sized(m AppModel, w, h int) AppModel {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return updated.(AppModel)
}

func TestAppRendersHome(t *testing.T) {
	m := sized(newAppModel(Options{
		UserID: "ada",
		Catalog: catalog{{Selection: tutor.Selection{
			Board: "cbse", Subject: "math", Chapter: "sets", ChapterName: "Sets",
		}}},
	}), 100, 30)

	content := m.render()
	for _, want := range []string{"Tutorly", "Home", "Sets", "Quit"} {
		if !strings.Contains(content, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestAppTooSmall(t *testing.T) {
	m := sized(newAppModel(Options{}), 40, 10)
	if !strings.Contains(m.render(), "Terminal too small") {
		t.Error("expected size warning")
	}
}

func TestAppEscPopsToHome(t *testing.T) {
	m := sized(newAppModel(Options{}), 100, 30)
	m.router.Push(notice.New("Notice", "hello"))

	updated, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	m = updated.(AppModel)
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("expected PopScreenMsg")
	}
	m.Update(router.PopScreenMsg{})
	if m.router.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", m.router.Depth())
	}
}

func TestAppEscAtHomeDoesNothing(t *testing.T) {
	m := sized(newAppModel(Options{}), 100, 30)
	if _, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape}); cmd != nil {
		t.Error("expected no command at home")
	}
}
