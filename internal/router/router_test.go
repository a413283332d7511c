package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tutorly/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title     string
	initRan   bool
	closed    bool
	refreshed int
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }
func (s *stubScreen) Close()                                  { s.closed = true }

type refreshMsg struct{}

func (s *stubScreen) Refresh() tea.Cmd {
	s.refreshed++
	return func() tea.Msg { return refreshMsg{} }
}

func TestPush(t *testing.T) {
	r := New(&stubScreen{title: "home"})

	chat := &stubScreen{title: "chat"}
	r.Push(chat)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "chat" {
		t.Errorf("expected active 'chat', got %q", r.Active().Title())
	}
	if !chat.initRan {
		t.Error("expected Init() to run on pushed screen")
	}
}

func TestPopClosesAndRefreshes(t *testing.T) {
	home := &stubScreen{title: "home"}
	r := New(home)
	chat := &stubScreen{title: "chat"}
	r.Push(chat)

	cmd := r.Pop()

	if r.Depth() != 1 || r.Active().Title() != "home" {
		t.Fatalf("expected home at depth 1, got %q at %d", r.Active().Title(), r.Depth())
	}
	if !chat.closed {
		t.Error("expected popped screen to be closed")
	}
	if home.refreshed != 1 {
		t.Errorf("expected home to refresh once, got %d", home.refreshed)
	}
	if cmd == nil {
		t.Fatal("expected refresh command")
	}
	if _, ok := cmd().(refreshMsg); !ok {
		t.Error("expected refresh command to be returned")
	}
}

func TestPopNoopAtBottom(t *testing.T) {
	home := &stubScreen{title: "home"}
	r := New(home)

	if cmd := r.Pop(); cmd != nil {
		t.Error("expected no command at bottom")
	}
	if r.Depth() != 1 || home.closed {
		t.Errorf("expected root to stay open at depth 1, got depth %d", r.Depth())
	}
}

func TestReplaceScreenMsg(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	chat := &stubScreen{title: "chat"}
	r.Push(chat)

	summary := &stubScreen{title: "summary"}
	r.Update(ReplaceScreenMsg{Screen: summary})

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "summary" {
		t.Errorf("expected active 'summary', got %q", r.Active().Title())
	}
	if !summary.initRan || !chat.closed {
		t.Error("expected replacement to init the new screen and close the old one")
	}
}

func TestCloseClosesEveryScreen(t *testing.T) {
	home := &stubScreen{title: "home"}
	chat := &stubScreen{title: "chat"}
	r := New(home)
	r.Push(chat)

	r.Close()

	if !home.closed || !chat.closed {
		t.Error("expected every screen to be closed")
	}
}

func TestViewRendersActive(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	r.Update(PushScreenMsg{Screen: &stubScreen{title: "chat"}})
	if got := r.View(80, 24); got != "chat" {
		t.Errorf("expected chat view, got %q", got)
	}
	r.Update(PopScreenMsg{})
	if got := r.View(80, 24); got != "home" {
		t.Errorf("expected home view, got %q", got)
	}
}
