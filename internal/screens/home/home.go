package home

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/outline"
	"github.com/abhisek/tutorly/internal/registry"
	"github.com/abhisek/tutorly/internal/router"
	"github.com/abhisek/tutorly/internal/screen"
	"github.com/abhisek/tutorly/internal/screens/chat"
	"github.com/abhisek/tutorly/internal/screens/notice"
	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/tutor"
	"github.com/abhisek/tutorly/internal/ui/components"
	"github.com/abhisek/tutorly/internal/ui/theme"
)

// maxResumable bounds the "Continue" section.
const maxResumable = 5

// Catalog lists the chapters a learner can start.
type Catalog interface {
	List() []outline.Entry
}

// Options wires the home screen to the rest of the application.
type Options struct {
	UserID   string
	Catalog  Catalog
	Factory  *session.Factory
	Sessions registry.Store

	// Records supplies resumable sessions. Nil hides the section.
	Records store.SessionRepo

	Logger *zap.Logger
}

// HomeScreen lets the learner resume a session or start a chapter.
type HomeScreen struct {
	opts    Options
	menu    components.Menu
	resume  []store.SessionRecord
	loadErr error
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.Refresher = (*HomeScreen)(nil)

// resumableMsg carries the learner's unfinished sessions.
type resumableMsg struct {
	records []store.SessionRecord
	err     error
}

// New creates a new HomeScreen.
func New(opts Options) *HomeScreen {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &HomeScreen{opts: opts}
	h.rebuild()
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.Refresh()
}

// Refresh reloads resumable sessions.
func (h *HomeScreen) Refresh() tea.Cmd {
	repo, user := h.opts.Records, h.opts.UserID
	if repo == nil {
		return nil
	}
	return func() tea.Msg {
		recs, err := repo.List(context.Background(), user, 0)
		if err != nil {
			return resumableMsg{err: err}
		}
		var open []store.SessionRecord
		for _, rec := range recs {
			if rec.State == string(tutor.StateSessionComplete) {
				continue
			}
			open = append(open, rec)
			if len(open) == maxResumable {
				break
			}
		}
		return resumableMsg{records: open}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(resumableMsg); ok {
		if msg.err != nil {
			h.opts.Logger.Warn("load resumable sessions failed", zap.Error(msg.err))
		}
		h.resume, h.loadErr = msg.records, msg.err
		selected := h.menu.Selected
		h.rebuild()
		if selected >= 0 && selected < len(h.menu.Items) && h.menu.Items[selected].Action != nil {
			h.menu.Selected = selected
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	title := lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Title.Render("Tutorly"))
	subtitle := lipgloss.PlaceHorizontal(width, lipgloss.Center,
		theme.Subtitle.Render("Pick up where you left off, or start a new chapter"))

	cardWidth := min(width-4, 80)
	menuHeight := max(height-10, 3)
	card := theme.Card.Width(cardWidth).Render(strings.TrimRight(h.menu.View(menuHeight), "\n"))

	return title + "\n" + subtitle + "\n\n" + lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

// rebuild lays out the menu from the catalog and the resumable sessions.
func (h *HomeScreen) rebuild() {
	var items []components.MenuItem

	if len(h.resume) > 0 {
		items = append(items, components.MenuItem{Label: "Continue"})
		for _, rec := range h.resume {
			items = append(items, components.MenuItem{
				Label:  "  " + rec.Title,
				Hint:   resumeHint(rec, time.Now()),
				Action: h.resumeAction(rec.ID),
			})
		}
	}
	if h.loadErr != nil {
		items = append(items, components.MenuItem{Label: "  Saved sessions unavailable", Disabled: true})
	}

	var entries []outline.Entry
	if h.opts.Catalog != nil {
		entries = h.opts.Catalog.List()
	}
	groups := groupEntries(entries)
	if len(groups) == 0 {
		items = append(items,
			components.MenuItem{Label: "Chapters"},
			components.MenuItem{Label: "  No outlines found", Disabled: true, Action: func() tea.Cmd { return nil }},
		)
	}
	for _, g := range groups {
		items = append(items, components.MenuItem{Label: g.heading})
		for _, e := range g.entries {
			item := components.MenuItem{
				Label:  "  " + entryTitle(e),
				Action: h.startAction(e.Selection),
			}
			if e.Selection.Topic != "" {
				item.Hint = e.Selection.Topic
			}
			items = append(items, item)
		}
	}

	items = append(items, components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})
	h.menu = components.NewMenu(items)
}

func (h *HomeScreen) chatOptions() chat.Options {
	return chat.Options{Sessions: h.opts.Sessions, Logger: h.opts.Logger}
}

func (h *HomeScreen) startAction(sel tutor.Selection) func() tea.Cmd {
	return func() tea.Cmd {
		opts := h.opts
		return func() tea.Msg {
			ctx := context.Background()
			if opts.Factory == nil || opts.Sessions == nil {
				return router.PushScreenMsg{Screen: notice.New("Unavailable", "No language model is configured, so sessions cannot start.")}
			}
			o, err := opts.Factory.New(ctx, opts.UserID, sel)
			if err != nil {
				return router.PushScreenMsg{Screen: notice.Error("Could not start", err)}
			}
			e, err := opts.Sessions.Create(ctx, o)
			if err != nil {
				return router.PushScreenMsg{Screen: notice.Error("Could not start", err)}
			}
			return router.PushScreenMsg{Screen: chat.New(e, h.chatOptions())}
		}
	}
}

func (h *HomeScreen) resumeAction(id string) func() tea.Cmd {
	return func() tea.Cmd {
		sessions := h.opts.Sessions
		return func() tea.Msg {
			if sessions == nil {
				return router.PushScreenMsg{Screen: notice.New("Unavailable", "No language model is configured, so sessions cannot resume.")}
			}
			e, err := sessions.Get(context.Background(), id)
			if err != nil {
				return router.PushScreenMsg{Screen: notice.Error("Could not resume", err)}
			}
			return router.PushScreenMsg{Screen: chat.New(e, h.chatOptions())}
		}
	}
}

type group struct {
	heading string
	entries []outline.Entry
}

// groupEntries groups catalog entries by board and subject, keeping the
// catalog's order within each group.
func groupEntries(entries []outline.Entry) []group {
	index := make(map[string]int)
	var groups []group
	for _, e := range entries {
		heading := fmt.Sprintf("%s · %s", e.Selection.DisplayBoard(), e.Selection.DisplaySubject())
		i, ok := index[heading]
		if !ok {
			i = len(groups)
			index[heading] = i
			groups = append(groups, group{heading: heading})
		}
		groups[i].entries = append(groups[i].entries, e)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].heading < groups[b].heading })
	return groups
}

func entryTitle(e outline.Entry) string {
	if e.Outline != nil && e.Outline.Title != "" {
		return e.Outline.Title
	}
	return e.Selection.DisplayChapter()
}

func resumeHint(rec store.SessionRecord, now time.Time) string {
	state := strings.ReplaceAll(rec.State, "_", " ")
	if rec.Paused {
		state = "paused"
	}
	return fmt.Sprintf("%s, %s", state, ago(now.Sub(rec.UpdatedAt)))
}

func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
