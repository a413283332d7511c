package outline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/tutorly/internal/tutor"
)

// catalogFile is the on-disk shape of one outline file.
type catalogFile struct {
	Board       string          `json:"board" yaml:"board"`
	BoardName   string          `json:"board_name" yaml:"board_name,omitempty"`
	Subject     string          `json:"subject" yaml:"subject"`
	SubjectName string          `json:"subject_name" yaml:"subject_name,omitempty"`
	Chapter     string          `json:"chapter" yaml:"chapter"`
	ChapterName string          `json:"chapter_name" yaml:"chapter_name,omitempty"`
	Topic       string          `json:"topic" yaml:"topic,omitempty"`
	Title       string          `json:"title" yaml:"title"`
	Sections    []tutor.Section `json:"sections" yaml:"sections"`
}

// Encode renders an outline as a catalog YAML file for sel. The result
// loads back through a Catalog.
func Encode(sel tutor.Selection, o *tutor.Outline) ([]byte, error) {
	if err := Validate(o); err != nil {
		return nil, err
	}
	return yaml.Marshal(catalogFile{
		Board:       sel.Board,
		BoardName:   sel.BoardName,
		Subject:     sel.Subject,
		SubjectName: sel.SubjectName,
		Chapter:     sel.Chapter,
		ChapterName: sel.ChapterName,
		Topic:       sel.Topic,
		Title:       o.Title,
		Sections:    o.Sections,
	})
}

// Entry is one outline known to a Catalog.
type Entry struct {
	Selection tutor.Selection
	Path      string
	Outline   *tutor.Outline
}

// Catalog serves outlines from a directory of YAML or JSON files. Each
// file names the board, subject and chapter it covers, and optionally a
// topic. Files that fail to parse or validate are skipped with a warning.
type Catalog struct {
	dir      string
	logger   *zap.Logger
	debounce time.Duration
	onReload func(n int)

	mu      sync.RWMutex
	entries map[string]Entry
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(l *zap.Logger) CatalogOption {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDebounce sets how long Watch waits for file activity to settle
// before reloading.
func WithDebounce(d time.Duration) CatalogOption {
	return func(c *Catalog) { c.debounce = d }
}

// WithReloadHook registers a function called with the entry count after
// every reload triggered by Watch.
func WithReloadHook(fn func(n int)) CatalogOption {
	return func(c *Catalog) { c.onReload = fn }
}

// NewCatalog creates an empty catalog over dir. Call Load to read it.
func NewCatalog(dir string, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		dir:      dir,
		logger:   zap.NewNop(),
		debounce: 300 * time.Millisecond,
		entries:  make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the directory the catalog reads.
func (c *Catalog) Dir() string { return c.dir }

// Load rereads every outline file and replaces the catalog contents.
// A missing directory yields an empty catalog.
func (c *Catalog) Load() error {
	files, err := os.ReadDir(c.dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read outline dir: %w", err)
	}

	entries := make(map[string]Entry, len(files))
	for _, f := range files {
		if f.IsDir() || !isOutlineFile(f.Name()) {
			continue
		}
		path := filepath.Join(c.dir, f.Name())
		e, err := readEntry(path)
		if err != nil {
			c.logger.Warn("skipping outline file", zap.String("path", path), zap.Error(err))
			continue
		}
		k := key(e.Selection)
		if prev, ok := entries[k]; ok {
			c.logger.Warn("duplicate outline",
				zap.String("key", k),
				zap.String("kept", prev.Path),
				zap.String("ignored", path))
			continue
		}
		entries[k] = e
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	c.logger.Debug("outline catalog loaded", zap.String("dir", c.dir), zap.Int("entries", len(entries)))
	return nil
}

// Outline returns the outline for sel. A topic-specific file wins over
// the chapter file when both exist.
func (c *Catalog) Outline(_ context.Context, sel tutor.Selection) (*tutor.Outline, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[key(sel)]; ok {
		return cloneOutline(e.Outline), nil
	}
	if sel.Topic != "" {
		sel.Topic = ""
		if e, ok := c.entries[key(sel)]; ok {
			return cloneOutline(e.Outline), nil
		}
	}
	return nil, ErrNotFound
}

// List returns all entries ordered by board, subject, chapter and topic.
func (c *Catalog) List() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return key(out[i].Selection) < key(out[j].Selection) })
	return out
}

// Watch reloads the catalog whenever an outline file in the directory is
// created, written, removed or renamed. It blocks until ctx is done.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(c.dir); err != nil {
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}
	c.logger.Info("watching outline dir", zap.String("dir", c.dir))

	tick := c.debounce / 3
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var lastEvent time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isOutlineFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			c.logger.Debug("outline file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			lastEvent = time.Now()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("outline watcher error", zap.Error(err))

		case <-ticker.C:
			if lastEvent.IsZero() || time.Since(lastEvent) < c.debounce {
				continue
			}
			lastEvent = time.Time{}
			if err := c.Load(); err != nil {
				c.logger.Error("outline reload failed", zap.Error(err))
				continue
			}
			n := c.Len()
			c.logger.Info("outline catalog reloaded", zap.Int("entries", n))
			if c.onReload != nil {
				c.onReload(n)
			}
		}
	}
}

// Len returns the number of loaded outlines.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func readEntry(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}

	var f catalogFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("parse: %w", err)
	}

	if f.Board == "" || f.Subject == "" || f.Chapter == "" {
		return Entry{}, fmt.Errorf("board, subject and chapter are required")
	}
	o := &tutor.Outline{Title: f.Title, Sections: f.Sections}
	if o.Title == "" {
		o.Title = f.ChapterName
	}
	if err := Validate(o); err != nil {
		return Entry{}, err
	}

	return Entry{
		Selection: tutor.Selection{
			Board:       f.Board,
			Subject:     f.Subject,
			Chapter:     f.Chapter,
			Topic:       f.Topic,
			BoardName:   f.BoardName,
			SubjectName: f.SubjectName,
			ChapterName: f.ChapterName,
		},
		Path:    path,
		Outline: o,
	}, nil
}

func isOutlineFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func key(sel tutor.Selection) string {
	parts := []string{sel.Board, sel.Subject, sel.Chapter, sel.Topic}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "/")
}

func cloneOutline(o *tutor.Outline) *tutor.Outline {
	if o == nil {
		return nil
	}
	out := &tutor.Outline{Title: o.Title, Sections: make([]tutor.Section, len(o.Sections))}
	for i, s := range o.Sections {
		s.LearningObjectives = append([]string(nil), s.LearningObjectives...)
		subs := make([]tutor.Subtopic, len(s.Subtopics))
		for j, st := range s.Subtopics {
			st.KeyPoints = append([]string(nil), st.KeyPoints...)
			subs[j] = st
		}
		s.Subtopics = subs
		out.Sections[i] = s
	}
	return out
}
