package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/tutorly/internal/session"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/tutor"
)

// StorePersister writes session snapshots and tutor events to the database.
type StorePersister struct {
	sessions store.SessionRepo
	events   store.EventRepo
}

var _ Persister = (*StorePersister)(nil)

// NewStorePersister creates a persister over the given repositories.
// A nil events repo disables the event log.
func NewStorePersister(sessions store.SessionRepo, events store.EventRepo) *StorePersister {
	return &StorePersister{sessions: sessions, events: events}
}

// SaveSession upserts the session's snapshot.
func (p *StorePersister) SaveSession(ctx context.Context, o *session.Orchestrator) error {
	rec, err := Record(o.Context())
	if err != nil {
		return err
	}
	return p.sessions.Save(ctx, rec)
}

// AppendEvent adds one event to the session's log.
func (p *StorePersister) AppendEvent(ctx context.Context, sessionID string, e tutor.Event) error {
	if p.events == nil {
		return nil
	}
	var data json.RawMessage
	if len(e.Data) > 0 {
		b, err := json.Marshal(e.Data)
		if err != nil {
			return fmt.Errorf("encode event data: %w", err)
		}
		data = b
	}
	return p.events.AppendTutorEvent(ctx, store.TutorEventData{
		SessionID: sessionID,
		Kind:      string(e.Kind),
		State:     string(e.State),
		Content:   e.Content,
		Data:      data,
		Timestamp: e.Timestamp,
	})
}

// Record converts a session context to its stored form.
func Record(c *tutor.Context) (store.SessionRecord, error) {
	snap, err := tutor.MarshalSnapshot(c)
	if err != nil {
		return store.SessionRecord{}, fmt.Errorf("encode snapshot %s: %w", c.SessionID, err)
	}
	title := c.DisplayChapter()
	if c.Outline != nil && c.Outline.Title != "" {
		title = c.Outline.Title
	}
	return store.SessionRecord{
		ID:           c.SessionID,
		UserID:       c.UserID,
		Board:        c.Board,
		Subject:      c.Subject,
		Chapter:      c.Chapter,
		Title:        title,
		State:        string(c.CurrentState),
		StudentLevel: string(c.StudentLevel),
		Paused:       c.Paused,
		Snapshot:     snap,
	}, nil
}

// Builder wraps a restored session context in an orchestrator.
type Builder func(sc *tutor.Context) *session.Orchestrator

// StoreLoader returns a Loader that rebuilds sessions from their saved
// snapshots.
func StoreLoader(sessions store.SessionRepo, build Builder, opts ...tutor.ContextOption) Loader {
	return func(ctx context.Context, id string) (*session.Orchestrator, error) {
		rec, err := sessions.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, nil
		}
		sc, err := tutor.UnmarshalSnapshot(rec.Snapshot, opts...)
		if err != nil {
			return nil, err
		}
		return build(sc), nil
	}
}
