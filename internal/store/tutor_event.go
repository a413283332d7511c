package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var tutorEventColumns = []string{
	"id", "sequence", "timestamp", "session_id", "kind", "state", "content", "data",
}

func (r *eventRepo) AppendTutorEvent(ctx context.Context, data TutorEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	var state, payload any
	if data.State != "" {
		state = data.State
	}
	if len(data.Data) > 0 {
		payload = string(data.Data)
	}

	query, args := builder().Insert(tableTutorEvents).
		Columns(tutorEventColumns[1:]...).
		Values(seqNum, ts.UTC(), data.SessionID, data.Kind, state, data.Content, payload).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save tutor event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryTutorEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]TutorEvent, error) {
	sel := builder().Select(tutorEventColumns...).
		From(entsql.Table(tableTutorEvents)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence")
	applyRange(sel, opts)

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tutor events: %w", err)
	}
	defer rows.Close()

	var events []TutorEvent
	for rows.Next() {
		var (
			e       TutorEvent
			state   sql.NullString
			payload sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.SessionID, &e.Kind, &state, &e.Content, &payload); err != nil {
			return nil, fmt.Errorf("scan tutor event: %w", err)
		}
		e.State = state.String
		if payload.Valid {
			e.Data = []byte(payload.String)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// deleteTutorEvents removes every event of a session.
func deleteTutorEvents(ctx context.Context, db *sql.DB, sessionID string) error {
	query, args := builder().Delete(tableTutorEvents).
		Where(entsql.EQ("session_id", sessionID)).
		Query()
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete tutor events: %w", err)
	}
	return nil
}
