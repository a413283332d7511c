package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var sessionColumns = []string{
	"id", "user_id", "board", "subject", "chapter", "title", "state",
	"student_level", "paused", "snapshot", "created_at", "updated_at",
}

// sessionRepo implements SessionRepo.
type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Save(ctx context.Context, rec SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("save session: empty id")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	query, args := builder().Insert(tableSessions).
		Columns(sessionColumns...).
		Values(
			rec.ID, rec.UserID, rec.Board, rec.Subject, rec.Chapter, rec.Title,
			rec.State, rec.StudentLevel, rec.Paused, string(rec.Snapshot),
			rec.CreatedAt.UTC(), rec.UpdatedAt.UTC(),
		).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range sessionColumns[1:] {
					if c == "created_at" {
						continue
					}
					u.SetExcluded(c)
				}
			}),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*SessionRecord, error) {
	query, args := builder().Select(sessionColumns...).
		From(entsql.Table(tableSessions)).
		Where(entsql.EQ("id", id)).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSession(rows)
}

func (r *sessionRepo) List(ctx context.Context, userID string, limit int) ([]SessionRecord, error) {
	sel := builder().Select(sessionColumns...).
		From(entsql.Table(tableSessions)).
		OrderBy(entsql.Desc("updated_at"))
	if userID != "" {
		sel.Where(entsql.EQ("user_id", userID))
	}
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	if err := deleteTutorEvents(ctx, r.db, id); err != nil {
		return err
	}
	query, args := builder().Delete(tableSessions).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func scanSession(rows *sql.Rows) (*SessionRecord, error) {
	var (
		rec  SessionRecord
		snap []byte
	)
	err := rows.Scan(
		&rec.ID, &rec.UserID, &rec.Board, &rec.Subject, &rec.Chapter, &rec.Title,
		&rec.State, &rec.StudentLevel, &rec.Paused, &snap,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	rec.Snapshot = append([]byte(nil), snap...)
	return &rec, nil
}
