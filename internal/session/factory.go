package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/outline"
	"github.com/abhisek/tutorly/internal/tutor"
)

// ErrInvalidSelection is returned when a selection lacks a board, subject
// or chapter.
var ErrInvalidSelection = errors.New("board, subject and chapter are required")

// Factory builds orchestrators that share a provider, outline source and
// settings.
type Factory struct {
	Provider llm.Provider

	// Outlines resolves the curriculum. A session whose outline cannot be
	// found or generated runs without one.
	Outlines outline.Source

	Config                Config
	BreakThresholdMinutes float64
	Logger                *zap.Logger

	// ContextOptions are applied to every new or restored context.
	ContextOptions []tutor.ContextOption

	// NewID generates session ids. Defaults to random UUIDs.
	NewID func() string
}

// New creates an idle session for userID.
func (f *Factory) New(ctx context.Context, userID string, sel tutor.Selection) (*Orchestrator, error) {
	if strings.TrimSpace(sel.Board) == "" || strings.TrimSpace(sel.Subject) == "" || strings.TrimSpace(sel.Chapter) == "" {
		return nil, ErrInvalidSelection
	}

	id := uuid.NewString()
	if f.NewID != nil {
		id = f.NewID()
	}
	logger := f.logger().With(zap.String("session_id", id))

	opts := append([]tutor.ContextOption(nil), f.ContextOptions...)
	if f.BreakThresholdMinutes > 0 {
		opts = append(opts, tutor.WithBreakThreshold(f.BreakThresholdMinutes))
	}

	if f.Outlines != nil {
		o, err := f.Outlines.Outline(ctx, sel)
		switch {
		case err == nil:
			opts = append(opts, tutor.WithOutline(o))
		case ctx.Err() != nil:
			return nil, fmt.Errorf("resolve outline: %w", ctx.Err())
		default:
			logger.Warn("continuing without outline",
				zap.String("board", sel.Board),
				zap.String("subject", sel.Subject),
				zap.String("chapter", sel.Chapter),
				zap.Error(err))
		}
	}

	sc := tutor.NewContext(id, userID, sel, opts...)
	return f.Restore(sc), nil
}

// Restore wraps an existing context, such as one rebuilt from a snapshot.
func (f *Factory) Restore(sc *tutor.Context) *Orchestrator {
	return New(sc, f.Provider, WithConfig(f.Config), WithLogger(f.logger()))
}

func (f *Factory) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}
