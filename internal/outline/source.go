// Package outline supplies the curriculum a tutoring session walks through.
package outline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/tutorly/internal/tutor"
)

// ErrNotFound is returned by a Source that has no outline for a selection.
var ErrNotFound = errors.New("outline not found")

// Source resolves a curriculum selection to an outline.
type Source interface {
	Outline(ctx context.Context, sel tutor.Selection) (*tutor.Outline, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, sel tutor.Selection) (*tutor.Outline, error)

// Outline calls f.
func (f SourceFunc) Outline(ctx context.Context, sel tutor.Selection) (*tutor.Outline, error) {
	return f(ctx, sel)
}

type chain []Source

// Chain asks each source in order and returns the first answer that is
// not ErrNotFound. Any other error stops the walk.
func Chain(sources ...Source) Source {
	return chain(sources)
}

func (c chain) Outline(ctx context.Context, sel tutor.Selection) (*tutor.Outline, error) {
	for _, s := range c {
		if s == nil {
			continue
		}
		o, err := s.Outline(ctx, sel)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return o, err
	}
	return nil, ErrNotFound
}

// Validate checks that an outline has something to teach.
func Validate(o *tutor.Outline) error {
	if o == nil || len(o.Sections) == 0 {
		return errors.New("outline has no sections")
	}
	for i, s := range o.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("section %d has no title", i+1)
		}
		if len(s.Subtopics) == 0 {
			return fmt.Errorf("section %q has no subtopics", s.Title)
		}
		for j, st := range s.Subtopics {
			if strings.TrimSpace(st.Title) == "" {
				return fmt.Errorf("section %q subtopic %d has no title", s.Title, j+1)
			}
		}
	}
	return nil
}
