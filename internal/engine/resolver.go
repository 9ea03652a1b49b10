package engine

import (
	"context"
	"fmt"

	"github.com/sebinsua/diffscope/internal/diff"
	"github.com/sebinsua/diffscope/pkg/models"
)

// resolve returns the session's structured diff, fetching it at most once.
// Concurrent callers coalesce onto the same in-flight fetch; once it has
// completed, its result (or its error, parse failures included) is served
// to every later caller without another fetch.
func (s *Session) resolve(ctx context.Context) ([]models.FileDiff, error) {
	s.mu.Lock()
	if s.resolved {
		d, err := s.diff, s.diffErr
		s.mu.Unlock()
		return d, err
	}
	s.mu.Unlock()

	s.group.Do("structured-diff", func() (interface{}, error) {
		s.mu.Lock()
		if s.resolved {
			s.mu.Unlock()
			return nil, nil
		}
		s.mu.Unlock()

		d, err := s.fetch(ctx)

		s.mu.Lock()
		if !s.resolved {
			s.resolved = true
			s.diff = d
			s.diffErr = err
		}
		s.mu.Unlock()
		return nil, nil
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diff, s.diffErr
}

func (s *Session) fetch(ctx context.Context) ([]models.FileDiff, error) {
	if s.src.StructuredDiff != nil {
		s.log.Debug().Msg("fetching structured diff")
		d, err := s.src.StructuredDiff.StructuredDiff(ctx, s.revs.Base, s.revs.Head)
		if err != nil {
			return nil, fmt.Errorf("engine: fetching structured diff: %w", err)
		}
		return d, nil
	}

	s.log.Debug().Msg("fetching raw diff")
	raw, err := s.src.RawDiff.RawDiff(ctx, s.revs.Base, s.revs.Head)
	if err != nil {
		return nil, fmt.Errorf("engine: fetching raw diff: %w", err)
	}
	d, err := diff.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("engine: parsing raw diff: %w", err)
	}
	return d, nil
}

// StructuredDiffForFile returns the structured diff entry for name, matched
// against either side of a rename. A nil entry with a nil error means the
// file has no diff, which is the normal unchanged-file case.
func (s *Session) StructuredDiffForFile(ctx context.Context, name string) (*models.FileDiff, error) {
	entries, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Matches(name) {
			entry := entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}
