// Package engine exposes per-file diff views between two revisions to a
// rule-evaluation environment: text diffs, structured diffs, JSON patches
// and JSON diff trees. All lookups are filename-keyed and non-throwing for
// the "file has no diff" case; errors are reserved for transport and parse
// failures.
package engine

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sebinsua/diffscope/internal/logging"
	"github.com/sebinsua/diffscope/internal/providers"
	"github.com/sebinsua/diffscope/pkg/models"
)

// Sources bundles the external collaborators a session reads from. Content
// is required. At least one diff source must be set; when both are, the
// structured one takes precedence.
type Sources struct {
	Content        providers.ContentProvider
	RawDiff        providers.RawDiffProvider
	StructuredDiff providers.StructuredDiffProvider
}

// Session answers per-file diff queries for one revision pair. The snapshot
// and revisions are fixed at construction; the structured diff is fetched
// lazily, exactly once, and shared by every lookup.
type Session struct {
	snapshot models.RepositorySnapshot
	revs     models.RevisionPair
	src      Sources
	sep      string
	log      zerolog.Logger

	group    singleflight.Group
	mu       sync.Mutex
	resolved bool
	diff     []models.FileDiff
	diffErr  error
}

// Option adjusts session construction.
type Option func(*Session)

// WithSeparator sets the line separator used to join text diff views.
func WithSeparator(sep string) Option {
	return func(s *Session) { s.sep = sep }
}

// WithLogger replaces the default session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.log = logger }
}

// New builds a session over the given snapshot and revision pair.
func New(snapshot models.RepositorySnapshot, revs models.RevisionPair, src Sources, opts ...Option) (*Session, error) {
	if src.Content == nil {
		return nil, errors.New("engine: a content provider is required")
	}
	if src.RawDiff == nil && src.StructuredDiff == nil {
		return nil, errors.New("engine: a raw or structured diff provider is required")
	}

	s := &Session{
		snapshot: snapshot,
		revs:     revs,
		src:      src,
		sep:      "\n",
		log:      logging.SessionLogger(revs.Base, revs.Head),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Revisions returns the session's comparison window.
func (s *Session) Revisions() models.RevisionPair { return s.revs }

// Snapshot returns the session's immutable file sets and commit list.
func (s *Session) Snapshot() models.RepositorySnapshot { return s.snapshot }
