// Package providers defines the external collaborators the diff engine
// consumes. Implementations own transport concerns: authentication, rate
// limiting and retries never leak into the engine.
package providers

import (
	"context"

	"github.com/sebinsua/diffscope/pkg/models"
)

// ContentProvider fetches the full content of a file at one revision.
// It returns the empty string, not an error, when the file does not exist
// at that revision; errors are reserved for transport failures.
type ContentProvider interface {
	FileContents(ctx context.Context, path, ref string) (string, error)
}

// RawDiffProvider fetches the raw unified-diff text between two revisions,
// to be parsed by the engine.
type RawDiffProvider interface {
	RawDiff(ctx context.Context, base, head string) (string, error)
}

// StructuredDiffProvider fetches an already-parsed diff between two
// revisions. When a source offers both forms, the structured one wins.
type StructuredDiffProvider interface {
	StructuredDiff(ctx context.Context, base, head string) ([]models.FileDiff, error)
}

// SnapshotProvider classifies the files touched between two revisions and
// lists the commits in between, for session construction.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, base, head string) (models.RepositorySnapshot, error)
}
