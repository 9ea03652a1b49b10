package engine

import (
	"context"
	"strings"

	"github.com/sebinsua/diffscope/pkg/models"
)

// FileTextDiff is the text-level view of one file's diff. Before and After
// hold the full file content at each revision; the empty string means the
// file does not exist there. The snapshot's file sets tell an empty file
// apart from a missing one.
type FileTextDiff struct {
	Diff    string `json:"diff"`
	Added   string `json:"added"`
	Removed string `json:"removed"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

// DiffForFile composes the text diff views for name. It returns nil, nil
// when the file has no diff.
func (s *Session) DiffForFile(ctx context.Context, name string) (*FileTextDiff, error) {
	entry, err := s.StructuredDiffForFile(ctx, name)
	if err != nil || entry == nil {
		return nil, err
	}

	var all, added, removed []string
	for _, hunk := range entry.Hunks {
		for _, line := range hunk.Lines {
			all = append(all, line.Content)
			switch line.LineType {
			case models.LineAdded:
				added = append(added, line.Content)
			case models.LineDeleted:
				removed = append(removed, line.Content)
			}
		}
	}

	before, err := s.src.Content.FileContents(ctx, sideOr(entry.FromPath, name), s.revs.Base)
	if err != nil {
		return nil, err
	}
	after, err := s.src.Content.FileContents(ctx, sideOr(entry.ToPath, name), s.revs.Head)
	if err != nil {
		return nil, err
	}

	return &FileTextDiff{
		Diff:    strings.Join(all, s.sep),
		Added:   strings.Join(added, s.sep),
		Removed: strings.Join(removed, s.sep),
		Before:  before,
		After:   after,
	}, nil
}

func sideOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}
