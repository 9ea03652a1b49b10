package engine

import (
	"context"
	"fmt"

	"github.com/sebinsua/diffscope/internal/difftree"
	"github.com/sebinsua/diffscope/internal/jsonpatch"
	"github.com/sebinsua/diffscope/internal/jsonval"
)

// JSONPatchForFile computes the JSON patch between the file's content at the
// two revisions. Only files in the modified set are candidates; anything
// else yields nil, nil. A file that is empty at one revision is exposed as a
// nil Before/After, while the patch itself is computed against {}. A parse
// failure is fatal for this file only.
func (s *Session) JSONPatchForFile(ctx context.Context, name string) (*jsonpatch.FilePatch, error) {
	if !s.snapshot.IsModified(name) {
		return nil, nil
	}

	beforeRaw, err := s.src.Content.FileContents(ctx, name, s.revs.Base)
	if err != nil {
		return nil, err
	}
	afterRaw, err := s.src.Content.FileContents(ctx, name, s.revs.Head)
	if err != nil {
		return nil, err
	}

	before, err := parseSide(name, s.revs.Base, beforeRaw)
	if err != nil {
		return nil, err
	}
	after, err := parseSide(name, s.revs.Head, afterRaw)
	if err != nil {
		return nil, err
	}

	ops, err := jsonpatch.Compute(before, after)
	if err != nil {
		return nil, err
	}

	return &jsonpatch.FilePatch{Before: before, After: after, Patch: ops}, nil
}

func parseSide(name, rev, raw string) (*jsonval.Value, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := jsonval.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("engine: parsing %s at %s: %w", name, rev, err)
	}
	return v, nil
}

// JSONDiffForFile flattens the file's JSON patch into a navigable diff tree.
// It returns an empty tree, never nil and never an error, when no patch
// applies; parse and transport failures still propagate.
func (s *Session) JSONDiffForFile(ctx context.Context, name string) (difftree.Tree, error) {
	fp, err := s.JSONPatchForFile(ctx, name)
	if err != nil {
		return nil, err
	}
	if fp == nil {
		return difftree.Tree{}, nil
	}
	return difftree.Flatten(fp.Patch, fp.Before, fp.After), nil
}
