// Package synth synthesizes a structured diff from file contents alone, for
// sources that expose per-revision content but no diff endpoint.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/sebinsua/diffscope/internal/providers"
	"github.com/sebinsua/diffscope/pkg/models"
)

// Provider computes line-level diffs for every file the snapshot names,
// fetching both sides through a ContentProvider.
type Provider struct {
	content  providers.ContentProvider
	snapshot models.RepositorySnapshot
}

// New returns a structured-diff provider over content and snapshot.
func New(content providers.ContentProvider, snapshot models.RepositorySnapshot) *Provider {
	return &Provider{content: content, snapshot: snapshot}
}

// StructuredDiff diffs each touched file's content between base and head.
// Each changed file gets a single hunk spanning the whole file.
func (p *Provider) StructuredDiff(ctx context.Context, base, head string) ([]models.FileDiff, error) {
	var out []models.FileDiff
	for _, name := range p.touchedFiles() {
		before, err := p.content.FileContents(ctx, name, base)
		if err != nil {
			return nil, fmt.Errorf("synth: fetching %s at %s: %w", name, base, err)
		}
		after, err := p.content.FileContents(ctx, name, head)
		if err != nil {
			return nil, fmt.Errorf("synth: fetching %s at %s: %w", name, head, err)
		}
		if before == after {
			continue
		}

		fd := models.FileDiff{
			FromPath:  name,
			ToPath:    name,
			IsNew:     p.snapshot.IsCreated(name),
			IsDeleted: p.snapshot.IsDeleted(name),
			Hunks:     []models.DiffHunk{diffHunk(before, after)},
		}
		out = append(out, fd)
	}
	return out, nil
}

func (p *Provider) touchedFiles() []string {
	seen := map[string]bool{}
	var names []string
	for _, set := range [][]string{p.snapshot.ModifiedFiles, p.snapshot.CreatedFiles, p.snapshot.DeletedFiles} {
		for _, name := range set {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// diffHunk computes a single whole-file hunk using go-diff's line mode.
func diffHunk(before, after string) models.DiffHunk {
	dmp := diffmatchpatch.New()
	a, b, lineIndex := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineIndex)

	hunk := models.DiffHunk{OldStartLine: 1, NewStartLine: 1}
	oldLineNo, newLineNo := 1, 1

	for _, d := range diffs {
		for _, content := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				hunk.Lines = append(hunk.Lines, models.DiffLine{
					Content: content, LineType: models.LineAdded, NewLineNo: newLineNo,
				})
				newLineNo++
				hunk.NewLineCount++
			case diffmatchpatch.DiffDelete:
				hunk.Lines = append(hunk.Lines, models.DiffLine{
					Content: content, LineType: models.LineDeleted, OldLineNo: oldLineNo,
				})
				oldLineNo++
				hunk.OldLineCount++
			default:
				hunk.Lines = append(hunk.Lines, models.DiffLine{
					Content: content, LineType: models.LineContext, OldLineNo: oldLineNo, NewLineNo: newLineNo,
				})
				oldLineNo++
				newLineNo++
				hunk.OldLineCount++
				hunk.NewLineCount++
			}
		}
	}
	return hunk
}

// splitLines breaks go-diff chunk text into lines without their trailing
// newline. A chunk that ends mid-line still contributes its final fragment.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	return lines
}
