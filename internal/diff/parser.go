// Package diff parses unified diff text into the structured per-file model.
package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sebinsua/diffscope/pkg/models"
)

var (
	fileHeaderRe = regexp.MustCompile(`(?m)^diff --git `)
	hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)`)
)

// Parse parses a unified diff covering any number of files. Malformed input
// is an error for the whole diff, not just the offending file: the caller
// cannot tell which files the remainder belonged to.
func Parse(diffText string) ([]models.FileDiff, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}

	sections := fileHeaderRe.Split(diffText, -1)
	if len(sections) < 2 {
		return nil, fmt.Errorf("diff: no file headers in input")
	}

	diffs := make([]models.FileDiff, 0, len(sections)-1)
	for _, section := range sections[1:] {
		if strings.TrimSpace(section) == "" {
			continue
		}
		fd, err := parseFileSection("diff --git " + section)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, fd)
	}

	return diffs, nil
}

func parseFileSection(section string) (models.FileDiff, error) {
	lines := strings.Split(section, "\n")

	fd := models.FileDiff{}
	fd.FromPath, fd.ToPath = parseGitHeader(lines[0])

	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "@@") {
			break
		}
		switch {
		case strings.HasPrefix(line, "new file mode"):
			fd.IsNew = true
		case strings.HasPrefix(line, "deleted file mode"):
			fd.IsDeleted = true
		case strings.HasPrefix(line, "rename from "):
			fd.FromPath = strings.TrimPrefix(line, "rename from ")
			fd.IsRenamed = true
		case strings.HasPrefix(line, "rename to "):
			fd.ToPath = strings.TrimPrefix(line, "rename to ")
			fd.IsRenamed = true
		case strings.HasPrefix(line, "--- "):
			if p := stripSideMarker(line[4:], "a/"); p != "" {
				fd.FromPath = p
			} else {
				fd.IsNew = true
			}
		case strings.HasPrefix(line, "+++ "):
			if p := stripSideMarker(line[4:], "b/"); p != "" {
				fd.ToPath = p
			} else {
				fd.IsDeleted = true
			}
		}
	}

	if fd.FromPath == "" && fd.ToPath == "" {
		return fd, fmt.Errorf("diff: cannot determine file paths from %q", lines[0])
	}
	if fd.FromPath != "" && fd.ToPath != "" && fd.FromPath != fd.ToPath {
		fd.IsRenamed = true
	}

	hunks, err := ParseHunks(lines)
	if err != nil {
		return fd, fmt.Errorf("diff: %s: %w", fd.ToPath, err)
	}
	fd.Hunks = hunks
	return fd, nil
}

// parseGitHeader extracts old/new paths from a "diff --git a/x b/y" line.
func parseGitHeader(header string) (string, string) {
	parts := strings.Fields(header)
	if len(parts) < 4 {
		return "", ""
	}
	return strings.TrimPrefix(parts[2], "a/"), strings.TrimPrefix(parts[3], "b/")
}

func stripSideMarker(path, prefix string) string {
	path = strings.TrimSuffix(path, "\t")
	if path == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(path, prefix)
}

// ParseHunks extracts the hunks from the lines of one file's diff. The
// GitLab changes API hands back hunk text without file headers, so this is
// exported for providers that already know the paths.
func ParseHunks(lines []string) ([]models.DiffHunk, error) {
	var hunks []models.DiffHunk

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, "@@") {
			continue
		}

		matches := hunkHeaderRe.FindStringSubmatch(line)
		if matches == nil {
			return nil, fmt.Errorf("malformed hunk header %q", line)
		}

		hunk := models.DiffHunk{
			OldStartLine: atoiDefault(matches[1], 0),
			OldLineCount: atoiDefault(matches[2], 1),
			NewStartLine: atoiDefault(matches[3], 0),
			NewLineCount: atoiDefault(matches[4], 1),
			HeaderText:   strings.TrimSpace(matches[5]),
		}

		oldLineNo, newLineNo := hunk.OldStartLine, hunk.NewStartLine

		i++
		for ; i < len(lines); i++ {
			hunkLine := lines[i]
			if strings.HasPrefix(hunkLine, "@@") || strings.HasPrefix(hunkLine, "diff --git") {
				i--
				break
			}

			var dLine models.DiffLine
			switch {
			case strings.HasPrefix(hunkLine, "+"):
				dLine = models.DiffLine{Content: hunkLine[1:], LineType: models.LineAdded, NewLineNo: newLineNo}
				newLineNo++
			case strings.HasPrefix(hunkLine, "-"):
				dLine = models.DiffLine{Content: hunkLine[1:], LineType: models.LineDeleted, OldLineNo: oldLineNo}
				oldLineNo++
			case strings.HasPrefix(hunkLine, " "):
				dLine = models.DiffLine{Content: hunkLine[1:], LineType: models.LineContext, OldLineNo: oldLineNo, NewLineNo: newLineNo}
				oldLineNo++
				newLineNo++
			case hunkLine == `\ No newline at end of file`:
				continue
			case hunkLine == "" && i == len(lines)-1:
				// trailing newline of the section
				continue
			default:
				// empty context lines sometimes arrive without the leading space
				dLine = models.DiffLine{Content: hunkLine, LineType: models.LineContext, OldLineNo: oldLineNo, NewLineNo: newLineNo}
				oldLineNo++
				newLineNo++
			}
			hunk.Lines = append(hunk.Lines, dLine)
		}
		hunks = append(hunks, hunk)
	}

	return hunks, nil
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
