// Package local implements the engine's provider interfaces against a git
// repository on disk, shelling out to the git binary.
package local

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sebinsua/diffscope/pkg/models"
)

// Repo serves content, raw diffs and snapshots from a local git work tree.
type Repo struct {
	Dir string
}

// New returns a provider over the repository at dir. An empty dir means the
// current working directory.
func New(dir string) *Repo {
	return &Repo{Dir: dir}
}

// FileContents returns the file content at ref via `git show`. A path that
// does not exist at that revision yields the empty string.
func (r *Repo) FileContents(ctx context.Context, path, ref string) (string, error) {
	out, err := r.git(ctx, "show", ref+":"+path)
	if err != nil {
		if isMissingPath(err) {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

// RawDiff returns the unified diff text between base and head.
func (r *Repo) RawDiff(ctx context.Context, base, head string) (string, error) {
	return r.git(ctx, "diff", "--no-color", base, head)
}

// Snapshot classifies the files touched between base and head from
// `git diff --name-status` and lists the commits in between.
func (r *Repo) Snapshot(ctx context.Context, base, head string) (models.RepositorySnapshot, error) {
	var snap models.RepositorySnapshot

	out, err := r.git(ctx, "diff", "--name-status", "-M", base, head)
	if err != nil {
		return snap, err
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\n"), "\t")
		if len(fields) < 2 || fields[0] == "" {
			continue
		}
		switch fields[0][0] {
		case 'A':
			snap.CreatedFiles = append(snap.CreatedFiles, fields[1])
		case 'D':
			snap.DeletedFiles = append(snap.DeletedFiles, fields[1])
		case 'R':
			// renames carry old and new paths; the new one is the
			// modified file
			if len(fields) >= 3 {
				snap.ModifiedFiles = append(snap.ModifiedFiles, fields[2])
			}
		default:
			snap.ModifiedFiles = append(snap.ModifiedFiles, fields[1])
		}
	}

	logOut, err := r.git(ctx, "log", "--format=%H%x1f%an%x1f%ae%x1f%s", base+".."+head)
	if err != nil {
		return snap, err
	}
	for _, line := range strings.Split(logOut, "\n") {
		parts := strings.Split(line, "\x1f")
		if len(parts) != 4 || parts[0] == "" {
			continue
		}
		snap.Commits = append(snap.Commits, models.Commit{
			SHA:         parts[0],
			AuthorName:  parts[1],
			AuthorEmail: parts[2],
			Message:     parts[3],
		})
	}

	return snap, nil
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	if r.Dir != "" {
		args = append([]string{"-C", r.Dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", &gitError{args: args, stderr: stderr.String(), err: err}
	}
	return string(out), nil
}

type gitError struct {
	args   []string
	stderr string
	err    error
}

func (e *gitError) Error() string {
	return fmt.Sprintf("local: git %s: %v: %s", strings.Join(e.args, " "), e.err, strings.TrimSpace(e.stderr))
}

func (e *gitError) Unwrap() error { return e.err }

func isMissingPath(err error) bool {
	ge, ok := err.(*gitError)
	if !ok {
		return false
	}
	return strings.Contains(ge.stderr, "does not exist") ||
		strings.Contains(ge.stderr, "exists on disk, but not in") ||
		strings.Contains(ge.stderr, "bad file")
}
