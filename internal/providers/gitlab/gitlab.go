// Package gitlab implements the engine's provider interfaces on top of the
// GitLab API.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"

	"github.com/sebinsua/diffscope/internal/diff"
	"github.com/sebinsua/diffscope/internal/retry"
	"github.com/sebinsua/diffscope/pkg/models"
)

// Config contains configuration for the GitLab provider.
type Config struct {
	URL     string `koanf:"url"`
	Token   string `koanf:"token"`
	Project string `koanf:"project"`
}

// Client serves file content, structured diffs and snapshots for one
// project. API calls are rate limited and retried with backoff; callers see
// only the final outcome.
type Client struct {
	api     *gitlab.Client
	cfg     Config
	limiter *rate.Limiter
	retry   retry.Config
}

// New creates a GitLab-backed provider client.
func New(cfg Config) (*Client, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("gitlab: a project is required")
	}

	var opts []gitlab.ClientOptionFunc
	if cfg.URL != "" {
		opts = append(opts, gitlab.WithBaseURL(fmt.Sprintf("%s/api/v4", strings.TrimSuffix(cfg.URL, "/"))))
	}
	api, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("gitlab: setting API base URL: %w", err)
	}

	return &Client{
		api:     api,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(10), 5),
		retry:   retry.DefaultConfig(),
	}, nil
}

// FileContents fetches the raw file at ref. A 404 means the file does not
// exist at that revision and yields the empty string, per the provider
// contract; anything else is a transport failure.
func (c *Client) FileContents(ctx context.Context, path, ref string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var content string
	err := retry.Do(ctx, c.retry, func() error {
		raw, resp, err := c.api.RepositoryFiles.GetRawFile(c.cfg.Project, path, &gitlab.GetRawFileOptions{
			Ref: gitlab.String(ref),
		})
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				content = ""
				return nil
			}
			return fmt.Errorf("gitlab: fetching %s at %s: %w", path, ref, maybePermanent(resp, err))
		}
		content = string(raw)
		return nil
	})
	return content, err
}

// StructuredDiff fetches the repository comparison between base and head and
// parses each change's hunk text into the structured diff model.
func (c *Client) StructuredDiff(ctx context.Context, base, head string) ([]models.FileDiff, error) {
	cmp, err := c.compare(ctx, base, head)
	if err != nil {
		return nil, err
	}

	diffs := make([]models.FileDiff, 0, len(cmp.Diffs))
	for _, d := range cmp.Diffs {
		hunks, err := diff.ParseHunks(strings.Split(d.Diff, "\n"))
		if err != nil {
			return nil, fmt.Errorf("gitlab: parsing diff for %s: %w", d.NewPath, err)
		}
		diffs = append(diffs, models.FileDiff{
			FromPath:  d.OldPath,
			ToPath:    d.NewPath,
			IsNew:     d.NewFile,
			IsDeleted: d.DeletedFile,
			IsRenamed: d.RenamedFile,
			Hunks:     hunks,
		})
	}

	log.Debug().Int("files", len(diffs)).Str("base", base).Str("head", head).Msg("fetched gitlab comparison")
	return diffs, nil
}

// Snapshot classifies the compared files and collects the commit list.
func (c *Client) Snapshot(ctx context.Context, base, head string) (models.RepositorySnapshot, error) {
	cmp, err := c.compare(ctx, base, head)
	if err != nil {
		return models.RepositorySnapshot{}, err
	}

	var snap models.RepositorySnapshot
	for _, d := range cmp.Diffs {
		switch {
		case d.NewFile:
			snap.CreatedFiles = append(snap.CreatedFiles, d.NewPath)
		case d.DeletedFile:
			snap.DeletedFiles = append(snap.DeletedFiles, d.OldPath)
		default:
			snap.ModifiedFiles = append(snap.ModifiedFiles, d.NewPath)
		}
	}
	for _, commit := range cmp.Commits {
		snap.Commits = append(snap.Commits, models.Commit{
			SHA:         commit.ID,
			Message:     commit.Message,
			AuthorName:  commit.AuthorName,
			AuthorEmail: commit.AuthorEmail,
		})
	}
	return snap, nil
}

func (c *Client) compare(ctx context.Context, base, head string) (*gitlab.Compare, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var cmp *gitlab.Compare
	err := retry.Do(ctx, c.retry, func() error {
		result, resp, err := c.api.Repositories.Compare(c.cfg.Project, &gitlab.CompareOptions{
			From: gitlab.String(base),
			To:   gitlab.String(head),
		})
		if err != nil {
			return fmt.Errorf("gitlab: comparing %s..%s: %w", base, head, maybePermanent(resp, err))
		}
		cmp = result
		return nil
	})
	return cmp, err
}

// maybePermanent marks client errors (4xx) as not worth retrying.
func maybePermanent(resp *gitlab.Response, err error) error {
	if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &retry.Permanent{Err: err}
	}
	return err
}
