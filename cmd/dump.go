package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sebinsua/diffscope/internal/config"
	"github.com/sebinsua/diffscope/internal/engine"
	"github.com/sebinsua/diffscope/internal/logging"
	"github.com/sebinsua/diffscope/internal/providers"
	"github.com/sebinsua/diffscope/internal/providers/gitlab"
	"github.com/sebinsua/diffscope/internal/providers/local"
	"github.com/sebinsua/diffscope/pkg/models"
)

// DumpCommand returns the dump command, which prints per-file diff views as
// JSON for the given revision pair.
func DumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Print per-file diff views for a revision pair",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "base",
				Usage:    "Base revision",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "head",
				Usage:    "Head revision",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Limit output to these files (default: every touched file)",
			},
			&cli.StringFlag{
				Name:  "view",
				Usage: "View to print: text, structured, patch or tree",
				Value: "text",
			},
		},
		Action: runDump,
	}
}

func runDump(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logging.Setup(cfg.General.LogLevel)

	ctx := c.Context
	revs := models.RevisionPair{Base: c.String("base"), Head: c.String("head")}

	snapshot, src, err := buildSources(ctx, cfg, revs)
	if err != nil {
		return err
	}

	session, err := engine.New(snapshot, revs, src, engine.WithSeparator(cfg.General.Separator))
	if err != nil {
		return err
	}

	files := c.StringSlice("file")
	if len(files) == 0 {
		files = append(files, snapshot.ModifiedFiles...)
		files = append(files, snapshot.CreatedFiles...)
		files = append(files, snapshot.DeletedFiles...)
	}

	out := make(map[string]interface{}, len(files))
	for _, name := range files {
		view, err := viewFor(ctx, session, c.String("view"), name)
		if err != nil {
			return fmt.Errorf("computing %s view for %s: %w", c.String("view"), name, err)
		}
		out[name] = view
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func buildSources(ctx context.Context, cfg *config.Config, revs models.RevisionPair) (models.RepositorySnapshot, engine.Sources, error) {
	var snapper providers.SnapshotProvider
	var src engine.Sources

	switch cfg.General.Provider {
	case "gitlab":
		client, err := gitlab.New(gitlab.Config{
			URL:     cfg.GitLab.URL,
			Token:   cfg.GitLab.Token,
			Project: cfg.GitLab.Project,
		})
		if err != nil {
			return models.RepositorySnapshot{}, src, err
		}
		snapper = client
		src = engine.Sources{Content: client, StructuredDiff: client}
	default:
		repo := local.New(cfg.Local.Dir)
		snapper = repo
		src = engine.Sources{Content: repo, RawDiff: repo}
	}

	snapshot, err := snapper.Snapshot(ctx, revs.Base, revs.Head)
	if err != nil {
		return snapshot, src, fmt.Errorf("building repository snapshot: %w", err)
	}
	return snapshot, src, nil
}

func viewFor(ctx context.Context, session *engine.Session, view, name string) (interface{}, error) {
	switch view {
	case "text":
		return session.DiffForFile(ctx, name)
	case "structured":
		return session.StructuredDiffForFile(ctx, name)
	case "patch":
		return session.JSONPatchForFile(ctx, name)
	case "tree":
		return session.JSONDiffForFile(ctx, name)
	}
	return nil, fmt.Errorf("unknown view %q", view)
}
