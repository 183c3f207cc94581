package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/emusicvibe/internal/formatter"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList lists saved vibes, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	criteria := map[string]any{models.CriteriaLimit: cmd.Int("limit")}
	for _, name := range append(models.SlotCriteria, models.CriteriaSearch) {
		if v := cmd.String(name); v != "" {
			criteria[name] = v
		}
	}

	vibes, err := r.vibes.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]formatter.VibeMetadata, 0, len(vibes))
		for _, v := range vibes {
			out = append(out, formatter.Metadata(v))
		}
		return r.writeJSON(out, true)
	}

	if len(vibes) == 0 {
		return r.writePlain("No vibes yet. Run 'emusicvibe' or 'emusicvibe generate' to make one.\n")
	}

	for _, v := range vibes {
		title := v.SelectedTitle()
		if title == "" {
			title = v.Result().Title(0)
		}
		exported := ""
		if v.ExportPath() != "" {
			exported = " ✓"
		}
		r.writePlain("#%-4d %-16s %-36s %s%s\n",
			v.Sequence(),
			v.CreatedAt().Local().Format("2006-01-02 15:04"),
			shared.Truncate(v.Selection().Summary(), 36),
			shared.Truncate(title, 48),
			exported,
		)
	}
	return nil
}

// HistoryShow prints one saved vibe.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	vibe, err := r.findVibe(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(formatter.Metadata(vibe), true)
	}
	r.writeVibe(vibe)
	return nil
}

// HistoryExport writes every saved vibe to a file.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	vibes, err := r.vibes.List(map[string]any{models.CriteriaOrder: "asc"})
	if err != nil {
		return err
	}

	path, err := formatter.WriteHistoryExport(vibes, cmd.String("format"), cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("history exported", "path", path, "vibes", len(vibes))
	return r.writePlain("✓ Exported %d vibes to %s\n", len(vibes), path)
}

// HistoryDelete removes one saved vibe.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	vibe, err := r.findVibe(cmd)
	if err != nil {
		return err
	}
	if err := r.vibes.Delete(vibe.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted #%d %s\n", vibe.Sequence(), vibe.Selection().Summary())
}

func (r *Runner) findVibe(cmd *cli.Command) (*models.Vibe, error) {
	if err := r.requireHistory(); err != nil {
		return nil, err
	}
	ref := cmd.StringArg("ref")
	if ref == "" {
		return nil, fmt.Errorf("%w: vibe sequence number or id", shared.ErrMissingArgument)
	}
	return r.vibes.Find(ref)
}
