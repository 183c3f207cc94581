package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/emusicvibe/internal/cover"
	"github.com/desertthunder/emusicvibe/internal/formatter"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/desertthunder/emusicvibe/internal/tasks"
	"github.com/desertthunder/emusicvibe/internal/wizard"
	"github.com/urfave/cli/v3"
)

// GenerateOutput is the JSON shape printed by generate.
type GenerateOutput struct {
	formatter.VibeMetadata
	CoverPath   string `json:"cover_path,omitempty"`
	SidecarPath string `json:"sidecar_path,omitempty"`
}

// BatchFile is the TOML document read by batch.
//
//	[[vibe]]
//	destination = "paris"
//	view = "rooftop"
//	mood = "bebop"
//	aspect_ratio = "1:1"
type BatchFile struct {
	Vibes []BatchEntry `toml:"vibe"`
}

// BatchEntry is one selection in a [BatchFile].
type BatchEntry struct {
	Destination string `toml:"destination"`
	View        string `toml:"view"`
	Mood        string `toml:"mood"`
	AspectRatio string `toml:"aspect_ratio"`
}

// Generate runs one generation for the flags' selection and optionally exports the cover.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	wiz := r.newWizard()
	if err := wiz.Apply(wizard.Refs{
		Destination: cmd.String("destination"),
		View:        cmd.String("view"),
		Mood:        cmd.String("mood"),
		AspectRatio: cmd.String("aspect"),
	}); err != nil {
		return err
	}

	sel, _ := wiz.Selection().Complete()
	r.logger.Info("generating vibe", "selection", sel.Summary(), "aspect", sel.AspectRatio)

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	err := wiz.Generate(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return generationError(wiz, err)
	}

	step, ok := wiz.Step().(wizard.ShowingResult)
	if !ok {
		return fmt.Errorf("%w: generation finished without a result", shared.ErrMalformedResponse)
	}

	vibe := models.NewVibe(step.Selection, step.Result)
	title := strings.TrimSpace(cmd.String("title"))
	if title == "" {
		title = step.Result.Title(0)
	}
	vibe.SetSelectedTitle(title)

	if r.vibes != nil && !cmd.Bool("no-save") {
		if err := r.vibes.Create(vibe); err != nil {
			r.logger.Warn("failed to save vibe to history", "error", err)
		}
	}

	out := GenerateOutput{}
	if cmd.Bool("export") {
		coverPath, sidecarPath, err := r.exportVibe(vibe, cmd)
		if err != nil {
			return err
		}
		out.CoverPath, out.SidecarPath = coverPath, sidecarPath
	}
	out.VibeMetadata = formatter.Metadata(vibe)

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	r.writeVibe(vibe)
	if out.CoverPath != "" {
		r.writePlain("\n✓ Cover exported to %s\n", out.CoverPath)
	}
	if out.SidecarPath != "" {
		r.writePlain("✓ Metadata written to %s\n", out.SidecarPath)
	}
	return nil
}

// generationError pairs the user-facing wizard message with the cause.
func generationError(wiz *wizard.Controller, err error) error {
	if errors.Is(err, shared.ErrMissingCredentials) || errors.Is(err, shared.ErrCredentialInvalid) {
		return fmt.Errorf("%w (run 'emusicvibe key set' or 'emusicvibe key select')", err)
	}
	if msg := wiz.Error(); msg != "" {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}

// exportVibe writes the cover for v using the cover flags, records it in history and
// optionally writes the metadata sidecar.
func (r *Runner) exportVibe(v *models.Vibe, cmd *cli.Command) (coverPath, sidecarPath string, err error) {
	if err := r.requireRenderer(); err != nil {
		return "", "", err
	}
	if err := validQuality(cmd.Int("quality")); err != nil {
		return "", "", err
	}

	title := strings.TrimSpace(cmd.String("title"))
	if title == "" {
		title = v.SelectedTitle()
	}
	if title == "" {
		title = v.Result().Title(0)
	}

	coverPath, err = r.renderer.ExportDataURI(v.Result().ThumbnailURL, cover.Options{
		Title:     title,
		Colors:    v.Result().Colors,
		Watermark: cmd.Bool("watermark"),
		Quality:   cmd.Int("quality"),
	}, cmd.String("dir"))
	if err != nil {
		return "", "", fmt.Errorf("could not generate download image: %w", err)
	}

	v.SetSelectedTitle(title)
	v.SetExportPath(coverPath)
	if r.vibes != nil && v.ID() != "" {
		if err := r.vibes.MarkExported(v.ID(), title, coverPath); err != nil {
			r.logger.Warn("failed to record export", "id", v.ID(), "error", err)
		}
	}

	if cmd.Bool("sidecar") {
		if sidecarPath, err = formatter.WriteSidecar(v, coverPath); err != nil {
			return coverPath, "", err
		}
	}
	return coverPath, sidecarPath, nil
}

// Export re-renders the cover of a saved vibe.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}
	ref := cmd.StringArg("ref")
	if ref == "" {
		return fmt.Errorf("%w: vibe sequence number or id", shared.ErrMissingArgument)
	}

	vibe, err := r.vibes.Find(ref)
	if err != nil {
		return err
	}

	coverPath, sidecarPath, err := r.exportVibe(vibe, cmd)
	if err != nil {
		return err
	}

	r.writePlain("✓ Cover exported to %s\n", coverPath)
	if sidecarPath != "" {
		r.writePlain("✓ Metadata written to %s\n", sidecarPath)
	}
	return nil
}

// LoadBatchFile reads a [BatchFile] and resolves each entry into a complete selection.
func (r *Runner) LoadBatchFile(path string) ([]models.CompleteSelection, error) {
	var file BatchFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("%w: failed to parse batch file: %v", shared.ErrInvalidInput, err)
	}
	if len(file.Vibes) == 0 {
		return nil, fmt.Errorf("%w: batch file has no [[vibe]] entries", shared.ErrEmptyInput)
	}

	selections := make([]models.CompleteSelection, 0, len(file.Vibes))
	for i, entry := range file.Vibes {
		wiz := r.newWizard()
		if err := wiz.Apply(wizard.Refs{
			Destination: entry.Destination,
			View:        entry.View,
			Mood:        entry.Mood,
			AspectRatio: entry.AspectRatio,
		}); err != nil {
			return nil, fmt.Errorf("vibe %d: %w", i+1, err)
		}
		sel, ok := wiz.Selection().Complete()
		if !ok {
			return nil, fmt.Errorf("vibe %d: %w", i+1, shared.ErrIncompleteSelection)
		}
		selections = append(selections, sel)
	}
	return selections, nil
}

// Batch generates and exports a cover for every selection in a batch file.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: batch file path", shared.ErrMissingArgument)
	}
	if err := r.requireRenderer(); err != nil {
		return err
	}

	if err := validQuality(cmd.Int("quality")); err != nil {
		return err
	}

	selections, err := r.LoadBatchFile(path)
	if err != nil {
		return err
	}

	cred, err := r.creds.Credential(ctx)
	if err != nil {
		return fmt.Errorf("%w (run 'emusicvibe key set')", err)
	}

	opts := tasks.BulkGenerateOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Watermark:  cmd.Bool("watermark"),
		Quality:    cmd.Int("quality"),
		Sidecar:    cmd.Bool("sidecar"),
		Exporter:   r.renderer,
	}
	if r.vibes != nil {
		opts.Saver = r.vibes
	}

	progress := make(chan tasks.ProgressUpdate, len(selections)*2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.engine.BulkGenerate(ctx, progress, cred, selections, opts)
	close(progress)
	<-done
	if result == nil {
		return err
	}
	if err != nil {
		r.logger.Warn("batch finished with an error", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainHeader("Batch Summary")
	r.writePlain("Total:     %d\n", result.Total)
	r.writePlain("Succeeded: %d\n", result.Succeeded)
	r.writePlain("Failed:    %d\n", result.Failed)
	r.writePlain("Output:    %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest:  %s\n", result.ManifestPath)
	}

	for _, item := range result.Results {
		if item.Success {
			r.writePlain("  ✓ %s → %s\n", item.Selection.Summary(), item.CoverPath)
		} else {
			r.writePlain("  ✗ %s: %s\n", item.Selection.Summary(), item.ErrorText)
		}
	}

	if result.Failed > 0 && result.Succeeded == 0 {
		return fmt.Errorf("%w: every generation in the batch failed", shared.ErrAPIRequest)
	}
	return nil
}

func validQuality(q int) error {
	if q < 1 || q > 100 {
		return fmt.Errorf("%w: --quality must be between 1 and 100, got %d", shared.ErrInvalidFlag, q)
	}
	return nil
}

// writeVibe prints a vibe in the plain layout shared by generate and history show.
func (r *Runner) writeVibe(v *models.Vibe) {
	sel, res := v.Selection(), v.Result()

	header := sel.Summary()
	if v.Sequence() > 0 {
		header = fmt.Sprintf("#%d %s", v.Sequence(), header)
	}
	r.writePlainHeader(header)
	r.writePlain("Aspect:  %s\n", sel.AspectRatio)
	r.writePlain("Palette: %s\n", strings.Join(res.Colors, " "))
	if t := v.SelectedTitle(); t != "" {
		r.writePlain("Title:   %s\n", t)
	}
	if !v.CreatedAt().IsZero() {
		r.writePlain("Created: %s\n", v.CreatedAt().Local().Format("2006-01-02 15:04"))
	}
	if p := v.ExportPath(); p != "" {
		r.writePlain("Cover:   %s\n", p)
	}

	r.writePlainln("Suggested titles:")
	for i, t := range res.Titles {
		r.writePlain("  %d. %s\n", i+1, t)
	}
	if res.PromptUsed != "" {
		r.writePlainln("Prompt: %s", res.PromptUsed)
	}
}
