package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/desertthunder/emusicvibe/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive wizard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireRenderer(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.UI.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	r.SetLogger(fileLogger)

	opts := ui.Options{
		Wizard:       r.newWizard(),
		Keys:         r.creds,
		Generator:    r.generator,
		Exporter:     r.renderer,
		ExportDir:    r.config.Export.Dir,
		Quality:      r.config.Export.Quality,
		Watermark:    r.config.Export.Watermark,
		AdvanceDelay: r.config.UI.AdvanceDelay(),
		Logger:       fileLogger,
	}
	if r.vibes != nil {
		opts.History = r.vibes
	}

	model := ui.NewModel(ctx, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
