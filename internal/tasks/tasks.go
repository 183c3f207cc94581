package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/services"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Engine runs one generation batch.
type Engine interface {
	// Run generates a palette, titles and a thumbnail for sel. On any failure it returns no result.
	Run(ctx context.Context, cred credentials.Credential, sel models.CompleteSelection, progress chan<- ProgressUpdate) (*models.GeneratedResult, error)
}

// VibeEngine implements [Engine] on top of a [services.Generator].
type VibeEngine struct {
	gen    services.Generator
	logger *log.Logger
}

// NewVibeEngine creates a new VibeEngine with the provided generator.
func NewVibeEngine(gen services.Generator, logger *log.Logger) *VibeEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &VibeEngine{gen: gen, logger: shared.WithLogger(logger, "component", "engine")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *VibeEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs one generation batch.
//
// The palette is requested first because the thumbnail prompt depends on it. Titles and the
// thumbnail are then requested concurrently; the first failure cancels the other call.
func (e *VibeEngine) Run(ctx context.Context, cred credentials.Credential, sel models.CompleteSelection, progress chan<- ProgressUpdate) (*models.GeneratedResult, error) {
	if e.gen == nil {
		return nil, fmt.Errorf("%w: generator not initialized", shared.ErrServiceUnavailable)
	}
	if cred.IsZero() {
		return nil, shared.ErrMissingCredentials
	}

	logger := e.logger.With("selection", sel.Summary(), "aspect", sel.AspectRatio)
	logger.Info("generation started")

	e.sendProgress(progress, paletteUpdate(sel.Mood.Label))
	colors, err := e.gen.Palette(ctx, cred, sel.Mood.Label)
	if err != nil {
		logger.Error("palette failed", "error", err)
		return nil, err
	}

	var (
		titles []string
		thumb  *services.Thumbnail
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.sendProgress(progress, titlesUpdate(colors))
		t, err := e.gen.Titles(gctx, cred, sel)
		if err != nil {
			return err
		}
		titles = t
		return nil
	})
	g.Go(func() error {
		e.sendProgress(progress, thumbnailUpdate(sel))
		t, err := e.gen.Thumbnail(gctx, cred, sel, colors)
		if err != nil {
			return err
		}
		if t == nil || t.DataURI == "" {
			return fmt.Errorf("%w: no image data in response", shared.ErrMalformedResponse)
		}
		thumb = t
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("generation failed", "error", err)
		return nil, err
	}

	result := &models.GeneratedResult{
		Titles:       titles,
		ThumbnailURL: thumb.DataURI,
		Colors:       colors,
		PromptUsed:   thumb.Prompt,
	}

	e.sendProgress(progress, assembleUpdate(result))
	logger.Info("generation finished", "titles", len(titles), "colors", len(colors))
	return result, nil
}
