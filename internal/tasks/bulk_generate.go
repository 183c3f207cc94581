package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/emusicvibe/internal/cover"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/formatter"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"golang.org/x/time/rate"
)

// Exporter renders and writes a cover for a thumbnail; [cover.Renderer] implements it.
type Exporter interface {
	ExportDataURI(dataURI string, opts cover.Options, dir string) (string, error)
}

// VibeSaver persists generated vibes; repositories.VibeRepository implements it.
type VibeSaver interface {
	Create(v *models.Vibe) error
}

// BulkGenerateOpts contains configuration for batch generation.
type BulkGenerateOpts struct {
	OutputDir  string    // Base output directory (default: emusicvibe_batch_{epoch})
	NumWorkers int       // Concurrent workers (default: 2, max: 10)
	RateLimit  float64   // Batches started per second (default: 1)
	Watermark  bool      // Draw the "AI GENERATED" mark on each cover
	Quality    int       // JPEG quality
	Sidecar    bool      // Write JSON metadata next to each cover
	Exporter   Exporter  // Required
	Saver      VibeSaver // Optional history persistence
}

// BatchJob is one queued selection.
type BatchJob struct {
	Index     int
	Selection models.CompleteSelection
}

// BatchItemResult is the outcome of one selection.
type BatchItemResult struct {
	Index       int                      `json:"index"`
	Selection   models.CompleteSelection `json:"selection"`
	Result      *models.GeneratedResult  `json:"-"`
	Title       string                   `json:"title,omitempty"`
	Colors      []string                 `json:"colors,omitempty"`
	CoverPath   string                   `json:"cover_path,omitempty"`
	SidecarPath string                   `json:"sidecar_path,omitempty"`
	VibeID      string                   `json:"vibe_id,omitempty"`
	Success     bool                     `json:"success"`
	Error       error                    `json:"-"`
	ErrorText   string                   `json:"error,omitempty"`
}

// BulkGenerateResult summarizes a batch.
type BulkGenerateResult struct {
	Total           int               `json:"total"`
	Succeeded       int               `json:"succeeded"`
	Failed          int               `json:"failed"`
	OutputDirectory string            `json:"output_directory"`
	Results         []BatchItemResult `json:"results"`
	ManifestPath    string            `json:"-"`
}

// BulkGenerate generates and exports covers for many selections concurrently.
//
// A worker pool runs each selection through [VibeEngine.Run] while a limiter paces how often
// new batches start. Failures are recorded per item and never stop the rest of the batch.
// A manifest named batch_manifest.json is written to the output directory.
func (e *VibeEngine) BulkGenerate(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	cred credentials.Credential,
	selections []models.CompleteSelection,
	opts BulkGenerateOpts,
) (*BulkGenerateResult, error) {
	if e.gen == nil {
		return nil, fmt.Errorf("%w: generator not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Exporter == nil {
		return nil, fmt.Errorf("%w: exporter", shared.ErrMissingArgument)
	}
	if len(selections) == 0 {
		return nil, fmt.Errorf("%w: no selections", shared.ErrEmptyInput)
	}
	if cred.IsZero() {
		return nil, shared.ErrMissingCredentials
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("emusicvibe_batch_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(selections)
	result := &BulkGenerateResult{
		Total:           total,
		OutputDirectory: opts.OutputDir,
		Results:         make([]BatchItemResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan BatchJob, total)
	results := make(chan BatchItemResult, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.generateWorker(ctx, &wg, cred, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, sel := range selections {
			if err := limiter.Wait(ctx); err != nil {
				for j := i; j < total; j++ {
					results <- failed(BatchItemResult{Index: j, Selection: selections[j]}, err)
				}
				return
			}
			jobs <- BatchJob{Index: i, Selection: sel}
			e.sendProgress(prog, batchQueueUpdate(i+1, total, sel))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Succeeded++
			e.sendProgress(prog, batchExportUpdate(completed, total, res))
		} else {
			result.Failed++
			e.sendProgress(prog, batchFailedUpdate(completed, total, res))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].Index < result.Results[j].Index })

	manifestPath := filepath.Join(opts.OutputDir, "batch_manifest.json")
	if err := formatter.WriteJSON(result, manifestPath); err != nil {
		return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("batch finished", "total", total, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// generateWorker is a worker goroutine that drains the jobs channel.
func (e *VibeEngine) generateWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	cred credentials.Credential,
	jobs <-chan BatchJob,
	results chan<- BatchItemResult,
	opts BulkGenerateOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- failed(BatchItemResult{Index: job.Index, Selection: job.Selection}, err)
			continue
		}
		results <- e.generateOne(ctx, cred, job, opts)
	}
}

// generateOne runs, exports and optionally saves a single selection.
func (e *VibeEngine) generateOne(ctx context.Context, cred credentials.Credential, job BatchJob, opts BulkGenerateOpts) BatchItemResult {
	res := BatchItemResult{Index: job.Index, Selection: job.Selection}

	generated, err := e.Run(ctx, cred, job.Selection, nil)
	if err != nil {
		return failed(res, fmt.Errorf("generation failed: %w", err))
	}
	res.Result = generated
	res.Title = generated.Title(0)
	res.Colors = generated.Colors

	path, err := opts.Exporter.ExportDataURI(generated.ThumbnailURL, cover.Options{
		Title:     res.Title,
		Colors:    generated.Colors,
		Watermark: opts.Watermark,
		Quality:   opts.Quality,
		Unique:    true,
	}, opts.OutputDir)
	if err != nil {
		return failed(res, fmt.Errorf("export failed: %w", err))
	}
	res.CoverPath = path

	vibe := models.NewVibe(job.Selection, *generated)
	vibe.SetExportPath(path)

	if opts.Saver != nil {
		if err := opts.Saver.Create(vibe); err != nil {
			e.logger.Warn("failed to save vibe to history", "title", res.Title, "error", err)
		} else {
			res.VibeID = vibe.ID()
		}
	}

	if opts.Sidecar {
		sidecar, err := formatter.WriteSidecar(vibe, path)
		if err != nil {
			e.logger.Warn("failed to write sidecar", "path", path, "error", err)
		} else {
			res.SidecarPath = sidecar
		}
	}

	res.Success = true
	return res
}

func failed(res BatchItemResult, err error) BatchItemResult {
	res.Error = err
	res.ErrorText = err.Error()
	return res
}
