package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/catalog"
	"github.com/desertthunder/emusicvibe/internal/cover"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/repositories"
	"github.com/desertthunder/emusicvibe/internal/services"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/desertthunder/emusicvibe/internal/tasks"
	"github.com/desertthunder/emusicvibe/internal/wizard"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	opts       RunnerOpts

	db        *sql.DB
	vibes     *repositories.VibeRepository
	creds     *credentials.Manager
	generator services.Generator
	engine    *tasks.VibeEngine
	renderer  *cover.Renderer
	ids       *catalog.CustomIDs
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Generator, Picker and Renderer are built from Config when nil. Without a DB the history
// commands are unavailable and typed keys cannot be saved.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
	Generator  services.Generator
	Picker     credentials.Picker
	Renderer   *cover.Renderer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Picker == nil {
		opts.Picker = credentials.NewTerminalPicker()
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		output:     opts.Output,
		opts:       opts,
		db:         opts.DB,
		ids:        catalog.NewCustomIDs(nil),
	}
	if r.db != nil {
		r.vibes = repositories.NewVibeRepository(r.db)
	}
	r.SetLogger(opts.Logger)
	return r
}

// SetLogger replaces the logger and rebuilds every component that logs through it.
//
// The terminal UI calls this to move logging off the screen.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger

	var store credentials.Store
	if r.db != nil {
		store = repositories.NewSettingsRepository(r.db)
	}
	r.creds = credentials.NewManager(credentials.Options{
		Store:     store,
		Picker:    r.opts.Picker,
		ConfigKey: r.config.Credentials.APIKey,
		Mode:      r.config.Credentials.Mode,
		Logger:    logger,
	})

	r.generator = r.opts.Generator
	if r.generator == nil {
		r.generator = services.NewGeminiService(r.config.Gemini, logger)
	}
	r.engine = tasks.NewVibeEngine(r.generator, logger)

	r.renderer = r.opts.Renderer
	if r.renderer == nil {
		renderer, err := cover.NewRenderer(logger)
		if err != nil {
			logger.Error("cover renderer unavailable", "error", err)
		}
		r.renderer = renderer
	}
}

// newWizard returns a controller wired to the runner's engine and credentials.
func (r *Runner) newWizard() *wizard.Controller {
	return wizard.New(wizard.Options{
		Engine:      r.engine,
		Credentials: r.creds,
		IDs:         r.ids,
		Logger:      r.logger,
	})
}

func (r *Runner) requireHistory() error {
	if r.vibes == nil {
		return fmt.Errorf("%w: database not available, run 'emusicvibe setup'", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) requireRenderer() error {
	if r.renderer == nil {
		return fmt.Errorf("%w: cover renderer not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		tuiCommand, generateCommand, batchCommand, exportCommand, historyCommand, keyCommand, serveCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
