// Package wizard implements the selection and generation state machine.
//
// A [Controller] walks the user through destination, view and mood, starts one generation batch
// for the complete selection and either shows the result or returns to the mood step with an error.
// It is driven from a single goroutine (the terminal UI update loop or one HTTP request); the
// generation itself may run elsewhere between [Controller.Begin] and [Controller.Finish].
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/catalog"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/desertthunder/emusicvibe/internal/tasks"
)

// User-visible messages.
const (
	MsgNeedCredential   = "Please select your Gemini API Key in Settings to continue."
	MsgGenerationFailed = "Jazz frequency interrupted. Check your API key or usage limits."
)

// CredentialSource answers whether a usable credential is selected and hands it out.
// [credentials.Manager] implements it.
type CredentialSource interface {
	HasCredential(ctx context.Context) (bool, error)
	Credential(ctx context.Context) (credentials.Credential, error)
	Select(ctx context.Context) (bool, error)
	Invalidate()
}

// Options configures a [Controller].
type Options struct {
	Engine      tasks.Engine
	Credentials CredentialSource
	IDs         *catalog.CustomIDs // custom option ids; a fresh issuer when nil
	Logger      *log.Logger
}

// Controller owns the selection, the current [Step] and the user-visible error.
type Controller struct {
	engine tasks.Engine
	creds  CredentialSource
	ids    *catalog.CustomIDs
	logger *log.Logger

	step         Step
	selection    models.Selection
	custom       map[models.OptionKind]string
	errMsg       string
	settingsOpen bool

	jobs   int
	active int
}

// Job is a generation started by [Controller.Begin]. Its credential is the one every call must use.
type Job struct {
	ID         int
	Credential credentials.Credential
	Selection  models.CompleteSelection
}

// New creates a Controller at the destination step.
func New(opts Options) *Controller {
	if opts.IDs == nil {
		opts.IDs = catalog.NewCustomIDs(nil)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Controller{
		engine:    opts.Engine,
		creds:     opts.Credentials,
		ids:       opts.IDs,
		logger:    shared.WithLogger(opts.Logger, "component", "wizard"),
		step:      PickDestination{},
		selection: models.NewSelection(),
		custom:    map[models.OptionKind]string{},
	}
}

func (c *Controller) Step() Step                  { return c.step }
func (c *Controller) Selection() models.Selection { return c.selection }
func (c *Controller) Error() string               { return c.errMsg }
func (c *Controller) ClearError()                 { c.errMsg = "" }
func (c *Controller) SettingsOpen() bool          { return c.settingsOpen }
func (c *Controller) OpenSettings()               { c.settingsOpen = true }
func (c *Controller) CloseSettings()              { c.settingsOpen = false }

// Result returns the finished generation when the wizard is showing one.
func (c *Controller) Result() (models.GeneratedResult, bool) {
	if r, ok := c.step.(ShowingResult); ok {
		return r.Result, true
	}
	return models.GeneratedResult{}, false
}

// Options lists the predefined options for the current picking step.
func (c *Controller) Options() []models.VibeOption {
	kind, ok := PickKind(c.step)
	if !ok {
		return nil
	}
	return catalog.Options(kind)
}

// Selected reports whether opt is the stored choice for the current picking step.
func (c *Controller) Selected(opt models.VibeOption) bool {
	kind, ok := PickKind(c.step)
	if !ok {
		return false
	}
	cur := c.selection.Slot(kind)
	return cur != nil && cur.ID == opt.ID
}

// Select stores opt for the current picking step.
//
// The returned advance flag is true at the destination and view steps: the caller should call
// [Controller.Advance] after its cosmetic delay. The mood step never advances on its own.
func (c *Controller) Select(opt models.VibeOption) (advance bool, err error) {
	kind, ok := PickKind(c.step)
	if !ok {
		return false, fmt.Errorf("%w: cannot pick an option at the %s step", shared.ErrInvalidStep, c.step.Name())
	}

	c.selection = c.selection.With(kind, opt)
	c.logger.Debug("option selected", "kind", kind, "id", opt.ID, "label", opt.Label)
	return kind != models.KindMood, nil
}

// SelectRef resolves a predefined id or label for the current step, building a custom option
// when nothing matches, and selects it.
func (c *Controller) SelectRef(ref string) (bool, error) {
	kind, ok := PickKind(c.step)
	if !ok {
		return false, fmt.Errorf("%w: cannot pick an option at the %s step", shared.ErrInvalidStep, c.step.Name())
	}

	var (
		opt models.VibeOption
		err error
	)
	if kind == models.KindMood {
		var found bool
		if opt, found = catalog.Lookup(kind, ref); !found {
			return false, fmt.Errorf("%w: unknown mood %q", shared.ErrInvalidInput, ref)
		}
	} else if opt, err = catalog.Resolve(kind, ref, c.ids); err != nil {
		return false, err
	}
	return c.Select(opt)
}

// Advance performs the delayed move from destination to view or from view to mood.
//
// It only moves when the current step's slot is filled, so a delayed call that lands after a
// reset or a back-navigation is harmless. It reports whether the step changed.
func (c *Controller) Advance() bool {
	switch c.step.(type) {
	case PickDestination:
		if c.selection.Destination != nil {
			c.step = PickView{}
			return true
		}
	case PickView:
		if c.selection.View != nil {
			c.step = PickMood{}
			return true
		}
	}
	return false
}

// Back returns to the previous picking step, keeping the selection.
func (c *Controller) Back() bool {
	switch c.step.(type) {
	case PickView:
		c.step = PickDestination{}
		return true
	case PickMood:
		c.step = PickView{}
		return true
	}
	return false
}

// CustomInput returns the free-text buffer for the current step.
func (c *Controller) CustomInput() string {
	kind, _ := PickKind(c.step)
	return c.custom[kind]
}

// SetCustomInput replaces the free-text buffer for the current step.
func (c *Controller) SetCustomInput(text string) {
	if AcceptsCustom(c.step) {
		kind, _ := PickKind(c.step)
		c.custom[kind] = text
	}
}

// SubmitCustom turns the free-text buffer into a custom option and selects it.
//
// A blank buffer returns [shared.ErrEmptyInput] and changes nothing.
func (c *Controller) SubmitCustom() (bool, error) {
	if !AcceptsCustom(c.step) {
		return false, fmt.Errorf("%w: custom entry is not offered at the %s step", shared.ErrInvalidStep, c.step.Name())
	}

	kind, _ := PickKind(c.step)
	opt, err := c.ids.NewOption(c.custom[kind])
	if err != nil {
		return false, err
	}
	return c.Select(opt)
}

// SetAspectRatio changes the requested thumbnail shape.
func (c *Controller) SetAspectRatio(ar models.AspectRatio) error {
	if _, err := models.ParseAspectRatio(string(ar)); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if _, busy := c.step.(Generating); busy {
		return shared.ErrGenerationInFlight
	}
	c.selection.AspectRatio = ar
	return nil
}

// CycleAspectRatio moves to the next aspect ratio.
func (c *Controller) CycleAspectRatio() models.AspectRatio {
	next := c.selection.AspectRatio.Next()
	if err := c.SetAspectRatio(next); err != nil {
		return c.selection.AspectRatio
	}
	return next
}

// Refs names one option per picking step by id or label. Destination and view also accept
// free text, which becomes a custom option. An empty AspectRatio keeps the current one.
type Refs struct {
	Destination string
	View        string
	Mood        string
	AspectRatio string
}

// Apply walks the picking steps with refs, leaving the controller at the mood step ready to generate.
func (c *Controller) Apply(refs Refs) error {
	steps := []struct {
		kind models.OptionKind
		ref  string
	}{
		{models.KindDestination, refs.Destination},
		{models.KindView, refs.View},
		{models.KindMood, refs.Mood},
	}

	for _, s := range steps {
		if strings.TrimSpace(s.ref) == "" {
			return fmt.Errorf("%w: %s", shared.ErrMissingArgument, s.kind)
		}
		advance, err := c.SelectRef(s.ref)
		if err != nil {
			return fmt.Errorf("%s: %w", s.kind, err)
		}
		if advance {
			c.Advance()
		}
	}

	if ar := strings.TrimSpace(refs.AspectRatio); ar != "" {
		return c.SetAspectRatio(models.AspectRatio(ar))
	}
	return nil
}

// CanGenerate reports whether generation may be triggered: a picking step with all three slots filled.
func (c *Controller) CanGenerate() bool {
	if _, ok := PickKind(c.step); !ok {
		return false
	}
	_, complete := c.selection.Complete()
	return complete
}

// Begin checks the preconditions and moves to [Generating].
//
// With an incomplete selection it returns [shared.ErrIncompleteSelection] and changes nothing.
// Without a usable credential it opens the settings surface, sets [MsgNeedCredential] and returns
// [shared.ErrMissingCredentials] without leaving the current step.
func (c *Controller) Begin(ctx context.Context) (*Job, error) {
	if _, busy := c.step.(Generating); busy {
		return nil, shared.ErrGenerationInFlight
	}
	if _, ok := PickKind(c.step); !ok {
		return nil, fmt.Errorf("%w: cannot generate from the %s step", shared.ErrInvalidStep, c.step.Name())
	}

	sel, ok := c.selection.Complete()
	if !ok {
		return nil, shared.ErrIncompleteSelection
	}

	cred, err := c.credential(ctx)
	if err != nil {
		c.settingsOpen = true
		c.errMsg = MsgNeedCredential
		c.logger.Warn("generation blocked", "error", err)
		return nil, err
	}

	c.jobs++
	c.active = c.jobs
	c.errMsg = ""
	c.step = Generating{Selection: sel}

	c.logger.Info("generation started", "job", c.active, "selection", sel.Summary(), "aspect", sel.AspectRatio)
	return &Job{ID: c.active, Credential: cred, Selection: sel}, nil
}

func (c *Controller) credential(ctx context.Context) (credentials.Credential, error) {
	if c.creds == nil {
		return credentials.Credential{}, shared.ErrMissingCredentials
	}

	has, err := c.creds.HasCredential(ctx)
	if err != nil {
		return credentials.Credential{}, fmt.Errorf("%w: %v", shared.ErrMissingCredentials, err)
	}
	if !has {
		return credentials.Credential{}, shared.ErrMissingCredentials
	}

	cred, err := c.creds.Credential(ctx)
	if err != nil {
		return credentials.Credential{}, fmt.Errorf("%w: %v", shared.ErrMissingCredentials, err)
	}
	return cred, nil
}

// Execute runs the generation batch for job. It does not touch controller state and may run on
// any goroutine; hand its outcome to [Controller.Finish].
func (c *Controller) Execute(ctx context.Context, job *Job, progress chan<- tasks.ProgressUpdate) (*models.GeneratedResult, error) {
	if c.engine == nil {
		return nil, fmt.Errorf("%w: generation engine not configured", shared.ErrServiceUnavailable)
	}
	return c.engine.Run(ctx, job.Credential, job.Selection, progress)
}

// Finish applies the outcome of job.
//
// An outcome for a job that is no longer current (the wizard was reset meanwhile) is discarded
// and Finish returns false. On failure the wizard returns to the mood step with
// [MsgGenerationFailed]; a [shared.ErrCredentialInvalid] failure also invalidates the credential
// and opens the settings surface.
func (c *Controller) Finish(job *Job, result *models.GeneratedResult, err error) bool {
	if job == nil || job.ID != c.active {
		c.logger.Debug("discarding stale generation", "job", jobID(job), "active", c.active)
		return false
	}
	c.active = 0

	if err == nil && result == nil {
		err = fmt.Errorf("%w: empty generation result", shared.ErrMalformedResponse)
	}

	if err != nil {
		c.step = PickMood{}
		c.errMsg = MsgGenerationFailed
		if errors.Is(err, shared.ErrCredentialInvalid) {
			if c.creds != nil {
				c.creds.Invalidate()
			}
			c.settingsOpen = true
		}
		c.logger.Error("generation failed", "job", job.ID, "error", err)
		return true
	}

	c.step = ShowingResult{Selection: job.Selection, Result: *result}
	c.logger.Info("generation finished", "job", job.ID, "titles", len(result.Titles))
	return true
}

func jobID(j *Job) int {
	if j == nil {
		return 0
	}
	return j.ID
}

// Generate runs a whole generation synchronously: [Controller.Begin], [Controller.Execute], [Controller.Finish].
func (c *Controller) Generate(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
	job, err := c.Begin(ctx)
	if err != nil {
		return err
	}
	result, err := c.Execute(ctx, job, progress)
	c.Finish(job, result, err)
	return err
}

// SelectCredential runs the credential picker and re-queries the source.
//
// When a credential is now available a pending [MsgNeedCredential] is cleared.
func (c *Controller) SelectCredential(ctx context.Context) (bool, error) {
	if c.creds == nil {
		return false, fmt.Errorf("%w: no credential source", shared.ErrServiceUnavailable)
	}
	ok, err := c.creds.Select(ctx)
	if err != nil {
		return false, err
	}
	c.credentialChanged(ok)
	return ok, nil
}

// RefreshCredential re-queries the credential source after a key was saved outside the picker.
func (c *Controller) RefreshCredential(ctx context.Context) (bool, error) {
	if c.creds == nil {
		return false, nil
	}
	ok, err := c.creds.HasCredential(ctx)
	if err != nil {
		return false, err
	}
	c.credentialChanged(ok)
	return ok, nil
}

func (c *Controller) credentialChanged(ok bool) {
	if ok && c.errMsg == MsgNeedCredential {
		c.errMsg = ""
	}
}

// Reset returns to the destination step with an empty selection, no result, empty free-text
// buffers and no error, from any step. An in-flight generation's outcome will be discarded.
func (c *Controller) Reset() {
	c.step = PickDestination{}
	c.selection = models.NewSelection()
	c.custom = map[models.OptionKind]string{}
	c.errMsg = ""
	c.active = 0
	c.logger.Debug("wizard reset")
}
