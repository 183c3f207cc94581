package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/cover"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/services"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/desertthunder/emusicvibe/internal/tasks"
	"github.com/desertthunder/emusicvibe/internal/wizard"
)

// KeyManager persists a typed API key and reports where the current credential comes from.
// [credentials.Manager] implements it.
type KeyManager interface {
	SaveKey(key string) error
	Source() string
	Credential(ctx context.Context) (credentials.Credential, error)
}

// Exporter writes a composited cover. [cover.Renderer] implements it.
type Exporter interface {
	ExportDataURI(dataURI string, opts cover.Options, dir string) (string, error)
}

// History records generated and exported vibes. [repositories.VibeRepository] implements it.
type History interface {
	Create(v *models.Vibe) error
	MarkExported(id, title, path string) error
}

// Options holds the Model's dependencies. Wizard is required; the rest degrade gracefully when nil.
type Options struct {
	Wizard    *wizard.Controller
	Keys      KeyManager
	Generator services.Generator
	Exporter  Exporter
	History   History

	ExportDir    string
	Quality      int
	Watermark    bool
	AdvanceDelay time.Duration

	OpenURL   func(url string) error
	Clipboard func(text string) error
	Logger    *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	wiz    *wizard.Controller
	opts   Options
	logger *log.Logger

	width  int
	height int

	options    list.Model
	listStep   string
	custom     textinput.Model
	spinner    spinner.Model
	generation *generation
	progress   tasks.ProgressUpdate

	vibe       *models.Vibe
	titleIdx   int
	titleInput textinput.Model
	watermark  bool
	exporting  bool

	keyInput   textinput.Model
	hasKey     bool
	testing    bool
	connection *services.ConnectionResult

	status string
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Quality <= 0 {
		opts.Quality = cover.DefaultQuality
	}

	custom := textinput.New()
	custom.CharLimit = 80
	custom.Width = 40

	titleInput := textinput.New()
	titleInput.Placeholder = "Type your own title..."
	titleInput.CharLimit = 120
	titleInput.Width = 50

	keyInput := textinput.New()
	keyInput.Placeholder = "AIza..."
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.EchoCharacter = '•'
	keyInput.Width = 50

	m := &Model{
		ctx:        ctx,
		wiz:        opts.Wizard,
		opts:       opts,
		logger:     shared.WithLogger(opts.Logger, "component", "ui"),
		options:    newOptionList(),
		custom:     custom,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.active)),
		titleInput: titleInput,
		watermark:  opts.Watermark,
		keyInput:   keyInput,
		help:       help.New(),
		keys:       newKeyMap(),
	}
	m.syncOptions()
	return m
}

// Init checks whether a credential is available.
func (m *Model) Init() tea.Cmd {
	return m.refreshCredential()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.options.SetSize(max(msg.Width-4, 20), max(msg.Height-16, 6))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.wiz.SettingsOpen() {
			return m.handleSettingsKeys(msg)
		}
		switch m.wiz.Step().(type) {
		case wizard.PickDestination, wizard.PickView, wizard.PickMood:
			return m.handlePickKeys(msg)
		case wizard.Generating:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case wizard.ShowingResult:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if _, ok := m.wiz.Step().(wizard.Generating); !ok && !m.testing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

// updateInputs forwards cursor blinks and other non-key messages to the focused input.
func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.custom.Focused():
		m.custom, cmd = m.custom.Update(msg)
	case m.titleInput.Focused():
		m.titleInput, cmd = m.titleInput.Update(msg)
	case m.keyInput.Focused():
		m.keyInput, cmd = m.keyInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgAdvance:
		data := msg.data.(advanceData)
		if m.wiz.Step().Name() == data.from && m.wiz.Advance() {
			m.syncOptions()
		}
		return m, nil

	case MsgProgressUpdate:
		data := msg.data.(progressData)
		if data.gen == m.generation {
			m.progress = data.update
		}
		return m, waitForGeneration(data.gen)

	case MsgGenerationDone:
		data := msg.data.(generationData)
		if data.gen == m.generation {
			m.generation = nil
		}
		if !m.wiz.Finish(data.gen.job, data.result, data.err) {
			return m, nil
		}
		if m.wiz.SettingsOpen() {
			m.hasKey = false
		}
		if _, ok := m.wiz.Step().(wizard.ShowingResult); ok {
			m.enterResult()
		} else {
			m.syncOptions()
		}
		return m, nil

	case MsgCredentialStatus:
		data := msg.data.(credentialData)
		if data.err != nil {
			m.status = "Credential check failed: " + data.err.Error()
			return m, nil
		}
		m.hasKey = data.ok
		return m, nil

	case MsgConnectionTested:
		result := msg.data.(services.ConnectionResult)
		m.testing = false
		m.connection = &result
		return m, nil

	case MsgExported:
		data := msg.data.(exportData)
		m.exporting = false
		if data.err != nil {
			m.status = "Could not generate download image. Please try again."
			m.logger.Error("export failed", "error", data.err)
			return m, nil
		}
		m.status = "Saved " + data.path
		return m, nil

	case MsgCopied:
		if err, _ := msg.data.(error); err != nil {
			m.status = fmt.Sprintf("Copy failed: %v", err)
		} else {
			m.status = "Copied title"
		}
		return m, nil

	case MsgBrowserOpened:
		data := msg.data.(browserData)
		if data.err != nil {
			m.status = fmt.Sprintf("Open %s manually (%v)", data.url, data.err)
		}
		return m, nil
	}
	return m, nil
}

// syncOptions rebuilds the option list for the current picking step.
func (m *Model) syncOptions() {
	kind, ok := wizard.PickKind(m.wiz.Step())
	if !ok {
		return
	}

	step := m.wiz.Step().Name()
	stepChanged := step != m.listStep
	m.listStep = step

	opts := m.wiz.Options()
	items := make([]list.Item, 0, len(opts)+1)
	if cur := m.wiz.Selection().Slot(kind); cur != nil && cur.IsCustom() {
		items = append(items, optionItem{option: *cur, selected: true})
	}
	for _, opt := range opts {
		items = append(items, optionItem{option: opt, selected: m.wiz.Selected(opt)})
	}

	idx := m.options.Index()
	m.options.SetItems(items)
	if stepChanged {
		idx = 0
	}
	if idx >= len(items) {
		idx = len(items) - 1
	}
	m.options.Select(max(idx, 0))

	m.custom.SetValue(m.wiz.CustomInput())
	m.custom.Blur()
	switch m.wiz.Step().(type) {
	case wizard.PickDestination:
		m.custom.Placeholder = "Type a custom city..."
	case wizard.PickView:
		m.custom.Placeholder = "Type a custom view..."
	}
}

func (m *Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.custom.Focused() {
		return m.handleCustomKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.settings):
		m.openSettings()
		return m, nil
	case key.Matches(msg, m.keys.back):
		if m.wiz.Back() {
			m.syncOptions()
		}
		return m, nil
	case key.Matches(msg, m.keys.aspect):
		m.wiz.CycleAspectRatio()
		return m, nil
	case key.Matches(msg, m.keys.generate):
		return m, m.startGeneration()
	case key.Matches(msg, m.keys.custom):
		if wizard.AcceptsCustom(m.wiz.Step()) {
			return m, m.custom.Focus()
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.options.SelectedItem().(optionItem)
		if !ok {
			return m, nil
		}
		return m, m.pick(func() (bool, error) { return m.wiz.Select(item.option) })
	}

	var cmd tea.Cmd
	m.options, cmd = m.options.Update(msg)
	return m, cmd
}

func (m *Model) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.custom.Blur()
		return m, nil
	case tea.KeyEnter:
		m.wiz.SetCustomInput(m.custom.Value())
		return m, m.pick(m.wiz.SubmitCustom)
	}

	var cmd tea.Cmd
	m.custom, cmd = m.custom.Update(msg)
	m.wiz.SetCustomInput(m.custom.Value())
	return m, cmd
}

// pick applies a selection and schedules the delayed advance when the controller asks for one.
func (m *Model) pick(selectFn func() (bool, error)) tea.Cmd {
	from := m.wiz.Step().Name()
	advance, err := selectFn()
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.status = ""
	m.syncOptions()
	if !advance {
		return nil
	}
	return tea.Tick(m.opts.AdvanceDelay, func(time.Time) tea.Msg { return advanceMsg(from) })
}

func (m *Model) startGeneration() tea.Cmd {
	if !m.wiz.CanGenerate() {
		return nil
	}

	job, err := m.wiz.Begin(m.ctx)
	if err != nil {
		m.logger.Warn("generation not started", "error", err)
		if m.wiz.SettingsOpen() {
			m.hasKey = false
			m.openSettings()
		}
		return nil
	}

	gen := &generation{
		job:      job,
		progress: make(chan tasks.ProgressUpdate, 8),
		done:     make(chan Msg, 1),
	}
	m.generation = gen
	m.progress = tasks.ProgressUpdate{Message: "Tuning in..."}
	m.status = ""

	go func() {
		result, err := m.wiz.Execute(m.ctx, job, gen.progress)
		gen.done <- generationDoneMsg(gen, result, err)
	}()

	return tea.Batch(m.spinner.Tick, waitForGeneration(gen))
}

// waitForGeneration delivers the next progress update, or the outcome once the job ends.
func waitForGeneration(gen *generation) tea.Cmd {
	return func() tea.Msg {
		select {
		case done := <-gen.done:
			return done
		case update := <-gen.progress:
			return progressUpdateMsg(gen, update)
		}
	}
}

func (m *Model) refreshCredential() tea.Cmd {
	return func() tea.Msg {
		ok, err := m.wiz.RefreshCredential(m.ctx)
		return credentialStatusMsg(ok, err)
	}
}

func (m *Model) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		return browserOpenedMsg(url, m.opts.OpenURL(url))
	}
}

// View renders the UI based on the current step.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if m.wiz.SettingsOpen() {
		b.WriteString(m.renderSettings())
		return b.String()
	}

	if msg := m.wiz.Error(); msg != "" {
		b.WriteString(m.renderErrorBanner(msg))
		b.WriteString("\n\n")
	}

	switch step := m.wiz.Step().(type) {
	case wizard.PickDestination, wizard.PickView, wizard.PickMood:
		b.WriteString(m.renderPick())
	case wizard.Generating:
		b.WriteString(m.renderGenerating(step))
	case wizard.ShowingResult:
		b.WriteString(m.renderResult(step))
	}

	if m.status != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.warn.Render(m.status))
	}
	return b.String()
}

func (m *Model) renderHeader() string {
	brand := styles.active.Render("♪ E-MusicVibe")
	state := styles.warn.Render("○ Setup Required")
	if m.hasKey {
		state = styles.ok.Render("● Engine Connected")
	}
	return fmt.Sprintf("%s   %s", brand, state)
}

func (m *Model) renderErrorBanner(msg string) string {
	return styles.banner.Render(fmt.Sprintf("Transmission Error\n%s\n\npress s to open settings", msg))
}

// renderStepIndicator shows Dest ─ View ─ Mood with the current step highlighted.
func renderStepIndicator(step wizard.Step) string {
	current := wizard.StepNumber(step)
	labels := []string{"Dest", "View", "Mood"}
	parts := make([]string, len(labels))
	for i, label := range labels {
		n := i + 1
		switch {
		case n == current:
			parts[i] = styles.active.Render(fmt.Sprintf("● %d %s", n, label))
		case n < current:
			parts[i] = styles.ok.Render(fmt.Sprintf("✓ %d %s", n, label))
		default:
			parts[i] = styles.muted.Render(fmt.Sprintf("○ %d %s", n, label))
		}
	}
	return strings.Join(parts, styles.muted.Render(" ─ "))
}

func (m *Model) renderPick() string {
	step := m.wiz.Step()
	var b strings.Builder

	b.WriteString(renderStepIndicator(step))
	b.WriteString("\n\n")
	b.WriteString(styles.title.Render(wizard.Headline(step)))
	b.WriteString("\n")
	b.WriteString(m.options.View())
	b.WriteString("\n")

	if wizard.AcceptsCustom(step) {
		b.WriteString("\n")
		b.WriteString(m.custom.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.muted.Render("Aspect ratio: "))
	b.WriteString(styles.active.Render(string(m.wiz.Selection().AspectRatio)))
	b.WriteString("\n")

	bindings := []key.Binding{m.keys.enter}
	if wizard.AcceptsCustom(step) {
		bindings = append(bindings, m.keys.custom)
	}
	bindings = append(bindings, m.keys.aspect)
	if m.wiz.CanGenerate() {
		b.WriteString("\n")
		b.WriteString(styles.ok.Render("▶ Start Vibe Mapping (g)"))
		b.WriteString("\n")
		bindings = append(bindings, m.keys.generate)
	}
	if wizard.StepNumber(step) > 1 {
		bindings = append(bindings, m.keys.back)
	}
	bindings = append(bindings, m.keys.settings, m.keys.quit)

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}

func (m *Model) renderGenerating(step wizard.Generating) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(wizard.Headline(step)))
	b.WriteString("\n")
	b.WriteString(styles.help.Render(fmt.Sprintf("Gemini 3 Pro Image Engine • %s • %s", step.Selection.AspectRatio, step.Selection.Summary())))
	b.WriteString("\n\n")

	phase := m.progress.Phase.String()
	if m.progress.Total > 0 {
		phase = fmt.Sprintf("%s (%d/%d)", phase, m.progress.Step, m.progress.Total)
	}
	fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), m.progress.Message)
	if m.progress.Message != "Tuning in..." {
		b.WriteString(styles.muted.Render(phase))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}
