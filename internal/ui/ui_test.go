package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emusicvibe/internal/cover"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/services"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/desertthunder/emusicvibe/internal/tasks"
	tu "github.com/desertthunder/emusicvibe/internal/testing"
	"github.com/desertthunder/emusicvibe/internal/wizard"
)

type fakeExporter struct {
	mu    sync.Mutex
	calls []cover.Options
	err   error
}

func (e *fakeExporter) ExportDataURI(dataURI string, opts cover.Options, dir string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, opts)
	if e.err != nil {
		return "", e.err
	}
	return dir + "/" + cover.Filename(opts.Title), nil
}

type fakeHistory struct {
	mu       sync.Mutex
	created  []*models.Vibe
	exported map[string]string
}

func (h *fakeHistory) Create(v *models.Vibe) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	v.SetID("vibe-1")
	h.created = append(h.created, v)
	return nil
}

func (h *fakeHistory) MarkExported(id, title, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exported == nil {
		h.exported = map[string]string{}
	}
	h.exported[id] = title + "|" + path
	return nil
}

type harness struct {
	m        *Model
	gen      *tu.FakeGenerator
	creds    *credentials.Manager
	exporter *fakeExporter
	history  *fakeHistory
	copied   []string
	opened   []string
}

func newHarness(t *testing.T, kv ...string) *harness {
	t.Helper()
	logger := shared.NewLogger(io.Discard)
	h := &harness{
		gen:      &tu.FakeGenerator{},
		creds:    tu.NewManager(tu.NewMemoryStore(kv...), nil),
		exporter: &fakeExporter{},
		history:  &fakeHistory{},
	}
	wiz := wizard.New(wizard.Options{
		Engine:      tasks.NewVibeEngine(h.gen, logger),
		Credentials: h.creds,
		Logger:      logger,
	})
	h.m = NewModel(context.Background(), Options{
		Wizard:    wiz,
		Keys:      h.creds,
		Generator: h.gen,
		Exporter:  h.exporter,
		History:   h.history,
		ExportDir: "out",
		Watermark: true,
		OpenURL: func(url string) error {
			h.opened = append(h.opened, url)
			return nil
		},
		Clipboard: func(text string) error {
			h.copied = append(h.copied, text)
			return nil
		},
		Logger: logger,
	})
	for _, in := range []*textinput.Model{&h.m.custom, &h.m.titleInput, &h.m.keyInput} {
		in.Cursor.SetMode(cursor.CursorStatic)
	}
	h.m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	h.run(h.m.Init())
	return h
}

func withKey(t *testing.T) *harness {
	return newHarness(t, credentials.StoreKey, "AIza-ui-key")
}

// run executes cmd synchronously and feeds its message back into the model.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		if _, batch := msg.(tea.BatchMsg); batch {
			return
		}
		_, next := h.m.Update(msg)
		h.run(next)
	}
}

func (h *harness) press(keys ...tea.KeyMsg) {
	for _, k := range keys {
		_, cmd := h.m.Update(k)
		h.run(cmd)
	}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// generate presses g and pumps the generation until it finishes.
func (h *harness) generate(t *testing.T) {
	t.Helper()
	h.m.Update(runes("g"))
	for h.m.generation != nil {
		h.m.Update(waitForGeneration(h.m.generation)())
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func (h *harness) pickAll() {
	h.press(enter, enter, enter)
}

func TestModel_Picking(t *testing.T) {
	t.Run("enter selects and advances", func(t *testing.T) {
		h := withKey(t)
		h.press(enter)
		if _, ok := h.m.wiz.Step().(wizard.PickView); !ok {
			t.Fatalf("step = %s, want view", h.m.wiz.Step().Name())
		}
		if h.m.wiz.Selection().Destination.ID != "paris" {
			t.Errorf("destination = %+v", h.m.wiz.Selection().Destination)
		}

		h.press(enter, enter)
		if _, ok := h.m.wiz.Step().(wizard.PickMood); !ok {
			t.Fatalf("step = %s, want mood", h.m.wiz.Step().Name())
		}
		if !strings.Contains(h.m.View(), "Start Vibe Mapping") {
			t.Error("generate action not offered with a complete selection")
		}
	})

	t.Run("advance scheduled by another step is ignored", func(t *testing.T) {
		h := withKey(t)
		h.m.wiz.Select(h.m.wiz.Options()[0])
		h.m.Update(advanceMsg("view"))
		if _, ok := h.m.wiz.Step().(wizard.PickDestination); !ok {
			t.Errorf("step = %s, want destination", h.m.wiz.Step().Name())
		}
	})

	t.Run("custom destination", func(t *testing.T) {
		h := withKey(t)
		h.press(runes("c"))
		if !h.m.custom.Focused() {
			t.Fatal("custom input not focused")
		}
		h.typeText("Oslo")
		h.press(enter)

		dest := h.m.wiz.Selection().Destination
		if dest == nil || dest.Label != "Oslo" || !dest.IsCustom() {
			t.Fatalf("destination = %+v", dest)
		}

		h.press(esc)
		item, ok := h.m.options.Items()[0].(optionItem)
		if !ok || item.option.Label != "Oslo" || !item.selected {
			t.Errorf("first item = %+v", h.m.options.Items()[0])
		}
	})

	t.Run("blank custom entry is rejected", func(t *testing.T) {
		h := withKey(t)
		h.press(runes("c"), enter)
		if h.m.wiz.Selection().Destination != nil {
			t.Error("blank entry selected a destination")
		}
		if h.m.status == "" {
			t.Error("expected a status message")
		}
	})

	t.Run("aspect toggle", func(t *testing.T) {
		h := withKey(t)
		h.press(runes("a"))
		if got := h.m.wiz.Selection().AspectRatio; got != models.AspectSquare {
			t.Errorf("aspect = %s", got)
		}
		if !strings.Contains(h.m.View(), "1:1") {
			t.Error("view does not show the aspect ratio")
		}
	})

	t.Run("back", func(t *testing.T) {
		h := withKey(t)
		h.press(enter, esc)
		if _, ok := h.m.wiz.Step().(wizard.PickDestination); !ok {
			t.Errorf("step = %s, want destination", h.m.wiz.Step().Name())
		}
	})
}

func TestModel_Generation(t *testing.T) {
	t.Run("success shows result and saves history", func(t *testing.T) {
		h := withKey(t)
		h.pickAll()
		h.generate(t)

		if _, ok := h.m.wiz.Step().(wizard.ShowingResult); !ok {
			t.Fatalf("step = %s, want result", h.m.wiz.Step().Name())
		}
		if got := h.m.currentTitle(); got != "Paris Nights" {
			t.Errorf("title = %q", got)
		}
		if len(h.history.created) != 1 {
			t.Errorf("history has %d vibes", len(h.history.created))
		}
		view := h.m.View()
		for _, want := range []string{"Paris Nights", "#112233", "Show Watermark"} {
			if !strings.Contains(view, want) {
				t.Errorf("result view missing %q", want)
			}
		}
	})

	t.Run("missing key opens settings", func(t *testing.T) {
		h := newHarness(t)
		h.pickAll()
		h.m.Update(runes("g"))

		if !h.m.wiz.SettingsOpen() {
			t.Fatal("settings not opened")
		}
		if h.gen.Calls("palette") != 0 {
			t.Error("generation ran without a key")
		}
		if !strings.Contains(h.m.View(), "Engine Configuration") {
			t.Error("settings modal not rendered")
		}
	})

	t.Run("failure shows banner", func(t *testing.T) {
		h := withKey(t)
		h.gen.PaletteErr = shared.ErrAPIRequest
		h.pickAll()
		h.generate(t)

		if _, ok := h.m.wiz.Step().(wizard.PickMood); !ok {
			t.Fatalf("step = %s, want mood", h.m.wiz.Step().Name())
		}
		view := h.m.View()
		if !strings.Contains(view, "Transmission Error") || !strings.Contains(view, wizard.MsgGenerationFailed) {
			t.Errorf("view missing error banner:\n%s", view)
		}
	})

	t.Run("rejected key reopens settings", func(t *testing.T) {
		h := withKey(t)
		h.gen.TitlesErr = shared.ErrCredentialInvalid
		h.pickAll()
		h.generate(t)

		if !h.m.wiz.SettingsOpen() {
			t.Error("settings not opened")
		}
		if h.m.hasKey {
			t.Error("header still reports a connected engine")
		}
	})

	t.Run("result after reset is dropped", func(t *testing.T) {
		h := withKey(t)
		h.gen.Gate = make(chan struct{})
		h.pickAll()
		h.m.Update(runes("g"))
		gen := h.m.generation
		if gen == nil {
			t.Fatal("generation not started")
		}

		h.m.wiz.Reset()
		close(h.gen.Gate)
		for {
			msg := waitForGeneration(gen)()
			h.m.Update(msg)
			if msg.(Msg).kind == MsgGenerationDone {
				break
			}
		}

		if _, ok := h.m.wiz.Step().(wizard.PickDestination); !ok {
			t.Errorf("step = %s, want destination", h.m.wiz.Step().Name())
		}
		if len(h.history.created) != 0 {
			t.Error("stale result was saved")
		}
	})
}

func TestModel_Result(t *testing.T) {
	setup := func(t *testing.T) *harness {
		h := withKey(t)
		h.pickAll()
		h.generate(t)
		return h
	}

	t.Run("cycle suggestions", func(t *testing.T) {
		h := setup(t)
		h.press(runes("j"))
		if got := h.m.currentTitle(); got != "Ticketless Travel [Ticketless Travel]" {
			t.Errorf("title = %q", got)
		}
		h.press(runes("k"), runes("k"))
		if got := h.m.currentTitle(); got != "Focus [Focus BGM]" {
			t.Errorf("title after wrap = %q", got)
		}
	})

	t.Run("edit title", func(t *testing.T) {
		h := setup(t)
		h.press(runes("e"))
		if !h.m.titleInput.Focused() {
			t.Fatal("title input not focused")
		}
		h.press(tea.KeyMsg{Type: tea.KeyEnd})
		h.typeText("!")
		h.press(enter)
		if got := h.m.currentTitle(); got != "Paris Nights!" {
			t.Errorf("title = %q", got)
		}
	})

	t.Run("export uses title and watermark", func(t *testing.T) {
		h := setup(t)
		h.press(runes("w"), runes("x"))

		if len(h.exporter.calls) != 1 {
			t.Fatalf("exports = %d", len(h.exporter.calls))
		}
		opts := h.exporter.calls[0]
		if opts.Title != "Paris Nights" || opts.Watermark {
			t.Errorf("export options = %+v", opts)
		}
		if got := h.history.exported["vibe-1"]; got != "Paris Nights|out/EMusicVibe-paris-nights.jpg" {
			t.Errorf("history export = %q", got)
		}
		if !strings.Contains(h.m.status, "EMusicVibe-paris-nights.jpg") {
			t.Errorf("status = %q", h.m.status)
		}
	})

	t.Run("export failure", func(t *testing.T) {
		h := setup(t)
		h.exporter.err = errors.New("disk full")
		h.press(runes("x"))
		if !strings.Contains(h.m.status, "Could not generate download image") {
			t.Errorf("status = %q", h.m.status)
		}
		if h.history.exported != nil {
			t.Error("failed export was recorded")
		}
	})

	t.Run("copy title", func(t *testing.T) {
		h := setup(t)
		h.press(runes("y"))
		if len(h.copied) != 1 || h.copied[0] != "Paris Nights" {
			t.Errorf("copied = %v", h.copied)
		}
	})

	t.Run("new vibe", func(t *testing.T) {
		h := setup(t)
		h.press(runes("n"))
		if _, ok := h.m.wiz.Step().(wizard.PickDestination); !ok {
			t.Errorf("step = %s", h.m.wiz.Step().Name())
		}
		if h.m.wiz.Selection().Destination != nil {
			t.Error("selection survived new vibe")
		}
	})
}

func TestModel_Settings(t *testing.T) {
	t.Run("enter key", func(t *testing.T) {
		h := newHarness(t)
		h.pickAll()
		h.m.Update(runes("g"))

		h.press(runes("k"))
		if !h.m.keyInput.Focused() {
			t.Fatal("key input not focused")
		}
		h.typeText("AIza-typed")
		h.press(enter)

		if !h.m.hasKey {
			t.Error("hasKey = false after saving")
		}
		if h.m.wiz.Error() != "" {
			t.Errorf("error = %q", h.m.wiz.Error())
		}
		if strings.Contains(h.m.View(), "AIza-typed") {
			t.Error("key echoed in the view")
		}

		h.press(esc)
		if h.m.wiz.SettingsOpen() {
			t.Fatal("settings still open")
		}
		h.generate(t)
		if _, ok := h.m.wiz.Step().(wizard.ShowingResult); !ok {
			t.Errorf("step = %s, want result", h.m.wiz.Step().Name())
		}
	})

	t.Run("links", func(t *testing.T) {
		h := withKey(t)
		h.press(runes("s"), runes("o"), runes("b"))
		want := []string{shared.KeyPageURL, shared.BillingDocsURL}
		if strings.Join(h.opened, ",") != strings.Join(want, ",") {
			t.Errorf("opened = %v", h.opened)
		}
	})

	t.Run("test connection", func(t *testing.T) {
		h := withKey(t)
		h.gen.Connection = &services.ConnectionResult{Success: true, Message: "Connection stable. Jazz frequencies are clear."}
		h.press(runes("s"))
		h.m.Update(h.m.testConnection()())

		if !strings.Contains(h.m.View(), "Jazz frequencies are clear") {
			t.Error("connection result not shown")
		}
		if creds := h.gen.Credentials(); len(creds) != 1 || creds[0].APIKey() != "AIza-ui-key" {
			t.Errorf("probe credentials = %v", creds)
		}
	})
}

func TestSwatch(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#FFFFFF", "#ffffff"},
		{"1e293b", "#1e293b"},
		{"teal", "teal"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Swatch(tt.in); !strings.Contains(got, tt.want) {
				t.Errorf("Swatch(%q) = %q, want it to contain %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderStepIndicator(t *testing.T) {
	out := renderStepIndicator(wizard.PickView{})
	for _, want := range []string{"Dest", "View", "Mood"} {
		if !strings.Contains(out, want) {
			t.Errorf("indicator missing %q: %s", want, out)
		}
	}
}
