package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/emusicvibe/internal/cover"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/wizard"
)

// enterResult prepares the result screen for a finished generation and records it in history.
func (m *Model) enterResult() {
	step, ok := m.wiz.Step().(wizard.ShowingResult)
	if !ok {
		return
	}

	m.titleIdx = 0
	m.titleInput.SetValue(step.Result.Title(0))
	m.titleInput.Blur()
	m.watermark = m.opts.Watermark
	m.exporting = false
	m.status = ""

	m.vibe = models.NewVibe(step.Selection, step.Result)
	m.vibe.SetSelectedTitle(step.Result.Title(0))
	if m.opts.History != nil {
		if err := m.opts.History.Create(m.vibe); err != nil {
			m.logger.Warn("failed to save vibe to history", "error", err)
		}
	}
}

// currentTitle is the title that export and copy use.
func (m *Model) currentTitle() string {
	return m.titleInput.Value()
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step, ok := m.wiz.Step().(wizard.ShowingResult)
	if !ok {
		return m, nil
	}

	if m.titleInput.Focused() {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.titleInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.titleInput, cmd = m.titleInput.Update(msg)
		return m, cmd
	}

	titles := step.Result.Titles
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.down):
		if len(titles) > 0 {
			m.titleIdx = (m.titleIdx + 1) % len(titles)
			m.titleInput.SetValue(titles[m.titleIdx])
		}
	case key.Matches(msg, m.keys.up):
		if len(titles) > 0 {
			m.titleIdx = (m.titleIdx - 1 + len(titles)) % len(titles)
			m.titleInput.SetValue(titles[m.titleIdx])
		}
	case key.Matches(msg, m.keys.edit):
		return m, m.titleInput.Focus()
	case key.Matches(msg, m.keys.watermark):
		m.watermark = !m.watermark
	case key.Matches(msg, m.keys.export):
		return m, m.export(step.Result)
	case key.Matches(msg, m.keys.copy):
		return m, m.copyTitle()
	case key.Matches(msg, m.keys.restart):
		m.wiz.Reset()
		m.vibe = nil
		m.status = ""
		m.syncOptions()
	case key.Matches(msg, m.keys.settings):
		m.openSettings()
	}
	return m, nil
}

func (m *Model) export(result models.GeneratedResult) tea.Cmd {
	if m.exporting {
		return nil
	}
	if m.opts.Exporter == nil {
		m.status = "Export is not configured"
		return nil
	}
	m.exporting = true
	m.status = "Rendering cover..."

	exporter, history, dir := m.opts.Exporter, m.opts.History, m.opts.ExportDir
	opts := cover.Options{
		Title:     m.currentTitle(),
		Colors:    result.Colors,
		Watermark: m.watermark,
		Quality:   m.opts.Quality,
	}
	var vibeID string
	if m.vibe != nil {
		vibeID = m.vibe.ID()
	}
	logger := m.logger

	return func() tea.Msg {
		path, err := exporter.ExportDataURI(result.ThumbnailURL, opts, dir)
		if err != nil {
			return exportedMsg("", err)
		}
		if history != nil && vibeID != "" {
			if err := history.MarkExported(vibeID, opts.Title, path); err != nil {
				logger.Warn("failed to record export", "id", vibeID, "error", err)
			}
		}
		return exportedMsg(path, nil)
	}
}

func (m *Model) copyTitle() tea.Cmd {
	title := m.currentTitle()
	write := m.opts.Clipboard
	return func() tea.Msg {
		return copiedMsg(write(title))
	}
}

func (m *Model) renderResult(step wizard.ShowingResult) string {
	res := step.Result
	var b strings.Builder

	b.WriteString(styles.title.Render("✓ Your Vibe"))
	b.WriteString("\n")
	b.WriteString(styles.muted.Render(fmt.Sprintf("%s • %s", step.Selection.Summary(), step.Selection.AspectRatio)))
	b.WriteString("\n\n")

	titleColor := lipgloss.Color(res.Color(2, "#ffffff"))
	preview := lipgloss.NewStyle().Bold(true).Foreground(titleColor).Render(m.currentTitle())
	b.WriteString(preview)
	b.WriteString("\n")
	b.WriteString(styles.warn.Render("E-MusicVibe"))
	if m.watermark {
		b.WriteString(styles.muted.Render("   AI GENERATED"))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.muted.Render("CUSTOMIZE TITLE"))
	b.WriteString("\n")
	b.WriteString(m.titleInput.View())
	b.WriteString("\n")
	b.WriteString(styles.help.Render("Or select a suggestion:"))
	b.WriteString("\n")
	for i, t := range res.Titles {
		if t == m.currentTitle() && i == m.titleIdx {
			b.WriteString(styles.active.Render("▸ " + t))
		} else {
			b.WriteString("  " + t)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.muted.Render("COLOR PALETTE"))
	b.WriteString("\n")
	swatches := make([]string, len(res.Colors))
	for i, c := range res.Colors {
		swatches[i] = Swatch(c)
	}
	b.WriteString(strings.Join(swatches, " "))
	b.WriteString("\n")

	if res.PromptUsed != "" {
		width := 72
		if m.width > 8 {
			width = min(m.width-4, 100)
		}
		b.WriteString("\n")
		b.WriteString(styles.muted.Render("PROMPT"))
		b.WriteString("\n")
		b.WriteString(styles.help.Width(width).Render(res.PromptUsed))
		b.WriteString("\n")
	}

	check := "[ ]"
	if m.watermark {
		check = "[x]"
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s Show Watermark", check))
	b.WriteString("\n\n")

	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.down, m.keys.edit, m.keys.watermark, m.keys.export, m.keys.copy, m.keys.restart, m.keys.settings, m.keys.quit,
	}))
	return b.String()
}
