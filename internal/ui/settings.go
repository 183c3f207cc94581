package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/services"
	"github.com/desertthunder/emusicvibe/internal/shared"
)

func (m *Model) openSettings() {
	m.wiz.OpenSettings()
	m.connection = nil
	m.keyInput.SetValue("")
	m.keyInput.Blur()
}

func (m *Model) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.keyInput.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			m.keyInput.Blur()
			return m, nil
		case tea.KeyEnter:
			return m, m.saveKey()
		}
		var cmd tea.Cmd
		m.keyInput, cmd = m.keyInput.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.back):
		m.wiz.CloseSettings()
		m.syncOptions()
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enterKey):
		if m.opts.Keys != nil {
			return m, m.keyInput.Focus()
		}
	case key.Matches(msg, m.keys.openPage):
		return m, m.openURL(shared.KeyPageURL)
	case key.Matches(msg, m.keys.billing):
		return m, m.openURL(shared.BillingDocsURL)
	case key.Matches(msg, m.keys.test):
		if m.testing {
			return m, nil
		}
		m.testing = true
		m.connection = nil
		return m, tea.Batch(m.spinner.Tick, m.testConnection())
	}
	return m, nil
}

func (m *Model) saveKey() tea.Cmd {
	if err := m.opts.Keys.SaveKey(m.keyInput.Value()); err != nil {
		m.status = err.Error()
		return nil
	}
	m.keyInput.SetValue("")
	m.keyInput.Blur()
	m.status = "API key saved"
	return m.refreshCredential()
}

func (m *Model) testConnection() tea.Cmd {
	gen, keys, ctx := m.opts.Generator, m.opts.Keys, m.ctx
	return func() tea.Msg {
		if gen == nil {
			return connectionTestedMsg(services.ConnectionResult{Message: "Connection failed: generator not configured"})
		}
		var cred credentials.Credential
		if keys != nil {
			if c, err := keys.Credential(ctx); err == nil {
				cred = c
			}
		}
		return connectionTestedMsg(gen.TestConnection(ctx, cred))
	}
}

func (m *Model) renderSettings() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Engine Configuration"))
	b.WriteString("\n")
	b.WriteString("This application uses Gemini 3 Pro for art generation,\nwhich requires a paid API key selection.\n")
	b.WriteString(styles.muted.Render("Billing Docs: " + shared.BillingDocsURL))
	b.WriteString("\n\n")

	if m.hasKey {
		b.WriteString(styles.ok.Render("● Engine Connected"))
	} else {
		b.WriteString(styles.warn.Render("○ Setup Required"))
	}
	if m.opts.Keys != nil {
		b.WriteString(styles.muted.Render("  (source: " + m.opts.Keys.Source() + ")"))
	}
	b.WriteString("\n\n")

	if m.keyInput.Focused() {
		b.WriteString("Gemini API key\n")
		b.WriteString(m.keyInput.View())
		b.WriteString("\n")
		b.WriteString(styles.help.Render("enter to save • esc to cancel"))
		b.WriteString("\n\n")
	}

	switch {
	case m.testing:
		b.WriteString(m.spinner.View() + " VERIFYING FREQUENCY...")
		b.WriteString("\n\n")
	case m.connection != nil && m.connection.Success:
		b.WriteString(styles.ok.Render("✓ " + m.connection.Message))
		b.WriteString("\n\n")
	case m.connection != nil:
		b.WriteString(styles.err.Render("✗ " + m.connection.Message))
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.enterKey, m.keys.openPage, m.keys.test, m.keys.billing, m.keys.back,
	}))

	return styles.modal.Render(b.String())
}
