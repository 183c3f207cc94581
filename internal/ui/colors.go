package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/lucasb-eyer/go-colorful"
)

var styles = NewPalette("#fcd34d", "#04B575", "#f87171", "#f59e0b", "#64748b")

// Painter colors text with [lipgloss] styles.
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	muted  lipgloss.Style
	active lipgloss.Style
	banner lipgloss.Style
	modal  lipgloss.Style
}

var _ Painter = (*Palette)(nil)

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		muted:  NewStyle(h),
		active: NewBold(t),
		banner: NewStyle(e).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(e)).Padding(0, 1),
		modal:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(t)).Padding(1, 2),
	}
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Swatch renders a palette color as a filled block labelled with its hex value in a readable
// foreground. Unparseable colors render as the raw text.
func Swatch(hex string) string {
	norm, ok := shared.NormalizeHex(hex)
	if !ok {
		return styles.muted.Render(hex)
	}

	c, _ := colorful.Hex(norm)
	fg := lipgloss.Color("#ffffff")
	if _, _, l := c.Hcl(); l > 0.6 {
		fg = lipgloss.Color("#000000")
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(norm)).
		Foreground(fg).
		Padding(0, 2).
		Render(norm)
}
