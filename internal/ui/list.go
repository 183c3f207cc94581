package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/emusicvibe/internal/models"
)

var _ list.Item = optionItem{}

// optionItem wraps [models.VibeOption] to implement [list.Item].
type optionItem struct {
	option   models.VibeOption
	selected bool
}

func (i optionItem) FilterValue() string { return i.option.Label }
func (i optionItem) Title() string {
	if i.selected {
		return "✓ " + i.option.Label
	}
	return i.option.Label
}
func (i optionItem) Description() string {
	if i.option.IsCustom() {
		return "custom"
	}
	return strings.Join(i.option.Keywords, " • ")
}

func newOptionList() list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowTitle(false)
	return l
}
