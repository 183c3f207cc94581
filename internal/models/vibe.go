package models

import (
	"fmt"
	"strings"
)

// OptionKind names the selection slot an option belongs to.
type OptionKind string

const (
	KindDestination OptionKind = "destination"
	KindView        OptionKind = "view"
	KindMood        OptionKind = "mood"
)

// Kinds lists option kinds in wizard order.
var Kinds = []OptionKind{KindDestination, KindView, KindMood}

// VibeOption is a selectable destination, view or mood. Options are immutable once created.
type VibeOption struct {
	ID       string   `json:"id" toml:"id"`
	Label    string   `json:"label" toml:"label"`
	Keywords []string `json:"keywords" toml:"keywords"`
	Image    string   `json:"image" toml:"image"`
}

// IsCustom reports whether the option was typed in by the user.
func (o VibeOption) IsCustom() bool {
	return strings.HasPrefix(o.ID, CustomIDPrefix)
}

// CustomIDPrefix marks options synthesized from free-text input.
const CustomIDPrefix = "custom-"

// AspectRatio is the thumbnail shape requested from the image model.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "9:16"
)

// DefaultAspectRatio is used for new and reset selections.
const DefaultAspectRatio = AspectLandscape

// AspectRatios lists the supported ratios in display order.
var AspectRatios = []AspectRatio{AspectLandscape, AspectSquare, AspectPortrait}

// ParseAspectRatio validates s against the supported ratios.
func ParseAspectRatio(s string) (AspectRatio, error) {
	for _, ar := range AspectRatios {
		if string(ar) == strings.TrimSpace(s) {
			return ar, nil
		}
	}
	return "", fmt.Errorf("unsupported aspect ratio %q (want one of 16:9, 1:1, 9:16)", s)
}

// Next cycles to the following ratio, wrapping around.
func (a AspectRatio) Next() AspectRatio {
	for i, ar := range AspectRatios {
		if ar == a {
			return AspectRatios[(i+1)%len(AspectRatios)]
		}
	}
	return DefaultAspectRatio
}

// Selection accumulates the user's choice across the three picking steps.
type Selection struct {
	Destination *VibeOption `json:"destination"`
	View        *VibeOption `json:"view"`
	Mood        *VibeOption `json:"mood"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
}

// NewSelection returns an empty selection with the default aspect ratio.
func NewSelection() Selection {
	return Selection{AspectRatio: DefaultAspectRatio}
}

// Slot returns the option stored for kind, or nil.
func (s Selection) Slot(kind OptionKind) *VibeOption {
	switch kind {
	case KindDestination:
		return s.Destination
	case KindView:
		return s.View
	case KindMood:
		return s.Mood
	}
	return nil
}

// With returns a copy of s with opt stored under kind.
func (s Selection) With(kind OptionKind, opt VibeOption) Selection {
	switch kind {
	case KindDestination:
		s.Destination = &opt
	case KindView:
		s.View = &opt
	case KindMood:
		s.Mood = &opt
	}
	return s
}

// Complete converts s into a [CompleteSelection] when all three slots are filled.
func (s Selection) Complete() (CompleteSelection, bool) {
	if s.Destination == nil || s.View == nil || s.Mood == nil {
		return CompleteSelection{}, false
	}

	ar := s.AspectRatio
	if ar == "" {
		ar = DefaultAspectRatio
	}

	return CompleteSelection{
		Destination: *s.Destination,
		View:        *s.View,
		Mood:        *s.Mood,
		AspectRatio: ar,
	}, true
}

// CompleteSelection is a selection whose destination, view and mood are all present.
type CompleteSelection struct {
	Destination VibeOption  `json:"destination"`
	View        VibeOption  `json:"view"`
	Mood        VibeOption  `json:"mood"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
}

// Summary is a one-line human description, e.g. "Rooftop in Paris · Smooth Jazz".
func (c CompleteSelection) Summary() string {
	return fmt.Sprintf("%s in %s · %s", c.View.Label, c.Destination.Label, c.Mood.Label)
}

// GeneratedResult is produced atomically by one generation batch.
//
// Titles and Colors normally hold three entries but may be shorter when the model answers with less.
type GeneratedResult struct {
	Titles       []string `json:"titles"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Colors       []string `json:"colors"`
	PromptUsed   string   `json:"prompt_used"`
}

// Title returns the i-th title, or "" when absent.
func (r GeneratedResult) Title(i int) string {
	if i < 0 || i >= len(r.Titles) {
		return ""
	}
	return r.Titles[i]
}

// Color returns the i-th palette entry, or fallback when absent or blank.
func (r GeneratedResult) Color(i int, fallback string) string {
	if i < 0 || i >= len(r.Colors) || strings.TrimSpace(r.Colors[i]) == "" {
		return fallback
	}
	return r.Colors[i]
}
