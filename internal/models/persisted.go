package models

import (
	"fmt"
	"strings"
	"time"
)

// Vibe is a saved generation: the selection that produced it plus the [GeneratedResult].
type Vibe struct {
	id            string
	sequence      int
	selection     CompleteSelection
	result        GeneratedResult
	selectedTitle string
	exportPath    string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewVibe creates a Vibe for a finished generation. The ID is assigned on persistence.
func NewVibe(sel CompleteSelection, result GeneratedResult) *Vibe {
	now := time.Now()
	return &Vibe{
		selection:     sel,
		result:        result,
		selectedTitle: result.Title(0),
		createdAt:     now,
		updatedAt:     now,
	}
}

// RestoreVibe rebuilds a Vibe from stored columns.
func RestoreVibe(id string, sequence int, sel CompleteSelection, result GeneratedResult, selectedTitle, exportPath string, createdAt, updatedAt time.Time) *Vibe {
	return &Vibe{
		id:            id,
		sequence:      sequence,
		selection:     sel,
		result:        result,
		selectedTitle: selectedTitle,
		exportPath:    exportPath,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (v *Vibe) ID() string                   { return v.id }
func (v *Vibe) Sequence() int                { return v.sequence }
func (v *Vibe) Selection() CompleteSelection { return v.selection }
func (v *Vibe) Result() GeneratedResult      { return v.result }
func (v *Vibe) SelectedTitle() string        { return v.selectedTitle }
func (v *Vibe) ExportPath() string           { return v.exportPath }
func (v *Vibe) CreatedAt() time.Time         { return v.createdAt }
func (v *Vibe) UpdatedAt() time.Time         { return v.updatedAt }

func (v *Vibe) SetID(id string)           { v.id = id }
func (v *Vibe) SetSequence(seq int)       { v.sequence = seq }
func (v *Vibe) SetUpdatedAt(t time.Time)  { v.updatedAt = t }
func (v *Vibe) SetSelectedTitle(t string) { v.selectedTitle = t }
func (v *Vibe) SetExportPath(path string) { v.exportPath = path }

// Validate checks that the vibe carries a thumbnail and a complete selection.
func (v *Vibe) Validate() error {
	if v.id == "" {
		return fmt.Errorf("vibe id is required")
	}
	if strings.TrimSpace(v.selection.Destination.Label) == "" ||
		strings.TrimSpace(v.selection.View.Label) == "" ||
		strings.TrimSpace(v.selection.Mood.Label) == "" {
		return fmt.Errorf("vibe selection is incomplete")
	}
	if v.result.ThumbnailURL == "" {
		return fmt.Errorf("vibe thumbnail is required")
	}
	if _, err := ParseAspectRatio(string(v.selection.AspectRatio)); err != nil {
		return err
	}
	return nil
}
