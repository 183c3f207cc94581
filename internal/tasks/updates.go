package tasks

import (
	"fmt"

	"github.com/desertthunder/emusicvibe/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	GeneratePalette Phase = iota
	GenerateTitles
	GenerateThumbnail
	Assemble
	BatchQueue
	BatchExport
	BatchFailed
)

func (p Phase) String() string {
	switch p {
	case GeneratePalette:
		return "palette"
	case GenerateTitles:
		return "titles"
	case GenerateThumbnail:
		return "thumbnail"
	case Assemble:
		return "assemble"
	case BatchQueue:
		return "batch_queue"
	case BatchExport:
		return "batch_export"
	case BatchFailed:
		return "batch_failed"
	default:
		return ""
	}
}

// generation runs in three visible steps: palette, the concurrent pair, assembly
const generationSteps = 3

func paletteUpdate(mood string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GeneratePalette,
		Step:    1,
		Total:   generationSteps,
		Message: fmt.Sprintf("Analyzing the %s tone...", mood),
	}
}

func titlesUpdate(colors []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateTitles,
		Step:    2,
		Total:   generationSteps,
		Message: "Writing playlist titles...",
		Data:    colors,
	}
}

func thumbnailUpdate(sel models.CompleteSelection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GenerateThumbnail,
		Step:    2,
		Total:   generationSteps,
		Message: fmt.Sprintf("Painting %s (%s)...", sel.Summary(), sel.AspectRatio),
	}
}

func assembleUpdate(result *models.GeneratedResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Assemble,
		Step:    3,
		Total:   generationSteps,
		Message: "Vibe ready.",
		Data:    result,
	}
}

func batchQueueUpdate(step, total int, sel models.CompleteSelection) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchQueue,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Queued %s", sel.Summary()),
	}
}

func batchExportUpdate(step, total int, res BatchItemResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchExport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ %s → %s", res.Title, res.CoverPath),
		Data:    res,
	}
}

func batchFailedUpdate(step, total int, res BatchItemResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✗ %s: %v", res.Selection.Summary(), res.Error),
		Data:    res,
	}
}
