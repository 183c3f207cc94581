// package formatter renders saved vibes to CSV, Markdown and JSON.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
)

// Export formats accepted by [WriteHistoryExport].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// VibeMetadata is the JSON shape of a saved vibe. The thumbnail payload is omitted.
type VibeMetadata struct {
	ID            string    `json:"id"`
	Sequence      int       `json:"sequence"`
	Destination   string    `json:"destination"`
	View          string    `json:"view"`
	Mood          string    `json:"mood"`
	AspectRatio   string    `json:"aspect_ratio"`
	SelectedTitle string    `json:"selected_title"`
	Titles        []string  `json:"titles"`
	Colors        []string  `json:"colors"`
	Prompt        string    `json:"prompt"`
	ExportPath    string    `json:"export_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Metadata converts v for JSON output.
func Metadata(v *models.Vibe) VibeMetadata {
	sel, res := v.Selection(), v.Result()
	return VibeMetadata{
		ID:            v.ID(),
		Sequence:      v.Sequence(),
		Destination:   sel.Destination.Label,
		View:          sel.View.Label,
		Mood:          sel.Mood.Label,
		AspectRatio:   string(sel.AspectRatio),
		SelectedTitle: v.SelectedTitle(),
		Titles:        res.Titles,
		Colors:        res.Colors,
		Prompt:        res.PromptUsed,
		ExportPath:    v.ExportPath(),
		CreatedAt:     v.CreatedAt(),
	}
}

// ToMetadataJSON generates the indented JSON metadata for one vibe.
func ToMetadataJSON(v *models.Vibe) ([]byte, error) {
	return shared.MarshalJSON(Metadata(v), true)
}

// HistoryToCSV renders vibes as CSV with columns: Sequence, ID, Created, Destination, View, Mood, Aspect, Title, Titles, Colors, Export
func HistoryToCSV(vibes []*models.Vibe) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "ID", "Created", "Destination", "View", "Mood", "Aspect", "Title", "Titles", "Colors", "Export"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, v := range vibes {
		sel, res := v.Selection(), v.Result()
		record := []string{
			strconv.Itoa(v.Sequence()),
			v.ID(),
			v.CreatedAt().UTC().Format(time.RFC3339),
			sel.Destination.Label,
			sel.View.Label,
			sel.Mood.Label,
			string(sel.AspectRatio),
			v.SelectedTitle(),
			strings.Join(res.Titles, " | "),
			strings.Join(res.Colors, " "),
			v.ExportPath(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// VibeToMarkdown renders one vibe as a Markdown section with an optional cover image link.
func VibeToMarkdown(v *models.Vibe, imageFilename string) []byte {
	var buf bytes.Buffer
	writeVibeMarkdown(&buf, v, imageFilename, "#")
	return buf.Bytes()
}

func writeVibeMarkdown(buf *bytes.Buffer, v *models.Vibe, imageFilename, heading string) {
	sel, res := v.Selection(), v.Result()

	title := v.SelectedTitle()
	if title == "" {
		title = sel.Summary()
	}
	fmt.Fprintf(buf, "%s %s\n\n", heading, title)

	if imageFilename != "" {
		fmt.Fprintf(buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(buf, "**Scene**: %s\n", sel.Summary())
	fmt.Fprintf(buf, "**Aspect Ratio**: %s\n", sel.AspectRatio)
	fmt.Fprintf(buf, "**Palette**: %s\n", strings.Join(res.Colors, ", "))
	if !v.CreatedAt().IsZero() {
		fmt.Fprintf(buf, "**Created**: %s\n", v.CreatedAt().UTC().Format("2006-01-02 15:04"))
	}
	buf.WriteString("\n")

	if len(res.Titles) > 0 {
		fmt.Fprintf(buf, "%s# Suggested Titles\n\n", heading)
		for i, t := range res.Titles {
			fmt.Fprintf(buf, "%d. %s\n", i+1, t)
		}
		buf.WriteString("\n")
	}

	if res.PromptUsed != "" {
		fmt.Fprintf(buf, "> %s\n\n", res.PromptUsed)
	}
}

// HistoryToMarkdown renders vibes as a single Markdown document, one section per vibe.
func HistoryToMarkdown(vibes []*models.Vibe) []byte {
	var buf bytes.Buffer
	buf.WriteString("# E-MusicVibe History\n\n")
	fmt.Fprintf(&buf, "**Vibes**: %d\n\n", len(vibes))

	for _, v := range vibes {
		image := ""
		if v.ExportPath() != "" {
			image = filepath.Base(v.ExportPath())
		}
		writeVibeMarkdown(&buf, v, image, "##")
	}
	return buf.Bytes()
}

// HistoryToJSON renders vibes as an indented JSON array.
func HistoryToJSON(vibes []*models.Vibe) ([]byte, error) {
	out := make([]VibeMetadata, 0, len(vibes))
	for _, v := range vibes {
		out = append(out, Metadata(v))
	}
	return shared.MarshalJSON(out, true)
}

// WriteHistoryExport writes vibes to path in the given format (csv, markdown or json).
//
// Defaults to JSON when format is empty.
func WriteHistoryExport(vibes []*models.Vibe, format, path string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatCSV:
		data, err = HistoryToCSV(vibes)
	case FormatMarkdown, "md":
		data = HistoryToMarkdown(vibes)
	case FormatJSON, "":
		data, err = HistoryToJSON(vibes)
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", err
	}

	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// SidecarPath is the metadata path for a cover: the cover path with a .json extension.
func SidecarPath(coverPath string) string {
	return strings.TrimSuffix(coverPath, filepath.Ext(coverPath)) + ".json"
}

// WriteSidecar writes the JSON metadata for v next to its exported cover.
func WriteSidecar(v *models.Vibe, coverPath string) (string, error) {
	if coverPath == "" {
		return "", fmt.Errorf("%w: cover path", shared.ErrMissingArgument)
	}

	data, err := ToMetadataJSON(v)
	if err != nil {
		return "", fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	path := SidecarPath(coverPath)
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
