package services

import (
	"fmt"
	"strings"

	"github.com/desertthunder/emusicvibe/internal/models"
)

func palettePrompt(mood string) string {
	return fmt.Sprintf(`Analyze the jazz genre: %q.
Suggest a color palette of 3 colors (Hex codes) for cover art.`, mood)
}

func titlesPrompt(sel models.CompleteSelection) string {
	return fmt.Sprintf(`You are a jazz channel copywriter for a "Ticketless Travel" concept app.
Context:
- Destination: %s
- View: %s
- Mood: %s

Task:
Generate 3 distinct, emotional, and clickable playlist titles (max 25 characters each).
Rules:
- One title MUST include the tag "[Ticketless Travel]".
- One title MUST include the tag "[Focus BGM]".
- The third can be creative.
- Return ONLY the titles in JSON format.`, sel.Destination.Label, sel.View.Label, sel.Mood.Label)
}

// ThumbnailPrompt is the image prompt recorded as promptUsed.
func ThumbnailPrompt(sel models.CompleteSelection, colors []string) string {
	return fmt.Sprintf("A high-quality, cinematic jazz playlist cover. Scene: A %s in %s. Musical Mood: %s jazz. "+
		"Aesthetic: Moody, atmospheric, professional photography, lighting inspired by colors %s. No text, no logos.",
		sel.View.Label, sel.Destination.Label, sel.Mood.Label, strings.Join(colors, ", "))
}
