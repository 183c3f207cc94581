// package services defines the [Generator] interface for the generative API
// and implements it for Gemini.
package services

import (
	"context"

	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/models"
)

// Generator produces the pieces of a vibe. Every call receives the credential explicitly.
type Generator interface {
	// Palette suggests up to three hex colors for a mood.
	Palette(ctx context.Context, cred credentials.Credential, mood string) ([]string, error)

	// Titles suggests up to three short playlist titles for a complete selection.
	Titles(ctx context.Context, cred credentials.Credential, sel models.CompleteSelection) ([]string, error)

	// Thumbnail renders cover art for sel, lit by colors, in sel.AspectRatio.
	Thumbnail(ctx context.Context, cred credentials.Credential, sel models.CompleteSelection, colors []string) (*Thumbnail, error)

	// TestConnection is a lightweight liveness probe. It never returns an error; failures are reported in the result.
	TestConnection(ctx context.Context, cred credentials.Credential) ConnectionResult

	// Name returns the provider name (e.g., "Gemini")
	Name() string
}

// Thumbnail is a generated cover image.
type Thumbnail struct {
	DataURI  string // data:<mime>;base64,<payload>
	MIMEType string
	Prompt   string
}

// ConnectionResult reports the outcome of [Generator.TestConnection].
type ConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Default content used when the model answers with unusable JSON.
var (
	FallbackPalette = []string{"#1e293b", "#3b82f6", "#f59e0b"}
)

// FallbackTitles returns the default titles for a destination.
func FallbackTitles(destination string) []string {
	return []string{destination + " Vibes", "Ticketless Jazz [Focus BGM]", "Midnight Session"}
}

const (
	connectionOK      = "Connection stable. Jazz frequencies are clear."
	connectionNoKey   = "API Key is missing."
	connectionEmpty   = "Connection failed: empty response from model."
	connectionFailure = "Connection failed: "
)
