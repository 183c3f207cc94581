package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/go-resty/resty/v2"
	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
)

// textGenerator sends a single-turn prompt and returns the text of the answer.
//
// A nil schema asks for free text.
type textGenerator interface {
	Generate(ctx context.Context, cred credentials.Credential, model, prompt string, schema *genai.Schema) (string, error)
}

// genaiText is the genai SDK implementation of textGenerator. A client is created per call
// because every call may carry a different credential.
type genaiText struct{}

func (genaiText) Generate(ctx context.Context, cred credentials.Credential, model, prompt string, schema *genai.Schema) (string, error) {
	opts := cred.ClientOptions()
	if len(opts) == 0 {
		return "", shared.ErrMissingCredentials
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}
	defer client.Close()

	m := client.GenerativeModel(model)
	if schema != nil {
		m.ResponseMIMEType = "application/json"
		m.ResponseSchema = schema
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	return sb.String()
}

var (
	paletteSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"colors": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"colors"},
	}
	titlesSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"titles": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"titles"},
	}
)

// GeminiService implements [Generator] against the Gemini API.
type GeminiService struct {
	text       textGenerator
	http       *resty.Client
	textModel  string
	imageModel string
	imageSize  string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewGeminiService creates a GeminiService from cfg.
func NewGeminiService(cfg shared.GeminiConfig, logger *log.Logger) *GeminiService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if t := cfg.Timeout(); t > 0 {
		client.SetTimeout(t)
	}

	return &GeminiService{
		text:       genaiText{},
		http:       client,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		imageSize:  cfg.ImageSize,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     shared.WithLogger(logger, "service", "gemini"),
	}
}

// Name implements [Generator].
func (s *GeminiService) Name() string { return "Gemini" }

func (s *GeminiService) wait(ctx context.Context, op string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return translateError(op, err)
	}
	return nil
}

// Palette implements [Generator].
func (s *GeminiService) Palette(ctx context.Context, cred credentials.Credential, mood string) ([]string, error) {
	if err := s.wait(ctx, "palette"); err != nil {
		return nil, err
	}

	raw, err := s.text.Generate(ctx, cred, s.textModel, palettePrompt(mood), paletteSchema)
	if err != nil {
		return nil, translateError("palette", err)
	}

	colors := decodePalette(raw)
	if colors == nil {
		s.logger.Warn("unusable palette answer, using defaults", "mood", mood)
		return append([]string(nil), FallbackPalette...), nil
	}
	s.logger.Debug("palette generated", "mood", mood, "colors", colors)
	return colors, nil
}

// Titles implements [Generator].
func (s *GeminiService) Titles(ctx context.Context, cred credentials.Credential, sel models.CompleteSelection) ([]string, error) {
	if err := s.wait(ctx, "titles"); err != nil {
		return nil, err
	}

	raw, err := s.text.Generate(ctx, cred, s.textModel, titlesPrompt(sel), titlesSchema)
	if err != nil {
		return nil, translateError("titles", err)
	}

	titles := decodeTitles(raw)
	if titles == nil {
		s.logger.Warn("unusable titles answer, using defaults", "destination", sel.Destination.Label)
		return FallbackTitles(sel.Destination.Label), nil
	}
	s.logger.Debug("titles generated", "titles", titles)
	return titles, nil
}

// TestConnection implements [Generator].
func (s *GeminiService) TestConnection(ctx context.Context, cred credentials.Credential) ConnectionResult {
	if cred.IsZero() {
		return ConnectionResult{Success: false, Message: connectionNoKey}
	}

	raw, err := s.text.Generate(ctx, cred, s.textModel, "ping", nil)
	if err != nil {
		err = translateError("ping", err)
		s.logger.Error("connection test failed", "error", err)
		return ConnectionResult{Success: false, Message: connectionFailure + err.Error()}
	}
	if strings.TrimSpace(raw) == "" {
		return ConnectionResult{Success: false, Message: connectionEmpty}
	}
	return ConnectionResult{Success: true, Message: connectionOK}
}

// cleanJSON strips markdown code fences some models wrap around JSON.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodePalette returns up to three normalized hex colors, or nil when none are usable.
func decodePalette(raw string) []string {
	var payload struct {
		Colors []string `json:"colors"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &payload); err != nil {
		return nil
	}

	var colors []string
	for _, c := range payload.Colors {
		hex, ok := shared.NormalizeHex(c)
		if !ok {
			continue
		}
		colors = append(colors, hex)
		if len(colors) == 3 {
			break
		}
	}
	return colors
}

// decodeTitles returns up to three non-empty titles, or nil when none are usable.
func decodeTitles(raw string) []string {
	var payload struct {
		Titles []string `json:"titles"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &payload); err != nil {
		return nil
	}

	var titles []string
	for _, t := range payload.Titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		titles = append(titles, t)
		if len(titles) == 3 {
			break
		}
	}
	return titles
}
