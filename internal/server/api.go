package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/catalog"
	"github.com/desertthunder/emusicvibe/internal/cover"
	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/formatter"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/services"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"github.com/desertthunder/emusicvibe/internal/tasks"
	"github.com/desertthunder/emusicvibe/internal/wizard"
)

// maxBodyBytes caps POST bodies; a selection is a handful of short strings.
const maxBodyBytes = 64 << 10

// VibeStore persists generated vibes. [repositories.VibeRepository] implements it.
type VibeStore interface {
	Create(v *models.Vibe) error
	Find(ref string) (*models.Vibe, error)
	List(criteria map[string]any) ([]*models.Vibe, error)
}

// CoverRenderer composites and encodes cover art.
type CoverRenderer interface {
	RenderJPEG(src image.Image, opts cover.Options) ([]byte, string, error)
}

// KeySaver persists an API key and clears any invalidation. [credentials.Manager] implements it.
type KeySaver interface {
	SaveKey(key string) error
}

// APIOptions configures an [API].
type APIOptions struct {
	Engine      tasks.Engine
	Generator   services.Generator // used for the connection probe
	Credentials wizard.CredentialSource
	Keys        KeySaver  // optional; PUT /api/credentials answers 503 when nil
	Store       VibeStore // optional; vibes are not saved when nil
	Renderer    CoverRenderer
	Watermark   bool // default for the cover endpoint
	Quality     int
	Logger      *log.Logger
}

// API serves the JSON endpoints.
type API struct {
	opts   APIOptions
	ids    *catalog.CustomIDs
	logger *log.Logger
}

// NewAPI creates the API handlers.
func NewAPI(opts APIOptions) *API {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Quality <= 0 {
		opts.Quality = cover.DefaultQuality
	}
	return &API{
		opts:   opts,
		ids:    catalog.NewCustomIDs(nil),
		logger: shared.WithLogger(opts.Logger, "component", "api"),
	}
}

// NewRouter returns a router with logging and recovery middleware and every API route registered.
func NewRouter(api *API, logger *log.Logger) *BasicRouter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	r := NewBasicRouter()
	r.Use(Recover(logger), Logging(logger))
	api.Register(r)
	return r
}

// Register adds the API routes to r.
func (a *API) Register(r Router) {
	r.Handler(&healthHandler{creds: a.opts.Credentials})
	r.Handle(http.MethodGet, "/api/options", http.HandlerFunc(a.options))
	r.Handle(http.MethodPost, "/api/vibes", http.HandlerFunc(a.createVibe))
	r.Handle(http.MethodGet, "/api/vibes", http.HandlerFunc(a.listVibes))
	r.Handle(http.MethodGet, "/api/vibes/{id}", http.HandlerFunc(a.getVibe))
	r.Handle(http.MethodGet, "/api/vibes/{id}/cover", http.HandlerFunc(a.vibeCover))
	r.Handle(http.MethodGet, "/api/connection", http.HandlerFunc(a.connection))
	r.Handle(http.MethodPut, "/api/credentials", http.HandlerFunc(a.saveCredentials))
}

type healthHandler struct {
	creds wizard.CredentialSource
}

func (h *healthHandler) Routes() []string { return []string{"GET /health"} }

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hasKey := false
	if h.creds != nil {
		hasKey, _ = h.creds.HasCredential(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "credential": hasKey})
}

// CreateVibeRequest is the body of POST /api/vibes. Destination and view accept a predefined id,
// a label or free text; mood must name a predefined mood.
type CreateVibeRequest struct {
	Destination string `json:"destination"`
	View        string `json:"view"`
	Mood        string `json:"mood"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

// VibeResponse is a saved or freshly generated vibe including its thumbnail.
type VibeResponse struct {
	formatter.VibeMetadata
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

func vibeResponse(v *models.Vibe, withImage bool) VibeResponse {
	resp := VibeResponse{VibeMetadata: formatter.Metadata(v)}
	if withImage {
		resp.ThumbnailURL = v.Result().ThumbnailURL
	}
	return resp
}

type optionsResponse struct {
	Step    string              `json:"step"`
	Options []models.VibeOption `json:"options"`
}

func (a *API) options(w http.ResponseWriter, r *http.Request) {
	step := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("step")))
	if step == "" {
		step = string(models.KindDestination)
	}

	for _, kind := range models.Kinds {
		if string(kind) == step {
			writeJSON(w, http.StatusOK, optionsResponse{Step: step, Options: catalog.Options(kind)})
			return
		}
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown step %q", step))
}

func (a *API) createVibe(w http.ResponseWriter, r *http.Request) {
	var req CreateVibeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	wiz := wizard.New(wizard.Options{
		Engine:      a.opts.Engine,
		Credentials: a.opts.Credentials,
		IDs:         a.ids,
		Logger:      a.opts.Logger,
	})
	if err := applyRequest(wiz, req); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if err := wiz.Generate(r.Context(), nil); err != nil {
		a.logger.Warn("generation request failed", "error", err)
		writeError(w, statusFor(err), userMessage(wiz, err))
		return
	}

	step, ok := wiz.Step().(wizard.ShowingResult)
	if !ok {
		writeError(w, http.StatusInternalServerError, "generation finished without a result")
		return
	}

	vibe := models.NewVibe(step.Selection, step.Result)
	vibe.SetSelectedTitle(step.Result.Title(0))
	if a.opts.Store != nil {
		if err := a.opts.Store.Create(vibe); err != nil {
			a.logger.Error("failed to save vibe", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save vibe")
			return
		}
	}

	writeJSON(w, http.StatusCreated, vibeResponse(vibe, true))
}

// SaveKeyRequest is the body of PUT /api/credentials.
type SaveKeyRequest struct {
	APIKey string `json:"api_key"`
}

// saveCredentials stores a key so generation can resume after the previous one was rejected.
func (a *API) saveCredentials(w http.ResponseWriter, r *http.Request) {
	if a.opts.Keys == nil {
		writeError(w, http.StatusServiceUnavailable, "credential storage is not configured")
		return
	}

	var req SaveKeyRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if err := a.opts.Keys.SaveKey(req.APIKey); err != nil {
		a.logger.Warn("failed to save api key", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	hasKey := true
	if a.opts.Credentials != nil {
		hasKey, _ = a.opts.Credentials.HasCredential(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]any{"credential": hasKey})
}

func applyRequest(wiz *wizard.Controller, req CreateVibeRequest) error {
	return wiz.Apply(wizard.Refs{
		Destination: req.Destination,
		View:        req.View,
		Mood:        req.Mood,
		AspectRatio: req.AspectRatio,
	})
}

func (a *API) listVibes(w http.ResponseWriter, r *http.Request) {
	if a.opts.Store == nil {
		writeJSON(w, http.StatusOK, []VibeResponse{})
		return
	}

	q := r.URL.Query()
	criteria := map[string]any{}
	for _, key := range append(models.SlotCriteria, models.CriteriaSearch, models.CriteriaOrder) {
		if v := q.Get(key); v != "" {
			criteria[key] = v
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		criteria[models.CriteriaLimit] = limit
	}

	vibes, err := a.opts.Store.List(criteria)
	if err != nil {
		a.logger.Error("failed to list vibes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list vibes")
		return
	}

	out := make([]VibeResponse, 0, len(vibes))
	for _, v := range vibes {
		out = append(out, vibeResponse(v, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) findVibe(w http.ResponseWriter, r *http.Request) (*models.Vibe, bool) {
	if a.opts.Store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return nil, false
	}
	v, err := a.opts.Store.Find(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return v, true
}

func (a *API) getVibe(w http.ResponseWriter, r *http.Request) {
	if v, ok := a.findVibe(w, r); ok {
		writeJSON(w, http.StatusOK, vibeResponse(v, true))
	}
}

func (a *API) vibeCover(w http.ResponseWriter, r *http.Request) {
	v, ok := a.findVibe(w, r)
	if !ok {
		return
	}
	if a.opts.Renderer == nil {
		writeError(w, http.StatusServiceUnavailable, "cover rendering is not configured")
		return
	}

	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		title = v.SelectedTitle()
	}
	if title == "" {
		title = v.Result().Title(0)
	}

	watermark := a.opts.Watermark
	if raw := q.Get("watermark"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "watermark must be a boolean")
			return
		}
		watermark = b
	}

	src, err := cover.Decode(v.Result().ThumbnailURL)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	data, name, err := a.opts.Renderer.RenderJPEG(src, cover.Options{
		Title:     title,
		Colors:    v.Result().Colors,
		Watermark: watermark,
		Quality:   a.opts.Quality,
	})
	if err != nil {
		a.logger.Error("cover render failed", "id", v.ID(), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render cover")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (a *API) connection(w http.ResponseWriter, r *http.Request) {
	if a.opts.Generator == nil {
		writeError(w, http.StatusServiceUnavailable, "generator is not configured")
		return
	}
	writeJSON(w, http.StatusOK, TestConnection(r.Context(), a.opts.Generator, a.opts.Credentials))
}

// TestConnection probes the generator with the current credential. A missing credential is
// passed through as a zero credential, which the generator reports as a missing key.
func TestConnection(ctx context.Context, gen services.Generator, creds wizard.CredentialSource) services.ConnectionResult {
	var cred credentials.Credential
	if creds != nil {
		if c, err := creds.Credential(ctx); err == nil {
			cred = c
		}
	}
	return gen.TestConnection(ctx, cred)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrEmptyInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrIncompleteSelection):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrMissingCredentials), errors.Is(err, shared.ErrCredentialInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrGenerationInFlight):
		return http.StatusConflict
	case errors.Is(err, shared.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, shared.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrAPIRequest), errors.Is(err, shared.ErrMalformedResponse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func userMessage(wiz *wizard.Controller, err error) string {
	if msg := wiz.Error(); msg != "" {
		return msg
	}
	return err.Error()
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
