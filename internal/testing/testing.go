// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/emusicvibe/internal/credentials"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/services"
	"github.com/desertthunder/emusicvibe/internal/shared"
)

// FakeGenerator is a test double for [services.Generator].
//
// Zero values produce a complete three-title, three-color result with a small PNG thumbnail.
type FakeGenerator struct {
	Colors    []string
	TitleList []string
	ImageURI  string

	PaletteErr   error
	TitlesErr    error
	ThumbnailErr error
	Connection   *services.ConnectionResult

	// Gate, when set, blocks every call until it is closed or ctx ends.
	Gate chan struct{}

	mu    sync.Mutex
	calls map[string]int
	creds []credentials.Credential
}

func (f *FakeGenerator) record(op string, cred credentials.Credential) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
	f.creds = append(f.creds, cred)
}

func (f *FakeGenerator) wait(ctx context.Context) error {
	if f.Gate == nil {
		return nil
	}
	select {
	case <-f.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Calls reports how many times op ("palette", "titles", "thumbnail", "connection") ran.
func (f *FakeGenerator) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Credentials returns every credential passed in, in call order.
func (f *FakeGenerator) Credentials() []credentials.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]credentials.Credential(nil), f.creds...)
}

func (f *FakeGenerator) Palette(ctx context.Context, cred credentials.Credential, mood string) ([]string, error) {
	f.record("palette", cred)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.PaletteErr != nil {
		return nil, f.PaletteErr
	}
	if f.Colors != nil {
		return f.Colors, nil
	}
	return []string{"#112233", "#445566", "#f5f5f5"}, nil
}

func (f *FakeGenerator) Titles(ctx context.Context, cred credentials.Credential, sel models.CompleteSelection) ([]string, error) {
	f.record("titles", cred)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.TitlesErr != nil {
		return nil, f.TitlesErr
	}
	if f.TitleList != nil {
		return f.TitleList, nil
	}
	return []string{sel.Destination.Label + " Nights", "Ticketless Travel [Ticketless Travel]", "Focus [Focus BGM]"}, nil
}

func (f *FakeGenerator) Thumbnail(ctx context.Context, cred credentials.Credential, sel models.CompleteSelection, colors []string) (*services.Thumbnail, error) {
	f.record("thumbnail", cred)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.ThumbnailErr != nil {
		return nil, f.ThumbnailErr
	}
	uri := f.ImageURI
	if uri == "" {
		uri = PNGDataURI(64, 36, color.NRGBA{R: 40, G: 60, B: 90, A: 255})
	}
	return &services.Thumbnail{
		DataURI:  uri,
		MIMEType: "image/png",
		Prompt:   services.ThumbnailPrompt(sel, colors),
	}, nil
}

func (f *FakeGenerator) TestConnection(ctx context.Context, cred credentials.Credential) services.ConnectionResult {
	f.record("connection", cred)
	if f.Connection != nil {
		return *f.Connection
	}
	return services.ConnectionResult{Success: true, Message: "ok"}
}

func (f *FakeGenerator) Name() string { return "fake" }

// MemoryStore is an in-memory [credentials.Store].
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
	Err    error // returned by every call when set
}

func NewMemoryStore(kv ...string) *MemoryStore {
	s := &MemoryStore{values: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		s.values[kv[i]] = kv[i+1]
	}
	return s
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	v, ok := s.values[key]
	if !ok {
		return "", shared.ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.values, key)
	return nil
}

// StubPicker returns a fixed key from Pick.
type StubPicker struct {
	Key   string
	Err   error
	Calls int
}

func (p *StubPicker) Pick(context.Context) (string, error) {
	p.Calls++
	return p.Key, p.Err
}

// NewManager returns a credential manager over store with an optional picker.
func NewManager(store credentials.Store, picker credentials.Picker) *credentials.Manager {
	return credentials.NewManager(credentials.Options{Store: store, Picker: picker, Logger: shared.NewLogger(io.Discard)})
}

// Selection builds a complete selection from labels.
func Selection(dest, view, mood string) models.CompleteSelection {
	opt := func(label string) models.VibeOption {
		return models.VibeOption{ID: label, Label: label, Keywords: []string{label}}
	}
	return models.CompleteSelection{
		Destination: opt(dest),
		View:        opt(view),
		Mood:        opt(mood),
		AspectRatio: models.DefaultAspectRatio,
	}
}

// SolidPNG encodes a w×h PNG filled with c.
func SolidPNG(w, h int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// PNGDataURI returns a solid PNG as a base64 data URI.
func PNGDataURI(w, h int, c color.NRGBA) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(SolidPNG(w, h, c))
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
