// Package catalog holds the predefined destination, view and mood options and
// builds options from free-text input.
package catalog

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/emusicvibe/internal/models"
	"github.com/desertthunder/emusicvibe/internal/shared"
)

//go:embed catalog.toml
var catalogData []byte

type catalogFile struct {
	Destination []models.VibeOption `toml:"destination"`
	View        []models.VibeOption `toml:"view"`
	Mood        []models.VibeOption `toml:"mood"`
}

var (
	loadOnce sync.Once
	builtin  catalogFile
)

func load() catalogFile {
	loadOnce.Do(func() {
		if err := toml.Unmarshal(catalogData, &builtin); err != nil {
			panic(fmt.Sprintf("failed to parse embedded catalog: %v", err))
		}
	})
	return builtin
}

// Options returns a copy of the predefined options for kind.
func Options(kind models.OptionKind) []models.VibeOption {
	c := load()
	var src []models.VibeOption
	switch kind {
	case models.KindDestination:
		src = c.Destination
	case models.KindView:
		src = c.View
	case models.KindMood:
		src = c.Mood
	}
	return append([]models.VibeOption(nil), src...)
}

// Find returns the predefined option with the given id.
func Find(kind models.OptionKind, id string) (models.VibeOption, bool) {
	for _, opt := range Options(kind) {
		if opt.ID == id {
			return opt, true
		}
	}
	return models.VibeOption{}, false
}

// Lookup resolves an id or a case-insensitive label to a predefined option.
func Lookup(kind models.OptionKind, idOrLabel string) (models.VibeOption, bool) {
	needle := strings.TrimSpace(idOrLabel)
	if opt, ok := Find(kind, needle); ok {
		return opt, true
	}
	for _, opt := range Options(kind) {
		if strings.EqualFold(opt.Label, needle) {
			return opt, true
		}
	}
	return models.VibeOption{}, false
}

// Resolve returns the predefined option matching idOrLabel, or a custom option built from it.
func Resolve(kind models.OptionKind, idOrLabel string, ids *CustomIDs) (models.VibeOption, error) {
	if opt, ok := Lookup(kind, idOrLabel); ok {
		return opt, nil
	}
	return ids.NewOption(idOrLabel)
}

// CustomIDs issues ids for custom options that stay unique even when two are
// requested within the same clock tick.
type CustomIDs struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewCustomIDs creates an issuer reading time from now (time.Now when nil).
func NewCustomIDs(now func() time.Time) *CustomIDs {
	if now == nil {
		now = time.Now
	}
	return &CustomIDs{now: now}
}

// Next returns "custom-<nanos>", strictly increasing across calls.
func (c *CustomIDs) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixNano()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return fmt.Sprintf("%s%d", models.CustomIDPrefix, ts)
}

// NewOption builds a custom option from free text.
//
// Whitespace-only input returns [shared.ErrEmptyInput].
func (c *CustomIDs) NewOption(text string) (models.VibeOption, error) {
	label := strings.TrimSpace(text)
	if label == "" {
		return models.VibeOption{}, shared.ErrEmptyInput
	}

	return models.VibeOption{
		ID:       c.Next(),
		Label:    label,
		Keywords: []string{label, "custom"},
		Image:    fmt.Sprintf("https://picsum.photos/seed/%s/200/200", url.PathEscape(label)),
	}, nil
}
