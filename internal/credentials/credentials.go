// Package credentials resolves the Gemini credential used by generation calls.
//
// A [Manager] answers "is a usable credential selected?", runs the external
// selection flow through a [Picker], persists manually entered keys in a
// [Store], and hands out [Credential] values that callers pass explicitly into
// every request.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/emusicvibe/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// StoreKey is the well-known name the API key is persisted under.
const StoreKey = "gemini_api_key"

// ADC scopes requested for the Gemini API.
var adcScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/generative-language.retriever",
}

// Credential authorizes one Gemini request. The zero value authorizes nothing.
type Credential struct {
	apiKey string
	tokens oauth2.TokenSource
}

// FromAPIKey wraps a Gemini API key.
func FromAPIKey(key string) Credential {
	return Credential{apiKey: strings.TrimSpace(key)}
}

// FromTokenSource wraps an OAuth2 token source.
func FromTokenSource(ts oauth2.TokenSource) Credential {
	return Credential{tokens: ts}
}

// IsZero reports whether c carries neither a key nor a token source.
func (c Credential) IsZero() bool {
	return c.apiKey == "" && c.tokens == nil
}

// APIKey returns the wrapped key, or "" for token credentials.
func (c Credential) APIKey() string { return c.apiKey }

// ClientOptions returns the Google API client options for c.
func (c Credential) ClientOptions() []option.ClientOption {
	switch {
	case c.apiKey != "":
		return []option.ClientOption{option.WithAPIKey(c.apiKey)}
	case c.tokens != nil:
		return []option.ClientOption{option.WithTokenSource(c.tokens)}
	}
	return nil
}

// AuthHeader returns the HTTP header that authorizes a REST call.
func (c Credential) AuthHeader() (name, value string, err error) {
	switch {
	case c.apiKey != "":
		return "x-goog-api-key", c.apiKey, nil
	case c.tokens != nil:
		tok, err := c.tokens.Token()
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", shared.ErrCredentialInvalid, err)
		}
		return "Authorization", tok.Type() + " " + tok.AccessToken, nil
	}
	return "", "", shared.ErrMissingCredentials
}

// Redacted describes c without revealing the secret.
func (c Credential) Redacted() string {
	switch {
	case c.apiKey != "":
		if len(c.apiKey) <= 8 {
			return strings.Repeat("•", len(c.apiKey))
		}
		return c.apiKey[:4] + "…" + c.apiKey[len(c.apiKey)-4:]
	case c.tokens != nil:
		return "application default credentials"
	}
	return "none"
}

// Store persists string values across sessions.
type Store interface {
	Get(key string) (string, error) // returns shared.ErrNotFound when unset
	Set(key, value string) error
	Delete(key string) error
}

// Picker runs an external credential selection flow and returns the chosen key.
type Picker interface {
	Pick(ctx context.Context) (string, error)
}

// Options configures a [Manager].
type Options struct {
	Store     Store
	Picker    Picker
	ConfigKey string // key from config file or environment
	Mode      string // shared.CredentialModeAPIKey (default) or shared.CredentialModeADC
	Logger    *log.Logger

	// TokenSource loads OAuth2 credentials in ADC mode. Defaults to Google application default credentials.
	TokenSource func(ctx context.Context) (oauth2.TokenSource, error)
}

// Manager is the credential source shared by the wizard, CLI and HTTP server.
type Manager struct {
	store       Store
	picker      Picker
	configKey   string
	mode        string
	logger      *log.Logger
	tokenSource func(ctx context.Context) (oauth2.TokenSource, error)

	mu          sync.Mutex
	invalidated bool
	invalidKey  string // API key in use when Invalidate ran
}

// NewManager creates a Manager from opts.
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:       opts.Store,
		picker:      opts.Picker,
		configKey:   strings.TrimSpace(opts.ConfigKey),
		mode:        opts.Mode,
		logger:      opts.Logger,
		tokenSource: opts.TokenSource,
	}
	if m.mode == "" {
		m.mode = shared.CredentialModeAPIKey
	}
	if m.logger == nil {
		m.logger = shared.NewLogger(nil)
	}
	if m.tokenSource == nil {
		m.tokenSource = func(ctx context.Context) (oauth2.TokenSource, error) {
			return google.DefaultTokenSource(ctx, adcScopes...)
		}
	}
	return m
}

// HasCredential reports whether a usable credential is currently selected.
//
// After [Manager.Invalidate] it reports false until a different key shows up, whether it was
// saved or picked here or written to the store by another process.
func (m *Manager) HasCredential(ctx context.Context) (bool, error) {
	m.mu.Lock()
	invalidated, invalidKey := m.invalidated, m.invalidKey
	m.mu.Unlock()
	if invalidated && m.mode == shared.CredentialModeADC {
		return false, nil
	}

	cred, err := m.Credential(ctx)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrMissingCredentials):
		return false, nil
	default:
		return false, err
	}

	if invalidated {
		if cred.APIKey() == invalidKey {
			return false, nil
		}
		m.mu.Lock()
		if m.invalidKey == invalidKey {
			m.invalidated, m.invalidKey = false, ""
		}
		m.mu.Unlock()
		m.logger.Info("gemini api key changed since invalidation", "key", cred.Redacted())
	}
	return true, nil
}

// currentKey returns the API key [Manager.Credential] would use, or "".
func (m *Manager) currentKey() string {
	key, err := m.storedKey()
	if err != nil || key == "" {
		return m.configKey
	}
	return key
}

// Credential resolves the credential to pass into generation calls.
//
// In API key mode a saved key wins over the configured one.
func (m *Manager) Credential(ctx context.Context) (Credential, error) {
	if m.mode == shared.CredentialModeADC {
		ts, err := m.tokenSource(ctx)
		if err != nil {
			return Credential{}, fmt.Errorf("%w: application default credentials: %v", shared.ErrMissingCredentials, err)
		}
		return FromTokenSource(ts), nil
	}

	key, err := m.storedKey()
	if err != nil {
		return Credential{}, err
	}
	if key == "" {
		key = m.configKey
	}
	if key == "" {
		return Credential{}, shared.ErrMissingCredentials
	}
	return FromAPIKey(key), nil
}

// Source names where the current credential comes from: "store", "config", "adc" or "none".
func (m *Manager) Source() string {
	if m.mode == shared.CredentialModeADC {
		return "adc"
	}
	if key, err := m.storedKey(); err == nil && key != "" {
		return "store"
	}
	if m.configKey != "" {
		return "config"
	}
	return "none"
}

func (m *Manager) storedKey() (string, error) {
	if m.store == nil {
		return "", nil
	}
	key, err := m.store.Get(StoreKey)
	if errors.Is(err, shared.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read saved credential: %w", err)
	}
	return strings.TrimSpace(key), nil
}

// SaveKey persists a manually entered key and clears any invalidation.
func (m *Manager) SaveKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: api key", shared.ErrEmptyInput)
	}
	if m.store == nil {
		return fmt.Errorf("%w: no credential store configured", shared.ErrServiceUnavailable)
	}
	if err := m.store.Set(StoreKey, key); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	m.mu.Lock()
	m.invalidated, m.invalidKey = false, ""
	m.mu.Unlock()

	m.logger.Info("saved gemini api key", "key", FromAPIKey(key).Redacted())
	return nil
}

// Select runs the picker, saves what it returns and re-queries the source.
//
// The returned bool is the result of that re-query, not an assumption.
func (m *Manager) Select(ctx context.Context) (bool, error) {
	if m.picker == nil {
		return false, fmt.Errorf("%w: no credential picker configured", shared.ErrServiceUnavailable)
	}

	key, err := m.picker.Pick(ctx)
	if err != nil {
		return false, fmt.Errorf("credential selection failed: %w", err)
	}

	if strings.TrimSpace(key) != "" {
		if err := m.SaveKey(key); err != nil {
			return false, err
		}
	} else if m.mode == shared.CredentialModeADC {
		m.mu.Lock()
		m.invalidated = false
		m.mu.Unlock()
	}

	return m.HasCredential(ctx)
}

// Invalidate marks the current credential as unusable so the user must select one again.
func (m *Manager) Invalidate() {
	key := ""
	if m.mode != shared.CredentialModeADC {
		key = m.currentKey()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated, m.invalidKey = true, key
	m.logger.Warn("gemini credential invalidated")
}

// Clear removes the saved key.
func (m *Manager) Clear() error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(StoreKey); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
