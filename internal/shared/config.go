package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvAPIKey   = "GEMINI_API_KEY"
	EnvDatabase = "EMUSICVIBE_DB"
)

// Credential modes accepted in [CredentialsConfig].
const (
	CredentialModeAPIKey = "api_key"
	CredentialModeADC    = "adc"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Gemini      GeminiConfig      `toml:"gemini"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Export      ExportConfig      `toml:"export"`
	UI          UIConfig          `toml:"ui"`
}

// CredentialsConfig selects how Gemini requests are authorized.
type CredentialsConfig struct {
	APIKey string `toml:"api_key"`
	Mode   string `toml:"mode"`
}

// GeminiConfig contains model names and transport settings for the generation API.
type GeminiConfig struct {
	BaseURL           string  `toml:"base_url"`
	TextModel         string  `toml:"text_model"`
	ImageModel        string  `toml:"image_model"`
	ImageSize         string  `toml:"image_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Timeout returns the per-request timeout as a [time.Duration].
func (g GeminiConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ExportConfig controls cover exports.
type ExportConfig struct {
	Dir       string `toml:"dir"`
	Quality   int    `toml:"quality"`
	Watermark bool   `toml:"watermark"`
}

// UIConfig contains terminal wizard settings.
type UIConfig struct {
	AdvanceDelayMS int    `toml:"advance_delay_ms"`
	LogFile        string `toml:"log_file"`
}

// AdvanceDelay is the pause between picking an option and moving to the next step.
func (u UIConfig) AdvanceDelay() time.Duration {
	return time.Duration(u.AdvanceDelayMS) * time.Millisecond
}

// LoadConfig reads a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values, and the environment overrides both.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.ApplyEnv(os.Getenv)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values from the environment through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIKey); v != "" {
		c.Credentials.APIKey = v
	}
	if v := getenv(EnvDatabase); v != "" {
		c.Database.Path = v
	}
}

// Validate reports values that would make the application misbehave.
func (c *Config) Validate() error {
	switch c.Credentials.Mode {
	case "", CredentialModeAPIKey, CredentialModeADC:
	default:
		return fmt.Errorf("%w: credentials.mode must be %q or %q, got %q",
			ErrInvalidConfig, CredentialModeAPIKey, CredentialModeADC, c.Credentials.Mode)
	}

	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("%w: export.quality must be between 1 and 100", ErrInvalidConfig)
	}

	if c.Gemini.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: gemini.requests_per_second must not be negative", ErrInvalidConfig)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
