package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash-exp"

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Gemini GeminiConfig      `yaml:"gemini"`
	Watch  WatchConfig       `yaml:"watch"`
	Vault  VaultConfig       `yaml:"vault"`
	Ledger LedgerConfig      `yaml:"ledger"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates everything the watch and process commands need.
func (c *Config) Validate() error {
	if err := c.Gemini.Validate(); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return c.ValidateReadOnly()
}

// ValidateReadOnly validates the subset used by commands that only read the
// vault and the journal.
func (c *Config) ValidateReadOnly() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the operator HTTP endpoint configuration.
// The endpoint only ever binds to loopback.
type HTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// GeminiConfig holds the transcription service settings.
//
// Timeout bounds each remote call. Zero means no bound: a hung upload or
// generation then blocks the worker until the process is interrupted.
type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the Gemini configuration.
func (c *GeminiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Timeout, validation.Min(0)),
	)
}

// WatchConfig holds the watched directory and dispatch settings.
type WatchConfig struct {
	Dir               string        `yaml:"dir"`
	StabilizeInterval time.Duration `yaml:"stabilize_interval"`
	StabilizeChecks   int           `yaml:"stabilize_checks"`
	QueueSize         int           `yaml:"queue_size"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.StabilizeInterval, validation.Min(0)),
		validation.Field(&c.StabilizeChecks, validation.Min(0)),
		validation.Field(&c.QueueSize, validation.Required, validation.Min(1)),
	)
}

// VaultConfig holds the Obsidian vault layout.
//
// DailyNotePath is optional: when empty, note writing fails for every memo
// but archiving still happens.
type VaultConfig struct {
	Path            string `yaml:"path"`
	DailyNotePath   string `yaml:"daily_note_path"`
	ContextDays     int    `yaml:"context_days"`
	ContextMaxBytes int    `yaml:"context_max_bytes"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.ContextDays, validation.Min(0), validation.Max(31)),
		validation.Field(&c.ContextMaxBytes, validation.Min(0)),
	)
}

// LedgerConfig holds the memo journal database location.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// LockPath returns the single-instance lock file next to the journal.
func (c *LedgerConfig) LockPath() string {
	return c.Path + ".lock"
}

// AuthConfig holds authentication configuration for the HTTP endpoint.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
// Required fields (API key, watch dir, vault path) are left empty.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Gemini: GeminiConfig{
			Model: DefaultModel,
		},
		Watch: WatchConfig{
			StabilizeInterval: 500 * time.Millisecond,
			StabilizeChecks:   2,
			QueueSize:         64,
		},
		Vault: VaultConfig{
			ContextMaxBytes: 16 << 10,
		},
		Ledger: LedgerConfig{
			Path: "./voicememo.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
