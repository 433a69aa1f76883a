package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/notely/internal/auth"
)

// Store drivers.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Summarizer providers.
const (
	ProviderChat   = "chat"
	ProviderGemini = "gemini"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Store      StoreConfig       `yaml:"store"`
	Auth       AuthConfig        `yaml:"auth"`
	Summarizer SummarizerConfig  `yaml:"summarizer"`
	Cache      CacheConfig       `yaml:"cache"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Summarizer.Validate(); err != nil {
		return fmt.Errorf("summarizer: %w", err)
	}
	// Postgres stores user ids in UUID columns.
	if c.Store.Driver == StoreDriverPostgres {
		if err := validation.Validate(c.Auth.DevUserID, is.UUID); err != nil {
			return fmt.Errorf("auth: dev_user_id: %w", err)
		}
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
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

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects and configures the remote notes store.
type StoreConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StoreDriverSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(StoreDriverSQLite, StoreDriverPostgres)),
	); err != nil {
		return err
	}
	if c.Driver == StoreDriverPostgres {
		return c.Postgres.Validate()
	}
	return c.SQLite.Validate()
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// Validate validates the PostgreSQL configuration.
func (c *PostgresConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how the caller identity is established:
//   - "disabled" (default): every request runs as DevUserID, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//   - "jwt": HS256 access tokens signed with JWTSecret; the sub claim is the user id.
type AuthConfig struct {
	Mode        string `yaml:"mode"`
	Token       string `yaml:"token"`
	JWTSecret   string `yaml:"jwt_secret"`
	JWTAudience string `yaml:"jwt_audience"`
	DevUserID   string `yaml:"dev_user_id"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = auth.ModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(auth.ModeDisabled, auth.ModeToken, auth.ModeJWT)),
	); err != nil {
		return err
	}
	switch c.Mode {
	case auth.ModeToken:
		if c.Token == "" {
			return fmt.Errorf("mode is %q but token is empty", auth.ModeToken)
		}
	case auth.ModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("mode is %q but jwt_secret is empty", auth.ModeJWT)
		}
	}
	return nil
}

// Options converts the config into middleware options.
func (c *AuthConfig) Options() auth.Options {
	return auth.Options{
		Mode:        c.Mode,
		Token:       c.Token,
		JWTSecret:   c.JWTSecret,
		JWTAudience: c.JWTAudience,
		DevUserID:   c.DevUserID,
	}
}

// SummarizerConfig configures the summarization gateway.
//
// When GatewayURL is set the notes service summarizes through a remote
// gateway over HTTP instead of calling the provider itself.
type SummarizerConfig struct {
	Provider   string        `yaml:"provider"`
	APIKey     string        `yaml:"api_key"`
	Endpoint   string        `yaml:"endpoint"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  float64       `yaml:"rate_limit"`
	RateBurst  int           `yaml:"rate_burst"`
	GatewayURL string        `yaml:"gateway_url"`
}

// Validate validates the summarizer configuration. An empty API key is
// allowed: the gateway then answers every request with a configuration error.
func (c *SummarizerConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = ProviderChat
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.In(ProviderChat, ProviderGemini)),
		validation.Field(&c.Endpoint, is.URL),
		validation.Field(&c.GatewayURL, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.RateBurst, validation.Min(0)),
	)
}

// CacheConfig configures the single-note read cache. Size 0 disables it.
// TTL bounds how long a row written by another client can be served stale.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Size, validation.Min(0)),
		validation.Field(&c.TTL, validation.When(c.Size > 0, validation.Required, validation.Min(time.Millisecond))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
			SQLite: SQLiteConfig{
				Path: "./notely.db",
			},
			Postgres: PostgresConfig{
				MaxOpenConns: 10,
				AutoMigrate:  true,
			},
		},
		Auth: AuthConfig{
			Mode:      auth.ModeDisabled,
			DevUserID: "local",
		},
		Summarizer: SummarizerConfig{
			Provider:  ProviderChat,
			Timeout:   30 * time.Second,
			RateBurst: 5,
		},
		Cache: CacheConfig{
			Size: 256,
			TTL:  15 * time.Second,
		},
	}
}
