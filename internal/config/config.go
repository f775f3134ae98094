package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/auralens/auralens/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "auralens.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "AURALENS_"

	// DefaultPort is the default HTTP port.
	DefaultPort = 8080

	// DefaultHost is the default bind host.
	DefaultHost = "localhost"

	// DefaultMaxFileSize is the upload size limit (10MB).
	DefaultMaxFileSize = 10 << 20

	// DefaultMaxTotalBytes caps the bytes held by all unclaimed uploads (256MB).
	DefaultMaxTotalBytes = 256 << 20

	// DefaultSceneURL is the decorative 3D scene shown in the hero.
	DefaultSceneURL = "https://prod.spline.design/4cHQr84zOGAHOehh/scene.splinecode"
)

// Config is the complete Auralens configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Session   SessionConfig   `json:"session"`
	Upload    UploadConfig    `json:"upload"`
	Content   ContentConfig   `json:"content"`
	Log       LogConfig       `json:"log"`
	Telemetry TelemetryConfig `json:"telemetry"`

	configPath string
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g. "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// SessionConfig holds live session settings.
type SessionConfig struct {
	// PendingTTL is how long a rendered page waits for its WebSocket.
	PendingTTL string `json:"pendingTTL,omitempty"`

	// ReadTimeout closes sessions whose client stopped sending pings.
	ReadTimeout string `json:"readTimeout,omitempty"`

	// WriteTimeout bounds a single frame write.
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// MaxEventQueue is the per-session event buffer.
	MaxEventQueue int `json:"maxEventQueue,omitempty"`

	// MaxSessions caps concurrent live sessions (0 = unlimited).
	MaxSessions int `json:"maxSessions,omitempty"`
}

// UploadConfig holds temporary upload settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted file in bytes.
	MaxFileSize int64 `json:"maxFileSize,omitempty"`

	// MaxTotalBytes is the most memory all unclaimed uploads may hold.
	MaxTotalBytes int64 `json:"maxTotalBytes,omitempty"`

	// TempExpiry is how long an unclaimed upload is kept.
	TempExpiry string `json:"tempExpiry,omitempty"`
}

// ContentConfig holds the landing page content that varies per deployment.
type ContentConfig struct {
	BrandName    string `json:"brandName,omitempty"`
	ContactEmail string `json:"contactEmail,omitempty"`
	SceneURL     string `json:"sceneURL,omitempty"`
	Lang         string `json:"lang,omitempty"`

	// Examples are the before/after cards. Defaults to DefaultExamples.
	Examples []ExampleConfig `json:"examples,omitempty"`
}

// ExampleConfig is one before/after card.
type ExampleConfig struct {
	Title  string `json:"title"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// DefaultExamples returns the stock before/after cards.
func DefaultExamples() []ExampleConfig {
	return []ExampleConfig{
		{
			Title:  "Hintergrund entfernen",
			Before: "https://images.unsplash.com/photo-1544005313-94ddf0286df2?q=80&w=1200&auto=format&fit=crop",
			After:  "https://images.unsplash.com/photo-1603415526960-f7e0328d13d1?q=80&w=1200&auto=format&fit=crop",
		},
		{
			Title:  "Sonnenuntergang hinzufügen",
			Before: "https://images.unsplash.com/photo-1500530855697-b586d89ba3ee?q=80&w=1200&auto=format&fit=crop",
			After:  "https://images.unsplash.com/photo-1501973801540-537f08ccae7b?q=80&w=1200&auto=format&fit=crop",
		},
	}
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// TelemetryConfig holds OpenTelemetry exporter settings.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`
	Insecure    bool              `json:"insecure,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	ServiceName string            `json:"serviceName,omitempty"`
	Environment string            `json:"environment,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads auralens.json from dir if present and applies environment
// overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := New()
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path and applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E100").
			WithDetail("Cannot read " + path).
			Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E100").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Session.PendingTTL == "" {
		c.Session.PendingTTL = "1m"
	}
	if c.Session.ReadTimeout == "" {
		c.Session.ReadTimeout = "60s"
	}
	if c.Session.WriteTimeout == "" {
		c.Session.WriteTimeout = "10s"
	}
	if c.Session.MaxEventQueue == 0 {
		c.Session.MaxEventQueue = 64
	}

	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = DefaultMaxFileSize
	}
	if c.Upload.MaxTotalBytes == 0 {
		c.Upload.MaxTotalBytes = DefaultMaxTotalBytes
	}
	if c.Upload.TempExpiry == "" {
		c.Upload.TempExpiry = "10m"
	}

	if c.Content.BrandName == "" {
		c.Content.BrandName = "Auralens"
	}
	if c.Content.ContactEmail == "" {
		c.Content.ContactEmail = "support@auralens.app"
	}
	if c.Content.SceneURL == "" {
		c.Content.SceneURL = DefaultSceneURL
	}
	if c.Content.Lang == "" {
		c.Content.Lang = "de"
	}
	if len(c.Content.Examples) == 0 {
		c.Content.Examples = DefaultExamples()
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "auralens"
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = "development"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("E101").
			WithDetail("server.port must be between 1 and 65535, got " + strconv.Itoa(c.Server.Port))
	}
	if c.Upload.MaxFileSize < 0 {
		return errors.New("E101").
			WithDetail("upload.maxFileSize must not be negative")
	}
	if c.Upload.MaxTotalBytes < c.Upload.MaxFileSize {
		return errors.New("E101").
			WithDetail("upload.maxTotalBytes must hold at least one file of upload.maxFileSize")
	}
	if c.Session.MaxEventQueue < 1 {
		return errors.New("E101").
			WithDetail("session.maxEventQueue must be positive")
	}

	durations := map[string]string{
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
		"session.pendingTTL":     c.Session.PendingTTL,
		"session.readTimeout":    c.Session.ReadTimeout,
		"session.writeTimeout":   c.Session.WriteTimeout,
		"upload.tempExpiry":      c.Upload.TempExpiry,
	}
	for field, raw := range durations {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return errors.New("E101").
				WithDetail(field + " must be a positive duration, got " + strconv.Quote(raw)).
				WithSuggestion(`Use Go duration syntax such as "30s" or "5m"`)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E101").WithDetail("log.level must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("E101").WithDetail("log.format must be text or json")
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("E101").
			WithDetail("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return mustDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// PendingTTL returns the parsed pending session lifetime.
func (c *Config) PendingTTL() time.Duration {
	return mustDuration(c.Session.PendingTTL, time.Minute)
}

// ReadTimeout returns the parsed session read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return mustDuration(c.Session.ReadTimeout, 60*time.Second)
}

// WriteTimeout returns the parsed session write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return mustDuration(c.Session.WriteTimeout, 10*time.Second)
}

// TempExpiry returns the parsed upload expiry.
func (c *Config) TempExpiry() time.Duration {
	return mustDuration(c.Upload.TempExpiry, 10*time.Minute)
}

func mustDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
