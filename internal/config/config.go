// ABOUTME: Configuration loading and parsing for chembot
// ABOUTME: TOML files with environment variable expansion, defaults, and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete chembot configuration
type Config struct {
	Matrix  MatrixConfig  `toml:"matrix"`
	PubChem PubChemConfig `toml:"pubchem"`
	Cache   CacheConfig   `toml:"cache"`
	Session SessionConfig `toml:"session"`
	Bot     BotConfig     `toml:"bot"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

// MatrixConfig holds Matrix transport configuration
type MatrixConfig struct {
	Homeserver      string   `toml:"homeserver"`
	Username        string   `toml:"username"`
	Password        string   `toml:"password"`
	AllowedRooms    []string `toml:"allowed_rooms"`
	CommandPrefix   string   `toml:"command_prefix"`
	TypingIndicator bool     `toml:"typing_indicator"`
}

// Configured reports whether a homeserver has been set.
func (m MatrixConfig) Configured() bool {
	return m.Homeserver != ""
}

// PubChemConfig holds the PubChem client configuration
type PubChemConfig struct {
	BaseURL             string        `toml:"base_url"`
	ViewURL             string        `toml:"view_url"`
	Timeout             time.Duration `toml:"-"`
	RequestsPerSecond   float64       `toml:"requests_per_second"`
	SimilarityThreshold int           `toml:"similarity_threshold"`
	SimilarLimit        int           `toml:"similar_limit"`
	RandomMaxCID        int64         `toml:"random_max_cid"`
	RandomAttempts      int           `toml:"random_attempts"`

	TimeoutRaw string `toml:"timeout"`
}

// CacheConfig holds lookup cache configuration
type CacheConfig struct {
	Enabled         bool          `toml:"enabled"`
	TTL             time.Duration `toml:"-"`
	CleanupInterval time.Duration `toml:"-"`

	TTLRaw             string `toml:"ttl"`
	CleanupIntervalRaw string `toml:"cleanup_interval"`
}

// SessionConfig holds per-user session configuration
type SessionConfig struct {
	// Database is the SQLite path for history and favorites; empty keeps them in memory
	Database         string `toml:"database"`
	HistoryRetention int    `toml:"history_retention"` // 0 = unbounded
	HistoryDisplay   int    `toml:"history_display"`
}

// BotConfig holds presentation configuration shared by all transports
type BotConfig struct {
	Locale       string        `toml:"locale"`
	ExamplesFile string        `toml:"examples_file"`
	ImageTimeout time.Duration `toml:"-"`
	ChoiceTTL    time.Duration `toml:"-"`

	ImageTimeoutRaw string `toml:"image_timeout"`
	ChoiceTTLRaw    string `toml:"choice_ttl"`
}

// ServerConfig holds the health server address; empty disables it
type ServerConfig struct {
	HTTPAddr string `toml:"http_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Supported values for enumerated settings.
var (
	Locales   = []string{"en", "ru"}
	LogLevels = []string{"debug", "info", "warn", "error"}
	LogFormat = []string{"text", "json"}
)

// Default returns a configuration with every default applied. It is valid
// for the console transport as is.
func Default() Config {
	return Config{
		Matrix: MatrixConfig{
			CommandPrefix:   "!",
			TypingIndicator: true,
		},
		PubChem: PubChemConfig{
			BaseURL:             "https://pubchem.ncbi.nlm.nih.gov/rest/pug",
			ViewURL:             "https://pubchem.ncbi.nlm.nih.gov/compound",
			RequestsPerSecond:   5,
			SimilarityThreshold: 90,
			SimilarLimit:        5,
			RandomMaxCID:        200000,
			RandomAttempts:      5,
			TimeoutRaw:          "10s",
		},
		Cache: CacheConfig{
			Enabled:            true,
			TTLRaw:             "1h",
			CleanupIntervalRaw: "10m",
		},
		Session: SessionConfig{
			HistoryDisplay: 5,
		},
		Bot: BotConfig{
			Locale:          "en",
			ImageTimeoutRaw: "10s",
			ChoiceTTLRaw:    "30m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Settings absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes TOML text the same way Load does.
func Parse(data string) (*Config, error) {
	expanded := expandEnvVars(data)

	cfg := Default()
	md, err := toml.Decode(expanded, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"pubchem.timeout", cfg.PubChem.TimeoutRaw, &cfg.PubChem.Timeout},
		{"cache.ttl", cfg.Cache.TTLRaw, &cfg.Cache.TTL},
		{"cache.cleanup_interval", cfg.Cache.CleanupIntervalRaw, &cfg.Cache.CleanupInterval},
		{"bot.image_timeout", cfg.Bot.ImageTimeoutRaw, &cfg.Bot.ImageTimeout},
		{"bot.choice_ttl", cfg.Bot.ChoiceTTLRaw, &cfg.Bot.ChoiceTTL},
	}
	for _, f := range fields {
		if f.raw == "" {
			return fmt.Errorf("%s is required", f.name)
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate checks that all configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
// The Matrix section is only checked when a homeserver is set; use
// ValidateMatrix before starting the Matrix transport.
func (c *Config) Validate() error {
	if c.Matrix.Configured() {
		if err := c.ValidateMatrix(); err != nil {
			return err
		}
	}

	if err := httpURL("pubchem.base_url", c.PubChem.BaseURL); err != nil {
		return err
	}
	if err := httpURL("pubchem.view_url", c.PubChem.ViewURL); err != nil {
		return err
	}
	if c.PubChem.Timeout <= 0 {
		return fmt.Errorf("pubchem.timeout must be positive")
	}
	if c.PubChem.RequestsPerSecond < 0 {
		return fmt.Errorf("pubchem.requests_per_second must not be negative")
	}
	if c.PubChem.SimilarityThreshold < 0 || c.PubChem.SimilarityThreshold > 100 {
		return fmt.Errorf("pubchem.similarity_threshold must be between 0 and 100")
	}
	if c.PubChem.SimilarLimit <= 0 {
		return fmt.Errorf("pubchem.similar_limit must be positive")
	}
	if c.PubChem.RandomMaxCID <= 0 {
		return fmt.Errorf("pubchem.random_max_cid must be positive")
	}
	if c.PubChem.RandomAttempts <= 0 {
		return fmt.Errorf("pubchem.random_attempts must be positive")
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when the cache is enabled")
	}

	if c.Session.HistoryRetention < 0 {
		return fmt.Errorf("session.history_retention must not be negative")
	}
	if c.Session.HistoryDisplay <= 0 {
		return fmt.Errorf("session.history_display must be positive")
	}

	if !slices.Contains(Locales, c.Bot.Locale) {
		return fmt.Errorf("bot.locale must be one of %s", strings.Join(Locales, ", "))
	}
	if c.Bot.ImageTimeout <= 0 {
		return fmt.Errorf("bot.image_timeout must be positive")
	}
	if c.Bot.ChoiceTTL <= 0 {
		return fmt.Errorf("bot.choice_ttl must be positive")
	}

	if !slices.Contains(LogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %s", strings.Join(LogLevels, ", "))
	}
	if !slices.Contains(LogFormat, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %s", strings.Join(LogFormat, ", "))
	}

	return nil
}

// ValidateMatrix checks the fields the Matrix transport needs.
func (c *Config) ValidateMatrix() error {
	if c.Matrix.Homeserver == "" {
		return fmt.Errorf("matrix.homeserver is required")
	}
	if err := httpURL("matrix.homeserver", c.Matrix.Homeserver); err != nil {
		return err
	}
	if c.Matrix.Username == "" {
		return fmt.Errorf("matrix.username is required")
	}
	if c.Matrix.Password == "" {
		return fmt.Errorf("matrix.password is required")
	}
	if strings.TrimSpace(c.Matrix.CommandPrefix) == "" {
		return fmt.Errorf("matrix.command_prefix must not be blank")
	}
	return nil
}

func httpURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme", field)
	}
	return nil
}

// Path returns the config file path.
// Priority: explicit flag > CHEMBOT_CONFIG env var > XDG_CONFIG_HOME/chembot/config.toml > ~/.config/chembot/config.toml
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if envPath := os.Getenv("CHEMBOT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "chembot", "config.toml")
}

// DataPath returns the chembot data directory.
// Priority: XDG_DATA_HOME/chembot > ~/.local/share/chembot
func DataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "chembot")
}
