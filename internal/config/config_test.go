// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers TOML loading, defaults, env var expansion, duration parsing, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
[matrix]
homeserver = "https://matrix.example.org"
username = "chembot"
password = "secret"
allowed_rooms = ["!lab:example.org"]
command_prefix = "?"
typing_indicator = false

[pubchem]
timeout = "5s"
requests_per_second = 2.5
similarity_threshold = 95
similar_limit = 3

[cache]
enabled = false
ttl = "30m"

[session]
database = "/var/lib/chembot/chembot.db"
history_retention = 100
history_display = 7

[bot]
locale = "ru"
choice_ttl = "1h"

[server]
http_addr = "127.0.0.1:8080"

[logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Matrix.Homeserver != "https://matrix.example.org" {
		t.Errorf("Matrix.Homeserver = %q, want %q", cfg.Matrix.Homeserver, "https://matrix.example.org")
	}
	if len(cfg.Matrix.AllowedRooms) != 1 {
		t.Errorf("Matrix.AllowedRooms len = %d, want 1", len(cfg.Matrix.AllowedRooms))
	}
	if cfg.Matrix.CommandPrefix != "?" {
		t.Errorf("Matrix.CommandPrefix = %q, want %q", cfg.Matrix.CommandPrefix, "?")
	}
	if cfg.Matrix.TypingIndicator {
		t.Error("Matrix.TypingIndicator = true, want false")
	}

	if cfg.PubChem.Timeout != 5*time.Second {
		t.Errorf("PubChem.Timeout = %v, want %v", cfg.PubChem.Timeout, 5*time.Second)
	}
	if cfg.PubChem.RequestsPerSecond != 2.5 {
		t.Errorf("PubChem.RequestsPerSecond = %v, want 2.5", cfg.PubChem.RequestsPerSecond)
	}
	if cfg.PubChem.SimilarityThreshold != 95 {
		t.Errorf("PubChem.SimilarityThreshold = %d, want 95", cfg.PubChem.SimilarityThreshold)
	}
	if cfg.PubChem.SimilarLimit != 3 {
		t.Errorf("PubChem.SimilarLimit = %d, want 3", cfg.PubChem.SimilarLimit)
	}

	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, 30*time.Minute)
	}

	if cfg.Session.Database != "/var/lib/chembot/chembot.db" {
		t.Errorf("Session.Database = %q", cfg.Session.Database)
	}
	if cfg.Session.HistoryRetention != 100 {
		t.Errorf("Session.HistoryRetention = %d, want 100", cfg.Session.HistoryRetention)
	}
	if cfg.Session.HistoryDisplay != 7 {
		t.Errorf("Session.HistoryDisplay = %d, want 7", cfg.Session.HistoryDisplay)
	}

	if cfg.Bot.Locale != "ru" {
		t.Errorf("Bot.Locale = %q, want %q", cfg.Bot.Locale, "ru")
	}
	if cfg.Bot.ChoiceTTL != time.Hour {
		t.Errorf("Bot.ChoiceTTL = %v, want %v", cfg.Bot.ChoiceTTL, time.Hour)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:8080" {
		t.Errorf("Server.HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Matrix.Configured() {
		t.Error("Matrix.Configured() = true, want false")
	}
	if cfg.Matrix.CommandPrefix != "!" {
		t.Errorf("Matrix.CommandPrefix = %q, want %q", cfg.Matrix.CommandPrefix, "!")
	}
	if cfg.PubChem.BaseURL != "https://pubchem.ncbi.nlm.nih.gov/rest/pug" {
		t.Errorf("PubChem.BaseURL = %q", cfg.PubChem.BaseURL)
	}
	if cfg.PubChem.Timeout != 10*time.Second {
		t.Errorf("PubChem.Timeout = %v, want %v", cfg.PubChem.Timeout, 10*time.Second)
	}
	if cfg.PubChem.RequestsPerSecond != 5 {
		t.Errorf("PubChem.RequestsPerSecond = %v, want 5", cfg.PubChem.RequestsPerSecond)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true")
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, time.Hour)
	}
	if cfg.Cache.CleanupInterval != 10*time.Minute {
		t.Errorf("Cache.CleanupInterval = %v, want %v", cfg.Cache.CleanupInterval, 10*time.Minute)
	}
	if cfg.Session.Database != "" {
		t.Errorf("Session.Database = %q, want empty", cfg.Session.Database)
	}
	if cfg.Session.HistoryDisplay != 5 {
		t.Errorf("Session.HistoryDisplay = %d, want 5", cfg.Session.HistoryDisplay)
	}
	if cfg.Bot.Locale != "en" {
		t.Errorf("Bot.Locale = %q, want %q", cfg.Bot.Locale, "en")
	}
	if cfg.Bot.ImageTimeout != 10*time.Second {
		t.Errorf("Bot.ImageTimeout = %v, want %v", cfg.Bot.ImageTimeout, 10*time.Second)
	}
	if cfg.Bot.ChoiceTTL != 30*time.Minute {
		t.Errorf("Bot.ChoiceTTL = %v, want %v", cfg.Bot.ChoiceTTL, 30*time.Minute)
	}
	if cfg.Server.HTTPAddr != "" {
		t.Errorf("Server.HTTPAddr = %q, want empty", cfg.Server.HTTPAddr)
	}

	if err := cfg.ValidateMatrix(); err == nil {
		t.Error("ValidateMatrix() error = nil, want error for missing homeserver")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_CHEMBOT_USER", "bot-from-env")
	t.Setenv("TEST_CHEMBOT_PASSWORD", "pass-from-env")

	cfg, err := Load(writeConfig(t, `
[matrix]
homeserver = "https://matrix.org"
username = "${TEST_CHEMBOT_USER}"
password = "${TEST_CHEMBOT_PASSWORD}"
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Matrix.Username != "bot-from-env" {
		t.Errorf("Matrix.Username = %q, want %q", cfg.Matrix.Username, "bot-from-env")
	}
	if cfg.Matrix.Password != "pass-from-env" {
		t.Errorf("Matrix.Password = %q, want %q", cfg.Matrix.Password, "pass-from-env")
	}
}

func TestLoad_EnvVarExpansion_UnsetVar(t *testing.T) {
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	cfg, err := Load(writeConfig(t, `
[session]
database = "${UNSET_VAR_FOR_TEST}"
`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Session.Database != "" {
		t.Errorf("Session.Database = %q, want empty string for unset var", cfg.Session.Database)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Fatal("Load() expected error for nonexistent file, got nil")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[matrix\nhomeserver = "))
	if err == nil {
		t.Fatal("Load() expected error for invalid TOML, got nil")
	}
	if !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("error = %v, want it to mention parsing config", err)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, `
[pubchem]
time_out = "5s"
`))
	if err == nil {
		t.Fatal("Load() expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "pubchem.time_out") {
		t.Errorf("error = %v, want it to name the key", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	_, err := Load(writeConfig(t, `
[cache]
ttl = "forever"
`))
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "cache.ttl") {
		t.Errorf("error = %v, want it to name cache.ttl", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "matrix without username",
			mutate:  func(c *Config) { c.Matrix.Homeserver = "https://matrix.org"; c.Matrix.Password = "x" },
			wantErr: "matrix.username is required",
		},
		{
			name: "matrix without password",
			mutate: func(c *Config) {
				c.Matrix.Homeserver = "https://matrix.org"
				c.Matrix.Username = "bot"
			},
			wantErr: "matrix.password is required",
		},
		{
			name: "matrix homeserver scheme",
			mutate: func(c *Config) {
				c.Matrix.Homeserver = "ftp://matrix.org"
				c.Matrix.Username = "bot"
				c.Matrix.Password = "x"
			},
			wantErr: "matrix.homeserver must use http or https",
		},
		{
			name: "blank command prefix",
			mutate: func(c *Config) {
				c.Matrix.Homeserver = "https://matrix.org"
				c.Matrix.Username = "bot"
				c.Matrix.Password = "x"
				c.Matrix.CommandPrefix = " "
			},
			wantErr: "matrix.command_prefix",
		},
		{
			name:    "pubchem base url",
			mutate:  func(c *Config) { c.PubChem.BaseURL = "pubchem" },
			wantErr: "pubchem.base_url",
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.PubChem.RequestsPerSecond = -1 },
			wantErr: "pubchem.requests_per_second",
		},
		{
			name:    "zero rate means unlimited",
			mutate:  func(c *Config) { c.PubChem.RequestsPerSecond = 0 },
			wantErr: "",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.PubChem.SimilarityThreshold = 101 },
			wantErr: "pubchem.similarity_threshold",
		},
		{
			name:    "similar limit",
			mutate:  func(c *Config) { c.PubChem.SimilarLimit = 0 },
			wantErr: "pubchem.similar_limit",
		},
		{
			name:    "random attempts",
			mutate:  func(c *Config) { c.PubChem.RandomAttempts = 0 },
			wantErr: "pubchem.random_attempts",
		},
		{
			name:    "cache ttl when enabled",
			mutate:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: "cache.ttl",
		},
		{
			name:    "cache ttl ignored when disabled",
			mutate:  func(c *Config) { c.Cache.Enabled = false; c.Cache.TTL = 0 },
			wantErr: "",
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.Session.HistoryRetention = -1 },
			wantErr: "session.history_retention",
		},
		{
			name:    "history display",
			mutate:  func(c *Config) { c.Session.HistoryDisplay = 0 },
			wantErr: "session.history_display",
		},
		{
			name:    "locale",
			mutate:  func(c *Config) { c.Bot.Locale = "de" },
			wantErr: "bot.locale must be one of en, ru",
		},
		{
			name:    "log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := parseDurations(&cfg); err != nil {
				t.Fatalf("parseDurations() error = %v", err)
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CHEMBOT_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	if got := Path("/flag.toml"); got != "/flag.toml" {
		t.Errorf("Path(flag) = %q, want %q", got, "/flag.toml")
	}
	if got := Path(""); got != filepath.Join("/xdg", "chembot", "config.toml") {
		t.Errorf("Path(\"\") = %q, want XDG path", got)
	}

	t.Setenv("CHEMBOT_CONFIG", "/env.toml")
	if got := Path(""); got != "/env.toml" {
		t.Errorf("Path(\"\") = %q, want %q", got, "/env.toml")
	}
}

func TestDataPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DataPath(); got != filepath.Join("/data", "chembot") {
		t.Errorf("DataPath() = %q", got)
	}
}

func TestRender_RoundTrips(t *testing.T) {
	out := Render(InitAnswers{
		Homeserver: "https://matrix.org",
		Username:   "chembot",
		Password:   `p"ss`,
		Locale:     "ru",
		Database:   "/tmp/chembot.db",
		HTTPAddr:   ":8080",
	})

	cfg, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Render()) error = %v\n%s", err, out)
	}
	if cfg.Matrix.Password != `p"ss` {
		t.Errorf("Matrix.Password = %q, want %q", cfg.Matrix.Password, `p"ss`)
	}
	if cfg.Bot.Locale != "ru" {
		t.Errorf("Bot.Locale = %q, want %q", cfg.Bot.Locale, "ru")
	}
	if cfg.Session.Database != "/tmp/chembot.db" {
		t.Errorf("Session.Database = %q", cfg.Session.Database)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("Server.HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if err := cfg.ValidateMatrix(); err != nil {
		t.Errorf("ValidateMatrix() error = %v", err)
	}
}

func TestRender_WithoutMatrix(t *testing.T) {
	out := Render(InitAnswers{})
	cfg, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Render()) error = %v\n%s", err, out)
	}
	if cfg.Matrix.Configured() {
		t.Error("Matrix.Configured() = true, want false")
	}
	if !strings.Contains(out, "# Set a homeserver") {
		t.Error("rendered config should explain how to enable serve")
	}
}
