package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvYouTubeAPIKey = "YOUTUBE_API_KEY"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Telegram  TelegramConfig  `toml:"telegram"`
	YouTube   YouTubeConfig   `toml:"youtube"`
	Database  DatabaseConfig  `toml:"database"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Server    ServerConfig    `toml:"server"`
	Bot       BotConfig       `toml:"bot"`
}

// TelegramConfig contains the bot token and long-poll settings.
type TelegramConfig struct {
	Token       string `toml:"token"`
	PollTimeout string `toml:"poll_timeout"`
}

// YouTubeConfig selects the playlist provider and holds its credentials.
type YouTubeConfig struct {
	Provider          string      `toml:"provider"`
	APIKey            string      `toml:"api_key"`
	BaseURL           string      `toml:"base_url"`
	FeedURL           string      `toml:"feed_url"`
	MaxResults        int         `toml:"max_results"`
	RequestTimeout    string      `toml:"request_timeout"`
	RequestsPerSecond float64     `toml:"requests_per_second"`
	OAuth             OAuthConfig `toml:"oauth"`
}

// OAuthConfig holds an offline refresh token for private playlists.
type OAuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
}

// Enabled reports whether all OAuth fields are present.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != "" && o.RefreshToken != ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	BusyTimeout  string `toml:"busy_timeout"`
}

// SchedulerConfig controls the periodic polling loop.
type SchedulerConfig struct {
	Cadence          string `toml:"cadence"`
	InitialDelay     string `toml:"initial_delay"`
	Pause            string `toml:"pause"`
	DefaultInterval  int    `toml:"default_interval"`
	RespectIntervals bool   `toml:"respect_intervals"`
}

// ServerConfig contains status server settings.
type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BotConfig contains conversation settings.
type BotConfig struct {
	SessionTTL string `toml:"session_ttl"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

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

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config as TOML to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets with values from the environment when they are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvTelegramToken)); v != "" {
		c.Telegram.Token = v
	}
	if v := strings.TrimSpace(getenv(EnvYouTubeAPIKey)); v != "" {
		c.YouTube.APIKey = v
	}
}

// Validate checks enumerations and duration fields.
func (c *Config) Validate() error {
	switch c.YouTube.Provider {
	case "", "api", "feed":
	default:
		return fmt.Errorf("%w: youtube.provider must be \"api\" or \"feed\", got %q", ErrInvalidConfig, c.YouTube.Provider)
	}

	fields := map[string]string{
		"telegram.poll_timeout":   c.Telegram.PollTimeout,
		"youtube.request_timeout": c.YouTube.RequestTimeout,
		"database.busy_timeout":   c.Database.BusyTimeout,
		"scheduler.initial_delay": c.Scheduler.InitialDelay,
		"scheduler.pause":         c.Scheduler.Pause,
		"bot.session_ttl":         c.Bot.SessionTTL,
	}
	for path, raw := range fields {
		if _, err := ParseDurationField(path, raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	if c.YouTube.MaxResults < 0 {
		return fmt.Errorf("%w: youtube.max_results must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// ParseDurationField parses a duration string, treating an empty value as zero.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault parses raw, falling back to def when it is empty, zero or invalid.
func ParseDurationOrDefault(raw string, def time.Duration) time.Duration {
	d, err := ParseDurationField("", raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
