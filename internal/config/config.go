package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store kinds accepted in session.store.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// APIConfig describes the remote REST API.
type APIConfig struct {
	BaseURL string        `toml:"base_url" env:"CGPT_API_URL" env-default:"http://localhost:8000"`
	Timeout time.Duration `toml:"timeout" env:"CGPT_API_TIMEOUT" env-default:"30s"`
	// RefreshTimeout bounds a single refresh exchange. A negative value disables the bound.
	RefreshTimeout time.Duration `toml:"refresh_timeout" env:"CGPT_REFRESH_TIMEOUT" env-default:"30s"`
}

// SessionConfig selects where the credential pair is persisted.
type SessionConfig struct {
	Store         string `toml:"store" env:"CGPT_SESSION_STORE" env-default:"file"`
	Path          string `toml:"path" env:"CGPT_SESSION_PATH"`
	RedisAddr     string `toml:"redis_addr" env:"CGPT_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `toml:"redis_password" env:"CGPT_REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"CGPT_REDIS_DB"`
	RedisPrefix   string `toml:"redis_prefix" env:"CGPT_REDIS_PREFIX" env-default:"constitutiongpt:"`
}

// LogConfig controls the slog handler built in main.
type LogConfig struct {
	Level  string `toml:"level" env:"CGPT_LOG_LEVEL" env-default:"info"`
	Format string `toml:"format" env:"CGPT_LOG_FORMAT" env-default:"text"`
	// File receives client logs; the terminal belongs to the TUI. Empty discards them.
	File string `toml:"file" env:"CGPT_LOG_FILE"`
}

// UIConfig holds shell settings.
type UIConfig struct {
	PollInterval time.Duration `toml:"poll_interval" env:"CGPT_POLL_INTERVAL" env-default:"5s"`
}

// MockConfig configures the development server in cmd/mockapi.
type MockConfig struct {
	Addr       string        `toml:"addr" env:"CGPT_MOCK_ADDR" env-default:":8000"`
	Secret     string        `toml:"secret" env:"CGPT_MOCK_SECRET" env-default:"dev-secret-change-me"`
	AccessTTL  time.Duration `toml:"access_ttl" env:"CGPT_MOCK_ACCESS_TTL" env-default:"15m"`
	RefreshTTL time.Duration `toml:"refresh_ttl" env:"CGPT_MOCK_REFRESH_TTL" env-default:"168h"`
}

// Config holds all constitutiongpt configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
	Mock    MockConfig    `toml:"mock"`
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, only environment variables and defaults apply.
// Environment variables always take precedence over file values.
func LoadFrom(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	if cfg.Session.Path == "" {
		cfg.Session.Path = DefaultSessionPath()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	switch c.Session.Store {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("session.store %q: want file, redis or memory", c.Session.Store)
	}
	if c.UI.PollInterval <= 0 {
		return fmt.Errorf("ui.poll_interval must be positive, got %s", c.UI.PollInterval)
	}
	return nil
}

// SlogLevel parses log.level, falling back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// ResolvePath picks the config file: the explicit flag value, then CGPT_CONFIG,
// then the default location.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("CGPT_CONFIG"); v != "" {
		return v
	}
	return DefaultConfigPath()
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// DefaultSessionPath returns the default path for the persisted credential pair.
func DefaultSessionPath() string {
	return filepath.Join(configDir(), "session.toml")
}

func configDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "constitutiongpt")
}
