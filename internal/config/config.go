package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/meonghae/profile-service/server/recurrence"
	"gopkg.in/yaml.v3"
)

const (
	defaultListen         = "127.0.0.1:8080"
	defaultTimezone       = "Asia/Seoul"
	defaultLogLevel       = "info"
	defaultAccessTokenTTL = time.Hour
	defaultTokenCacheTTL  = 30 * time.Minute
	defaultCleanup        = "@every 5m"
)

// JWTConfig controls access token signing.
type JWTConfig struct {
	// Secret is the HS256 signing key. A random one is generated on first run.
	Secret         string        `yaml:"secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
}

// RedisConfig points the token cache at Redis. An empty URL keeps the cache
// in process.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// CacheConfig tunes the recurrence expansion cache.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	// Cleanup is a cron spec such as "@every 5m" or "*/10 * * * *".
	Cleanup string `yaml:"cleanup"`
}

// RecurrenceConfig configures the recurrence engine.
type RecurrenceConfig struct {
	Cache        CacheConfig `yaml:"cache"`
	MaxExpansion int         `yaml:"max_expansion"`
}

// UserConfig is an account seeded into the in-memory user store.
type UserConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Roles    string `yaml:"roles,omitempty"`
}

// Config is the top-level service configuration.
type Config struct {
	Listen string `yaml:"listen"`
	// Timezone is the IANA zone schedules are interpreted in.
	Timezone string `yaml:"timezone"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
	// Database is the SQLite file path. Empty keeps everything in memory.
	Database    string           `yaml:"database"`
	CORSOrigins []string         `yaml:"cors_origins,omitempty"`
	JWT         JWTConfig        `yaml:"jwt"`
	Redis       RedisConfig      `yaml:"redis"`
	Recurrence  RecurrenceConfig `yaml:"recurrence"`
	Users       []UserConfig     `yaml:"users,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   defaultListen,
		Timezone: defaultTimezone,
		LogLevel: defaultLogLevel,
		JWT: JWTConfig{
			Secret:         uuid.NewString(),
			AccessTokenTTL: defaultAccessTokenTTL,
		},
		Redis: RedisConfig{TokenTTL: defaultTokenCacheTTL},
		Recurrence: RecurrenceConfig{
			Cache: CacheConfig{
				Enabled:    true,
				TTL:        recurrence.DefaultCacheConfig.TTL,
				MaxEntries: recurrence.DefaultCacheConfig.MaxEntries,
				Cleanup:    defaultCleanup,
			},
			MaxExpansion: recurrence.DefaultEngineConfig.MaxExpansionOccurrences,
		},
	}
}

// Normalize fills in missing or zero values so partially filled files still
// work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = uuid.NewString()
	}
	if c.JWT.AccessTokenTTL <= 0 {
		c.JWT.AccessTokenTTL = defaultAccessTokenTTL
	}
	if c.Redis.TokenTTL <= 0 {
		c.Redis.TokenTTL = defaultTokenCacheTTL
	}
	if c.Recurrence.Cache.TTL <= 0 {
		c.Recurrence.Cache.TTL = recurrence.DefaultCacheConfig.TTL
	}
	if c.Recurrence.Cache.MaxEntries <= 0 {
		c.Recurrence.Cache.MaxEntries = recurrence.DefaultCacheConfig.MaxEntries
	}
	if c.Recurrence.Cache.Cleanup == "" {
		c.Recurrence.Cache.Cleanup = defaultCleanup
	}
	if c.Recurrence.MaxExpansion <= 0 {
		c.Recurrence.MaxExpansion = recurrence.DefaultEngineConfig.MaxExpansionOccurrences
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EngineConfig converts the recurrence section into an engine configuration.
func (c *Config) EngineConfig() recurrence.EngineConfig {
	return recurrence.EngineConfig{
		CacheEnabled: c.Recurrence.Cache.Enabled,
		CacheConfig: recurrence.CacheConfig{
			TTL:         c.Recurrence.Cache.TTL,
			MaxEntries:  c.Recurrence.Cache.MaxEntries,
			CleanupSpec: c.Recurrence.Cache.Cleanup,
		},
		MaxExpansionOccurrences: c.Recurrence.MaxExpansion,
	}
}

// Load reads the YAML file at path. A missing file is created with the
// defaults and 0600 permissions. A file without a jwt secret is rewritten
// with a generated one.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	missingSecret := cfg.JWT.Secret == ""
	cfg.Normalize()

	// issued tokens must survive a restart
	if missingSecret {
		if err := Save(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to persist generated jwt secret: %w", err)
		}
	}
	return &cfg, nil
}

// Save writes cfg to path through a temporary file and a rename. The result
// has 0600 permissions since it holds the signing secret.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".profiled-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
