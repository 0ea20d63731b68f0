// Package config loads settings for the server and the terminal client.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Store backends accepted by Storage.Backend.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds all configuration options.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Log          LogConfig          `mapstructure:"log"`
	Client       ClientConfig       `mapstructure:"client"`
	Autocomplete AutocompleteConfig `mapstructure:"autocomplete"`
	Listing      ListingConfig      `mapstructure:"listing"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Seed            bool          `mapstructure:"seed"` // add starter bus stops when the directory is empty
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend string      `mapstructure:"backend"` // "redis" or "sqlite"
	Redis   RedisConfig `mapstructure:"redis"`
	SQLite  string      `mapstructure:"sqlite_path"`
}

// RedisConfig locates the Redis database.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dev   bool   `mapstructure:"dev"`
	File  string `mapstructure:"file"` // terminal client log destination
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ExportPath string        `mapstructure:"export_path"`
}

// AutocompleteConfig bounds the bus stop candidate list.
type AutocompleteConfig struct {
	Limit int `mapstructure:"limit"`
}

// ListingConfig configures the response listing.
type ListingConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			Seed:            true,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Redis:   RedisConfig{Addr: "127.0.0.1:6379", DB: 8},
			SQLite:  "busreg.db",
		},
		Log: LogConfig{
			Level: "info",
			File:  "busreg-client.log",
		},
		Client: ClientConfig{
			BaseURL:    "http://127.0.0.1:8080",
			Timeout:    10 * time.Second,
			ExportPath: "students.xlsx",
		},
		Autocomplete: AutocompleteConfig{Limit: 10},
		Listing:      ListingConfig{PageSize: 6},
	}
}

// SetDefaults registers Defaults on v so that env and file overrides merge onto them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.seed", d.Server.Seed)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.redis.addr", d.Storage.Redis.Addr)
	v.SetDefault("storage.redis.password", d.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", d.Storage.Redis.DB)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLite)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.dev", d.Log.Dev)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("client.base_url", d.Client.BaseURL)
	v.SetDefault("client.timeout", d.Client.Timeout)
	v.SetDefault("client.export_path", d.Client.ExportPath)
	v.SetDefault("autocomplete.limit", d.Autocomplete.Limit)
	v.SetDefault("listing.page_size", d.Listing.PageSize)
}

// Load reads configuration into a Config. An explicit file must exist;
// otherwise ./busreg.yaml is used when present. Environment variables
// prefixed BUSREG_ override both (BUSREG_STORAGE_BACKEND=redis).
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("BUSREG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("busreg")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return errors.New("storage.redis.addr is required for the redis backend")
		}
	case BackendSQLite:
		if c.Storage.SQLite == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendRedis, BackendSQLite, c.Storage.Backend)
	}
	if c.Autocomplete.Limit <= 0 {
		return fmt.Errorf("autocomplete.limit must be positive, got %d", c.Autocomplete.Limit)
	}
	if c.Listing.PageSize <= 0 {
		return fmt.Errorf("listing.page_size must be positive, got %d", c.Listing.PageSize)
	}
	return nil
}

// LoadDotEnv exports KEY=VALUE lines from path into the process environment
// so BUSREG_ variables can live in a .env file. Variables already set win.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// WriteDefault writes Defaults to path as YAML. It refuses to overwrite an
// existing file.
func WriteDefault(path string) error {
	d := Defaults()
	doc := map[string]any{
		"server": map[string]any{
			"addr":             d.Server.Addr,
			"shutdown_timeout": d.Server.ShutdownTimeout.String(),
			"seed":             d.Server.Seed,
		},
		"storage": map[string]any{
			"backend":     d.Storage.Backend,
			"sqlite_path": d.Storage.SQLite,
			"redis": map[string]any{
				"addr":     d.Storage.Redis.Addr,
				"password": d.Storage.Redis.Password,
				"db":       d.Storage.Redis.DB,
			},
		},
		"log": map[string]any{
			"level": d.Log.Level,
			"dev":   d.Log.Dev,
			"file":  d.Log.File,
		},
		"client": map[string]any{
			"base_url":    d.Client.BaseURL,
			"timeout":     d.Client.Timeout.String(),
			"export_path": d.Client.ExportPath,
		},
		"autocomplete": map[string]any{"limit": d.Autocomplete.Limit},
		"listing":      map[string]any{"page_size": d.Listing.PageSize},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if _, err := f.Write(out); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	return f.Close()
}
