// config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Models names the remote model used for each media kind.
type Models struct {
	Text      string `toml:"text"`
	Image     string `toml:"image"`
	Video     string `toml:"video"`
	Speech    string `toml:"speech"`
	Transform string `toml:"transform"`
}

// Config holds every server setting. Values come from an optional TOML file
// and are overridden by STUDIO_* environment variables.
type Config struct {
	Port         string `toml:"port"`
	DataDir      string `toml:"data_dir"`
	Store        string `toml:"store"`
	DatabaseURL  string `toml:"database_url"`
	Password     string `toml:"password"`
	PasswordHash string `toml:"password_hash"`
	LogLevel     string `toml:"log_level"`
	LogFormat    string `toml:"log_format"`

	GeminiBaseURL        string `toml:"gemini_base_url"`
	Models               Models `toml:"models"`
	VideoPollSeconds     int    `toml:"video_poll_seconds"`
	HTTPTimeoutSeconds   int    `toml:"http_timeout_seconds"`
	StoreMaxValueBytes   int    `toml:"store_max_value_bytes"`
	ShutdownGraceSeconds int    `toml:"shutdown_grace_seconds"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:          "8080",
		DataDir:       "./data",
		Store:         StoreSQLite,
		Password:      "dev",
		LogLevel:      "info",
		LogFormat:     "auto",
		GeminiBaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Models: Models{
			Text:      "gemini-2.5-flash",
			Image:     "imagen-4.0-generate-001",
			Video:     "veo-3.1-fast-generate-preview",
			Speech:    "gemini-2.5-flash-preview-tts",
			Transform: "gemini-2.5-flash-image",
		},
		VideoPollSeconds:     10,
		HTTPTimeoutSeconds:   120,
		ShutdownGraceSeconds: 10,
	}
}

// Load reads .env (if present), the TOML file named by STUDIO_CONFIG (if set)
// and the environment, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("STUDIO_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"STUDIO_PORT":            &c.Port,
		"STUDIO_DATA_DIR":        &c.DataDir,
		"STUDIO_STORE":           &c.Store,
		"STUDIO_DATABASE_URL":    &c.DatabaseURL,
		"STUDIO_PASSWORD":        &c.Password,
		"STUDIO_PASSWORD_HASH":   &c.PasswordHash,
		"STUDIO_LOG_LEVEL":       &c.LogLevel,
		"STUDIO_LOG_FORMAT":      &c.LogFormat,
		"STUDIO_GEMINI_BASE_URL": &c.GeminiBaseURL,
		"STUDIO_MODEL_TEXT":      &c.Models.Text,
		"STUDIO_MODEL_IMAGE":     &c.Models.Image,
		"STUDIO_MODEL_VIDEO":     &c.Models.Video,
		"STUDIO_MODEL_SPEECH":    &c.Models.Speech,
		"STUDIO_MODEL_TRANSFORM": &c.Models.Transform,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"STUDIO_VIDEO_POLL_SECONDS":     &c.VideoPollSeconds,
		"STUDIO_HTTP_TIMEOUT_SECONDS":   &c.HTTPTimeoutSeconds,
		"STUDIO_STORE_MAX_VALUE_BYTES":  &c.StoreMaxValueBytes,
		"STUDIO_SHUTDOWN_GRACE_SECONDS": &c.ShutdownGraceSeconds,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}

	if c.Port == "" {
		c.Port = os.Getenv("PORT")
	}
	return nil
}

func (c *Config) normalize() {
	c.Port = strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.GeminiBaseURL = strings.TrimRight(strings.TrimSpace(c.GeminiBaseURL), "/")
	if c.DataDir != "" {
		c.DataDir = filepath.Clean(c.DataDir)
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	} else if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port %q is not a number", c.Port))
	}
	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("database_url is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported store %q", c.Store))
	}
	if c.Store == StoreSQLite && c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required for the sqlite store"))
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unsupported log format %q", c.LogFormat))
	}
	if c.VideoPollSeconds <= 0 {
		errs = append(errs, errors.New("video_poll_seconds must be positive"))
	}
	if c.StoreMaxValueBytes < 0 {
		errs = append(errs, errors.New("store_max_value_bytes must not be negative"))
	}
	if c.Password == "" && c.PasswordHash == "" {
		errs = append(errs, errors.New("either password or password_hash is required"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }

func (c *Config) VideoPollInterval() time.Duration {
	return time.Duration(c.VideoPollSeconds) * time.Second
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceSeconds) * time.Second
}

// SQLitePath is where the sqlite store keeps its database.
func (c *Config) SQLitePath() string { return filepath.Join(c.DataDir, "studio.db") }

// ClipsDir holds downloaded video clips.
func (c *Config) ClipsDir() string { return filepath.Join(c.DataDir, "clips") }

// EnsureDirectories creates the data directories the server writes to.
func (c *Config) EnsureDirectories() error {
	if c.DataDir == "" {
		return nil
	}
	for _, dir := range []string{c.DataDir, c.ClipsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
