// Package config loads server configuration from flags, environment variables,
// a .env file and an optional YAML file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Image storage backends.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Auth     AuthConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json or pretty; empty picks by environment
}

// DataConfig locates on-disk state: the auth key, the default SQLite file and
// locally stored images.
type DataConfig struct {
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        // default: 8080
	ReadTimeout    time.Duration // default: 15s
	WriteTimeout   time.Duration // default: 30s
	IdleTimeout    time.Duration // default: 60s
	CORSOrigins    []string      // default: *
	MaxUploadBytes int64         // default: 10 MiB
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver      string
	DSN         string        // defaults to {data}/recipes.db for sqlite
	WaitTimeout time.Duration // how long startup waits for the database
}

// StorageConfig selects where recipe images are kept.
type StorageConfig struct {
	Backend    string
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string // optional, for S3-compatible services
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// TokenKey is a hex PASETO v4 symmetric key. Empty means load or
	// generate {data}/auth.key.
	TokenKey            string
	AccessTokenDuration time.Duration
	// Login and registration attempts allowed per client per minute.
	RateLimitPerMinute int
	RateLimitBurst     int
}

// fileConfig is the YAML file layout. Values are strings so they go through
// the same parsing as flags and environment variables.
type fileConfig struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logger"`
	Data struct {
		Path string `yaml:"path"`
	} `yaml:"data"`
	Server struct {
		Port           string   `yaml:"port"`
		ReadTimeout    string   `yaml:"read_timeout"`
		WriteTimeout   string   `yaml:"write_timeout"`
		IdleTimeout    string   `yaml:"idle_timeout"`
		CORSOrigins    []string `yaml:"cors_origins"`
		MaxUploadBytes string   `yaml:"max_upload_bytes"`
	} `yaml:"server"`
	Database struct {
		Driver      string `yaml:"driver"`
		DSN         string `yaml:"dsn"`
		WaitTimeout string `yaml:"wait_timeout"`
	} `yaml:"database"`
	Storage struct {
		Backend string `yaml:"backend"`
		S3      struct {
			Bucket   string `yaml:"bucket"`
			Prefix   string `yaml:"prefix"`
			Region   string `yaml:"region"`
			Endpoint string `yaml:"endpoint"`
		} `yaml:"s3"`
	} `yaml:"storage"`
	Auth struct {
		TokenKey           string `yaml:"token_key"`
		TokenDuration      string `yaml:"token_duration"`
		RateLimitPerMinute string `yaml:"rate_limit_per_minute"`
		RateLimitBurst     string `yaml:"rate_limit_burst"`
	} `yaml:"auth"`
}

// values flattens the file into environment-variable keys.
func (f *fileConfig) values() map[string]string {
	return map[string]string{
		"ENV":                   f.App.Env,
		"LOG_LEVEL":             f.Logger.Level,
		"LOG_FORMAT":            f.Logger.Format,
		"DATA_PATH":             f.Data.Path,
		"SERVER_PORT":           f.Server.Port,
		"SERVER_READ_TIMEOUT":   f.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":  f.Server.WriteTimeout,
		"SERVER_IDLE_TIMEOUT":   f.Server.IdleTimeout,
		"CORS_ORIGINS":          strings.Join(f.Server.CORSOrigins, ","),
		"MAX_UPLOAD_BYTES":      f.Server.MaxUploadBytes,
		"DB_DRIVER":             f.Database.Driver,
		"DB_DSN":                f.Database.DSN,
		"DB_WAIT_TIMEOUT":       f.Database.WaitTimeout,
		"STORAGE_BACKEND":       f.Storage.Backend,
		"S3_BUCKET":             f.Storage.S3.Bucket,
		"S3_PREFIX":             f.Storage.S3.Prefix,
		"S3_REGION":             f.Storage.S3.Region,
		"S3_ENDPOINT":           f.Storage.S3.Endpoint,
		"AUTH_TOKEN_KEY":        f.Auth.TokenKey,
		"ACCESS_TOKEN_DURATION": f.Auth.TokenDuration,
		"AUTH_RATE_LIMIT":       f.Auth.RateLimitPerMinute,
		"AUTH_RATE_BURST":       f.Auth.RateLimitBurst,
	}
}

// source resolves a key with precedence flag > env (including .env) > file > default.
type source struct {
	flags map[string]*string
	file  map[string]string
}

func (s *source) get(flagName, envKey, defaultValue string) string {
	if p, ok := s.flags[flagName]; ok && *p != "" {
		return *p
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if v := s.file[envKey]; v != "" {
		return v
	}
	return defaultValue
}

func (s *source) duration(flagName, envKey, defaultValue string) (time.Duration, error) {
	raw := s.get(flagName, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return d, nil
}

func (s *source) integer(flagName, envKey string, defaultValue int64) (int64, error) {
	raw := s.get(flagName, envKey, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, raw, err)
	}
	return n, nil
}

// flagSpec is one string flag and its help text.
type flagSpec struct{ name, usage string }

var flagSpecs = []flagSpec{
	{"env", "Environment (development, staging, production)"},
	{"log-level", "Log level (debug, info, warn, error)"},
	{"log-format", "Log format (json, pretty)"},
	{"data-path", "Base path for the auth key, SQLite file and local images"},
	{"port", "Server port (default: 8080)"},
	{"read-timeout", "HTTP read timeout (default: 15s)"},
	{"write-timeout", "HTTP write timeout (default: 30s)"},
	{"idle-timeout", "HTTP idle timeout (default: 60s)"},
	{"cors-origins", "Comma-separated allowed CORS origins (default: *)"},
	{"max-upload-bytes", "Largest accepted image upload in bytes"},
	{"db-driver", "Database driver (sqlite, postgres)"},
	{"db-dsn", "Database DSN or SQLite file path"},
	{"db-wait-timeout", "How long to wait for the database at startup (default: 30s)"},
	{"storage-backend", "Image storage backend (local, s3)"},
	{"s3-bucket", "S3 bucket for images"},
	{"s3-prefix", "Key prefix inside the S3 bucket"},
	{"s3-region", "S3 region"},
	{"s3-endpoint", "S3-compatible endpoint URL"},
	{"token-key", "Hex PASETO v4 symmetric key"},
	{"access-token-duration", "Access token lifetime (default: 24h)"},
	{"auth-rate-limit", "Login/registration attempts per client per minute (default: 10)"},
	{"auth-rate-burst", "Burst for login/registration attempts (default: 5)"},
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. YAML file given by --config or CONFIG_FILE.
// 5. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("recipe-server", flag.ContinueOnError)
	flags := make(map[string]*string, len(flagSpecs))
	for _, spec := range flagSpecs {
		flags[spec.name] = fs.String(spec.name, "", spec.usage)
	}
	envFile := fs.String("env-file", ".env", "Path to .env file")
	configFile := fs.String("config", "", "Path to YAML config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	if err := loadEnvFile(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	src := &source{flags: flags}
	path := *configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		file, err := loadYAMLFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file.values()
	}

	return build(src)
}

func build(src *source) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: src.get("env", "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  src.get("log-level", "LOG_LEVEL", "info"),
			Format: src.get("log-format", "LOG_FORMAT", ""),
		},
		Data: DataConfig{
			BasePath: src.get("data-path", "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:        src.get("port", "SERVER_PORT", "8080"),
			CORSOrigins: splitList(src.get("cors-origins", "CORS_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(src.get("db-driver", "DB_DRIVER", DriverSQLite)),
			DSN:    src.get("db-dsn", "DB_DSN", ""),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(src.get("storage-backend", "STORAGE_BACKEND", StorageLocal)),
			S3Bucket:   src.get("s3-bucket", "S3_BUCKET", ""),
			S3Prefix:   src.get("s3-prefix", "S3_PREFIX", ""),
			S3Region:   src.get("s3-region", "S3_REGION", "us-east-1"),
			S3Endpoint: src.get("s3-endpoint", "S3_ENDPOINT", ""),
		},
		Auth: AuthConfig{
			TokenKey: src.get("token-key", "AUTH_TOKEN_KEY", ""),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = src.duration("read-timeout", "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = src.duration("write-timeout", "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = src.duration("idle-timeout", "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Database.WaitTimeout, err = src.duration("db-wait-timeout", "DB_WAIT_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Auth.AccessTokenDuration, err = src.duration("access-token-duration", "ACCESS_TOKEN_DURATION", "24h"); err != nil {
		return nil, err
	}
	if cfg.Server.MaxUploadBytes, err = src.integer("max-upload-bytes", "MAX_UPLOAD_BYTES", 10<<20); err != nil {
		return nil, err
	}
	perMinute, err := src.integer("auth-rate-limit", "AUTH_RATE_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	burst, err := src.integer("auth-rate-burst", "AUTH_RATE_BURST", 5)
	if err != nil {
		return nil, err
	}
	cfg.Auth.RateLimitPerMinute = int(perMinute)
	cfg.Auth.RateLimitBurst = int(burst)

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.DSN == "" {
		cfg.Database.DSN = filepath.Join(cfg.Data.BasePath, "recipes.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if c.Logger.Format != "" && c.Logger.Format != "json" && c.Logger.Format != "pretty" {
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 storage backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be local or s3)", c.Storage.Backend)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}
	if c.Auth.RateLimitPerMinute <= 0 || c.Auth.RateLimitBurst <= 0 {
		return errors.New("auth rate limit and burst must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data directory to ~/RecipeServer/data.
func (c *Config) expandDataPath() error {
	var defaultPath string
	if c.Data.BasePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		defaultPath = filepath.Join(homeDir, "RecipeServer", "data")
	}

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadYAMLFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- config file path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &f, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
