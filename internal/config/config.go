// Package config loads the server configuration from an optional YAML file
// overlaid by ROSTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Session registries
const (
	RegistryMemory = "memory"
	RegistryRedis  = "redis"
)

// Config is the full server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Sessions SessionsConfig `yaml:"sessions"`
	Auth     AuthConfig     `yaml:"auth"`
	Blobs    BlobsConfig    `yaml:"blobs"`
	Events   EventsConfig   `yaml:"events"`
	// Seed loads sample teams and players into an empty store at startup
	Seed bool `yaml:"seed"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	Metrics         bool          `yaml:"metrics"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	// DSN is the sqlite file or postgres connection string
	DSN      string `yaml:"dsn"`
	RedisURL string `yaml:"redis_url"`
}

type SessionsConfig struct {
	Registry      string        `yaml:"registry"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type AuthConfig struct {
	// PasswordHash is a bcrypt hash and wins over Password
	PasswordHash string `yaml:"password_hash"`
	Password     string `yaml:"password"`
}

type BlobsConfig struct {
	Driver string   `yaml:"driver"`
	Root   string   `yaml:"root"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

type EventsConfig struct {
	// NATSURL enables publishing change events to NATS when set
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			Metrics:         true,
		},
		Log:     LogConfig{Level: "info"},
		Storage: StorageConfig{Driver: StorageMemory, RedisURL: "redis://localhost:6379"},
		Sessions: SessionsConfig{
			Registry:      RegistryMemory,
			TTL:           24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Blobs:  BlobsConfig{Driver: "fs", Root: "data/uploads"},
		Events: EventsConfig{SubjectPrefix: "roster"},
		Seed:   true,
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment overrides.
// getenv is usually os.Getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("ROSTER_HOST", &cfg.Server.Host)
	num("ROSTER_PORT", &cfg.Server.Port)
	if v := getenv("ROSTER_CORS_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	flag("ROSTER_METRICS", &cfg.Server.Metrics)
	str("ROSTER_LOG_LEVEL", &cfg.Log.Level)

	str("ROSTER_STORAGE_DRIVER", &cfg.Storage.Driver)
	str("ROSTER_DATABASE_URL", &cfg.Storage.DSN)
	str("ROSTER_REDIS_URL", &cfg.Storage.RedisURL)

	str("ROSTER_SESSION_REGISTRY", &cfg.Sessions.Registry)
	dur("ROSTER_SESSION_TTL", &cfg.Sessions.TTL)
	dur("ROSTER_SESSION_SWEEP_INTERVAL", &cfg.Sessions.SweepInterval)

	str("ROSTER_ADMIN_PASSWORD", &cfg.Auth.Password)
	str("ROSTER_ADMIN_PASSWORD_HASH", &cfg.Auth.PasswordHash)

	str("ROSTER_BLOB_DRIVER", &cfg.Blobs.Driver)
	str("ROSTER_BLOB_ROOT", &cfg.Blobs.Root)
	str("ROSTER_S3_BUCKET", &cfg.Blobs.S3.Bucket)
	str("ROSTER_S3_REGION", &cfg.Blobs.S3.Region)
	str("ROSTER_S3_ENDPOINT", &cfg.Blobs.S3.Endpoint)
	str("ROSTER_S3_ACCESS_KEY_ID", &cfg.Blobs.S3.AccessKeyID)
	str("ROSTER_S3_SECRET_ACCESS_KEY", &cfg.Blobs.S3.SecretAccessKey)
	flag("ROSTER_S3_PATH_STYLE", &cfg.Blobs.S3.PathStyle)

	str("ROSTER_NATS_URL", &cfg.Events.NATSURL)
	str("ROSTER_NATS_SUBJECT_PREFIX", &cfg.Events.SubjectPrefix)

	flag("ROSTER_SEED", &cfg.Seed)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports every setting that cannot be used
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}

	switch c.Storage.Driver {
	case StorageMemory, StorageRedis:
	case StorageSQLite, StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage driver %q requires a dsn", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	switch c.Sessions.Registry {
	case RegistryMemory, RegistryRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown session registry %q", c.Sessions.Registry))
	}
	if c.Sessions.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether any component needs a redis connection
func (c *Config) UsesRedis() bool {
	return c.Storage.Driver == StorageRedis || c.Sessions.Registry == RegistryRedis
}

// AdminPasswordHash returns the configured bcrypt hash, hashing a plain password if that is all there is.
// An empty result means no login can succeed.
func (c *Config) AdminPasswordHash() (string, error) {
	if c.Auth.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.Auth.PasswordHash)); err != nil {
			return "", fmt.Errorf("admin password hash: %w", err)
		}
		return c.Auth.PasswordHash, nil
	}
	if c.Auth.Password == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Auth.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return string(hash), nil
}

// ParseLevel maps a level name to a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
