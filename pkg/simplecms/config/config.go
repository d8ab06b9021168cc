// Package config loads server settings and builds the components they
// describe.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// the defaults, then validates the result.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		AppName:                "Recipe Tech Backend",
		AppVersion:             "1.0.0",
		Port:                   "8000",
		TokenExpireMinutes:     30,
		DatabaseURL:            "sqlite:///./app.db",
		CORSOrigins:            []string{"http://localhost:3000", "http://localhost:8000", "http://localhost:8080"},
		APIPrefix:              "/api/v1",
		StorageBackend:         "s3",
		StorageDir:             "./data/uploads",
		UploadsURL:             "/uploads",
		ObjectKeyLayout:        "flat",
		AWSRegion:              "us-east-1",
		SSEAlgorithm:           "AES256",
		LoginRateLimit:         5,
		LoginRateWindowSeconds: 60,
		EnableEventLogging:     true,
	}
}

// ServerConfig holds every setting of the blog server. Field tags map each
// setting to its environment variable.
type ServerConfig struct {
	AppName    string `env:"APP_NAME" env-default:"Recipe Tech Backend"`
	AppVersion string `env:"APP_VERSION" env-default:"1.0.0"`
	Debug      bool   `env:"DEBUG"`
	Port       string `env:"PORT" env-default:"8000"`

	// Security
	SecretKey          string `env:"SECRET_KEY" env-required:"true"`
	TokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" env-default:"30"`
	AdminUsername      string `env:"ADMIN_USERNAME" env-required:"true"`
	AdminPassword      string `env:"ADMIN_PASSWORD" env-required:"true"`

	// DatabaseURL selects the repository: "memory", "sqlite:///path" or a
	// postgres:// connection string.
	DatabaseURL string `env:"DATABASE_URL" env-default:"sqlite:///./app.db"`

	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:8000,http://localhost:8080"`
	APIPrefix   string   `env:"API_PREFIX" env-default:"/api/v1"`

	// Image storage
	StorageBackend  string `env:"STORAGE_BACKEND" env-default:"s3"` // memory, fs, s3
	StorageDir      string `env:"STORAGE_DIR" env-default:"./data/uploads"`
	UploadsURL      string `env:"UPLOADS_URL" env-default:"/uploads"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
	ObjectKeyLayout string `env:"OBJECT_KEY_LAYOUT" env-default:"flat"` // flat, git-like

	// S3
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION" env-default:"us-east-1"`
	S3Bucket           string `env:"S3_BUCKET_NAME"`
	S3Endpoint         string `env:"AWS_S3_ENDPOINT"`
	S3UsePathStyle     bool   `env:"AWS_S3_USE_PATH_STYLE"`
	S3CreateBucket     bool   `env:"AWS_S3_CREATE_BUCKET"`
	EnableSSE          bool   `env:"AWS_S3_ENABLE_SSE"`
	SSEAlgorithm       string `env:"AWS_S3_SSE_ALGORITHM" env-default:"AES256"`
	SSEKMSKeyID        string `env:"AWS_S3_SSE_KMS_KEY_ID"`

	// LoginRateLimit attempts per window are allowed per client. Zero disables it.
	LoginRateLimit         int  `env:"LOGIN_RATE_LIMIT" env-default:"5"`
	LoginRateWindowSeconds int  `env:"LOGIN_RATE_WINDOW_SECONDS" env-default:"60"`
	EnableEventLogging     bool `env:"ENABLE_EVENT_LOGGING" env-default:"true"`
}

// WithEnv reads settings from the process environment. Unset variables keep
// the values already in the config.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		return nil
	}
}

// WithEnvFile reads a dotenv file, then the environment. A missing file is
// not an error.
func WithEnvFile(path string) Option {
	return func(c *ServerConfig) error {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return WithEnv()(c)
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		return nil
	}
}

// WithSecret sets the token signing key and the bootstrap admin.
func WithSecret(secretKey, adminUsername, adminPassword string) Option {
	return func(c *ServerConfig) error {
		c.SecretKey = secretKey
		c.AdminUsername = adminUsername
		c.AdminPassword = adminPassword
		return nil
	}
}

// WithDatabaseURL overrides the repository selection.
func WithDatabaseURL(databaseURL string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = databaseURL
		return nil
	}
}

// WithStorageBackend selects the image store.
func WithStorageBackend(backend string) Option {
	return func(c *ServerConfig) error {
		c.StorageBackend = backend
		return nil
	}
}

// WithStorageDir sets the directory of the fs image store.
func WithStorageDir(dir string) Option {
	return func(c *ServerConfig) error {
		c.StorageDir = dir
		return nil
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}
	if c.TokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.TokenExpireMinutes)
	}
	if _, _, err := c.Database(); err != nil {
		return err
	}

	switch c.StorageBackend {
	case "memory":
	case "fs":
		if c.StorageDir == "" {
			return errors.New("STORAGE_DIR is required for the fs storage backend")
		}
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET_NAME is required for the s3 storage backend")
		}
		if c.EnableSSE && c.SSEAlgorithm != "AES256" && c.SSEAlgorithm != "aws:kms" {
			return fmt.Errorf("unsupported SSE algorithm %q", c.SSEAlgorithm)
		}
	default:
		return fmt.Errorf("storage backend must be 'memory', 'fs' or 's3', got %q", c.StorageBackend)
	}

	if !slices.Contains([]string{"", "flat", "git-like"}, c.ObjectKeyLayout) {
		return fmt.Errorf("object key layout must be 'flat' or 'git-like', got %q", c.ObjectKeyLayout)
	}
	if c.LoginRateLimit < 0 {
		return errors.New("LOGIN_RATE_LIMIT cannot be negative")
	}
	return nil
}

// Database kinds returned by ServerConfig.Database.
const (
	DatabaseMemory   = "memory"
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Database classifies DatabaseURL and returns the kind with its DSN: the
// file path for SQLite and the connection string for PostgreSQL.
func (c *ServerConfig) Database() (string, string, error) {
	raw := strings.TrimSpace(c.DatabaseURL)
	switch {
	case raw == "" || raw == "memory":
		return DatabaseMemory, "", nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DatabasePostgres, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		// sqlite:///./app.db names the relative path ./app.db, sqlite:////abs.db an absolute one
		path := strings.TrimPrefix(u.Host+u.Path, "/")
		if path == "" {
			return "", "", errors.New("DATABASE_URL is missing the sqlite file path")
		}
		return DatabaseSQLite, path, nil
	default:
		return "", "", fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'sqlite:///path' or 'postgresql://...')", raw)
	}
}

// TokenTTL is the access token lifetime.
func (c *ServerConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpireMinutes) * time.Minute
}

// LoginRateWindow is the login rate limit window.
func (c *ServerConfig) LoginRateWindow() time.Duration {
	return time.Duration(c.LoginRateWindowSeconds) * time.Second
}

// IsProduction reports whether debug output is off.
func (c *ServerConfig) IsProduction() bool {
	return !c.Debug
}
