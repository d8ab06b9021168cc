package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/api"
	"github.com/tendant/simple-cms/pkg/simplecms/auth"
	"github.com/tendant/simple-cms/pkg/simplecms/media"
	"github.com/tendant/simple-cms/pkg/simplecms/objectkey"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
	repopg "github.com/tendant/simple-cms/pkg/simplecms/repo/postgres"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/sqlite"
	fsstorage "github.com/tendant/simple-cms/pkg/simplecms/storage/fs"
	memorystorage "github.com/tendant/simple-cms/pkg/simplecms/storage/memory"
	s3storage "github.com/tendant/simple-cms/pkg/simplecms/storage/s3"
	"github.com/tendant/simple-cms/pkg/simplecms/urlstrategy"
)

// Components are the long-lived objects of a running server. Close releases
// the database handles.
type Components struct {
	Repository simplecms.Repository
	Service    simplecms.Service
	Auth       *auth.Service
	Uploader   *media.Uploader
	// Uploads serves stored images when the fs backend is used
	Uploads http.Handler

	closers []func()
}

// Close releases every resource held by the components.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build creates every component described by the configuration.
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	components := &Components{}

	repo, closeRepo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	components.Repository = repo
	if closeRepo != nil {
		components.closers = append(components.closers, closeRepo)
	}

	options := []simplecms.Option{
		simplecms.WithRepository(repo),
		simplecms.WithLogger(logger),
	}
	if c.EnableEventLogging {
		options = append(options, simplecms.WithEventSink(simplecms.NewLogEventSink(logger)))
	}
	if components.Service, err = simplecms.New(options...); err != nil {
		components.Close()
		return nil, fmt.Errorf("failed to build service: %w", err)
	}

	components.Auth, err = auth.New(repo, c.SecretKey,
		auth.WithTokenTTL(c.TokenTTL()),
		auth.WithLogger(logger),
	)
	if err != nil {
		components.Close()
		return nil, fmt.Errorf("failed to build auth: %w", err)
	}

	if err := c.buildMedia(ctx, components, logger); err != nil {
		components.Close()
		return nil, err
	}

	return components, nil
}

// buildRepository opens the database selected by DatabaseURL and applies its
// schema.
func (c *ServerConfig) buildRepository(ctx context.Context) (simplecms.Repository, func(), error) {
	kind, dsn, err := c.Database()
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case DatabaseMemory:
		return memory.New(), nil, nil

	case DatabaseSQLite:
		repo, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil

	case DatabasePostgres:
		pool, err := NewDbPool(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		repo := repopg.NewWithPool(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repo, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", kind)
	}
}

// NewDbPool opens a pgx pool and checks the connection.
func NewDbPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// buildMedia wires the image store, its URL strategy and the uploader.
func (c *ServerConfig) buildMedia(ctx context.Context, components *Components, logger *slog.Logger) error {
	store, urls, err := c.buildStorage(ctx, components)
	if err != nil {
		return fmt.Errorf("failed to build storage backend %s: %w", c.StorageBackend, err)
	}

	keys, err := objectkey.New(c.ObjectKeyLayout)
	if err != nil {
		return err
	}

	components.Uploader, err = media.New(store, urls,
		media.WithKeyGenerator(keys),
		media.WithLogger(logger),
	)
	return err
}

func (c *ServerConfig) buildStorage(ctx context.Context, components *Components) (simplecms.BlobStore, urlstrategy.URLStrategy, error) {
	switch c.StorageBackend {
	case "memory":
		urls, err := c.urlStrategy(urlstrategy.Config{Type: urlstrategy.StrategyTypeCDN, CDNBaseURL: c.UploadsURL})
		return memorystorage.New(), urls, err

	case "fs":
		backend, err := fsstorage.New(fsstorage.Config{BaseDir: c.StorageDir})
		if err != nil {
			return nil, nil, err
		}
		components.Uploads = backend.Handler()
		urls, err := c.urlStrategy(urlstrategy.Config{Type: urlstrategy.StrategyTypeCDN, CDNBaseURL: c.UploadsURL})
		return backend, urls, err

	case "s3":
		backend, err := s3storage.New(ctx, s3storage.Config{
			Region:                 c.AWSRegion,
			Bucket:                 c.S3Bucket,
			AccessKeyID:            c.AWSAccessKeyID,
			SecretAccessKey:        c.AWSSecretAccessKey,
			Endpoint:               c.S3Endpoint,
			UsePathStyle:           c.S3UsePathStyle,
			EnableSSE:              c.EnableSSE,
			SSEAlgorithm:           c.SSEAlgorithm,
			SSEKMSKeyID:            c.SSEKMSKeyID,
			CreateBucketIfNotExist: c.S3CreateBucket,
		})
		if err != nil {
			return nil, nil, err
		}
		urls, err := c.urlStrategy(urlstrategy.Config{Type: urlstrategy.StrategyTypeS3, Bucket: c.S3Bucket, Region: c.AWSRegion})
		return backend, urls, err

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend type: %s", c.StorageBackend)
	}
}

// urlStrategy applies CDN_BASE_URL, which takes precedence over the
// backend's own addressing.
func (c *ServerConfig) urlStrategy(fallback urlstrategy.Config) (urlstrategy.URLStrategy, error) {
	if c.CDNBaseURL != "" {
		return urlstrategy.NewURLStrategy(urlstrategy.Config{Type: urlstrategy.StrategyTypeCDN, CDNBaseURL: c.CDNBaseURL})
	}
	return urlstrategy.NewURLStrategy(fallback)
}

// RouterConfig returns the HTTP wiring for the built components.
func (c *ServerConfig) RouterConfig(components *Components) (api.Config, error) {
	if components == nil || components.Service == nil {
		return api.Config{}, errors.New("components are not built")
	}
	return api.Config{
		Service:     components.Service,
		Auth:        components.Auth,
		Uploader:    components.Uploader,
		APIPrefix:   c.APIPrefix,
		CORSOrigins: c.CORSOrigins,
		Banner: api.BannerResponse{
			Message: "Recipe/Tech Backend API",
			Version: c.AppVersion,
			Docs:    "/docs",
		},
		LoginLimit:  c.LoginRateLimit,
		LoginWindow: c.LoginRateWindow(),
		Uploads:     components.Uploads,
	}, nil
}

// BootstrapAdmin creates the configured admin account if it is missing.
func (c *ServerConfig) BootstrapAdmin(ctx context.Context, components *Components) error {
	created, err := components.Auth.EnsureAdmin(ctx, c.AdminUsername, c.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	if created {
		slog.Info("Created admin user", "username", c.AdminUsername)
	}
	return nil
}
