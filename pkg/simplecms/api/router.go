// Package api exposes the blog over HTTP.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/media"
)

// DefaultAPIPrefix is the mount point of every JSON route but the banner
const DefaultAPIPrefix = "/api/v1"

// AuthService is the auth surface the router needs
type AuthService interface {
	Authenticator
	LoginService
}

// Config wires the router
type Config struct {
	Service  simplecms.Service
	Auth     AuthService
	Uploader *media.Uploader

	APIPrefix   string
	CORSOrigins []string
	Banner      BannerResponse

	// LoginLimit requests per LoginWindow are allowed per client on the
	// login route. Zero disables the limit.
	LoginLimit  int
	LoginWindow time.Duration

	// Uploads serves /uploads/* when set
	Uploads http.Handler

	// Middlewares run after request id assignment and before CORS, e.g. a
	// request logger
	Middlewares []func(http.Handler) http.Handler
}

// NewRouter builds the complete HTTP handler
func NewRouter(cfg Config) (*chi.Mux, error) {
	if cfg.Service == nil {
		return nil, errors.New("service is required")
	}
	if cfg.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	if cfg.Uploader == nil {
		return nil, errors.New("uploader is required")
	}
	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	prefix = "/" + strings.Trim(prefix, "/")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cfg.Middlewares...)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	r.Use(RequestSizeLimit(cfg.Uploader.MaxSize() + multipartOverhead))

	var limiter *RateLimiter
	if cfg.LoginLimit > 0 {
		window := cfg.LoginWindow
		if window <= 0 {
			window = time.Minute
		}
		limiter = NewRateLimiter(cfg.LoginLimit, window)
	}

	health := NewHealthHandler(cfg.Service, cfg.Banner)
	r.Get("/", health.Banner)

	r.Route(prefix, func(r chi.Router) {
		r.Mount("/health", health.Routes())
		r.Mount("/auth", NewAuthHandler(cfg.Auth, limiter).Routes())
		r.Mount("/posts", NewPostsHandler(cfg.Service).Routes())

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(cfg.Auth))
			r.Mount("/admin", NewAdminHandler(cfg.Service, cfg.Uploader).Routes())
		})
	})

	if cfg.Uploads != nil {
		r.Mount("/uploads", http.StripPrefix("/uploads", cfg.Uploads))
	}

	return r, nil
}
