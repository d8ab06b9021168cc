// Package auth issues and verifies admin bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// DefaultTokenTTL is the access token lifetime when none is configured.
const DefaultTokenTTL = 30 * time.Minute

// Token is the login response body.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service authenticates the admin against the admin store.
type Service struct {
	admins simplecms.AdminRepository
	jwt    *jwtauth.JWTAuth
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the time source used for iat and exp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a Service signing HS256 tokens with secret.
func New(admins simplecms.AdminRepository, secret string, options ...Option) (*Service, error) {
	if admins == nil {
		return nil, errors.New("admin repository is required")
	}
	if secret == "" {
		return nil, errors.New("secret key is required")
	}
	s := &Service{
		admins: admins,
		jwt:    jwtauth.New("HS256", []byte(secret), nil),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, option := range options {
		option(s)
	}
	if s.ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", s.ttl)
	}
	return s, nil
}

// Login checks the credentials and issues an access token. Every failure,
// unknown user included, is ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (*Token, error) {
	if username == "" || password == "" {
		burnCompare(password)
		return nil, simplecms.ErrUnauthorized
	}

	user, err := s.admins.GetAdminUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, simplecms.ErrAdminNotFound) {
			return nil, fmt.Errorf("look up admin: %w", err)
		}
		burnCompare(password)
		s.logger.Warn("login rejected", "username", username)
		return nil, simplecms.ErrUnauthorized
	}
	if !CheckPassword(user.PasswordHash, password) {
		s.logger.Warn("login rejected", "username", username)
		return nil, simplecms.ErrUnauthorized
	}

	now := s.now()
	claims := map[string]interface{}{"sub": user.Username}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, now.Add(s.ttl))

	_, tokenString, err := s.jwt.Encode(claims)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("admin logged in", "username", user.Username)
	return &Token{AccessToken: tokenString, TokenType: "bearer"}, nil
}

// Authenticate verifies a bearer token and resolves its subject to the admin.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*simplecms.AdminUser, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, simplecms.ErrUnauthorized
	}

	token, err := jwtauth.VerifyToken(s.jwt, tokenString)
	if err != nil || token == nil {
		return nil, simplecms.ErrUnauthorized
	}
	username := token.Subject()
	if username == "" {
		return nil, simplecms.ErrUnauthorized
	}

	user, err := s.admins.GetAdminUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, simplecms.ErrAdminNotFound) {
			return nil, simplecms.ErrUnauthorized
		}
		return nil, fmt.Errorf("look up admin: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the admin account if no account with username exists.
// An existing account is left untouched, password included.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, errors.New("admin username and password are required")
	}

	_, err := s.admins.GetAdminUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, simplecms.ErrAdminNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	user := &simplecms.AdminUser{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.admins.CreateAdminUser(ctx, user); err != nil {
		if errors.Is(err, simplecms.ErrAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info("admin user created", "username", username)
	return true, nil
}
