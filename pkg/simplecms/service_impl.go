package simplecms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	eventSink  EventSink
	logger     *slog.Logger
	now        func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock overrides the time source, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		eventSink: NewNoopEventSink(),
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

func (s *service) timestamp() time.Time {
	return s.now().UTC()
}

// Admin operations

func (s *service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.timestamp()
	post := &Post{
		ID:            uuid.New(),
		Title:         req.Title,
		Summary:       req.Summary,
		ContentMD:     req.ContentMD,
		Type:          req.Type,
		Status:        req.Status,
		Tags:          cleanList(req.Tags),
		CoverImageURL: normalizeURL(req.CoverImageURL),
		ExternalLinks: cleanList(req.ExternalLinks),
		CreatedAt:     now,
		Pinned:        req.Pinned,
	}
	if post.Status == PostStatusPublished {
		post.PublishedAt = &now
	}

	slug, err := GenerateUniqueSlug(ctx, s.repository, post.Title, post.ID)
	if err != nil {
		return nil, &PostError{PostID: post.ID, Op: "create", Err: err}
	}
	post.Slug = slug

	if err := s.repository.CreatePost(ctx, post); err != nil {
		return nil, &PostError{PostID: post.ID, Op: "create", Err: err}
	}

	s.logger.Info("post created", "post_id", post.ID, "slug", post.Slug, "status", post.Status)
	if err := s.eventSink.PostCreated(ctx, post); err != nil {
		s.logger.Warn("event sink rejected post created", "post_id", post.ID, "error", err)
	}
	return post, nil
}

func (s *service) UpdatePost(ctx context.Context, id uuid.UUID, req UpdatePostRequest) (*Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		return nil, &PostError{PostID: id, Op: "update", Err: err}
	}

	if req.Title.HasValue() && req.Title.Value != post.Title {
		slug, err := GenerateUniqueSlug(ctx, s.repository, req.Title.Value, post.ID)
		if err != nil {
			return nil, &PostError{PostID: id, Op: "update", Err: err}
		}
		post.Title = req.Title.Value
		post.Slug = slug
	}
	if req.Summary.Set {
		post.Summary = req.Summary.Value
	}
	if req.ContentMD.Set {
		post.ContentMD = req.ContentMD.Value
	}
	if req.Type.HasValue() {
		post.Type = req.Type.Value
	}
	if req.Tags.Set {
		post.Tags = cleanList(req.Tags.Value)
	}
	if req.CoverImageURL.Set {
		if req.CoverImageURL.Null {
			post.CoverImageURL = nil
		} else {
			post.CoverImageURL = normalizeURL(&req.CoverImageURL.Value)
		}
	}
	if req.ExternalLinks.Set {
		post.ExternalLinks = cleanList(req.ExternalLinks.Value)
	}
	if req.Pinned.HasValue() {
		post.Pinned = req.Pinned.Value
	}

	now := s.timestamp()
	if req.Status.HasValue() {
		s.applyStatus(post, req.Status.Value, now)
	}
	post.UpdatedAt = &now

	if err := s.repository.UpdatePost(ctx, post); err != nil {
		return nil, &PostError{PostID: id, Op: "update", Err: err}
	}

	s.logger.Info("post updated", "post_id", post.ID, "slug", post.Slug, "status", post.Status)
	if err := s.eventSink.PostUpdated(ctx, post); err != nil {
		s.logger.Warn("event sink rejected post updated", "post_id", post.ID, "error", err)
	}
	return post, nil
}

// applyStatus moves post to status, keeping PublishedAt consistent with it.
func (s *service) applyStatus(post *Post, status PostStatus, now time.Time) {
	switch {
	case status == PostStatusPublished && post.Status != PostStatusPublished:
		post.PublishedAt = &now
	case status != PostStatusPublished:
		post.PublishedAt = nil
	}
	post.Status = status
}

func (s *service) DeletePost(ctx context.Context, id uuid.UUID, req DeletePostRequest) error {
	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		return &PostError{PostID: id, Op: "delete", Err: err}
	}

	if req.Hard {
		if err := s.repository.DeletePost(ctx, id); err != nil {
			return &PostError{PostID: id, Op: "delete", Err: err}
		}
	} else {
		now := s.timestamp()
		post.Deleted = true
		post.UpdatedAt = &now
		if err := s.repository.UpdatePost(ctx, post); err != nil {
			return &PostError{PostID: id, Op: "delete", Err: err}
		}
	}

	s.logger.Info("post deleted", "post_id", id, "hard", req.Hard)
	if err := s.eventSink.PostDeleted(ctx, id, req.Hard); err != nil {
		s.logger.Warn("event sink rejected post deleted", "post_id", id, "error", err)
	}
	return nil
}

func (s *service) SetPinned(ctx context.Context, id uuid.UUID, pinned bool) (*Post, error) {
	return s.UpdatePost(ctx, id, UpdatePostRequest{Pinned: Some(pinned)})
}

func (s *service) GetPostByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	post, err := s.repository.GetPost(ctx, id)
	if err != nil {
		return nil, &PostError{PostID: id, Op: "get", Err: err}
	}
	return post, nil
}

func (s *service) ListAllPosts(ctx context.Context, req ListPostsRequest) (*PostPage, error) {
	q, err := NewPostQuery(req)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q)
}

// Public operations

func (s *service) GetPublicPost(ctx context.Context, idOrSlug string) (*Post, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, ErrPostNotFound
	}
	post, err := s.repository.FindPublicPost(ctx, idOrSlug)
	if err != nil {
		return nil, fmt.Errorf("find post %q: %w", idOrSlug, err)
	}
	return post, nil
}

func (s *service) ListPublicPosts(ctx context.Context, req ListPostsRequest) (*PostPage, error) {
	q, err := NewPostQuery(req)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q.Public())
}

func (s *service) list(ctx context.Context, q PostQuery) (*PostPage, error) {
	posts, total, err := s.repository.ListPosts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return NewPostPage(q, posts, total), nil
}

func (s *service) Health(ctx context.Context) HealthStatus {
	if err := s.repository.Ping(ctx); err != nil {
		s.logger.Error("health check failed", "error", err)
		return HealthStatus{Status: "unhealthy", Database: "disconnected", Error: err.Error()}
	}
	return HealthStatus{Status: "healthy", Database: "connected"}
}

func normalizeURL(u *string) *string {
	if u == nil {
		return nil
	}
	v := strings.TrimSpace(*u)
	if v == "" {
		return nil
	}
	return &v
}

// IsNotFound reports whether err means the post or user does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound) || errors.Is(err, ErrAdminNotFound)
}
