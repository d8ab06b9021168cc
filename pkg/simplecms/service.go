package simplecms

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the post lifecycle and query operations
type Service interface {
	// Admin operations
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	UpdatePost(ctx context.Context, id uuid.UUID, req UpdatePostRequest) (*Post, error)
	DeletePost(ctx context.Context, id uuid.UUID, req DeletePostRequest) error
	SetPinned(ctx context.Context, id uuid.UUID, pinned bool) (*Post, error)
	GetPostByID(ctx context.Context, id uuid.UUID) (*Post, error)
	ListAllPosts(ctx context.Context, req ListPostsRequest) (*PostPage, error)

	// Public operations
	GetPublicPost(ctx context.Context, idOrSlug string) (*Post, error)
	ListPublicPosts(ctx context.Context, req ListPostsRequest) (*PostPage, error)

	// Health reports whether the repository is reachable. It never fails.
	Health(ctx context.Context) HealthStatus
}
