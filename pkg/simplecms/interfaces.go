package simplecms

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// SlugChecker reports whether a slug is already taken by a post other than
// excludeID. uuid.Nil excludes nothing.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

// PostRepository defines persistence for posts
type PostRepository interface {
	SlugChecker

	CreatePost(ctx context.Context, post *Post) error
	// GetPost returns a post by id in any state, soft-deleted included.
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	// FindPublicPost returns a published, non-deleted post by id or slug.
	FindPublicPost(ctx context.Context, idOrSlug string) (*Post, error)
	UpdatePost(ctx context.Context, post *Post) error
	// DeletePost removes the row for good.
	DeletePost(ctx context.Context, id uuid.UUID) error
	// ListPosts returns one page of posts matching q and the total match count.
	ListPosts(ctx context.Context, q PostQuery) ([]*Post, int, error)
}

// AdminRepository defines persistence for admin users
type AdminRepository interface {
	CreateAdminUser(ctx context.Context, user *AdminUser) error
	GetAdminUserByUsername(ctx context.Context, username string) (*AdminUser, error)
}

// Repository is the full persistence contract used by the server
type Repository interface {
	PostRepository
	AdminRepository

	// Ping checks that the backing store is reachable
	Ping(ctx context.Context) error
}

// BlobStore defines the interface for object storage backends
type BlobStore interface {
	// UploadWithParams uploads content under params.ObjectKey
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download reads content back. The server never calls it; tests use it
	// to check what a backend stored.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
	Size      int64
}

// EventSink receives post lifecycle notifications
type EventSink interface {
	PostCreated(ctx context.Context, post *Post) error
	PostUpdated(ctx context.Context, post *Post) error
	PostDeleted(ctx context.Context, postID uuid.UUID, hard bool) error
}
