package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// Repository implements simplecms.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	posts   map[uuid.UUID]*simplecms.Post
	slugs   map[string]uuid.UUID // slug -> post_id
	admins  map[string]*simplecms.AdminUser
	pingErr error
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		posts:  make(map[uuid.UUID]*simplecms.Post),
		slugs:  make(map[string]uuid.UUID),
		admins: make(map[string]*simplecms.AdminUser),
	}
}

// SetPingError makes Ping fail with err until reset with nil.
func (r *Repository) SetPingError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pingErr = err
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simplecms.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; exists {
		return fmt.Errorf("post %s: %w", post.ID, simplecms.ErrAlreadyExists)
	}
	if _, taken := r.slugs[post.Slug]; taken {
		return fmt.Errorf("slug %q: %w", post.Slug, simplecms.ErrAlreadyExists)
	}

	r.posts[post.ID] = post.Clone()
	r.slugs[post.Slug] = post.ID
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simplecms.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, simplecms.ErrPostNotFound
	}
	return post.Clone(), nil
}

func (r *Repository) FindPublicPost(ctx context.Context, idOrSlug string) (*simplecms.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var post *simplecms.Post
	if id, err := uuid.Parse(idOrSlug); err == nil {
		post = r.posts[id]
	}
	if post == nil || !post.IsPublic() {
		if id, ok := r.slugs[idOrSlug]; ok {
			post = r.posts[id]
		}
	}
	if post == nil || !post.IsPublic() {
		return nil, simplecms.ErrPostNotFound
	}
	return post.Clone(), nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simplecms.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.posts[post.ID]
	if !exists {
		return simplecms.ErrPostNotFound
	}
	if owner, taken := r.slugs[post.Slug]; taken && owner != post.ID {
		return fmt.Errorf("slug %q: %w", post.Slug, simplecms.ErrAlreadyExists)
	}

	delete(r.slugs, existing.Slug)
	r.posts[post.ID] = post.Clone()
	r.slugs[post.Slug] = post.ID
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, exists := r.posts[id]
	if !exists {
		return simplecms.ErrPostNotFound
	}
	delete(r.slugs, post.Slug)
	delete(r.posts, id)
	return nil
}

func (r *Repository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, taken := r.slugs[slug]
	return taken && owner != excludeID, nil
}

func (r *Repository) ListPosts(ctx context.Context, q simplecms.PostQuery) ([]*simplecms.Post, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*simplecms.Post
	for _, post := range r.posts {
		if q.Matches(post) {
			matched = append(matched, post)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return q.Less(matched[i], matched[j])
	})

	page := q.Paginate(matched)
	result := make([]*simplecms.Post, 0, len(page))
	for _, post := range page {
		result = append(result, post.Clone())
	}
	return result, len(matched), nil
}

// Admin user operations

func (r *Repository) CreateAdminUser(ctx context.Context, user *simplecms.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.admins[user.Username]; exists {
		return fmt.Errorf("admin user %q: %w", user.Username, simplecms.ErrAlreadyExists)
	}
	userCopy := *user
	r.admins[user.Username] = &userCopy
	return nil
}

func (r *Repository) GetAdminUserByUsername(ctx context.Context, username string) (*simplecms.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.admins[username]
	if !exists {
		return nil, simplecms.ErrAdminNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pingErr
}
