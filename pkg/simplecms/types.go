package simplecms

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// PostType is the domain type for the kind of post.
type PostType string

// Post type constants (typed).
const (
	PostTypeRecipe PostType = "recipe"
	PostTypeTech   PostType = "tech"
)

// IsValid reports whether t is a known post type.
func (t PostType) IsValid() bool {
	switch t {
	case PostTypeRecipe, PostTypeTech:
		return true
	}
	return false
}

func (t PostType) String() string { return string(t) }

// MarshalText implements encoding.TextMarshaler.
func (t PostType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid post type %q", string(t))
	}
	return []byte(t), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PostType) UnmarshalText(b []byte) error {
	v := PostType(b)
	if !v.IsValid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("must be one of recipe, tech (got %q)", string(b))}
	}
	*t = v
	return nil
}

// PostStatus is the domain type for post lifecycle states.
type PostStatus string

// Post status constants (typed).
const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// IsValid reports whether s is a known post status.
func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished:
		return true
	}
	return false
}

func (s PostStatus) String() string { return string(s) }

// MarshalText implements encoding.TextMarshaler.
func (s PostStatus) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid post status %q", string(s))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *PostStatus) UnmarshalText(b []byte) error {
	v := PostStatus(b)
	if !v.IsValid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("must be one of draft, published (got %q)", string(b))}
	}
	*s = v
	return nil
}

// Post is a single recipe or tech article.
//
// PublishedAt is set if and only if Status is PostStatusPublished. Deleted
// posts stay in storage but are hidden from public reads.
type Post struct {
	ID            uuid.UUID  `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary"`
	ContentMD     string     `json:"content_md"`
	Type          PostType   `json:"type"`
	Status        PostStatus `json:"status"`
	Tags          []string   `json:"tags"`
	CoverImageURL *string    `json:"cover_image_url"`
	ExternalLinks []string   `json:"external_links"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
	PublishedAt   *time.Time `json:"published_at"`
	Deleted       bool       `json:"-"`
	Pinned        bool       `json:"pinned"`
}

// IsPublic reports whether the post may be served on public routes.
func (p *Post) IsPublic() bool {
	return p.Status == PostStatusPublished && !p.Deleted
}

// SortTime is the instant used by the newest/oldest orderings. Unpublished
// posts fall back to their creation time.
func (p *Post) SortTime() time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	c := *p
	c.Tags = slices.Clone(p.Tags)
	c.ExternalLinks = slices.Clone(p.ExternalLinks)
	if p.CoverImageURL != nil {
		v := *p.CoverImageURL
		c.CoverImageURL = &v
	}
	if p.UpdatedAt != nil {
		v := *p.UpdatedAt
		c.UpdatedAt = &v
	}
	if p.PublishedAt != nil {
		v := *p.PublishedAt
		c.PublishedAt = &v
	}
	return &c
}

// AdminUser is the administrative principal allowed to manage posts.
type AdminUser struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts      []*Post `json:"posts"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// HealthStatus is the result of a health probe.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Healthy reports whether the probe succeeded.
func (h HealthStatus) Healthy() bool { return h.Status == "healthy" }
