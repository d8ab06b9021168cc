package simplecms

import (
	"fmt"
	"slices"
	"strings"
)

// SortOrder is the secondary ordering of a listing. Pinned posts always come
// first regardless of the order.
type SortOrder string

// Sort order constants (typed).
const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortTitle  SortOrder = "title"
)

// IsValid reports whether o is a known sort order.
func (o SortOrder) IsValid() bool {
	switch o {
	case SortNewest, SortOldest, SortTitle:
		return true
	}
	return false
}

// Pagination bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PostQuery is a fully resolved listing query handed to a repository.
type PostQuery struct {
	Type PostType
	Tag  string
	Q    string
	// Status restricts to one status; empty matches every status.
	Status         PostStatus
	IncludeDeleted bool
	Page           int
	PageSize       int
	Sort           SortOrder
}

// NewPostQuery builds a query from a listing request, filling defaults and
// validating the result.
func NewPostQuery(req ListPostsRequest) (PostQuery, error) {
	q := PostQuery{
		Type:           req.Type,
		Tag:            strings.TrimSpace(req.Tag),
		Q:              strings.TrimSpace(req.Q),
		Status:         req.Status,
		IncludeDeleted: req.IncludeDeleted,
		Page:           req.Page,
		PageSize:       req.PageSize,
		Sort:           req.Sort,
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Sort == "" {
		q.Sort = SortNewest
	}
	if err := q.Validate(); err != nil {
		return PostQuery{}, err
	}
	return q, nil
}

// Validate checks paging bounds and enum values.
func (q PostQuery) Validate() error {
	if q.Page < 1 {
		return &ValidationError{Field: "page", Message: "must be greater than or equal to 1"}
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return &ValidationError{Field: "page_size", Message: fmt.Sprintf("must be between 1 and %d", MaxPageSize)}
	}
	if !q.Sort.IsValid() {
		return &ValidationError{Field: "sort", Message: "must be one of newest, oldest, title"}
	}
	if q.Type != "" && !q.Type.IsValid() {
		return &ValidationError{Field: "type", Message: "must be one of recipe, tech"}
	}
	if q.Status != "" && !q.Status.IsValid() {
		return &ValidationError{Field: "status", Message: "must be one of draft, published"}
	}
	return nil
}

// Public restricts the query to what anonymous readers may see.
func (q PostQuery) Public() PostQuery {
	q.Status = PostStatusPublished
	q.IncludeDeleted = false
	return q
}

// Offset is the number of rows skipped before the requested page.
func (q PostQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// TotalPages returns ceil(total / pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Matches reports whether p satisfies the query's filters.
func (q PostQuery) Matches(p *Post) bool {
	if p.Deleted && !q.IncludeDeleted {
		return false
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if q.Type != "" && p.Type != q.Type {
		return false
	}
	if q.Tag != "" && !slices.Contains(p.Tags, q.Tag) {
		return false
	}
	if q.Q != "" {
		needle := strings.ToLower(q.Q)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Summary), needle) &&
			!strings.Contains(strings.ToLower(p.ContentMD), needle) {
			return false
		}
	}
	return true
}

// Less orders a before b: pinned first, then by the sort order, then by id
// so the ordering is total.
func (q PostQuery) Less(a, b *Post) bool {
	if a.Pinned != b.Pinned {
		return a.Pinned
	}
	switch q.Sort {
	case SortOldest:
		if ta, tb := a.SortTime(), b.SortTime(); !ta.Equal(tb) {
			return ta.Before(tb)
		}
	case SortTitle:
		if a.Title != b.Title {
			return a.Title < b.Title
		}
	default:
		if ta, tb := a.SortTime(), b.SortTime(); !ta.Equal(tb) {
			return ta.After(tb)
		}
	}
	return a.ID.String() < b.ID.String()
}

// Paginate slices an already ordered result set to the requested page.
func (q PostQuery) Paginate(posts []*Post) []*Post {
	offset := q.Offset()
	if offset >= len(posts) {
		return []*Post{}
	}
	end := offset + q.PageSize
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end]
}

// NewPostPage assembles the page envelope.
func NewPostPage(q PostQuery, posts []*Post, total int) *PostPage {
	if posts == nil {
		posts = []*Post{}
	}
	return &PostPage{
		Posts:      posts,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: TotalPages(total, q.PageSize),
	}
}
