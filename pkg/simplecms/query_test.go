package simplecms_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

func publishedPost(title string, at time.Time) *simplecms.Post {
	return &simplecms.Post{
		ID:          uuid.New(),
		Slug:        simplecms.Slugify(title),
		Title:       title,
		Type:        simplecms.PostTypeRecipe,
		Status:      simplecms.PostStatusPublished,
		Tags:        []string{},
		CreatedAt:   at,
		PublishedAt: &at,
	}
}

func TestNewPostQuery_Defaults(t *testing.T) {
	q, err := simplecms.NewPostQuery(simplecms.ListPostsRequest{Tag: "  dinner ", Q: " chili "})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, simplecms.DefaultPageSize, q.PageSize)
	assert.Equal(t, simplecms.SortNewest, q.Sort)
	assert.Equal(t, "dinner", q.Tag)
	assert.Equal(t, "chili", q.Q)
	assert.Equal(t, 0, q.Offset())
}

func TestNewPostQuery_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		req   simplecms.ListPostsRequest
		field string
	}{
		{"negative page", simplecms.ListPostsRequest{Page: -1}, "page"},
		{"page size too large", simplecms.ListPostsRequest{PageSize: simplecms.MaxPageSize + 1}, "page_size"},
		{"negative page size", simplecms.ListPostsRequest{PageSize: -5}, "page_size"},
		{"unknown sort", simplecms.ListPostsRequest{Sort: "random"}, "sort"},
		{"unknown type", simplecms.ListPostsRequest{Type: "poetry"}, "type"},
		{"unknown status", simplecms.ListPostsRequest{Status: "archived"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := simplecms.NewPostQuery(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, simplecms.ErrValidation)
			var verr *simplecms.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestPostQuery_Public(t *testing.T) {
	q := simplecms.PostQuery{Status: simplecms.PostStatusDraft, IncludeDeleted: true}.Public()
	assert.Equal(t, simplecms.PostStatusPublished, q.Status)
	assert.False(t, q.IncludeDeleted)
}

func TestPostQuery_Matches(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	post := publishedPost("Spicy Chili", base)
	post.Summary = "A Warming bowl"
	post.ContentMD = "Beans and *peppers*"
	post.Tags = []string{"dinner", "spicy"}

	public := simplecms.PostQuery{}.Public()
	assert.True(t, public.Matches(post))

	q := public
	q.Tag = "spicy"
	assert.True(t, q.Matches(post))
	q.Tag = "Spicy"
	assert.False(t, q.Matches(post), "tags match exactly")

	for _, needle := range []string{"chili", "WARMING", "peppers"} {
		q = public
		q.Q = needle
		assert.True(t, q.Matches(post), needle)
	}
	q = public
	q.Q = "lasagna"
	assert.False(t, q.Matches(post))

	q = public
	q.Type = simplecms.PostTypeTech
	assert.False(t, q.Matches(post))

	deleted := post.Clone()
	deleted.Deleted = true
	assert.False(t, public.Matches(deleted))
	assert.True(t, simplecms.PostQuery{IncludeDeleted: true}.Matches(deleted))

	draft := post.Clone()
	draft.Status = simplecms.PostStatusDraft
	draft.PublishedAt = nil
	assert.False(t, public.Matches(draft))
	assert.True(t, simplecms.PostQuery{}.Matches(draft), "admin listings see drafts")
}

func TestPostQuery_Less(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	older := publishedPost("Banana", base)
	newer := publishedPost("Apple", base.Add(time.Hour))
	pinned := publishedPost("Cherry", base.Add(-time.Hour))
	pinned.Pinned = true
	draft := publishedPost("Date", base)
	draft.Status = simplecms.PostStatusDraft
	draft.PublishedAt = nil
	draft.CreatedAt = base.Add(2 * time.Hour)

	order := func(sort simplecms.SortOrder) []string {
		posts := []*simplecms.Post{older, newer, pinned, draft}
		q := simplecms.PostQuery{Sort: sort}
		slices.SortFunc(posts, func(a, b *simplecms.Post) int {
			if q.Less(a, b) {
				return -1
			}
			if q.Less(b, a) {
				return 1
			}
			return 0
		})
		titles := make([]string, 0, len(posts))
		for _, p := range posts {
			titles = append(titles, p.Title)
		}
		return titles
	}

	assert.Equal(t, []string{"Cherry", "Date", "Apple", "Banana"}, order(simplecms.SortNewest))
	assert.Equal(t, []string{"Cherry", "Banana", "Apple", "Date"}, order(simplecms.SortOldest))
	assert.Equal(t, []string{"Cherry", "Apple", "Banana", "Date"}, order(simplecms.SortTitle))
}

func TestPostQuery_Paginate(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var posts []*simplecms.Post
	for i := 0; i < 5; i++ {
		posts = append(posts, publishedPost("p", base.Add(time.Duration(i)*time.Minute)))
	}

	q := simplecms.PostQuery{Page: 2, PageSize: 2}
	assert.Equal(t, 2, q.Offset())
	assert.Equal(t, posts[2:4], q.Paginate(posts))

	q.Page = 3
	assert.Equal(t, posts[4:], q.Paginate(posts))

	q.Page = 4
	page := q.Paginate(posts)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestTotalPagesAndPage(t *testing.T) {
	tests := []struct{ total, size, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 5, 5},
		{7, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, simplecms.TotalPages(tt.total, tt.size), "%d/%d", tt.total, tt.size)
	}

	page := simplecms.NewPostPage(simplecms.PostQuery{Page: 9, PageSize: 10}, nil, 42)
	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 42, page.Total)
	assert.Equal(t, 9, page.Page)
	assert.Equal(t, 5, page.TotalPages)
}
