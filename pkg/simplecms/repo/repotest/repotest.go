// Package repotest holds behaviour tests every simplecms.Repository
// implementation must pass.
package repotest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// Factory returns an empty repository for one subtest.
type Factory func(t *testing.T) simplecms.Repository

// base is millisecond aligned so every backend round-trips it exactly.
var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// NewPost returns a published recipe with the given slug.
func NewPost(slug string, at time.Time) *simplecms.Post {
	published := at
	return &simplecms.Post{
		ID:            uuid.New(),
		Slug:          slug,
		Title:         "Post " + slug,
		Summary:       "summary of " + slug,
		ContentMD:     "# " + slug,
		Type:          simplecms.PostTypeRecipe,
		Status:        simplecms.PostStatusPublished,
		Tags:          []string{"dinner"},
		ExternalLinks: []string{},
		CreatedAt:     at,
		PublishedAt:   &published,
	}
}

// Run exercises the full repository contract.
func Run(t *testing.T, newRepo Factory) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		repo := newRepo(t)
		cover := "https://cdn.example.com/a.jpg"
		post := NewPost("spicy-chili", base)
		post.Tags = []string{"dinner", "spicy"}
		post.ExternalLinks = []string{"https://example.com"}
		post.CoverImageURL = &cover

		require.NoError(t, repo.CreatePost(ctx, post))

		got, err := repo.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)
		assert.Equal(t, "spicy-chili", got.Slug)
		assert.Equal(t, post.Title, got.Title)
		assert.Equal(t, simplecms.PostTypeRecipe, got.Type)
		assert.Equal(t, []string{"dinner", "spicy"}, got.Tags)
		assert.Equal(t, []string{"https://example.com"}, got.ExternalLinks)
		require.NotNil(t, got.CoverImageURL)
		assert.Equal(t, cover, *got.CoverImageURL)
		assert.True(t, base.Equal(got.CreatedAt))
		require.NotNil(t, got.PublishedAt)
		assert.True(t, base.Equal(*got.PublishedAt))
		assert.Nil(t, got.UpdatedAt)
	})

	t.Run("GetPost_NotFound", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetPost(ctx, uuid.New())
		assert.ErrorIs(t, err, simplecms.ErrPostNotFound)
	})

	t.Run("DuplicateSlugRejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreatePost(ctx, NewPost("taken", base)))

		err := repo.CreatePost(ctx, NewPost("taken", base))
		assert.ErrorIs(t, err, simplecms.ErrAlreadyExists)
	})

	t.Run("SlugExists", func(t *testing.T) {
		repo := newRepo(t)
		post := NewPost("hello", base)
		require.NoError(t, repo.CreatePost(ctx, post))

		exists, err := repo.SlugExists(ctx, "hello", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.SlugExists(ctx, "hello", post.ID)
		require.NoError(t, err)
		assert.False(t, exists, "a post never conflicts with itself")

		exists, err = repo.SlugExists(ctx, "other", uuid.Nil)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("UpdatePost", func(t *testing.T) {
		repo := newRepo(t)
		post := NewPost("before", base)
		require.NoError(t, repo.CreatePost(ctx, post))

		updated := base.Add(time.Hour)
		post.Slug = "after"
		post.Title = "After"
		post.Status = simplecms.PostStatusDraft
		post.PublishedAt = nil
		post.UpdatedAt = &updated
		post.Pinned = true
		require.NoError(t, repo.UpdatePost(ctx, post))

		got, err := repo.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", got.Slug)
		assert.Equal(t, simplecms.PostStatusDraft, got.Status)
		assert.Nil(t, got.PublishedAt)
		require.NotNil(t, got.UpdatedAt)
		assert.True(t, updated.Equal(*got.UpdatedAt))
		assert.True(t, got.Pinned)

		exists, err := repo.SlugExists(ctx, "before", uuid.Nil)
		require.NoError(t, err)
		assert.False(t, exists, "old slug is released")
	})

	t.Run("UpdatePost_NotFound", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.UpdatePost(ctx, NewPost("ghost", base))
		assert.ErrorIs(t, err, simplecms.ErrPostNotFound)
	})

	t.Run("DeletePost", func(t *testing.T) {
		repo := newRepo(t)
		post := NewPost("gone", base)
		require.NoError(t, repo.CreatePost(ctx, post))

		require.NoError(t, repo.DeletePost(ctx, post.ID))

		_, err := repo.GetPost(ctx, post.ID)
		assert.ErrorIs(t, err, simplecms.ErrPostNotFound)
		assert.ErrorIs(t, repo.DeletePost(ctx, post.ID), simplecms.ErrPostNotFound)
	})

	t.Run("FindPublicPost", func(t *testing.T) {
		repo := newRepo(t)
		public := NewPost("public", base)
		draft := NewPost("draft", base)
		draft.Status = simplecms.PostStatusDraft
		draft.PublishedAt = nil
		deleted := NewPost("deleted", base)
		deleted.Deleted = true
		for _, p := range []*simplecms.Post{public, draft, deleted} {
			require.NoError(t, repo.CreatePost(ctx, p))
		}

		got, err := repo.FindPublicPost(ctx, "public")
		require.NoError(t, err)
		assert.Equal(t, public.ID, got.ID)

		got, err = repo.FindPublicPost(ctx, public.ID.String())
		require.NoError(t, err)
		assert.Equal(t, public.ID, got.ID)

		for _, key := range []string{"draft", draft.ID.String(), "deleted", deleted.ID.String(), "missing"} {
			_, err := repo.FindPublicPost(ctx, key)
			assert.ErrorIs(t, err, simplecms.ErrPostNotFound, key)
		}
	})

	t.Run("ListPosts_FiltersAndOrder", func(t *testing.T) {
		repo := newRepo(t)
		older := NewPost("older", base)
		newer := NewPost("newer", base.Add(time.Hour))
		pinned := NewPost("pinned", base.Add(-time.Hour))
		pinned.Pinned = true
		tech := NewPost("tech", base.Add(2*time.Hour))
		tech.Type = simplecms.PostTypeTech
		tech.Tags = []string{"go"}
		tech.ContentMD = "Concurrency in Go"
		draft := NewPost("draft", base)
		draft.Status = simplecms.PostStatusDraft
		draft.PublishedAt = nil
		deleted := NewPost("deleted", base)
		deleted.Deleted = true
		for _, p := range []*simplecms.Post{older, newer, pinned, tech, draft, deleted} {
			require.NoError(t, repo.CreatePost(ctx, p))
		}

		public := simplecms.PostQuery{Page: 1, PageSize: 10, Sort: simplecms.SortNewest}.Public()
		posts, total, err := repo.ListPosts(ctx, public)
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Equal(t, []string{"pinned", "tech", "newer", "older"}, slugs(posts))

		q := public
		q.Type = simplecms.PostTypeRecipe
		posts, total, err = repo.ListPosts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []string{"pinned", "newer", "older"}, slugs(posts))

		q = public
		q.Tag = "go"
		posts, _, err = repo.ListPosts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"tech"}, slugs(posts))

		q = public
		q.Q = "CONCURRENCY"
		posts, _, err = repo.ListPosts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"tech"}, slugs(posts))

		q = public
		q.Sort = simplecms.SortOldest
		posts, _, err = repo.ListPosts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"pinned", "older", "newer", "tech"}, slugs(posts))

		all := simplecms.PostQuery{IncludeDeleted: true, Page: 1, PageSize: 10, Sort: simplecms.SortNewest}
		_, total, err = repo.ListPosts(ctx, all)
		require.NoError(t, err)
		assert.Equal(t, 6, total)
	})

	t.Run("ListPosts_SearchIsLiteralAndUnicodeAware", func(t *testing.T) {
		repo := newRepo(t)
		eclair := NewPost("eclair", base)
		eclair.Title = "Éclair au Chocolat"
		apples := NewPost("apples", base.Add(time.Minute))
		apples.Title = "50 apples"
		apples.ContentMD = "path\\to\\orchard"
		for _, p := range []*simplecms.Post{eclair, apples} {
			require.NoError(t, repo.CreatePost(ctx, p))
		}

		tests := []struct {
			q    string
			want []string
		}{
			{q: "éclair", want: []string{"eclair"}},
			{q: "ÉCLAIR AU", want: []string{"eclair"}},
			{q: "50 a", want: []string{"apples"}},
			{q: "50%", want: []string{}},
			{q: "5_", want: []string{}},
			{q: "%", want: []string{}},
			{q: "\\to\\", want: []string{"apples"}},
		}
		for _, tt := range tests {
			q := simplecms.PostQuery{Page: 1, PageSize: 10, Sort: simplecms.SortNewest, Q: tt.q}.Public()
			posts, total, err := repo.ListPosts(ctx, q)
			require.NoError(t, err, tt.q)
			assert.Equal(t, tt.want, slugs(posts), tt.q)
			assert.Equal(t, len(tt.want), total, tt.q)
		}
	})

	t.Run("ListPosts_TitleOrderIsByCodePoint", func(t *testing.T) {
		repo := newRepo(t)
		titles := map[string]string{"upper": "Zebra cake", "lower": "apple pie", "accent": "Éclair"}
		for slug, title := range titles {
			p := NewPost(slug, base)
			p.Title = title
			require.NoError(t, repo.CreatePost(ctx, p))
		}

		q := simplecms.PostQuery{Page: 1, PageSize: 10, Sort: simplecms.SortTitle}.Public()
		posts, _, err := repo.ListPosts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []string{"upper", "lower", "accent"}, slugs(posts))
	})

	t.Run("ListPosts_Pagination", func(t *testing.T) {
		repo := newRepo(t)
		for i := 0; i < 5; i++ {
			require.NoError(t, repo.CreatePost(ctx, NewPost(fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Minute))))
		}

		q := simplecms.PostQuery{Page: 2, PageSize: 2, Sort: simplecms.SortNewest}.Public()
		posts, total, err := repo.ListPosts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Equal(t, []string{"p2", "p1"}, slugs(posts))

		q.Page = 9
		posts, total, err = repo.ListPosts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Empty(t, posts)
	})

	t.Run("AdminUsers", func(t *testing.T) {
		repo := newRepo(t)
		user := &simplecms.AdminUser{
			ID:           uuid.New(),
			Username:     "admin",
			PasswordHash: "hash",
			CreatedAt:    base,
		}
		require.NoError(t, repo.CreateAdminUser(ctx, user))

		got, err := repo.GetAdminUserByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		err = repo.CreateAdminUser(ctx, &simplecms.AdminUser{ID: uuid.New(), Username: "admin", PasswordHash: "x", CreatedAt: base})
		assert.ErrorIs(t, err, simplecms.ErrAlreadyExists)

		_, err = repo.GetAdminUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, simplecms.ErrAdminNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		repo := newRepo(t)
		assert.NoError(t, repo.Ping(ctx))
	})
}

func slugs(posts []*simplecms.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Slug)
	}
	return out
}
