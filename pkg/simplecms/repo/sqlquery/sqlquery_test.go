package sqlquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

func TestPostgresListPosts(t *testing.T) {
	q := simplecms.PostQuery{
		Type:     simplecms.PostTypeRecipe,
		Tag:      "chili",
		Q:        "Spicy",
		Status:   simplecms.PostStatusPublished,
		Page:     3,
		PageSize: 10,
		Sort:     simplecms.SortNewest,
	}

	sql, args := Postgres.ListPosts(q)

	assert.Contains(t, sql, "FROM posts")
	assert.Contains(t, sql, "deleted = FALSE")
	assert.Contains(t, sql, "status = $1")
	assert.Contains(t, sql, "type = $2")
	assert.Contains(t, sql, "$3 = ANY(tags)")
	assert.Contains(t, sql, `LOWER(title) LIKE $4 ESCAPE '\'`)
	assert.Contains(t, sql, `LOWER(content_md) LIKE $6 ESCAPE '\'`)
	assert.Contains(t, sql, "ORDER BY pinned DESC, COALESCE(published_at, created_at) DESC, id ASC")
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET")
	assert.Equal(t, "published", args[0])
	assert.Equal(t, "recipe", args[1])
	assert.Equal(t, "chili", args[2])
	assert.Equal(t, "%spicy%", args[3])
	assert.Contains(t, args, 10)
	assert.Contains(t, args, 20)
}

func TestSQLiteTagMatch(t *testing.T) {
	q := simplecms.PostQuery{Tag: "go", Page: 1, PageSize: 5, Sort: simplecms.SortTitle}

	sql, args := SQLite.ListPosts(q)

	assert.Contains(t, sql, "json_each(posts.tags)")
	assert.Contains(t, sql, "json_each.value = ?")
	assert.Contains(t, sql, "ORDER BY pinned DESC, title ASC, id ASC")
	assert.Equal(t, "go", args[0])
}

func TestCountPostsIgnoresPaging(t *testing.T) {
	q := simplecms.PostQuery{IncludeDeleted: true, Page: 4, PageSize: 25, Sort: simplecms.SortOldest}

	sql, args := Postgres.CountPosts(q)

	assert.Contains(t, sql, "SELECT COUNT(*) FROM posts")
	assert.NotContains(t, sql, "deleted = FALSE")
	assert.NotContains(t, sql, "LIMIT")
	assert.Empty(t, args)
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, []string{"pinned DESC", "COALESCE(published_at, created_at) ASC", "id ASC"}, Postgres.OrderBy(simplecms.SortOldest))
	assert.Equal(t, []string{"pinned DESC", "COALESCE(published_at, created_at) DESC", "id ASC"}, SQLite.OrderBy(""))
	assert.Equal(t, []string{"pinned DESC", `title COLLATE "C" ASC`, "id ASC"}, Postgres.OrderBy(simplecms.SortTitle))
	assert.Equal(t, []string{"pinned DESC", "title ASC", "id ASC"}, SQLite.OrderBy(simplecms.SortTitle))
}

func TestSQLiteSearchUsesUnicodeLower(t *testing.T) {
	q := simplecms.PostQuery{Q: "Éclair", Page: 1, PageSize: 5, Sort: simplecms.SortNewest}

	sql, args := SQLite.ListPosts(q)

	assert.Contains(t, sql, `cms_lower(title) LIKE ? ESCAPE '\'`)
	assert.NotContains(t, sql, "LOWER(")
	assert.Equal(t, "%éclair%", args[0])
}

func TestContainsPattern(t *testing.T) {
	tests := map[string]string{
		"Spicy":   "%spicy%",
		"50%":     `%50\%%`,
		"a_b":     `%a\_b%`,
		`C:\Temp`: `%c:\\temp%`,
		"ÉCLAIR":  "%éclair%",
	}
	for in, want := range tests {
		assert.Equal(t, want, ContainsPattern(in), in)
	}
}
