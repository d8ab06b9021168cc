// Package sqlquery composes the post listing SQL shared by the PostgreSQL and
// SQLite repositories.
package sqlquery

import (
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// PostColumns is the column order every post scan expects.
var PostColumns = []string{
	"id", "slug", "title", "summary", "content_md", "type", "status", "tags",
	"cover_image_url", "external_links", "created_at", "updated_at",
	"published_at", "deleted", "pinned",
}

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	Flavor sqlbuilder.Flavor
	// TagMatch returns a predicate true when the tags column contains tag.
	TagMatch func(sb *sqlbuilder.SelectBuilder, tag string) string
	// Lower is the SQL function that lower-cases text for search.
	Lower string
	// TitleOrder sorts titles by code point.
	TitleOrder string
}

// Postgres stores tags as TEXT[].
var Postgres = Dialect{
	Flavor: sqlbuilder.PostgreSQL,
	TagMatch: func(sb *sqlbuilder.SelectBuilder, tag string) string {
		return sb.Var(tag) + " = ANY(tags)"
	},
	Lower:      "LOWER",
	TitleOrder: `title COLLATE "C" ASC`,
}

// SQLite stores tags as a JSON array in a TEXT column. Its built-in LOWER only
// folds ASCII, so search goes through UnicodeLowerFunc, which the sqlite
// repository registers with the driver.
var SQLite = Dialect{
	Flavor: sqlbuilder.SQLite,
	TagMatch: func(sb *sqlbuilder.SelectBuilder, tag string) string {
		return "EXISTS (SELECT 1 FROM json_each(posts.tags) WHERE json_each.value = " + sb.Var(tag) + ")"
	},
	Lower:      UnicodeLowerFunc,
	TitleOrder: "title ASC",
}

// UnicodeLowerFunc names the SQLite scalar function that applies
// strings.ToLower.
const UnicodeLowerFunc = "cms_lower"

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ContainsPattern turns term into a LIKE pattern that matches it literally
// anywhere in the text. Use it with ESCAPE '\'.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// ListPosts builds the paged select for q.
func (d Dialect) ListPosts(q simplecms.PostQuery) (string, []interface{}) {
	sb := d.Flavor.NewSelectBuilder()
	sb.Select(PostColumns...).From("posts")
	d.where(sb, q)
	sb.OrderBy(d.OrderBy(q.Sort)...)
	sb.Limit(q.PageSize).Offset(q.Offset())
	return sb.Build()
}

// CountPosts builds the total count for q, ignoring paging.
func (d Dialect) CountPosts(q simplecms.PostQuery) (string, []interface{}) {
	sb := d.Flavor.NewSelectBuilder()
	sb.Select("COUNT(*)").From("posts")
	d.where(sb, q)
	return sb.Build()
}

func (d Dialect) where(sb *sqlbuilder.SelectBuilder, q simplecms.PostQuery) {
	if !q.IncludeDeleted {
		sb.Where("deleted = FALSE")
	}
	if q.Status != "" {
		sb.Where(sb.Equal("status", string(q.Status)))
	}
	if q.Type != "" {
		sb.Where(sb.Equal("type", string(q.Type)))
	}
	if q.Tag != "" {
		sb.Where(d.TagMatch(sb, q.Tag))
	}
	if q.Q != "" {
		pattern := ContainsPattern(q.Q)
		like := func(column string) string {
			return d.Lower + "(" + column + ") LIKE " + sb.Var(pattern) + ` ESCAPE '\'`
		}
		sb.Where(sb.Or(like("title"), like("summary"), like("content_md")))
	}
}

// OrderBy returns the ORDER BY terms: pinned first, then the sort order,
// then id for a stable total order.
func (d Dialect) OrderBy(sort simplecms.SortOrder) []string {
	terms := []string{"pinned DESC"}
	switch sort {
	case simplecms.SortOldest:
		terms = append(terms, "COALESCE(published_at, created_at) ASC")
	case simplecms.SortTitle:
		terms = append(terms, d.TitleOrder)
	default:
		terms = append(terms, "COALESCE(published_at, created_at) DESC")
	}
	return append(terms, "id ASC")
}
