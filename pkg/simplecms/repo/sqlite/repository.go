// Package sqlite provides a SQLite-backed post and admin user repository.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/sqlite/migrations"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/sqlquery"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Repository implements simplecms.Repository on a SQLite file.
type Repository struct {
	db *sql.DB
}

func init() {
	msqlite.MustRegisterDeterministicScalarFunction(sqlquery.UnicodeLowerFunc, 1, unicodeLower)
}

// unicodeLower folds text the same way strings.ToLower does, so SQL search
// agrees with in-memory matching for non-ASCII titles.
func unicodeLower(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path, creating it if needed, and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer connection keeps concurrent requests from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close closes the SQLite handle.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simplecms.Post) error {
	tags, links, err := encodeLists(post)
	if err != nil {
		return err
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("posts").Cols(sqlquery.PostColumns...).Values(
		post.ID, post.Slug, post.Title, post.Summary, post.ContentMD,
		string(post.Type), string(post.Status), tags, post.CoverImageURL, links,
		toMillis(post.CreatedAt), nullMillis(post.UpdatedAt), nullMillis(post.PublishedAt),
		post.Deleted, post.Pinned,
	)
	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return handleSQLiteError("create post", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simplecms.Post, error) {
	query := `SELECT ` + strings.Join(sqlquery.PostColumns, ", ") + ` FROM posts WHERE id = ?`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, simplecms.ErrPostNotFound
		}
		return nil, handleSQLiteError("get post", err)
	}
	return post, nil
}

func (r *Repository) FindPublicPost(ctx context.Context, idOrSlug string) (*simplecms.Post, error) {
	query := `SELECT ` + strings.Join(sqlquery.PostColumns, ", ") + ` FROM posts
		WHERE (id = ? OR slug = ?) AND status = 'published' AND deleted = FALSE
		ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END
		LIMIT 1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, idOrSlug, idOrSlug, idOrSlug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, simplecms.ErrPostNotFound
		}
		return nil, handleSQLiteError("find post", err)
	}
	return post, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simplecms.Post) error {
	tags, links, err := encodeLists(post)
	if err != nil {
		return err
	}

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("posts").Set(
		ub.Assign("slug", post.Slug),
		ub.Assign("title", post.Title),
		ub.Assign("summary", post.Summary),
		ub.Assign("content_md", post.ContentMD),
		ub.Assign("type", string(post.Type)),
		ub.Assign("status", string(post.Status)),
		ub.Assign("tags", tags),
		ub.Assign("cover_image_url", post.CoverImageURL),
		ub.Assign("external_links", links),
		ub.Assign("updated_at", nullMillis(post.UpdatedAt)),
		ub.Assign("published_at", nullMillis(post.PublishedAt)),
		ub.Assign("deleted", post.Deleted),
		ub.Assign("pinned", post.Pinned),
	).Where(ub.Equal("id", post.ID))
	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return handleSQLiteError("update post", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return simplecms.ErrPostNotFound
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return handleSQLiteError("delete post", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return simplecms.ErrPostNotFound
	}
	return nil
}

func (r *Repository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = ? AND id <> ?)`,
		slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, handleSQLiteError("check slug", err)
	}
	return exists, nil
}

func (r *Repository) ListPosts(ctx context.Context, q simplecms.PostQuery) ([]*simplecms.Post, int, error) {
	countQuery, countArgs := sqlquery.SQLite.CountPosts(q)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, handleSQLiteError("count posts", err)
	}

	query, args := sqlquery.SQLite.ListPosts(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, handleSQLiteError("list posts", err)
	}
	defer rows.Close()

	posts := make([]*simplecms.Post, 0, q.PageSize)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, handleSQLiteError("scan post", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, handleSQLiteError("list posts", err)
	}
	return posts, total, nil
}

// Admin user operations

func (r *Repository) CreateAdminUser(ctx context.Context, user *simplecms.AdminUser) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, toMillis(user.CreatedAt),
	)
	if err != nil {
		return handleSQLiteError("create admin user", err)
	}
	return nil
}

func (r *Repository) GetAdminUserByUsername(ctx context.Context, username string) (*simplecms.AdminUser, error) {
	var user simplecms.AdminUser
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM admin_users WHERE username = ?`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, simplecms.ErrAdminNotFound
		}
		return nil, handleSQLiteError("get admin user", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*simplecms.Post, error) {
	var (
		post                   simplecms.Post
		postType, status       string
		tags, links            string
		cover                  sql.NullString
		createdAt              int64
		updatedAt, publishedAt sql.NullInt64
	)
	err := row.Scan(
		&post.ID, &post.Slug, &post.Title, &post.Summary, &post.ContentMD,
		&postType, &status, &tags, &cover, &links,
		&createdAt, &updatedAt, &publishedAt, &post.Deleted, &post.Pinned,
	)
	if err != nil {
		return nil, err
	}

	post.Type = simplecms.PostType(postType)
	post.Status = simplecms.PostStatus(status)
	if cover.Valid {
		post.CoverImageURL = &cover.String
	}
	post.CreatedAt = fromMillis(createdAt)
	post.UpdatedAt = optionalMillis(updatedAt)
	post.PublishedAt = optionalMillis(publishedAt)
	if err := json.Unmarshal([]byte(tags), &post.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &post.ExternalLinks); err != nil {
		return nil, fmt.Errorf("decode external links: %w", err)
	}
	return &post, nil
}

func encodeLists(post *simplecms.Post) (string, string, error) {
	tags, err := json.Marshal(nonNil(post.Tags))
	if err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	links, err := json.Marshal(nonNil(post.ExternalLinks))
	if err != nil {
		return "", "", fmt.Errorf("encode external links: %w", err)
	}
	return string(tags), string(links), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func optionalMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func handleSQLiteError(operation string, err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%s: %w", operation, simplecms.ErrAlreadyExists)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

var _ simplecms.Repository = (*Repository)(nil)
