package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/postgres/migrations"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/sqlquery"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simplecms.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

var selectPost = `SELECT ` + strings.Join(sqlquery.PostColumns, ", ") + ` FROM posts`

// Migrate applies the embedded schema. Every statement is idempotent.
func (r *Repository) Migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrations.FS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := r.db.Exec(ctx, string(content)); err != nil {
			return r.handlePostgresError("migrate "+file, err)
		}
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return fmt.Errorf("slug: %w", simplecms.ErrAlreadyExists)
			}
			if strings.Contains(pgErr.ConstraintName, "username") {
				return fmt.Errorf("admin user: %w", simplecms.ErrAlreadyExists)
			}
			return fmt.Errorf("%s: %w", operation, simplecms.ErrAlreadyExists)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simplecms.Post) error {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("posts").Cols(sqlquery.PostColumns...).Values(
		post.ID, post.Slug, post.Title, post.Summary, post.ContentMD,
		string(post.Type), string(post.Status), nonNil(post.Tags), post.CoverImageURL,
		nonNil(post.ExternalLinks), post.CreatedAt, post.UpdatedAt, post.PublishedAt,
		post.Deleted, post.Pinned,
	)
	query, args := ib.Build()

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return r.handlePostgresError("create post", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simplecms.Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, selectPost+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplecms.ErrPostNotFound
		}
		return nil, r.handlePostgresError("get post", err)
	}
	return post, nil
}

func (r *Repository) FindPublicPost(ctx context.Context, idOrSlug string) (*simplecms.Post, error) {
	query := selectPost + `
		WHERE (id::text = $1 OR slug = $1) AND status = 'published' AND deleted = FALSE
		ORDER BY (id::text = $1) DESC
		LIMIT 1`
	post, err := scanPost(r.db.QueryRow(ctx, query, idOrSlug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplecms.ErrPostNotFound
		}
		return nil, r.handlePostgresError("find post", err)
	}
	return post, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simplecms.Post) error {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("posts").Set(
		ub.Assign("slug", post.Slug),
		ub.Assign("title", post.Title),
		ub.Assign("summary", post.Summary),
		ub.Assign("content_md", post.ContentMD),
		ub.Assign("type", string(post.Type)),
		ub.Assign("status", string(post.Status)),
		ub.Assign("tags", nonNil(post.Tags)),
		ub.Assign("cover_image_url", post.CoverImageURL),
		ub.Assign("external_links", nonNil(post.ExternalLinks)),
		ub.Assign("updated_at", post.UpdatedAt),
		ub.Assign("published_at", post.PublishedAt),
		ub.Assign("deleted", post.Deleted),
		ub.Assign("pinned", post.Pinned),
	).Where(ub.Equal("id", post.ID))
	query, args := ub.Build()

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return r.handlePostgresError("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return simplecms.ErrPostNotFound
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return simplecms.ErrPostNotFound
	}
	return nil
}

func (r *Repository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, r.handlePostgresError("check slug", err)
	}
	return exists, nil
}

func (r *Repository) ListPosts(ctx context.Context, q simplecms.PostQuery) ([]*simplecms.Post, int, error) {
	countQuery, countArgs := sqlquery.Postgres.CountPosts(q)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, r.handlePostgresError("count posts", err)
	}

	query, args := sqlquery.Postgres.ListPosts(q)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, r.handlePostgresError("list posts", err)
	}
	defer rows.Close()

	posts := make([]*simplecms.Post, 0, q.PageSize)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, r.handlePostgresError("scan post", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.handlePostgresError("list posts", err)
	}
	return posts, total, nil
}

// Admin user operations

func (r *Repository) CreateAdminUser(ctx context.Context, user *simplecms.AdminUser) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO admin_users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return r.handlePostgresError("create admin user", err)
	}
	return nil
}

func (r *Repository) GetAdminUserByUsername(ctx context.Context, username string) (*simplecms.AdminUser, error) {
	var user simplecms.AdminUser
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM admin_users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplecms.ErrAdminNotFound
		}
		return nil, r.handlePostgresError("get admin user", err)
	}
	return &user, nil
}

func scanPost(row pgx.Row) (*simplecms.Post, error) {
	var (
		post             simplecms.Post
		postType, status string
		createdAt        time.Time
	)
	err := row.Scan(
		&post.ID, &post.Slug, &post.Title, &post.Summary, &post.ContentMD,
		&postType, &status, &post.Tags, &post.CoverImageURL, &post.ExternalLinks,
		&createdAt, &post.UpdatedAt, &post.PublishedAt, &post.Deleted, &post.Pinned,
	)
	if err != nil {
		return nil, err
	}
	post.Type = simplecms.PostType(postType)
	post.Status = simplecms.PostStatus(status)
	post.CreatedAt = createdAt.UTC()
	if post.UpdatedAt != nil {
		t := post.UpdatedAt.UTC()
		post.UpdatedAt = &t
	}
	if post.PublishedAt != nil {
		t := post.PublishedAt.UTC()
		post.PublishedAt = &t
	}
	return &post, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

var _ simplecms.Repository = (*Repository)(nil)
