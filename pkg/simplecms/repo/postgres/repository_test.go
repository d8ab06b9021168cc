package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/postgres"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/repotest"
)

func TestPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := postgres.NewWithPool(pool)
	require.NoError(t, repo.Migrate(ctx))

	repotest.Run(t, func(t *testing.T) simplecms.Repository {
		_, err := pool.Exec(ctx, "TRUNCATE posts, admin_users")
		require.NoError(t, err)
		return repo
	})
}
