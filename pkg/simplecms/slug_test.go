package simplecms_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

type slugSet map[string]uuid.UUID

func (s slugSet) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	owner, ok := s[slug]
	return ok && owner != excludeID, nil
}

type failingChecker struct{}

func (failingChecker) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	return false, errors.New("db down")
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Spicy Chili Recipe!!", "spicy-chili-recipe"},
		{"  Hello,   World  ", "hello-world"},
		{"Go -- Concurrency", "go-concurrency"},
		{"snake_case stays", "snake_case-stays"},
		{"Crème Brûlée", "crème-brûlée"},
		{"ÉCLAIR", "éclair"},
		{"2024: Year in Review", "2024-year-in-review"},
		{"---", ""},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := simplecms.Slugify(tt.title)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, simplecms.Slugify(got), "slugify is idempotent")
		})
	}
}

func TestGenerateUniqueSlug(t *testing.T) {
	ctx := context.Background()
	existing := uuid.New()
	taken := slugSet{
		"spicy-chili-recipe":   existing,
		"spicy-chili-recipe-1": uuid.New(),
	}

	t.Run("free slug", func(t *testing.T) {
		slug, err := simplecms.GenerateUniqueSlug(ctx, taken, "Lemon Tart", uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "lemon-tart", slug)
	})

	t.Run("collisions get the next suffix", func(t *testing.T) {
		slug, err := simplecms.GenerateUniqueSlug(ctx, taken, "Spicy Chili Recipe!!", uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "spicy-chili-recipe-2", slug)
	})

	t.Run("a post keeps its own slug", func(t *testing.T) {
		slug, err := simplecms.GenerateUniqueSlug(ctx, taken, "Spicy chili recipe", existing)
		require.NoError(t, err)
		assert.Equal(t, "spicy-chili-recipe", slug)
	})

	t.Run("empty slug falls back to the id", func(t *testing.T) {
		id := uuid.New()
		slug, err := simplecms.GenerateUniqueSlug(ctx, taken, "???", id)
		require.NoError(t, err)
		assert.Equal(t, id.String(), slug)
	})

	t.Run("checker errors propagate", func(t *testing.T) {
		_, err := simplecms.GenerateUniqueSlug(ctx, failingChecker{}, "x", uuid.New())
		assert.Error(t, err)
	})
}
