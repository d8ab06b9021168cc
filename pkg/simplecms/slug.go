package simplecms

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	slugDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s\v\p{Z}-]+`)
	slugSeparators = regexp.MustCompile(`[\s\v\p{Z}-]+`)
)

// Slugify turns a title into a URL-safe token: lowercase, only word
// characters and single hyphens, no leading or trailing hyphen.
//
// Slugify(Slugify(t)) == Slugify(t) for every t.
func Slugify(title string) string {
	s := cases.Lower(language.Und).String(title)
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// GenerateUniqueSlug derives a slug for title that no post other than postID
// uses. Collisions get a numeric suffix: base, base-1, base-2, ...
//
// A title that reduces to nothing falls back to the post id.
func GenerateUniqueSlug(ctx context.Context, checker SlugChecker, title string, postID uuid.UUID) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = postID.String()
	}

	slug := base
	for counter := 1; ; counter++ {
		taken, err := checker.SlugExists(ctx, slug, postID)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", slug, err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}
