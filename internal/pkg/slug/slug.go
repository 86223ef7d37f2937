// Package slug derives URL slugs from titles.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/campus-site/core/internal/pkg/apperr"
)

// maxAttempts bounds the suffix search.
const maxAttempts = 1000

var (
	disallowed = regexp.MustCompile(`[^\w\s-]`)
	spaces     = regexp.MustCompile(`\s+`)
	dashes     = regexp.MustCompile(`-{2,}`)
)

// Make lower-cases s, drops anything that is not a word character,
// whitespace or hyphen, and joins words with single hyphens.
func Make(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = disallowed.ReplaceAllString(out, "")
	out = spaces.ReplaceAllString(out, "-")
	out = dashes.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// Exists reports whether a slug is taken.
type Exists func(ctx context.Context, slug string) (bool, error)

// Unique returns base, or base-1, base-2, ... for the first free candidate.
func Unique(ctx context.Context, base string, exists Exists) (string, error) {
	candidate := base
	for n := 1; n <= maxAttempts; n++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", apperr.DuplicateKey("slug.unique", "slug",
		fmt.Errorf("%q: no free suffix after %d attempts", base, maxAttempts))
}
