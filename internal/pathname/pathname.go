// Package pathname provides URL pathname generation for content records.
//
// A pathname is "/{category}/{slug}" and is unique per category. When a
// title's slug collides with existing pathnames, a numeric suffix is
// appended: "/groups/book-club", "/groups/book-club-1", and so on.
package pathname

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/townsquareapp/townsquare-server/internal/domain"
)

var (
	// Matches any non-alphanumeric character.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a title to a URL-safe slug.
// "Farmers Market" -> "farmers-market".
// "Café Révolution" -> "cafe-revolution".
func Slugify(s string) string {
	// Normalize unicode (decompose accented characters).
	s = norm.NFKD.String(s)

	// Remove non-ASCII characters.
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	// Lowercase.
	s = strings.ToLower(s)

	// Replace non-alphanumeric with hyphens.
	s = nonAlphanumeric.ReplaceAllString(s, "-")

	// Collapse multiple hyphens.
	s = multipleHyphens.ReplaceAllString(s, "-")

	// Trim leading/trailing hyphens.
	s = strings.Trim(s, "-")

	return s
}

// ForTitle returns the base pathname for a title under a category,
// without collision suffixing.
func ForTitle(category domain.Category, title string) string {
	return fmt.Sprintf("/%s/%s", category.Hyphenated(), Slugify(title))
}

// Resolve picks a unique pathname given the base pathname and the
// pathnames already taken in the same category. When the base or any
// suffixed form is taken, the next free numeric suffix is used.
func Resolve(base string, taken []string) string {
	if len(taken) == 0 {
		return base
	}

	baseExists := false
	maxSuffix := 0
	for _, p := range taken {
		if p == base {
			baseExists = true
			continue
		}
		rest, ok := strings.CutPrefix(p, base+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > maxSuffix {
			maxSuffix = n
		}
	}

	if baseExists || maxSuffix > 0 {
		return fmt.Sprintf("%s-%d", base, maxSuffix+1)
	}
	return base
}
