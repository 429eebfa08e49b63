// Package slug derives URL-safe, per-owner-unique slugs from page titles.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/saasvalidator/page-service/internal/models"
)

// firstSuffix is the disambiguator appended to the first colliding slug.
const firstSuffix = 2

// Checker reports whether a slug is already taken by one of the owner's
// non-archived pages.
type Checker interface {
	SlugExists(ctx context.Context, ownerID uuid.UUID, slug string) (bool, error)
}

// Allocator allocates collision-free slugs for an owner.
// It only reads; the insert is guarded by the store's partial unique index,
// which closes the check-then-insert race.
type Allocator struct {
	checker Checker
}

// NewAllocator creates an Allocator backed by the given checker.
func NewAllocator(checker Checker) *Allocator {
	return &Allocator{checker: checker}
}

// Allocate derives a slug from title that is unique among the owner's
// active pages. Collisions get a numeric suffix (-2, -3, ...); each probe
// strictly increments the counter, so the loop is bounded by the owner's
// page count.
func (a *Allocator) Allocate(ctx context.Context, ownerID uuid.UUID, title string) (string, error) {
	base := Slugify(title)
	if base == "" {
		return "", models.ErrInvalidTitle
	}

	candidate := base
	for n := firstSuffix; ; n++ {
		exists, err := a.checker.SlugExists(ctx, ownerID, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// Slugify normalizes a title into a URL-safe slug: lowercase, Unicode
// letters and digits kept, every other run collapsed to a single hyphen,
// leading and trailing hyphens stripped. An empty or all-punctuation title
// yields the empty string.
func Slugify(title string) string {
	var sb strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return sb.String()
}
