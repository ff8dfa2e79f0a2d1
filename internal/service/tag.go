package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/townsquareapp/townsquare-server/internal/domain"
	"github.com/townsquareapp/townsquare-server/internal/store"
	"github.com/townsquareapp/townsquare-server/internal/tagname"
)

// TagService is the taxonomy engine for the shared tag vocabulary. Tags
// are community-wide — no ownership model. Counter updates go through the
// store's atomic increment/decrement operations; this service never does
// a read-then-write on a counter.
type TagService struct {
	store    store.Store
	logger   *slog.Logger
	cacheTTL time.Duration

	mu       sync.Mutex
	topCache map[string]topCacheEntry
}

type topCacheEntry struct {
	tags    []*domain.Tag
	expires time.Time
}

// NewTagService creates a new tag service. cacheTTL bounds how stale the
// top-tag rankings may serve; zero disables caching.
func NewTagService(store store.Store, logger *slog.Logger, cacheTTL time.Duration) *TagService {
	return &TagService{
		store:    store,
		logger:   logger,
		cacheTTL: cacheTTL,
		topCache: make(map[string]topCacheEntry),
	}
}

// AddTags registers one use of each tag for a category. Input is
// deduplicated by canonical form, first occurrence wins. Existing tags
// keep their stored display name — the caller's spelling is discarded
// once a canonical tag is registered. Returns the resulting display
// names, one per unique canonical tag processed.
func (s *TagService) AddTags(ctx context.Context, displayNames []string, category domain.Category) ([]string, error) {
	validated := make([]string, 0, len(displayNames))
	seen := make(map[string]bool, len(displayNames))

	for _, displayName := range displayNames {
		name := tagname.Canonicalize(displayName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		stored, err := s.store.IncrementTag(ctx, name, tagname.Format(displayName), category)
		if err != nil {
			return nil, fmt.Errorf("increment tag %q: %w", name, err)
		}
		validated = append(validated, stored)
	}

	if len(validated) > 0 {
		s.invalidateTopTags()
	}
	return validated, nil
}

// RemoveTags removes one use of each tag for a category, deduplicated by
// canonical form. Tags that were never registered are silently skipped —
// removal is best-effort cleanup, not a referential-integrity check.
func (s *TagService) RemoveTags(ctx context.Context, displayNames []string, category domain.Category) error {
	seen := make(map[string]bool, len(displayNames))
	removed := false

	for _, displayName := range displayNames {
		name := tagname.Canonicalize(displayName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if err := s.store.DecrementTag(ctx, name, category); err != nil {
			return fmt.Errorf("decrement tag %q: %w", name, err)
		}
		removed = true
	}

	if removed {
		s.invalidateTopTags()
	}
	return nil
}

// UpdateTags reconciles a content record's tag set change against the
// vocabulary: tags only in the new list are added, tags only in the old
// list are removed, unchanged tags are untouched. Returns the reconciled
// display-name list for the new tag set, using stored display names where
// the tag record exists and a locally formatted name where it does not.
func (s *TagService) UpdateTags(ctx context.Context, newNames, oldNames []string, category domain.Category) ([]string, error) {
	newCanonical := canonicalSet(newNames)
	oldCanonical := canonicalSet(oldNames)

	var toAdd, toRemove []string
	for _, displayName := range dedupeByCanonical(newNames) {
		if !oldCanonical[tagname.Canonicalize(displayName)] {
			toAdd = append(toAdd, displayName)
		}
	}
	for _, displayName := range dedupeByCanonical(oldNames) {
		if !newCanonical[tagname.Canonicalize(displayName)] {
			toRemove = append(toRemove, displayName)
		}
	}

	if len(toAdd) > 0 {
		if _, err := s.AddTags(ctx, toAdd, category); err != nil {
			return nil, err
		}
	}
	if len(toRemove) > 0 {
		if err := s.RemoveTags(ctx, toRemove, category); err != nil {
			return nil, err
		}
	}

	return s.resolveDisplayNames(ctx, dedupeByCanonical(newNames))
}

// resolveDisplayNames maps submitted spellings to the vocabulary's
// display names, falling back to local formatting for missing records.
func (s *TagService) resolveDisplayNames(ctx context.Context, displayNames []string) ([]string, error) {
	names := make([]string, 0, len(displayNames))
	for _, displayName := range displayNames {
		names = append(names, tagname.Canonicalize(displayName))
	}

	stored, err := s.store.GetTagsByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("resolve tag display names: %w", err)
	}

	resolved := make([]string, 0, len(displayNames))
	for i, displayName := range displayNames {
		if tag, ok := stored[names[i]]; ok {
			resolved = append(resolved, tag.DisplayName)
		} else {
			resolved = append(resolved, tagname.Format(displayName))
		}
	}
	return resolved, nil
}

// TopTags returns tags ranked by total usage, most used first, canonical
// name ascending on ties. Results may be served from cache within the
// staleness window; any tag mutation invalidates the cache.
func (s *TagService) TopTags(ctx context.Context, limit int) ([]*domain.Tag, error) {
	return s.cachedTopTags(fmt.Sprintf("global:%d", limit), func() ([]*domain.Tag, error) {
		return s.store.TopTags(ctx, limit)
	})
}

// TopTagsByCategory ranks tags by per-category usage, restricted to tags
// used at least once in the category.
func (s *TagService) TopTagsByCategory(ctx context.Context, category domain.Category, limit int) ([]*domain.Tag, error) {
	return s.cachedTopTags(fmt.Sprintf("category:%s:%d", category, limit), func() ([]*domain.Tag, error) {
		return s.store.TopTagsByCategory(ctx, category, limit)
	})
}

// cachedTopTags serves rankings through the TTL cache. Callers get a
// copy of the cached slice so reordering or truncating a result cannot
// corrupt later cache hits.
func (s *TagService) cachedTopTags(key string, load func() ([]*domain.Tag, error)) ([]*domain.Tag, error) {
	if s.cacheTTL > 0 {
		s.mu.Lock()
		entry, ok := s.topCache[key]
		s.mu.Unlock()
		if ok && time.Now().Before(entry.expires) {
			return slices.Clone(entry.tags), nil
		}
	}

	tags, err := load()
	if err != nil {
		return nil, err
	}

	if s.cacheTTL > 0 {
		s.mu.Lock()
		s.topCache[key] = topCacheEntry{tags: slices.Clone(tags), expires: time.Now().Add(s.cacheTTL)}
		s.mu.Unlock()
	}
	return tags, nil
}

func (s *TagService) invalidateTopTags() {
	s.mu.Lock()
	clear(s.topCache)
	s.mu.Unlock()
}

// TagUsageFromContent recounts tag frequency over a caller-supplied page
// of content, for scoped facet display. Purely local: independent of the
// stored counters, nothing is persisted. Sorted by frequency descending,
// ties in first-encounter order.
func (s *TagService) TagUsageFromContent(contentList []*domain.Content, max int) []domain.TagUsage {
	counts := make(map[string]int)
	var order []string

	for _, c := range contentList {
		for _, tag := range c.Tags {
			if counts[tag] == 0 {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	// Stable sort keeps first-encounter order on ties.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if max >= 0 && len(order) > max {
		order = order[:max]
	}

	usage := make([]domain.TagUsage, 0, len(order))
	for _, tag := range order {
		usage = append(usage, domain.TagUsage{Name: tag, Count: counts[tag]})
	}
	return usage
}

// canonicalSet returns the canonical forms of displayNames as a set.
func canonicalSet(displayNames []string) map[string]bool {
	set := make(map[string]bool, len(displayNames))
	for _, displayName := range displayNames {
		if name := tagname.Canonicalize(displayName); name != "" {
			set[name] = true
		}
	}
	return set
}

// dedupeByCanonical drops later spellings that canonicalize to an
// already-seen form; first occurrence wins.
func dedupeByCanonical(displayNames []string) []string {
	seen := make(map[string]bool, len(displayNames))
	out := make([]string, 0, len(displayNames))
	for _, displayName := range displayNames {
		name := tagname.Canonicalize(displayName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, displayName)
	}
	return out
}
