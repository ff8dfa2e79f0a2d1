package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townsquareapp/townsquare-server/internal/domain"
)

func TestAddTags(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	names, err := env.tags.AddTags(ctx, []string{"hiking trails", "Book Club"}, domain.CategoryGroup)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hiking Trails", "Book Club"}, names)

	tag, err := env.store.GetTag(ctx, "hikingtrails")
	require.NoError(t, err)
	assert.Equal(t, 1, tag.Count)
	assert.Equal(t, 1, tag.CountFor(domain.CategoryGroup))
}

func TestAddTags_DedupeFirstWins(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	// All three spellings canonicalize to "bookclub"; only the first
	// registers a use.
	names, err := env.tags.AddTags(ctx, []string{"Book Club", "book club", "BOOK CLUB"}, domain.CategoryGroup)
	require.NoError(t, err)
	assert.Equal(t, []string{"Book Club"}, names)

	tag, err := env.store.GetTag(ctx, "bookclub")
	require.NoError(t, err)
	assert.Equal(t, 1, tag.Count)
}

func TestAddTags_StoredDisplayNameWins(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.tags.AddTags(ctx, []string{"Book Club"}, domain.CategoryGroup)
	require.NoError(t, err)

	// A later use in a different spelling keeps the original display name.
	names, err := env.tags.AddTags(ctx, []string{"BOOK CLUB"}, domain.CategoryEvent)
	require.NoError(t, err)
	assert.Equal(t, []string{"Book Club"}, names)

	tag, err := env.store.GetTag(ctx, "bookclub")
	require.NoError(t, err)
	assert.Equal(t, "Book Club", tag.DisplayName)
	assert.Equal(t, 2, tag.Count)
	assert.Equal(t, 1, tag.CountFor(domain.CategoryGroup))
	assert.Equal(t, 1, tag.CountFor(domain.CategoryEvent))
}

func TestAddTags_SkipsEmptyCanonical(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	names, err := env.tags.AddTags(ctx, []string{"123", "!!!", "Yoga"}, domain.CategoryGroup)
	require.NoError(t, err)
	assert.Equal(t, []string{"Yoga"}, names)
}

func TestRemoveTags(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.tags.AddTags(ctx, []string{"Yoga"}, domain.CategoryGroup)
	require.NoError(t, err)
	_, err = env.tags.AddTags(ctx, []string{"yoga"}, domain.CategoryGroup)
	require.NoError(t, err)

	err = env.tags.RemoveTags(ctx, []string{"YOGA"}, domain.CategoryGroup)
	require.NoError(t, err)

	tag, err := env.store.GetTag(ctx, "yoga")
	require.NoError(t, err)
	assert.Equal(t, 1, tag.Count)
}

func TestRemoveTags_UnknownIsNoop(t *testing.T) {
	env := setupTest(t)

	err := env.tags.RemoveTags(context.Background(), []string{"never registered"}, domain.CategoryGroup)
	assert.NoError(t, err)
}

func TestUpdateTags(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.tags.AddTags(ctx, []string{"Yoga", "Cycling"}, domain.CategoryGroup)
	require.NoError(t, err)

	// "Yoga" stays, "Cycling" drops, "Gardening" arrives.
	names, err := env.tags.UpdateTags(ctx, []string{"yoga", "Gardening"}, []string{"Yoga", "Cycling"}, domain.CategoryGroup)
	require.NoError(t, err)

	// Unchanged tags resolve to their stored display name even when the
	// caller submits a different spelling.
	assert.Equal(t, []string{"Yoga", "Gardening"}, names)

	yoga, err := env.store.GetTag(ctx, "yoga")
	require.NoError(t, err)
	assert.Equal(t, 1, yoga.Count, "unchanged tag must not be recounted")

	cycling, err := env.store.GetTag(ctx, "cycling")
	require.NoError(t, err)
	assert.Equal(t, 0, cycling.Count)

	gardening, err := env.store.GetTag(ctx, "gardening")
	require.NoError(t, err)
	assert.Equal(t, 1, gardening.Count)
}

func TestTopTags_Caching(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	cached := NewTagService(env.store, slog.New(slog.DiscardHandler), time.Minute)

	_, err := cached.AddTags(ctx, []string{"Yoga"}, domain.CategoryGroup)
	require.NoError(t, err)

	first, err := cached.TopTags(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A write that bypasses the service is invisible within the staleness
	// window.
	_, err = env.store.IncrementTag(ctx, "cycling", "Cycling", domain.CategoryGroup)
	require.NoError(t, err)

	stale, err := cached.TopTags(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, stale, 1)

	// Any mutation through the service invalidates the cache.
	_, err = cached.AddTags(ctx, []string{"Pottery"}, domain.CategoryEvent)
	require.NoError(t, err)

	fresh, err := cached.TopTags(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestTopTags_CachedResultIsolation(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	cached := NewTagService(env.store, slog.New(slog.DiscardHandler), time.Minute)

	_, err := cached.AddTags(ctx, []string{"Yoga"}, domain.CategoryGroup)
	require.NoError(t, err)
	_, err = cached.AddTags(ctx, []string{"Yoga", "Cycling"}, domain.CategoryEvent)
	require.NoError(t, err)

	first, err := cached.TopTags(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, "yoga", first[0].Name)

	// Mangle the returned slice; the cache must be unaffected.
	first[0], first[1] = first[1], first[0]
	first[0] = nil

	second, err := cached.TopTags(ctx, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)
	require.NotNil(t, second[0])
	assert.Equal(t, "yoga", second[0].Name)
	assert.Equal(t, "cycling", second[1].Name)
}

func TestTopTagsByCategory(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.tags.AddTags(ctx, []string{"Yoga", "Cycling"}, domain.CategoryGroup)
	require.NoError(t, err)
	_, err = env.tags.AddTags(ctx, []string{"Cycling"}, domain.CategoryGroup)
	require.NoError(t, err)
	_, err = env.tags.AddTags(ctx, []string{"Pottery"}, domain.CategoryEvent)
	require.NoError(t, err)

	tags, err := env.tags.TopTagsByCategory(ctx, domain.CategoryGroup, 10)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "cycling", tags[0].Name)
	assert.Equal(t, "yoga", tags[1].Name)
}

func TestTagUsageFromContent(t *testing.T) {
	env := setupTest(t)

	contentList := []*domain.Content{
		{Tags: []string{"Yoga", "Cycling"}},
		{Tags: []string{"Cycling", "Pottery"}},
		{Tags: []string{"Cycling", "Yoga"}},
	}

	usage := env.tags.TagUsageFromContent(contentList, -1)
	require.Len(t, usage, 3)
	assert.Equal(t, domain.TagUsage{Name: "Cycling", Count: 3}, usage[0])
	assert.Equal(t, domain.TagUsage{Name: "Yoga", Count: 2}, usage[1])
	assert.Equal(t, domain.TagUsage{Name: "Pottery", Count: 1}, usage[2])
}

func TestTagUsageFromContent_TiesKeepEncounterOrder(t *testing.T) {
	env := setupTest(t)

	contentList := []*domain.Content{
		{Tags: []string{"Zebra", "Apple"}},
		{Tags: []string{"Apple", "Zebra"}},
	}

	usage := env.tags.TagUsageFromContent(contentList, -1)
	require.Len(t, usage, 2)
	assert.Equal(t, "Zebra", usage[0].Name)
	assert.Equal(t, "Apple", usage[1].Name)
}

func TestTagUsageFromContent_Truncation(t *testing.T) {
	env := setupTest(t)

	contentList := []*domain.Content{
		{Tags: []string{"A", "B", "C", "D"}},
	}

	usage := env.tags.TagUsageFromContent(contentList, 2)
	assert.Len(t, usage, 2)

	assert.Empty(t, env.tags.TagUsageFromContent(nil, 5))
}
