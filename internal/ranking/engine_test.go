package ranking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devshittu/media-be-sub000/internal/store"
)

type fakeStore struct {
	prefs      map[int64]*store.Preferences
	stories    []store.Story
	engagement map[int64]store.Engagement
}

func (f *fakeStore) Preferences(_ context.Context, userID int64) (*store.Preferences, error) {
	return f.prefs[userID], nil
}

func (f *fakeStore) AllStories(_ context.Context) ([]store.Story, error) {
	return f.stories, nil
}

func (f *fakeStore) StoriesInCategories(_ context.Context, categoryIDs []int64) ([]store.Story, error) {
	return f.filter(categoryIDs, true), nil
}

func (f *fakeStore) StoriesNotInCategories(_ context.Context, categoryIDs []int64) ([]store.Story, error) {
	return f.filter(categoryIDs, false), nil
}

func (f *fakeStore) filter(categoryIDs []int64, include bool) []store.Story {
	in := make(map[int64]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		in[id] = struct{}{}
	}
	var out []store.Story
	for _, st := range f.stories {
		_, ok := in[st.CategoryID]
		if ok == include {
			out = append(out, st)
		}
	}
	return out
}

func (f *fakeStore) EngagementForStories(_ context.Context, storyIDs []int64) (map[int64]store.Engagement, error) {
	out := make(map[int64]store.Engagement, len(storyIDs))
	for _, id := range storyIDs {
		out[id] = f.engagement[id]
	}
	return out, nil
}

func (f *fakeStore) Engagement(_ context.Context, storyID int64) (store.Engagement, error) {
	return f.engagement[storyID], nil
}

func newFakeStore() *fakeStore {
	now := time.Now()
	return &fakeStore{
		prefs: map[int64]*store.Preferences{
			1: {CategoryIDs: []int64{1, 3}},
			2: {All: true},
			3: {CategoryIDs: []int64{}},
		},
		// Newest first, matching the relational ordering
		stories: []store.Story{
			{ID: 30, CategoryID: 2, CreatedAt: now},
			{ID: 20, CategoryID: 3, CreatedAt: now.Add(-time.Minute)},
			{ID: 10, CategoryID: 1, CreatedAt: now.Add(-2 * time.Minute)},
		},
		engagement: map[int64]store.Engagement{
			10: {Likes: 5, Dislikes: 2, Views: 10},
			20: {Likes: 1, Views: 2},
		},
	}
}

func TestTrendingScore(t *testing.T) {
	engine := NewEngine(newFakeStore())

	score, err := engine.TrendingScore(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(13), score)
}

func TestTrendingScore_NoInteractions(t *testing.T) {
	engine := NewEngine(newFakeStore())

	score, err := engine.TrendingScore(context.Background(), 999)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestTrending_SortsByScoreWithinPreferredCategories(t *testing.T) {
	engine := NewEngine(newFakeStore())

	ranked, err := engine.Trending(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(10), ranked[0].ID)
	assert.Equal(t, int64(13), ranked[0].Score)
	assert.Equal(t, int64(20), ranked[1].ID)
	assert.Equal(t, int64(3), ranked[1].Score)
}

func TestTrending_NoSettingsIsEmpty(t *testing.T) {
	engine := NewEngine(newFakeStore())

	ranked, err := engine.Trending(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestFeed_AllSentinelReturnsEverything(t *testing.T) {
	engine := NewEngine(newFakeStore())

	stories, err := engine.Feed(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, stories, 3)
	// Newest first
	assert.Equal(t, int64(30), stories[0].ID)
}

func TestFeed_FiltersToPreferredCategories(t *testing.T) {
	engine := NewEngine(newFakeStore())

	stories, err := engine.Feed(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stories, 2)
	for _, st := range stories {
		assert.Contains(t, []int64{1, 3}, st.CategoryID)
	}
}

func TestFeed_NoSettingsIsEmpty(t *testing.T) {
	engine := NewEngine(newFakeStore())

	stories, err := engine.Feed(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestInverseFeed_ComplementOfPreferred(t *testing.T) {
	engine := NewEngine(newFakeStore())

	stories, err := engine.InverseFeed(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, int64(2), stories[0].CategoryID)
}

func TestInverseFeed_AllSentinelIsEmpty(t *testing.T) {
	engine := NewEngine(newFakeStore())

	stories, err := engine.InverseFeed(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestInverseFeed_EmptyPreferencesReturnsEverything(t *testing.T) {
	engine := NewEngine(newFakeStore())

	stories, err := engine.InverseFeed(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, stories, 3)
}
