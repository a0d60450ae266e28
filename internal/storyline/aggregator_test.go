package storyline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devshittu/media-be-sub000/internal/graph"
	"github.com/devshittu/media-be-sub000/internal/store"
)

type fakeGraphReader struct {
	storylines map[string][]int64 // storyline id -> ordered member story ids
	hashtags   map[string][]int64 // hashtag name -> story ids
	membership map[int64][]graph.Storyline
	listed     []graph.Storyline
}

func (f *fakeGraphReader) ListStorylines(_ context.Context) ([]graph.Storyline, error) {
	return f.listed, nil
}

func (f *fakeGraphReader) StorylineStoryIDs(_ context.Context, id string, descending bool) ([]int64, error) {
	ids := append([]int64(nil), f.storylines[id]...)
	if descending {
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}
	return ids, nil
}

func (f *fakeGraphReader) StorylineHashtags(_ context.Context, id string) ([]graph.Hashtag, error) {
	if len(f.storylines[id]) == 0 {
		return nil, nil
	}
	return []graph.Hashtag{{ID: "h1", Name: "fire", StoryCount: 2}}, nil
}

func (f *fakeGraphReader) StorylinesForStory(_ context.Context, storyID int64) ([]graph.Storyline, error) {
	return f.membership[storyID], nil
}

func (f *fakeGraphReader) TrendingHashtags(_ context.Context) ([]graph.Hashtag, error) {
	return []graph.Hashtag{
		{Name: "fire", StoryCount: 5},
		{Name: "flood", StoryCount: 2},
	}, nil
}

func (f *fakeGraphReader) StoryIDsForHashtag(_ context.Context, name string) ([]int64, error) {
	return f.hashtags[name], nil
}

type fakeStoryFetcher struct {
	stories map[int64]store.Story
	bySlug  map[string]int64
}

func (f *fakeStoryFetcher) StoriesByIDs(_ context.Context, ids []int64) ([]store.Story, error) {
	out := make([]store.Story, 0, len(ids))
	for _, id := range ids {
		if st, ok := f.stories[id]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeStoryFetcher) StoryBySlug(_ context.Context, slug string) (*store.Story, error) {
	id, ok := f.bySlug[slug]
	if !ok {
		return nil, nil
	}
	st := f.stories[id]
	return &st, nil
}

func fixture() (*fakeGraphReader, *fakeStoryFetcher) {
	gr := &fakeGraphReader{
		storylines: map[string][]int64{"sl-1": {3, 1, 2}},
		hashtags:   map[string][]int64{"fire": {1, 3}},
		membership: map[int64][]graph.Storyline{1: {{ID: "sl-1", Summary: "root"}}},
	}
	sf := &fakeStoryFetcher{
		stories: map[int64]store.Story{
			1: {ID: 1, Slug: "one", Title: "one"},
			2: {ID: 2, Slug: "two", Title: "two"},
			3: {ID: 3, Slug: "three", Title: "three"},
		},
		bySlug: map[string]int64{"one": 1, "two": 2, "three": 3},
	}
	return gr, sf
}

func TestStorylineStories_PreservesGraphOrder(t *testing.T) {
	gr, sf := fixture()
	agg := NewAggregator(gr, sf)

	stories, err := agg.StorylineStories(context.Background(), "sl-1", Forward)
	require.NoError(t, err)
	require.Len(t, stories, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{stories[0].ID, stories[1].ID, stories[2].ID})
}

func TestStorylineStories_PreviousReverses(t *testing.T) {
	gr, sf := fixture()
	agg := NewAggregator(gr, sf)

	stories, err := agg.StorylineStories(context.Background(), "sl-1", Previous)
	require.NoError(t, err)
	require.Len(t, stories, 3)
	assert.Equal(t, int64(2), stories[0].ID)
}

func TestStorylineStories_UnknownStorylineIsEmpty(t *testing.T) {
	gr, sf := fixture()
	agg := NewAggregator(gr, sf)

	stories, err := agg.StorylineStories(context.Background(), "missing", Forward)
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestStorylinesForStorySlug(t *testing.T) {
	gr, sf := fixture()
	agg := NewAggregator(gr, sf)

	storylines, err := agg.StorylinesForStorySlug(context.Background(), "one")
	require.NoError(t, err)
	require.Len(t, storylines, 1)
	assert.Equal(t, "sl-1", storylines[0].ID)
}

func TestStorylinesForStorySlug_UnknownSlugIsEmpty(t *testing.T) {
	gr, sf := fixture()
	agg := NewAggregator(gr, sf)

	storylines, err := agg.StorylinesForStorySlug(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, storylines)
}

func TestStoriesByHashtag(t *testing.T) {
	gr, sf := fixture()
	agg := NewAggregator(gr, sf)

	stories, err := agg.StoriesByHashtag(context.Background(), "fire")
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, int64(1), stories[0].ID)
}

func TestStoriesByHashtag_UnknownIsEmpty(t *testing.T) {
	gr, sf := fixture()
	agg := NewAggregator(gr, sf)

	stories, err := agg.StoriesByHashtag(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestStorylines_RecencyBeatsHashtagCount(t *testing.T) {
	later := time.Now()
	earlier := later.Add(-time.Hour)

	gr, sf := fixture()
	// Ordering is produced by the graph query; the aggregator passes it
	// through untouched.
	gr.listed = []graph.Storyline{
		{ID: "a", UpdatedAt: later, HashtagCount: 2},
		{ID: "b", UpdatedAt: earlier, HashtagCount: 5},
	}
	agg := NewAggregator(gr, sf)

	storylines, err := agg.Storylines(context.Background())
	require.NoError(t, err)
	require.Len(t, storylines, 2)
	assert.Equal(t, "a", storylines[0].ID)
}

func TestTrendingHashtags(t *testing.T) {
	gr, sf := fixture()
	agg := NewAggregator(gr, sf)

	hashtags, err := agg.TrendingHashtags(context.Background())
	require.NoError(t, err)
	require.Len(t, hashtags, 2)
	assert.Equal(t, "fire", hashtags[0].Name)
	assert.Equal(t, int64(5), hashtags[0].StoryCount)
}
