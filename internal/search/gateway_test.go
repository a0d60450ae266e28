package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/devshittu/media-be-sub000/pkg/errors"
)

type fakeCache struct {
	titles       []string
	titlesErr    error
	prefixCalls  int
	recorded     []string
	top          []ScoredQuery
	refreshed    []string
	prunedBelow  float64
	prunedReturn int64
}

func (f *fakeCache) TitlesByPrefix(_ context.Context, _ string, _ int) ([]string, error) {
	f.prefixCalls++
	return f.titles, f.titlesErr
}

func (f *fakeCache) RecordQuery(_ context.Context, query string) error {
	f.recorded = append(f.recorded, query)
	return nil
}

func (f *fakeCache) TopQueries(_ context.Context, _ int) ([]ScoredQuery, error) {
	return f.top, nil
}

func (f *fakeCache) RefreshTitles(_ context.Context, titles []string) error {
	f.refreshed = titles
	return nil
}

func (f *fakeCache) PruneQueries(_ context.Context, minScore float64) (int64, error) {
	f.prunedBelow = minScore
	return f.prunedReturn, nil
}

type fakeIndex struct {
	suggestions  []string
	suggestCalls int
	lastQuery    IndexQuery
	searchErr    error
	results      *Results
	docs         map[int64]StoryDocument
}

func (f *fakeIndex) Suggest(_ context.Context, _ string, _, _ int) ([]string, error) {
	f.suggestCalls++
	return f.suggestions, nil
}

func (f *fakeIndex) Search(_ context.Context, q IndexQuery) (*Results, error) {
	f.lastQuery = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.results != nil {
		return f.results, nil
	}
	return &Results{Hits: []Hit{}}, nil
}

func (f *fakeIndex) IndexDocument(_ context.Context, doc StoryDocument) error {
	if f.docs == nil {
		f.docs = make(map[int64]StoryDocument)
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) DeleteDocument(_ context.Context, storyID int64) error {
	delete(f.docs, storyID)
	return nil
}

type fakeHistory struct {
	entries map[int64][]string
}

func (f *fakeHistory) RecordUserSearch(_ context.Context, userID int64, query string) error {
	if f.entries == nil {
		f.entries = make(map[int64][]string)
	}
	f.entries[userID] = append(f.entries[userID], query)
	return nil
}

type fakeTitles struct {
	titles []string
}

func (f *fakeTitles) TopTitles(_ context.Context, _ int) ([]string, error) {
	return f.titles, nil
}

func newGateway(cache *fakeCache, index *fakeIndex) (*Gateway, *fakeHistory) {
	history := &fakeHistory{}
	titles := &fakeTitles{titles: []string{"alpha", "beta"}}
	return NewGateway(cache, index, history, titles, Options{PruneThreshold: 2}), history
}

func TestAutocomplete_CacheHitSkipsIndex(t *testing.T) {
	cache := &fakeCache{titles: []string{"breaking news"}}
	index := &fakeIndex{suggestions: []string{"should not appear"}}
	gw, _ := newGateway(cache, index)

	got, err := gw.Autocomplete(context.Background(), "brea")
	require.NoError(t, err)
	assert.Equal(t, []string{"breaking news"}, got)
	assert.Equal(t, 1, cache.prefixCalls)
	assert.Zero(t, index.suggestCalls, "cache hit must not call the index fallback")
}

func TestAutocomplete_EmptyCacheFallsBack(t *testing.T) {
	cache := &fakeCache{}
	index := &fakeIndex{suggestions: []string{"breaking news", "breaking point"}}
	gw, _ := newGateway(cache, index)

	got, err := gw.Autocomplete(context.Background(), "brea")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, index.suggestCalls)
}

func TestAutocomplete_CacheErrorIsServiceError(t *testing.T) {
	cache := &fakeCache{titlesErr: errors.New("connection refused")}
	index := &fakeIndex{}
	gw, _ := newGateway(cache, index)

	_, err := gw.Autocomplete(context.Background(), "brea")
	var unavailable *apperrors.ErrSearchUnavailable
	require.ErrorAs(t, err, &unavailable)
	assert.Zero(t, index.suggestCalls)
}

func TestAutocomplete_BlankPrefixIsEmpty(t *testing.T) {
	cache := &fakeCache{}
	index := &fakeIndex{}
	gw, _ := newGateway(cache, index)

	got, err := gw.Autocomplete(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, cache.prefixCalls)
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	cache := &fakeCache{}
	index := &fakeIndex{}
	gw, _ := newGateway(cache, index)

	_, err := gw.Search(context.Background(), Request{Query: "  "})
	require.ErrorIs(t, err, apperrors.ErrEmptyQuery)
	assert.Empty(t, cache.recorded, "nothing recorded before validation")
}

func TestSearch_PhraseBoostOnlyForLongQueries(t *testing.T) {
	cache := &fakeCache{}
	index := &fakeIndex{}
	gw, _ := newGateway(cache, index)
	ctx := context.Background()

	_, err := gw.Search(ctx, Request{Query: "a b c d"})
	require.NoError(t, err)
	assert.True(t, index.lastQuery.PhraseBoost, "4-word query gets the phrase boost")

	_, err = gw.Search(ctx, Request{Query: "a b"})
	require.NoError(t, err)
	assert.False(t, index.lastQuery.PhraseBoost, "2-word query does not")
}

func TestSearch_RecordsPopularityAndHistory(t *testing.T) {
	cache := &fakeCache{}
	index := &fakeIndex{}
	gw, history := newGateway(cache, index)

	_, err := gw.Search(context.Background(), Request{Query: "harbour fire", UserID: 42})
	require.NoError(t, err)
	assert.Equal(t, []string{"harbour fire"}, cache.recorded)
	assert.Equal(t, []string{"harbour fire"}, history.entries[42])
}

func TestSearch_AnonymousSkipsHistory(t *testing.T) {
	cache := &fakeCache{}
	index := &fakeIndex{}
	gw, history := newGateway(cache, index)

	_, err := gw.Search(context.Background(), Request{Query: "harbour fire"})
	require.NoError(t, err)
	assert.Empty(t, history.entries)
}

func TestSearch_BackendFailureIsServiceError(t *testing.T) {
	cache := &fakeCache{}
	index := &fakeIndex{searchErr: errors.New("es down")}
	gw, _ := newGateway(cache, index)

	_, err := gw.Search(context.Background(), Request{Query: "anything"})
	var unavailable *apperrors.ErrSearchUnavailable
	require.ErrorAs(t, err, &unavailable)
}

func TestPopularQueries(t *testing.T) {
	cache := &fakeCache{top: []ScoredQuery{{Query: "fire", Score: 9}, {Query: "flood", Score: 3}}}
	gw, _ := newGateway(cache, &fakeIndex{})

	queries, err := gw.PopularQueries(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "fire", queries[0].Query)
}

func TestRefreshTitles(t *testing.T) {
	cache := &fakeCache{}
	gw, _ := newGateway(cache, &fakeIndex{})

	require.NoError(t, gw.RefreshTitles(context.Background()))
	assert.Equal(t, []string{"alpha", "beta"}, cache.refreshed)
}

func TestPruneQueries(t *testing.T) {
	cache := &fakeCache{prunedReturn: 4}
	gw, _ := newGateway(cache, &fakeIndex{})

	require.NoError(t, gw.PruneQueries(context.Background()))
	assert.Equal(t, 2.0, cache.prunedBelow)
}
