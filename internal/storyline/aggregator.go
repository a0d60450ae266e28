package storyline

import (
	"context"

	"go.uber.org/zap"

	"github.com/devshittu/media-be-sub000/internal/graph"
	"github.com/devshittu/media-be-sub000/internal/store"
	"github.com/devshittu/media-be-sub000/pkg/logger"
)

// Direction orders a storyline's member stories by event time.
type Direction int

const (
	// Forward lists members oldest event first.
	Forward Direction = iota
	// Previous lists members newest event first.
	Previous
)

// GraphReader is the graph-side read surface the aggregator composes over.
// *graph.Repository implements it.
type GraphReader interface {
	ListStorylines(ctx context.Context) ([]graph.Storyline, error)
	StorylineStoryIDs(ctx context.Context, storylineID string, descending bool) ([]int64, error)
	StorylineHashtags(ctx context.Context, storylineID string) ([]graph.Hashtag, error)
	StorylinesForStory(ctx context.Context, storyID int64) ([]graph.Storyline, error)
	TrendingHashtags(ctx context.Context) ([]graph.Hashtag, error)
	StoryIDsForHashtag(ctx context.Context, name string) ([]int64, error)
}

// StoryFetcher is the relational side: bulk fetch preserving a given order,
// and slug resolution.
type StoryFetcher interface {
	StoriesByIDs(ctx context.Context, ids []int64) ([]store.Story, error)
	StoryBySlug(ctx context.Context, slug string) (*store.Story, error)
}

// Aggregator composes storyline reads across the graph store and the
// relational store. Missing storylines, stories or hashtags yield empty
// results, never errors: reads degrade gracefully.
type Aggregator struct {
	graph  GraphReader
	store  StoryFetcher
	logger *zap.Logger
}

// NewAggregator creates a new storyline aggregator.
func NewAggregator(graphReader GraphReader, storyFetcher StoryFetcher) *Aggregator {
	return &Aggregator{
		graph:  graphReader,
		store:  storyFetcher,
		logger: logger.Get(),
	}
}

// Storylines returns every storyline, most recently updated first, with
// distinct-hashtag count breaking ties.
func (a *Aggregator) Storylines(ctx context.Context) ([]graph.Storyline, error) {
	storylines, err := a.graph.ListStorylines(ctx)
	if err != nil {
		return nil, err
	}
	if storylines == nil {
		storylines = []graph.Storyline{}
	}
	return storylines, nil
}

// StorylineStories returns a storyline's member stories ordered by event
// time. The graph side is the ordering authority; the relational fetch
// preserves its order.
func (a *Aggregator) StorylineStories(ctx context.Context, storylineID string, dir Direction) ([]store.Story, error) {
	ids, err := a.graph.StorylineStoryIDs(ctx, storylineID, dir == Previous)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []store.Story{}, nil
	}
	return a.store.StoriesByIDs(ctx, ids)
}

// StorylineHashtags returns the union of hashtags across a storyline's
// member stories, with per-hashtag story counts.
func (a *Aggregator) StorylineHashtags(ctx context.Context, storylineID string) ([]graph.Hashtag, error) {
	hashtags, err := a.graph.StorylineHashtags(ctx, storylineID)
	if err != nil {
		return nil, err
	}
	if hashtags == nil {
		hashtags = []graph.Hashtag{}
	}
	return hashtags, nil
}

// StorylinesForStorySlug resolves a story by slug and returns its storyline
// membership, normally a singleton. An unknown slug yields an empty result.
func (a *Aggregator) StorylinesForStorySlug(ctx context.Context, slug string) ([]graph.Storyline, error) {
	story, err := a.store.StoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if story == nil {
		a.logger.Debug("Storyline lookup for unknown slug", zap.String("slug", slug))
		return []graph.Storyline{}, nil
	}

	storylines, err := a.graph.StorylinesForStory(ctx, story.ID)
	if err != nil {
		return nil, err
	}
	if storylines == nil {
		storylines = []graph.Storyline{}
	}
	return storylines, nil
}

// TrendingHashtags returns all hashtags annotated with member-story counts,
// most-used first.
func (a *Aggregator) TrendingHashtags(ctx context.Context) ([]graph.Hashtag, error) {
	hashtags, err := a.graph.TrendingHashtags(ctx)
	if err != nil {
		return nil, err
	}
	if hashtags == nil {
		hashtags = []graph.Hashtag{}
	}
	return hashtags, nil
}

// StoriesByHashtag returns the relational stories tagged with the named
// hashtag. An unknown hashtag yields an empty result, not an error.
func (a *Aggregator) StoriesByHashtag(ctx context.Context, name string) ([]store.Story, error) {
	ids, err := a.graph.StoryIDsForHashtag(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []store.Story{}, nil
	}
	return a.store.StoriesByIDs(ctx, ids)
}
