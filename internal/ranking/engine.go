package ranking

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/devshittu/media-be-sub000/internal/store"
	"github.com/devshittu/media-be-sub000/pkg/logger"
)

// Store is the relational aggregation surface the ranking engine reads from.
// *store.Store implements it.
type Store interface {
	Preferences(ctx context.Context, userID int64) (*store.Preferences, error)
	AllStories(ctx context.Context) ([]store.Story, error)
	StoriesInCategories(ctx context.Context, categoryIDs []int64) ([]store.Story, error)
	StoriesNotInCategories(ctx context.Context, categoryIDs []int64) ([]store.Story, error)
	EngagementForStories(ctx context.Context, storyIDs []int64) (map[int64]store.Engagement, error)
	Engagement(ctx context.Context, storyID int64) (store.Engagement, error)
}

// RankedStory is a story annotated with its engagement counts and trending
// score.
type RankedStory struct {
	store.Story
	Engagement store.Engagement `json:"engagement"`
	Score      int64            `json:"score"`
}

// Engine computes engagement scores and produces ordered trending and feed
// listings filtered by user preferences.
type Engine struct {
	store  Store
	logger *zap.Logger
}

// NewEngine creates a new ranking engine.
func NewEngine(s Store) *Engine {
	return &Engine{
		store:  s,
		logger: logger.Get(),
	}
}

// TrendingScore returns likes - dislikes + views for one story, counting
// each interaction type per distinct user.
func (e *Engine) TrendingScore(ctx context.Context, storyID int64) (int64, error) {
	engagement, err := e.store.Engagement(ctx, storyID)
	if err != nil {
		return 0, err
	}
	return engagement.Score(), nil
}

// Trending returns the user's candidate stories annotated with engagement
// and sorted by descending score. Users without settings get an empty list.
func (e *Engine) Trending(ctx context.Context, userID int64) ([]RankedStory, error) {
	stories, err := e.candidates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return []RankedStory{}, nil
	}

	ids := make([]int64, len(stories))
	for i, st := range stories {
		ids[i] = st.ID
	}

	counts, err := e.store.EngagementForStories(ctx, ids)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedStory, len(stories))
	for i, st := range stories {
		engagement := counts[st.ID]
		ranked[i] = RankedStory{
			Story:      st,
			Engagement: engagement,
			Score:      engagement.Score(),
		}
	}

	// Stable: candidates arrive newest-first, so equal scores keep recency
	// order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// Feed returns the user's stories, newest first: everything under the "all
// categories" sentinel, otherwise only preferred categories. Users without
// settings get an empty feed.
func (e *Engine) Feed(ctx context.Context, userID int64) ([]store.Story, error) {
	return e.candidates(ctx, userID)
}

// InverseFeed returns the complement of the feed: stories outside the
// preferred categories. Under the "all" sentinel there is nothing to
// exclude, so the result is empty; an empty preference list excludes
// nothing, so every story is returned.
func (e *Engine) InverseFeed(ctx context.Context, userID int64) ([]store.Story, error) {
	prefs, err := e.store.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return []store.Story{}, nil
	}
	if prefs.All {
		return []store.Story{}, nil
	}
	if len(prefs.CategoryIDs) == 0 {
		return e.store.AllStories(ctx)
	}
	return e.store.StoriesNotInCategories(ctx, prefs.CategoryIDs)
}

func (e *Engine) candidates(ctx context.Context, userID int64) ([]store.Story, error) {
	prefs, err := e.store.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		e.logger.Debug("No settings for user, empty result", zap.Int64("user_id", userID))
		return []store.Story{}, nil
	}
	if prefs.All {
		return e.store.AllStories(ctx)
	}
	if len(prefs.CategoryIDs) == 0 {
		return []store.Story{}, nil
	}
	return e.store.StoriesInCategories(ctx, prefs.CategoryIDs)
}
