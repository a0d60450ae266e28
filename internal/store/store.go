package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	apperrors "github.com/devshittu/media-be-sub000/pkg/errors"
	"github.com/devshittu/media-be-sub000/pkg/logger"
)

// Store handles relational database operations for stories, interactions and
// user settings.
type Store struct {
	db     bun.IDB
	logger *zap.Logger
}

// NewStore creates a new relational store.
func NewStore(db bun.IDB) *Store {
	return &Store{
		db:     db,
		logger: logger.Get(),
	}
}

// OpenDB opens a Postgres-backed bun DB from a DSN.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// StoryBySlug returns a story by its slug, or nil when no such story exists.
func (s *Store) StoryBySlug(ctx context.Context, slug string) (*Story, error) {
	story := new(Story)
	err := s.db.NewSelect().
		Model(story).
		Where("slug = ?", slug).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("story by slug", err)
	}
	return story, nil
}

// StoriesByIDs fetches the given stories and returns them in the order of
// the id list. The caller (usually the graph side) is the ordering
// authority, not the relational store.
func (s *Store) StoriesByIDs(ctx context.Context, ids []int64) ([]Story, error) {
	if len(ids) == 0 {
		return []Story{}, nil
	}

	var stories []Story
	err := s.db.NewSelect().
		Model(&stories).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("stories by ids", err)
	}

	byID := make(map[int64]Story, len(stories))
	for _, st := range stories {
		byID[st.ID] = st
	}

	ordered := make([]Story, 0, len(stories))
	for _, id := range ids {
		if st, ok := byID[id]; ok {
			ordered = append(ordered, st)
		}
	}
	return ordered, nil
}

// AllStories returns every non-deleted story, newest first.
func (s *Store) AllStories(ctx context.Context) ([]Story, error) {
	var stories []Story
	err := s.db.NewSelect().
		Model(&stories).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("all stories", err)
	}
	return stories, nil
}

// StoriesInCategories returns stories in the given categories, newest first.
func (s *Store) StoriesInCategories(ctx context.Context, categoryIDs []int64) ([]Story, error) {
	if len(categoryIDs) == 0 {
		return []Story{}, nil
	}

	var stories []Story
	err := s.db.NewSelect().
		Model(&stories).
		Where("category_id IN (?)", bun.In(categoryIDs)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("stories in categories", err)
	}
	return stories, nil
}

// StoriesNotInCategories returns stories outside the given categories,
// newest first. An empty category list returns all stories.
func (s *Store) StoriesNotInCategories(ctx context.Context, categoryIDs []int64) ([]Story, error) {
	if len(categoryIDs) == 0 {
		return s.AllStories(ctx)
	}

	var stories []Story
	err := s.db.NewSelect().
		Model(&stories).
		Where("category_id NOT IN (?)", bun.In(categoryIDs)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("stories not in categories", err)
	}
	return stories, nil
}

// EngagementForStories returns distinct per-user interaction counts for each
// of the given stories. Duplicate rows for the same user/story/type do not
// inflate the counts.
func (s *Store) EngagementForStories(ctx context.Context, storyIDs []int64) (map[int64]Engagement, error) {
	counts := make(map[int64]Engagement, len(storyIDs))
	if len(storyIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		StoryID int64  `bun:"story_id"`
		Type    string `bun:"interaction_type"`
		Count   int64  `bun:"cnt"`
	}
	err := s.db.NewSelect().
		Model((*Interaction)(nil)).
		Column("story_id", "interaction_type").
		ColumnExpr("COUNT(DISTINCT user_id) AS cnt").
		Where("story_id IN (?)", bun.In(storyIDs)).
		Group("story_id", "interaction_type").
		Scan(ctx, &rows)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("engagement counts", err)
	}

	for _, row := range rows {
		e := counts[row.StoryID]
		switch row.Type {
		case InteractionLike:
			e.Likes = row.Count
		case InteractionDislike:
			e.Dislikes = row.Count
		case InteractionView:
			e.Views = row.Count
		}
		counts[row.StoryID] = e
	}
	return counts, nil
}

// Engagement returns the distinct interaction counts for a single story.
func (s *Store) Engagement(ctx context.Context, storyID int64) (Engagement, error) {
	counts, err := s.EngagementForStories(ctx, []int64{storyID})
	if err != nil {
		return Engagement{}, err
	}
	return counts[storyID], nil
}

// Preferences returns a user's category preferences, or nil when the user
// has no settings row.
func (s *Store) Preferences(ctx context.Context, userID int64) (*Preferences, error) {
	setting := new(UserSetting)
	err := s.db.NewSelect().
		Model(setting).
		Where("user_id = ?", userID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("user preferences", err)
	}
	return &Preferences{
		All:         setting.AllCategories,
		CategoryIDs: setting.PreferredCategories,
	}, nil
}

// TopTitles returns the most recent story titles for the autocomplete title
// set refresh.
func (s *Store) TopTitles(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}

	var titles []string
	err := s.db.NewSelect().
		Model((*Story)(nil)).
		Column("title").
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx, &titles)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("top titles", err)
	}
	return titles, nil
}

// RecordUserSearch appends a query to a user's search history.
func (s *Store) RecordUserSearch(ctx context.Context, userID int64, query string) error {
	search := &UserSearch{
		UserID: userID,
		Query:  query,
	}
	if _, err := s.db.NewInsert().Model(search).Exec(ctx); err != nil {
		return apperrors.NewStoreQueryFailed("record user search", err)
	}
	return nil
}
