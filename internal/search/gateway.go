package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devshittu/media-be-sub000/internal/store"
	"github.com/devshittu/media-be-sub000/internal/text"
	apperrors "github.com/devshittu/media-be-sub000/pkg/errors"
	"github.com/devshittu/media-be-sub000/pkg/logger"
)

// phraseBoostMinWords is the word count above which the phrase-match boost
// kicks in. Short queries are not boosted to avoid over-constraining them.
const phraseBoostMinWords = 2

// Cache is the KV-store surface for autocomplete titles and query
// popularity. *RedisCache implements it.
type Cache interface {
	TitlesByPrefix(ctx context.Context, prefix string, limit int) ([]string, error)
	RecordQuery(ctx context.Context, query string) error
	TopQueries(ctx context.Context, n int) ([]ScoredQuery, error)
	RefreshTitles(ctx context.Context, titles []string) error
	PruneQueries(ctx context.Context, minScore float64) (int64, error)
}

// Index is the search-index surface. *ESIndex implements it.
type Index interface {
	Suggest(ctx context.Context, prefix string, fuzziness, limit int) ([]string, error)
	Search(ctx context.Context, q IndexQuery) (*Results, error)
	IndexDocument(ctx context.Context, doc StoryDocument) error
	DeleteDocument(ctx context.Context, storyID int64) error
}

// HistoryRecorder persists an authenticated user's search history.
// *store.Store implements it.
type HistoryRecorder interface {
	RecordUserSearch(ctx context.Context, userID int64, query string) error
}

// TitleSource supplies the current top titles for the autocomplete refresh.
// *store.Store implements it.
type TitleSource interface {
	TopTitles(ctx context.Context, limit int) ([]string, error)
}

// ScoredQuery is a tracked query with its popularity score.
type ScoredQuery struct {
	Query string  `json:"query"`
	Score float64 `json:"score"`
}

// StoryDocument is the indexed representation of a story.
type StoryDocument struct {
	ID         int64     `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CategoryID int64     `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// IndexQuery is a prepared full-text query against the index.
type IndexQuery struct {
	Query       string
	PhraseBoost bool
	Page        int
	PageSize    int
}

// Hit is one search result.
type Hit struct {
	StoryID int64   `json:"story_id"`
	Slug    string  `json:"slug"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
}

// Results is a page of search hits.
type Results struct {
	Hits  []Hit `json:"hits"`
	Total int64 `json:"total"`
}

// Request is a client search request.
type Request struct {
	Query    string
	UserID   int64 // 0 for unauthenticated
	Page     int
	PageSize int
}

// Options tunes the gateway.
type Options struct {
	AutocompleteLimit int
	Fuzziness         int
	TitleCount        int
	PruneThreshold    float64
}

// Gateway orchestrates search and autocomplete across the cache (hot path)
// and the search index (cold path), with query logging for cache warming.
type Gateway struct {
	cache   Cache
	index   Index
	history HistoryRecorder
	titles  TitleSource
	opts    Options
	logger  *zap.Logger
}

// NewGateway creates a search gateway.
func NewGateway(cache Cache, index Index, history HistoryRecorder, titles TitleSource, opts Options) *Gateway {
	if opts.AutocompleteLimit <= 0 {
		opts.AutocompleteLimit = 5
	}
	if opts.Fuzziness <= 0 {
		opts.Fuzziness = 2
	}
	if opts.TitleCount <= 0 {
		opts.TitleCount = 500
	}
	return &Gateway{
		cache:   cache,
		index:   index,
		history: history,
		titles:  titles,
		opts:    opts,
		logger:  logger.Get(),
	}
}

// Autocomplete serves prefix suggestions: the cache's title sorted-set first,
// falling back to the index's fuzzy completion suggester only when the cache
// yields nothing. The cache is not backfilled from the fallback.
func (g *Gateway) Autocomplete(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}

	titles, err := g.cache.TitlesByPrefix(ctx, prefix, g.opts.AutocompleteLimit)
	if err != nil {
		g.logger.Error("Autocomplete cache lookup failed", zap.Error(err))
		return nil, apperrors.NewSearchUnavailable("cache", err)
	}
	if len(titles) > 0 {
		return titles, nil
	}

	suggestions, err := g.index.Suggest(ctx, prefix, g.opts.Fuzziness, g.opts.AutocompleteLimit)
	if err != nil {
		g.logger.Error("Autocomplete suggester failed", zap.Error(err))
		return nil, apperrors.NewSearchUnavailable("index", err)
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return suggestions, nil
}

// Search runs a multi-field fuzzy query, phrase-boosted for queries longer
// than two words, ranked by relevance then recency. The query is recorded
// for popularity tracking and, for authenticated users, search history;
// both records are best-effort and never fail the search.
func (g *Gateway) Search(ctx context.Context, req Request) (*Results, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, apperrors.ErrEmptyQuery
	}

	if err := g.cache.RecordQuery(ctx, query); err != nil {
		g.logger.Warn("Failed to record query popularity", zap.Error(err))
	}
	if req.UserID != 0 {
		if err := g.history.RecordUserSearch(ctx, req.UserID, query); err != nil {
			g.logger.Warn("Failed to record search history",
				zap.Int64("user_id", req.UserID),
				zap.Error(err),
			)
		}
	}

	results, err := g.index.Search(ctx, IndexQuery{
		Query:       query,
		PhraseBoost: len(strings.Fields(query)) > phraseBoostMinWords,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		g.logger.Error("Search index query failed", zap.Error(err))
		return nil, apperrors.NewSearchUnavailable("index", err)
	}
	return results, nil
}

// PopularQueries returns the top-n tracked queries by popularity.
func (g *Gateway) PopularQueries(ctx context.Context, n int) ([]ScoredQuery, error) {
	if n <= 0 {
		n = 10
	}
	queries, err := g.cache.TopQueries(ctx, n)
	if err != nil {
		g.logger.Error("Popular query lookup failed", zap.Error(err))
		return nil, apperrors.NewSearchUnavailable("cache", err)
	}
	if queries == nil {
		queries = []ScoredQuery{}
	}
	return queries, nil
}

// RefreshTitles replaces the autocomplete title set with the current top
// titles from the relational store. Run periodically, out of band.
func (g *Gateway) RefreshTitles(ctx context.Context) error {
	titles, err := g.titles.TopTitles(ctx, g.opts.TitleCount)
	if err != nil {
		return err
	}
	if err := g.cache.RefreshTitles(ctx, titles); err != nil {
		return apperrors.NewSearchUnavailable("cache", err)
	}
	g.logger.Info("Autocomplete title set refreshed", zap.Int("titles", len(titles)))
	return nil
}

// PruneQueries drops popularity-tracked queries below the configured
// minimum score. Run periodically, out of band.
func (g *Gateway) PruneQueries(ctx context.Context) error {
	pruned, err := g.cache.PruneQueries(ctx, g.opts.PruneThreshold)
	if err != nil {
		return apperrors.NewSearchUnavailable("cache", err)
	}
	if pruned > 0 {
		g.logger.Info("Pruned unpopular queries", zap.Int64("count", pruned))
	}
	return nil
}

// IndexStory upserts a story document into the index. Part of the
// write-path fan-out; satisfies the dispatcher's Indexer.
func (g *Gateway) IndexStory(ctx context.Context, story *store.Story) error {
	return g.index.IndexDocument(ctx, StoryDocument{
		ID:         story.ID,
		Slug:       story.Slug,
		Title:      story.Title,
		Body:       text.PlainText(story.Body),
		CategoryID: story.CategoryID,
		CreatedAt:  story.CreatedAt,
	})
}

// DeleteStory removes a story document from the index.
func (g *Gateway) DeleteStory(ctx context.Context, storyID int64) error {
	return g.index.DeleteDocument(ctx, storyID)
}
