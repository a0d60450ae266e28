package search

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Redis keys for the two sorted sets: titles score everything at 0 so the
// set is purely lexicographic; queries carry popularity scores.
const (
	titlesKey  = "search:autocomplete:titles"
	queriesKey = "search:queries"
)

// RedisCache backs the search cache with Redis sorted sets. Failures
// surface to the gateway, which owns the logging and the uniform
// service-unavailable mapping.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed search cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// TitlesByPrefix runs a lexicographic range query over the title set.
func (c *RedisCache) TitlesByPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	titles, err := c.client.ZRangeByLex(ctx, titlesKey, &redis.ZRangeBy{
		Min:   "[" + prefix,
		Max:   "[" + prefix + "\xff",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}
	return titles, nil
}

// RecordQuery bumps a query's popularity score by one.
func (c *RedisCache) RecordQuery(ctx context.Context, query string) error {
	return c.client.ZIncrBy(ctx, queriesKey, 1, query).Err()
}

// TopQueries returns the n most popular tracked queries, highest score
// first.
func (c *RedisCache) TopQueries(ctx context.Context, n int) ([]ScoredQuery, error) {
	members, err := c.client.ZRevRangeWithScores(ctx, queriesKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	queries := make([]ScoredQuery, 0, len(members))
	for _, m := range members {
		name, ok := m.Member.(string)
		if !ok {
			continue
		}
		queries = append(queries, ScoredQuery{Query: name, Score: m.Score})
	}
	return queries, nil
}

// RefreshTitles atomically replaces the title set with the given titles,
// all scored 0.
func (c *RedisCache) RefreshTitles(ctx context.Context, titles []string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, titlesKey)
	if len(titles) > 0 {
		members := make([]redis.Z, len(titles))
		for i, title := range titles {
			members[i] = redis.Z{Score: 0, Member: title}
		}
		pipe.ZAdd(ctx, titlesKey, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// PruneQueries removes tracked queries scoring below minScore and returns
// how many were dropped.
func (c *RedisCache) PruneQueries(ctx context.Context, minScore float64) (int64, error) {
	max := "(" + strconv.FormatFloat(minScore, 'f', -1, 64)
	pruned, err := c.client.ZRemRangeByScore(ctx, queriesKey, "-inf", max).Result()
	if err != nil {
		return 0, err
	}
	return pruned, nil
}
