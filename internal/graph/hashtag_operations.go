package graph

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// Hashtag Operations
// ============================================================================

// ConnectHashtags attaches the given tags to a story node, creating any tag
// that does not exist yet. Hashtags are get-or-create: the tag universe is
// append-only and tags are never deleted.
func (r *Repository) ConnectHashtags(ctx context.Context, storyID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})
		UNWIND $tags as tag
		MERGE (h:Hashtag {name: tag})
		ON CREATE SET h.id = randomUUID(), h.created_at = datetime($now)
		MERGE (s)-[:TAGGED_WITH]->(h)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"storyID": storyID,
		"tags":    tags,
		"now":     now,
	})
	if err != nil {
		return fmt.Errorf("failed to connect hashtags: %w", err)
	}

	r.logger.Debug("Hashtags connected",
		zap.Int64("story_id", storyID),
		zap.Strings("tags", tags),
	)
	return nil
}

// DisconnectHashtags removes the edges from a story node to the given tags.
// The Hashtag nodes themselves stay behind.
func (r *Repository) DisconnectHashtags(ctx context.Context, storyID int64, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})-[rel:TAGGED_WITH]->(h:Hashtag)
		WHERE h.name IN $tags
		DELETE rel
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"storyID": storyID,
		"tags":    tags,
	})
	if err != nil {
		return fmt.Errorf("failed to disconnect hashtags: %w", err)
	}

	r.logger.Debug("Hashtags disconnected",
		zap.Int64("story_id", storyID),
		zap.Strings("tags", tags),
	)
	return nil
}

// StoryNodeHashtags returns the tag names currently attached to a story node.
func (r *Repository) StoryNodeHashtags(ctx context.Context, storyID int64) ([]string, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})-[:TAGGED_WITH]->(h:Hashtag)
		RETURN collect(h.name) as tags
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storyID": storyID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch story hashtags: %w", err)
	}

	if result.Next(ctx) {
		return getStringSliceFromRecord(result.Record(), "tags"), nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read story hashtags: %w", err)
	}
	return []string{}, nil
}

// TrendingHashtags returns every hashtag annotated with its member-story
// count, most-used first.
func (r *Repository) TrendingHashtags(ctx context.Context) ([]Hashtag, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (h:Hashtag)
		OPTIONAL MATCH (h)<-[:TAGGED_WITH]-(s:StoryNode)
		RETURN h.id as id, h.name as name, count(DISTINCT s) as story_count
		ORDER BY story_count DESC, name ASC
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending hashtags: %w", err)
	}

	var hashtags []Hashtag
	for result.Next(ctx) {
		record := result.Record()
		hashtags = append(hashtags, Hashtag{
			ID:         getStringFromRecord(record, "id"),
			Name:       getStringFromRecord(record, "name"),
			StoryCount: getInt64FromRecord(record, "story_count"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trending hashtags: %w", err)
	}

	return hashtags, nil
}

// StoryIDsForHashtag resolves a hashtag by name and returns its member story
// ids, newest event first. An unknown hashtag yields an empty result.
func (r *Repository) StoryIDsForHashtag(ctx context.Context, name string) ([]int64, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (h:Hashtag {name: $name})<-[:TAGGED_WITH]-(s:StoryNode)
		RETURN s.story_id as story_id
		ORDER BY s.event_occurred_at DESC
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"name": name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stories for hashtag: %w", err)
	}

	var ids []int64
	for result.Next(ctx) {
		ids = append(ids, getInt64FromRecord(result.Record(), "story_id"))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stories for hashtag: %w", err)
	}

	return ids, nil
}
