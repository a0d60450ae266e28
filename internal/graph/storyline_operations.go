package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Storyline Operations
// ============================================================================

// CreateStoryline creates a new storyline for a root story and connects the
// story's node to it. Exactly one storyline is created per root story.
func (r *Repository) CreateStoryline(ctx context.Context, storyID int64, in StorylineInput) (*Storyline, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	storylineID := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})
		CREATE (sl:Storyline {
			id: $storylineID,
			description: $description,
			summary: $summary,
			subject: $subject,
			hashtags: $hashtags,
			created_at: datetime($now),
			updated_at: datetime($now)
		})
		MERGE (s)-[:BELONGS_TO]->(sl)
		RETURN sl.id as id, sl.description as description, sl.summary as summary,
		       sl.subject as subject, sl.hashtags as hashtags,
		       sl.created_at as created_at, sl.updated_at as updated_at
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storyID":     storyID,
		"storylineID": storylineID,
		"description": in.Description,
		"summary":     in.Summary,
		"subject":     in.Subject,
		"hashtags":    in.Hashtags,
		"now":         now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storyline: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify storyline creation: %w", err)
	}

	r.logger.Info("Storyline created",
		zap.String("storyline_id", storylineID),
		zap.Int64("root_story_id", storyID),
	)

	return storylineFromRecord(record), nil
}

// AttachStoryToStoryline connects a story node to an existing storyline and
// bumps the storyline's update time.
func (r *Repository) AttachStoryToStoryline(ctx context.Context, storyID int64, storylineID string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})
		MATCH (sl:Storyline {id: $storylineID})
		MERGE (s)-[:BELONGS_TO]->(sl)
		SET sl.updated_at = datetime($now)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"storyID":     storyID,
		"storylineID": storylineID,
		"now":         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to attach story to storyline: %w", err)
	}

	r.logger.Info("Story attached to storyline",
		zap.Int64("story_id", storyID),
		zap.String("storyline_id", storylineID),
	)
	return nil
}

// StorylineIDsForStory returns the ids of the storylines a story node belongs
// to. Steady state is a singleton; callers enforce cardinality.
func (r *Repository) StorylineIDsForStory(ctx context.Context, storyID int64) ([]string, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})-[:BELONGS_TO]->(sl:Storyline)
		RETURN collect(sl.id) as ids
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storyID": storyID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch storyline membership: %w", err)
	}

	if result.Next(ctx) {
		return getStringSliceFromRecord(result.Record(), "ids"), nil
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read storyline membership: %w", err)
	}
	return []string{}, nil
}

// StorylinesForStory returns the full storyline records a story belongs to.
func (r *Repository) StorylinesForStory(ctx context.Context, storyID int64) ([]Storyline, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})-[:BELONGS_TO]->(sl:Storyline)
		RETURN sl.id as id, sl.description as description, sl.summary as summary,
		       sl.subject as subject, sl.hashtags as hashtags,
		       sl.created_at as created_at, sl.updated_at as updated_at
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storyID": storyID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch storylines for story: %w", err)
	}

	var storylines []Storyline
	for result.Next(ctx) {
		storylines = append(storylines, *storylineFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read storylines for story: %w", err)
	}

	return storylines, nil
}

// ListStorylines returns every storyline ordered by last update, newest
// first. Among equally-recent storylines the one with more distinct hashtags
// sorts first.
func (r *Repository) ListStorylines(ctx context.Context) ([]Storyline, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (sl:Storyline)
		OPTIONAL MATCH (sl)<-[:BELONGS_TO]-(s:StoryNode)
		OPTIONAL MATCH (s)-[:TAGGED_WITH]->(h:Hashtag)
		WITH sl, count(DISTINCT s) as story_count, count(DISTINCT h) as hashtag_count
		RETURN sl.id as id, sl.description as description, sl.summary as summary,
		       sl.subject as subject, sl.hashtags as hashtags,
		       sl.created_at as created_at, sl.updated_at as updated_at,
		       story_count, hashtag_count
		ORDER BY sl.updated_at DESC, hashtag_count DESC
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list storylines: %w", err)
	}

	var storylines []Storyline
	for result.Next(ctx) {
		record := result.Record()
		sl := storylineFromRecord(record)
		sl.StoryCount = getInt64FromRecord(record, "story_count")
		sl.HashtagCount = getInt64FromRecord(record, "hashtag_count")
		storylines = append(storylines, *sl)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read storylines: %w", err)
	}

	return storylines, nil
}

// StorylineStoryIDs returns a storyline's member story ids ordered by event
// time, ascending by default or descending when previous is set.
func (r *Repository) StorylineStoryIDs(ctx context.Context, storylineID string, descending bool) ([]int64, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	direction := "ASC"
	if descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		MATCH (sl:Storyline {id: $storylineID})<-[:BELONGS_TO]-(s:StoryNode)
		RETURN s.story_id as story_id
		ORDER BY s.event_occurred_at %s
	`, direction)

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storylineID": storylineID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch storyline stories: %w", err)
	}

	var ids []int64
	for result.Next(ctx) {
		ids = append(ids, getInt64FromRecord(result.Record(), "story_id"))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read storyline stories: %w", err)
	}

	return ids, nil
}

// StorylineHashtags returns the union of hashtags attached to any member
// story of a storyline, each annotated with its member-story count.
func (r *Repository) StorylineHashtags(ctx context.Context, storylineID string) ([]Hashtag, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (sl:Storyline {id: $storylineID})<-[:BELONGS_TO]-(s:StoryNode)-[:TAGGED_WITH]->(h:Hashtag)
		RETURN h.id as id, h.name as name, count(DISTINCT s) as story_count
		ORDER BY story_count DESC, name ASC
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storylineID": storylineID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch storyline hashtags: %w", err)
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
		return nil, fmt.Errorf("failed to read storyline hashtags: %w", err)
	}

	return hashtags, nil
}

func storylineFromRecord(record *neo4j.Record) *Storyline {
	return &Storyline{
		ID:          getStringFromRecord(record, "id"),
		Description: getStringFromRecord(record, "description"),
		Summary:     getStringFromRecord(record, "summary"),
		Subject:     getStringFromRecord(record, "subject"),
		Hashtags:    getStringFromRecord(record, "hashtags"),
		CreatedAt:   getTimeFromRecord(record, "created_at"),
		UpdatedAt:   getTimeFromRecord(record, "updated_at"),
	}
}
