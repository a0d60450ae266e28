package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/devshittu/media-be-sub000/pkg/errors"
)

// ============================================================================
// Story Node Operations
// ============================================================================

// MergeStoryNode creates the graph node mirroring a relational story, or
// refreshes its event time if the node already exists. The MERGE keeps a
// duplicated create notification from producing a second node. Creation is
// detected with a per-call nonce: only the call that actually ran ON CREATE
// sees its own nonce back, so a redelivery arriving any time after the
// original (even within the same second, or from another process) reports
// created=false.
func (r *Repository) MergeStoryNode(ctx context.Context, storyID int64, eventOccurredAt time.Time) (bool, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	nonce := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	eventAt := eventOccurredAt.UTC().Format(time.RFC3339)

	query := `
		MERGE (s:StoryNode {story_id: $storyID})
		ON CREATE SET s.event_occurred_at = datetime($eventAt), s.created_at = datetime($now), s.create_nonce = $nonce
		ON MATCH SET s.event_occurred_at = datetime($eventAt)
		RETURN s.create_nonce = $nonce as created
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storyID": storyID,
		"eventAt": eventAt,
		"now":     now,
		"nonce":   nonce,
	})
	if err != nil {
		return false, fmt.Errorf("failed to merge story node: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to verify story node merge: %w", err)
	}

	created, _ := record.Get("created")
	isNew, _ := created.(bool)

	r.logger.Info("Story node merged",
		zap.Int64("story_id", storyID),
		zap.Bool("created", isNew),
	)
	return isNew, nil
}

// StoryNodeExists reports whether a story's graph node is present.
func (r *Repository) StoryNodeExists(ctx context.Context, storyID int64) (bool, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})
		RETURN count(s) as found
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storyID": storyID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check story node: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read story node check: %w", err)
	}

	return getInt64FromRecord(record, "found") > 0, nil
}

// UpdateStoryNodeEvent refreshes the event time on an existing node. A
// missing node is fatal here: updates are not expected for stories that were
// never synced.
func (r *Repository) UpdateStoryNodeEvent(ctx context.Context, storyID int64, eventOccurredAt time.Time) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})
		SET s.event_occurred_at = datetime($eventAt)
		RETURN s.story_id as story_id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storyID": storyID,
		"eventAt": eventOccurredAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to update story node: %w", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return fmt.Errorf("failed to read story node update: %w", err)
		}
		return apperrors.NewStoryNodeNotFound(storyID)
	}
	return nil
}

// DeleteStoryNode removes a story's node and every edge attached to it.
// Storyline and Hashtag nodes are never cascade-deleted; they may be left
// empty but persist.
func (r *Repository) DeleteStoryNode(ctx context.Context, storyID int64) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:StoryNode {story_id: $storyID})
		DETACH DELETE s
		RETURN count(s) as deleted
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"storyID": storyID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete story node: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify story node deletion: %w", err)
	}

	if getInt64FromRecord(record, "deleted") == 0 {
		return apperrors.NewStoryNodeNotFound(storyID)
	}

	r.logger.Info("Story node deleted", zap.Int64("story_id", storyID))
	return nil
}

// LinkLineage creates the directed "follows" edge from a child story node to
// its parent. Established once at child creation; never mutated afterward.
func (r *Repository) LinkLineage(ctx context.Context, childStoryID, parentStoryID int64) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (c:StoryNode {story_id: $childID})
		MATCH (p:StoryNode {story_id: $parentID})
		MERGE (c)-[:FOLLOWS]->(p)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"childID":  childStoryID,
		"parentID": parentStoryID,
	})
	if err != nil {
		return fmt.Errorf("failed to link lineage: %w", err)
	}

	return nil
}
