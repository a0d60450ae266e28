package graphsync

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/devshittu/media-be-sub000/internal/graph"
	"github.com/devshittu/media-be-sub000/internal/store"
	"github.com/devshittu/media-be-sub000/internal/text"
	apperrors "github.com/devshittu/media-be-sub000/pkg/errors"
	"github.com/devshittu/media-be-sub000/pkg/logger"
)

// storylineDescriptionLen caps the description derived from a root story's
// body.
const storylineDescriptionLen = 200

// GraphStore is the graph-side surface the sync engine writes through.
// *graph.Repository implements it.
type GraphStore interface {
	MergeStoryNode(ctx context.Context, storyID int64, eventOccurredAt time.Time) (bool, error)
	UpdateStoryNodeEvent(ctx context.Context, storyID int64, eventOccurredAt time.Time) error
	DeleteStoryNode(ctx context.Context, storyID int64) error
	StoryNodeExists(ctx context.Context, storyID int64) (bool, error)
	StoryNodeHashtags(ctx context.Context, storyID int64) ([]string, error)
	ConnectHashtags(ctx context.Context, storyID int64, tags []string) error
	DisconnectHashtags(ctx context.Context, storyID int64, tags []string) error
	CreateStoryline(ctx context.Context, storyID int64, in graph.StorylineInput) (*graph.Storyline, error)
	AttachStoryToStoryline(ctx context.Context, storyID int64, storylineID string) error
	StorylineIDsForStory(ctx context.Context, storyID int64) ([]string, error)
	LinkLineage(ctx context.Context, childStoryID, parentStoryID int64) error
}

// Options controls a single sync invocation. Suppress skips all graph writes;
// bulk-import tooling sets it so per-record sync stays quiet during seeding.
// It is an explicit parameter rather than a process-wide flag.
type Options struct {
	Suppress bool
}

// Engine keeps the graph mirror consistent with relational story mutations.
// Entry points correspond to the create/update/delete post-commit
// notifications.
type Engine struct {
	graph  GraphStore
	logger *zap.Logger

	// creates for the same story collapse into one in-flight execution
	createGroup singleflight.Group

	// per-story lock so concurrent mutations cannot interleave the
	// read-diff-write of the hashtag set
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewEngine creates a new graph sync engine.
func NewEngine(graphStore GraphStore) *Engine {
	return &Engine{
		graph:  graphStore,
		logger: logger.Get(),
		locks:  make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) storyLock(storyID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[storyID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[storyID] = l
	}
	return l
}

// StoryCreated mirrors a newly created story into the graph: node, hashtag
// edges, and storyline assignment. A root story creates a new storyline; a
// child story joins its parent's. The parent's node must already exist.
func (e *Engine) StoryCreated(ctx context.Context, story *store.Story, opts Options) error {
	if opts.Suppress {
		e.logger.Debug("Graph sync suppressed", zap.Int64("story_id", story.ID))
		return nil
	}

	_, err, _ := e.createGroup.Do(strconv.FormatInt(story.ID, 10), func() (interface{}, error) {
		lock := e.storyLock(story.ID)
		lock.Lock()
		defer lock.Unlock()
		return nil, e.createLocked(ctx, story)
	})
	return err
}

func (e *Engine) createLocked(ctx context.Context, story *store.Story) error {
	created, err := e.graph.MergeStoryNode(ctx, story.ID, story.EventOccurredAt)
	if err != nil {
		return err
	}
	if !created {
		// Duplicate create notification; the merge already refreshed the
		// node and the first delivery handled tags and storyline.
		e.logger.Warn("Duplicate story create notification", zap.Int64("story_id", story.ID))
		return nil
	}

	body := text.PlainText(story.Body)
	if tags := text.ExtractHashtags(body); len(tags) > 0 {
		if err := e.graph.ConnectHashtags(ctx, story.ID, tags); err != nil {
			return err
		}
	}

	if story.ParentStoryID == nil {
		return e.startStoryline(ctx, story, body)
	}
	return e.joinParentStoryline(ctx, story, *story.ParentStoryID)
}

func (e *Engine) startStoryline(ctx context.Context, story *store.Story, body string) error {
	subject := story.Slug
	if subject == "" {
		subject = text.Slugify(story.Title)
	}

	_, err := e.graph.CreateStoryline(ctx, story.ID, graph.StorylineInput{
		Description: text.Truncate(body, storylineDescriptionLen),
		Summary:     story.Title,
		Subject:     subject,
		Hashtags:    text.SlugHashtags(subject),
	})
	return err
}

func (e *Engine) joinParentStoryline(ctx context.Context, story *store.Story, parentID int64) error {
	exists, err := e.graph.StoryNodeExists(ctx, parentID)
	if err != nil {
		return err
	}
	if !exists {
		// Callers must guarantee parent-before-child ordering.
		return apperrors.NewParentNodeNotFound(story.ID, parentID)
	}

	storylineIDs, err := e.graph.StorylineIDsForStory(ctx, parentID)
	if err != nil {
		return err
	}
	if len(storylineIDs) != 1 {
		return apperrors.NewStorylineNotResolved(parentID, len(storylineIDs))
	}

	if err := e.graph.AttachStoryToStoryline(ctx, story.ID, storylineIDs[0]); err != nil {
		return err
	}
	return e.graph.LinkLineage(ctx, story.ID, parentID)
}

// StoryUpdated refreshes the node's event time and reconciles the hashtag
// edges against the current body. Storyline membership is deliberately not
// re-evaluated: parent or category changes do not move a story between
// storylines.
func (e *Engine) StoryUpdated(ctx context.Context, story *store.Story, opts Options) error {
	if opts.Suppress {
		e.logger.Debug("Graph sync suppressed", zap.Int64("story_id", story.ID))
		return nil
	}

	lock := e.storyLock(story.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.graph.UpdateStoryNodeEvent(ctx, story.ID, story.EventOccurredAt); err != nil {
		return err
	}

	current, err := e.graph.StoryNodeHashtags(ctx, story.ID)
	if err != nil {
		return err
	}
	desired := text.ExtractHashtags(text.PlainText(story.Body))

	added, removed := diffTags(current, desired)
	if err := e.graph.ConnectHashtags(ctx, story.ID, added); err != nil {
		return err
	}
	if err := e.graph.DisconnectHashtags(ctx, story.ID, removed); err != nil {
		return err
	}

	e.logger.Info("Story graph updated",
		zap.Int64("story_id", story.ID),
		zap.Int("tags_added", len(added)),
		zap.Int("tags_removed", len(removed)),
	)
	return nil
}

// StoryDeleted removes the story's node and its edges. Storylines and
// hashtags are never cascade-deleted.
func (e *Engine) StoryDeleted(ctx context.Context, storyID int64, opts Options) error {
	if opts.Suppress {
		e.logger.Debug("Graph sync suppressed", zap.Int64("story_id", storyID))
		return nil
	}

	lock := e.storyLock(storyID)
	lock.Lock()
	defer lock.Unlock()

	return e.graph.DeleteStoryNode(ctx, storyID)
}

// diffTags splits desired against current into tags to connect and tags to
// disconnect. Tags present in both are untouched.
func diffTags(current, desired []string) (added, removed []string) {
	have := make(map[string]struct{}, len(current))
	for _, tag := range current {
		have[tag] = struct{}{}
	}
	want := make(map[string]struct{}, len(desired))
	for _, tag := range desired {
		want[tag] = struct{}{}
		if _, ok := have[tag]; !ok {
			added = append(added, tag)
		}
	}
	for _, tag := range current {
		if _, ok := want[tag]; !ok {
			removed = append(removed, tag)
		}
	}
	return added, removed
}
