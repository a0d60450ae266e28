package graphsync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/devshittu/media-be-sub000/internal/store"
	"github.com/devshittu/media-be-sub000/pkg/logger"
)

// Indexer is the search-index side of the write fan-out.
type Indexer interface {
	IndexStory(ctx context.Context, story *store.Story) error
	DeleteStory(ctx context.Context, storyID int64) error
}

// Dispatcher fans a relational story mutation out to the graph sync engine
// and the search index as independent fire-and-forget tasks. Tasks run after
// the relational commit, never inline with it, and are unordered relative to
// one another. A failed task is logged and dropped; there is no retry queue.
type Dispatcher struct {
	engine  *Engine
	indexer Indexer
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a per-task timeout bounding every
// backend call.
func NewDispatcher(engine *Engine, indexer Indexer, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		engine:  engine,
		indexer: indexer,
		timeout: timeout,
		logger:  logger.Get(),
	}
}

// StoryCreated dispatches the create fan-out: graph sync and index upsert.
func (d *Dispatcher) StoryCreated(story *store.Story) {
	d.dispatch("graph sync create", story.ID, func(ctx context.Context) error {
		return d.engine.StoryCreated(ctx, story, Options{})
	})
	d.dispatch("search index upsert", story.ID, func(ctx context.Context) error {
		return d.indexer.IndexStory(ctx, story)
	})
}

// StoryUpdated dispatches the update fan-out.
func (d *Dispatcher) StoryUpdated(story *store.Story) {
	d.dispatch("graph sync update", story.ID, func(ctx context.Context) error {
		return d.engine.StoryUpdated(ctx, story, Options{})
	})
	d.dispatch("search index upsert", story.ID, func(ctx context.Context) error {
		return d.indexer.IndexStory(ctx, story)
	})
}

// StoryDeleted dispatches the delete fan-out.
func (d *Dispatcher) StoryDeleted(storyID int64) {
	d.dispatch("graph sync delete", storyID, func(ctx context.Context) error {
		return d.engine.StoryDeleted(ctx, storyID, Options{})
	})
	d.dispatch("search index delete", storyID, func(ctx context.Context) error {
		return d.indexer.DeleteStory(ctx, storyID)
	})
}

func (d *Dispatcher) dispatch(task string, storyID int64, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.logger.Error("Async sync task failed",
				zap.String("task", task),
				zap.Int64("story_id", storyID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all in-flight tasks have finished. Used on shutdown.
func (d *Dispatcher) Wait() {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		d.logger.Warn("Timed out waiting for in-flight sync tasks")
	}
}
