package graphsync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/devshittu/media-be-sub000/internal/store"
)

type fakeIndexer struct {
	indexed int32
	deleted int32
}

func (f *fakeIndexer) IndexStory(_ context.Context, _ *store.Story) error {
	atomic.AddInt32(&f.indexed, 1)
	return nil
}

func (f *fakeIndexer) DeleteStory(_ context.Context, _ int64) error {
	atomic.AddInt32(&f.deleted, 1)
	return nil
}

func TestDispatcher_CreateFansOut(t *testing.T) {
	fg := newFakeGraph()
	idx := &fakeIndexer{}
	d := NewDispatcher(NewEngine(fg), idx, time.Second)

	d.StoryCreated(rootStory(1, "t", "#tag"))
	d.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&idx.indexed))
	assert.Contains(t, fg.nodes, int64(1))
}

func TestDispatcher_DeleteFansOut(t *testing.T) {
	fg := newFakeGraph()
	idx := &fakeIndexer{}
	d := NewDispatcher(NewEngine(fg), idx, time.Second)

	d.StoryCreated(rootStory(1, "t", "b"))
	d.Wait()
	d.StoryDeleted(1)
	d.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&idx.deleted))
	assert.Empty(t, fg.nodes)
}

func TestDispatcher_TaskFailureDoesNotPropagate(t *testing.T) {
	fg := newFakeGraph()
	idx := &fakeIndexer{}
	d := NewDispatcher(NewEngine(fg), idx, time.Second)

	// Child with a missing parent fails inside the task; the dispatcher
	// only logs it.
	d.StoryCreated(childStory(2, 99, "b"))
	d.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&idx.indexed))
}
