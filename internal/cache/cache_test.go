package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
)

func counter(n *atomic.Int32, v any) FetchFunc {
	return func(context.Context) (any, error) {
		n.Add(1)
		return v, nil
	}
}

func TestRead_CachesUntilInvalidated(t *testing.T) {
	c := New()
	ctx := context.Background()
	var n atomic.Int32

	v, err := c.Read(ctx, "task:1", counter(&n, "a"))
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	_, _ = c.Read(ctx, "task:1", counter(&n, "b"))
	assert.EqualValues(t, 1, n.Load())

	c.Invalidate("task:1")
	v, err = c.Read(ctx, "task:1", counter(&n, "b"))
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	assert.EqualValues(t, 2, n.Load())

	s := c.Stats()
	assert.EqualValues(t, 1, s.Hits)
	assert.EqualValues(t, 2, s.Misses)
	assert.EqualValues(t, 2, s.Fetches)
	assert.EqualValues(t, 1, s.Invalidations)
}

func TestRead_ErrorsAreNotCached(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	_, err := c.Read(context.Background(), "users", func(context.Context) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	_, ok := c.Peek("users")
	assert.False(t, ok)
}

func TestRead_ConcurrentReadersShareFetch(t *testing.T) {
	c := New()
	release := make(chan struct{})
	var n atomic.Int32
	fetch := func(context.Context) (any, error) {
		n.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]any, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Read(context.Background(), "task:7", fetch)
		}(i)
	}
	// let all readers join the flight before it completes
	require.Eventually(t, func() bool { return c.Stats().Misses == 5 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, n.Load())
	for _, r := range results {
		assert.Equal(t, 42, r)
	}
}

func TestRead_CallerCancelDoesNotFailSharedFetch(t *testing.T) {
	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	var n atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		if n.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return "v", nil
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Read(first, "task:1", fetch)
		firstErr <- err
	}()
	<-started

	second := make(chan any, 1)
	go func() {
		v, err := c.Read(context.Background(), "task:1", fetch)
		assert.NoError(t, err)
		second <- v
	}()
	require.Eventually(t, func() bool { return c.Stats().Misses == 2 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, "v", <-second)
	assert.EqualValues(t, 1, n.Load())
	got, ok := c.Peek("task:1")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestRead_InvalidationDuringFetch(t *testing.T) {
	c := New()
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan any)
	go func() {
		v, _ := c.Read(ctx, "tasks:all", func(context.Context) (any, error) {
			close(started)
			<-release
			return "old", nil
		})
		done <- v
	}()
	<-started
	c.TaskCreated()

	// a read after the invalidation does not join the old flight
	v, err := c.Read(ctx, "tasks:all", func(context.Context) (any, error) { return "new", nil })
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	close(release)
	assert.Equal(t, "old", <-done)

	got, ok := c.Peek("tasks:all")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestGet_Typed(t *testing.T) {
	c := New()
	task, err := Get(context.Background(), c, TaskKey(1), func(context.Context) (*models.Task, error) {
		return &models.Task{ID: 1, Title: "x"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "x", task.Title)

	_, err = Get(context.Background(), c, TaskKey(1), func(context.Context) (string, error) { return "", nil })
	assert.Error(t, err)
}

func TestMaxAge(t *testing.T) {
	now := time.Unix(0, 0)
	c := New(WithMaxAge(time.Minute), WithClock(func() time.Time { return now }))
	var n atomic.Int32

	_, _ = c.Read(context.Background(), "users", counter(&n, 1))
	now = now.Add(30 * time.Second)
	_, _ = c.Read(context.Background(), "users", counter(&n, 1))
	assert.EqualValues(t, 1, n.Load())

	now = now.Add(time.Minute)
	_, _ = c.Read(context.Background(), "users", counter(&n, 1))
	assert.EqualValues(t, 2, n.Load())
}

func TestKeys(t *testing.T) {
	st := models.StatusDone
	uid := int64(3)
	assert.Equal(t, "task:12", TaskKey(12))
	assert.Equal(t, "tasks:all", TaskListKey(models.TaskFilter{}))
	assert.Equal(t, "tasks:done", TaskListKey(models.TaskFilter{Status: &st}))
	assert.Equal(t, "tasks:done:assignee:3", TaskListKey(models.TaskFilter{Status: &st, AssigneeID: &uid}))
}

func seed(t *testing.T, c *Cache, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, err := c.Read(context.Background(), k, func(context.Context) (any, error) { return k, nil })
		require.NoError(t, err)
	}
}

func fresh(c *Cache, keys ...string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := c.Peek(k); ok {
			out = append(out, k)
		}
	}
	return out
}

func TestInvalidationFamilies(t *testing.T) {
	all := []string{"tasks:all", "tasks:todo", "tasks:in_progress", "tasks:done", "task:1", "task:2", UsersKey}

	tests := []struct {
		name string
		act  func(c *Cache)
		want []string
	}{
		{"create", func(c *Cache) { c.TaskCreated() }, []string{"task:1", "task:2", UsersKey}},
		{"update", func(c *Cache) { c.TaskUpdated(1) }, []string{"task:2", UsersKey}},
		{"delete", func(c *Cache) { c.TaskDeleted(2) }, []string{"task:1", UsersKey}},
		{"attachments", func(c *Cache) { c.AttachmentsChanged(1) }, []string{"tasks:all", "tasks:todo", "tasks:in_progress", "tasks:done", "task:2", UsersKey}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			seed(t, c, all...)
			tt.act(c)
			assert.Equal(t, tt.want, fresh(c, all...))
		})
	}
}
