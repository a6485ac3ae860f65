package fs

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sticky/pkg/core"
)

func watcherActive(store *Store) bool {
	state, ok := store.State().(StoreState)
	return ok && state.WatcherActive
}

// A watcher whose fsnotify handle dies is replaced, and the replacement still
// reports sheet writes.
func TestWatcherSupervisorRestarts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewStore(Config{Path: t.TempDir(), AutoInit: true})
	require.NoError(t, store.Initialize(ctx))

	events := make(chan core.Event, 8)
	created := make(chan *watchWorker, 2)
	spec := watcherSpec(func() *watchWorker {
		w := newWatchWorker(store, "board-*", events)
		created <- w
		return w
	}, supervisor.Backoff{
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		Multiplier:      1,
		ResetDuration:   50 * time.Millisecond,
		MaxRestarts:     2,
		MaxDuration:     200 * time.Millisecond,
	})

	sup := supervisor.New("test-watcher", supervisor.StrategyOneForOne, spec)
	require.NoError(t, sup.Start(ctx))

	first := receiveWorker(t, created)
	require.Eventually(t, func() bool { return watcherActive(store) && first.watcher != nil },
		2*time.Second, 10*time.Millisecond)
	_ = first.watcher.Close()

	second := receiveWorker(t, created)
	assert.NotSame(t, first, second, "restart must build a new worker")
	require.Eventually(t, func() bool { return watcherActive(store) && second.watcher != nil },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, store.Put(ctx, core.Record{ID: "board-1", Data: []byte(`{"id":"board-1","notes":[]}`)}))
	require.NoError(t, store.Put(ctx, core.Record{ID: "other", Data: []byte(`{"id":"other","notes":[]}`)}))

	select {
	case e := <-events:
		assert.Equal(t, core.EventCreate, e.Type)
		assert.Equal(t, "board-1", e.SheetID)
	case <-time.After(2 * time.Second):
		t.Fatal("restarted watcher reported nothing")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, sup.Stop(stopCtx))
	assert.Empty(t, events, "ids outside the pattern are not reported")
}

func receiveWorker(t *testing.T, ch <-chan *watchWorker) *watchWorker {
	t.Helper()
	select {
	case w := <-ch:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watch worker")
		return nil
	}
}
