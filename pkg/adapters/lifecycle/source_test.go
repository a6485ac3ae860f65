package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/sticky/pkg/core"
)

func TestSourceForwardsAndCloses(t *testing.T) {
	in := make(chan core.Event, 1)
	src := NewSource(in)
	require.NoError(t, src.Start(context.Background()))

	in <- core.Event{Type: core.EventModify, SheetID: "abc", Field: core.FieldPosition}

	select {
	case e := <-src.Events():
		assert.Equal(t, "MODIFY abc (position)", e.String())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}

func TestSourceStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewSource(make(chan core.Event))
	require.NoError(t, src.Start(ctx))

	cancel()
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output not closed")
	}
}
