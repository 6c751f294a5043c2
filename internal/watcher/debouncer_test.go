package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, ch <-chan FileEvent, timeout time.Duration) *FileEvent {
	t.Helper()
	select {
	case evt := <-ch:
		return &evt
	case <-time.After(timeout):
		return nil
	}
}

func TestDebouncer_SingleEventDispatchesAfterWindow(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	d.Handle(FileEvent{Path: "a.md", Operation: OpModify, Timestamp: time.Now()})

	assert.Nil(t, drain(t, d.Output(), 10*time.Millisecond))

	evt := drain(t, d.Output(), 100*time.Millisecond)
	require.NotNil(t, evt)
	assert.Equal(t, "a.md", evt.Path)
}

func TestDebouncer_BurstCoalescesToOneDispatch(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	for i := 0; i < 5; i++ {
		d.Handle(FileEvent{Path: "a.md", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(10 * time.Millisecond)
	}

	evt := drain(t, d.Output(), 200*time.Millisecond)
	require.NotNil(t, evt)
	assert.Nil(t, drain(t, d.Output(), 80*time.Millisecond))
}

func TestDebouncer_RemoveBypassesDebounceAndClearsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	d.Handle(FileEvent{Path: "a.md", Operation: OpModify, Timestamp: time.Now()})
	d.Handle(FileEvent{Path: "a.md", Operation: OpRemove, Timestamp: time.Now()})

	evt := drain(t, d.Output(), 20*time.Millisecond)
	require.NotNil(t, evt)
	assert.Equal(t, OpRemove, evt.Operation)

	assert.Nil(t, drain(t, d.Output(), 100*time.Millisecond))
}

func TestDebouncer_IndependentPathsDebounceSeparately(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	d.Handle(FileEvent{Path: "a.md", Operation: OpCreate, Timestamp: time.Now()})
	d.Handle(FileEvent{Path: "b.md", Operation: OpCreate, Timestamp: time.Now()})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		evt := drain(t, d.Output(), 100*time.Millisecond)
		require.NotNil(t, evt)
		seen[evt.Path] = true
	}
	assert.True(t, seen["a.md"])
	assert.True(t, seen["b.md"])
}
