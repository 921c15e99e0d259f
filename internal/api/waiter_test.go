package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmyshjj/ChessGPT/internal/control"
)

func fired(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

func TestNotifySessionOnlyOnNewCount(t *testing.T) {
	w := NewWaitRegistry(time.Minute)
	defer w.Shutdown(time.Second)

	notify, cancel := w.RegisterWait(context.Background(), "s1", 2)
	defer cancel()

	w.NotifySession("s1", 2)
	assert.False(t, fired(notify))

	w.NotifySession("other", 3)
	assert.False(t, fired(notify))

	w.NotifySession("s1", 3)
	assert.True(t, fired(notify))
}

func TestEndSessionWakesEveryone(t *testing.T) {
	w := NewWaitRegistry(time.Minute)
	defer w.Shutdown(time.Second)

	a, cancelA := w.RegisterWait(context.Background(), "s1", 0)
	defer cancelA()
	b, cancelB := w.RegisterWait(context.Background(), "s1", 5)
	defer cancelB()

	w.EndSession("s1")
	assert.True(t, fired(a))
	assert.True(t, fired(b))
}

func TestWaitTimeout(t *testing.T) {
	w := NewWaitRegistry(20 * time.Millisecond)
	defer w.Shutdown(time.Second)

	notify, cancel := w.RegisterWait(context.Background(), "s1", 0)
	defer cancel()
	assert.True(t, fired(notify))
}

func TestShutdownReleasesWaiters(t *testing.T) {
	w := NewWaitRegistry(time.Minute)
	notify, cancel := w.RegisterWait(context.Background(), "s1", 0)
	defer cancel()

	require.NoError(t, w.Shutdown(time.Second))
	assert.True(t, fired(notify))
}

func TestCancelledClientIsRemoved(t *testing.T) {
	w := NewWaitRegistry(time.Minute)
	ctx, cancelCtx := context.WithCancel(context.Background())
	_, cancel := w.RegisterWait(ctx, "s1", 0)
	defer cancel()

	cancelCtx()
	require.Eventually(t, func() bool {
		w.mu.RLock()
		defer w.mu.RUnlock()
		return len(w.waiters) == 0
	}, time.Second, time.Millisecond)
	require.NoError(t, w.Shutdown(time.Second))
}

func TestDispatchEndsFinishedSession(t *testing.T) {
	_, panel, v := newFixture(t, true, 0)
	s := &Server{viewer: v, panel: panel, waiter: NewWaitRegistry(time.Minute)}
	defer s.waiter.Shutdown(time.Second)

	notify, cancel := s.waiter.RegisterWait(context.Background(), v.s.ID, 0)
	defer cancel()

	var last string
	s.dispatch(control.Event{Kind: control.EventMove}, &last)
	assert.False(t, fired(notify))
	assert.Equal(t, v.s.ID, last)

	s.dispatch(control.Event{Kind: control.EventGameOver}, &last)
	assert.True(t, fired(notify))
}
