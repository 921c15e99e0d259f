package control

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

func TestToggleSignalsDoNotQueue(t *testing.T) {
	p := New(time.Millisecond)

	p.Send(core.SignalPause)
	assert.True(t, p.Paused())
	assert.Equal(t, core.SignalNone, p.Poll())

	p.Send(core.SignalResume)
	assert.False(t, p.Paused())

	assert.True(t, p.TogglePause())
	assert.False(t, p.TogglePause())

	p.Send(core.SignalFlip)
	assert.True(t, p.Flipped())
	p.Send(core.SignalFlip)
	assert.False(t, p.Flipped())
}

func TestTerminatingSignalsQueue(t *testing.T) {
	p := New(time.Millisecond)
	p.Send(core.SignalRestart)
	p.Send(core.SignalStop)

	assert.Equal(t, core.SignalRestart, p.Poll())
	assert.Equal(t, core.SignalStop, p.Poll())
	assert.Equal(t, core.SignalNone, p.Poll())

	p.Send(core.SignalQuit)
	p.Drain()
	assert.Equal(t, core.SignalNone, p.Poll())
}

func TestWaitSignal(t *testing.T) {
	p := New(time.Millisecond)
	go func() {
		time.Sleep(5 * time.Millisecond)
		p.Send(core.SignalRestart)
	}()
	assert.Equal(t, core.SignalRestart, p.WaitSignal(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, core.SignalQuit, p.WaitSignal(ctx))
}

func TestAskAndAnswer(t *testing.T) {
	p := New(time.Millisecond)
	assert.False(t, p.Answer("nobody asked"))

	got := make(chan string, 1)
	go func() {
		text, err := p.Ask(context.Background(), Ask{Kind: AskMove, Side: core.ColorWhite, Prompt: "White to move"})
		assert.NoError(t, err)
		got <- text
	}()

	require.Eventually(t, func() bool {
		_, ok := p.Pending()
		return ok
	}, time.Second, time.Millisecond)

	a, _ := p.Pending()
	assert.Equal(t, AskMove, a.Kind)
	assert.Equal(t, core.ColorWhite, a.Side)

	assert.True(t, p.Answer("e4"))
	assert.Equal(t, "e4", <-got)

	_, ok := p.Pending()
	assert.False(t, ok)
}

func TestAskRejectsSecondQuestion(t *testing.T) {
	p := New(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.Ask(ctx, Ask{Kind: AskMove})
	require.Eventually(t, func() bool {
		_, ok := p.Pending()
		return ok
	}, time.Second, time.Millisecond)

	_, err := p.Ask(context.Background(), Ask{Kind: AskGuidance})
	assert.ErrorIs(t, err, ErrAskPending)
}

func TestAskCancelled(t *testing.T) {
	p := New(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Ask(ctx, Ask{Kind: AskMove})
	assert.ErrorIs(t, err, context.Canceled)
	_, ok := p.Pending()
	assert.False(t, ok)
}

func TestContinueWaiting(t *testing.T) {
	p := New(time.Millisecond)
	done := make(chan error, 1)
	go func() {
		done <- p.ContinueWaiting(context.Background(), errors.New("timeout"))
	}()

	require.Eventually(t, func() bool {
		a, ok := p.Pending()
		return ok && a.Kind == AskContinue
	}, time.Second, time.Millisecond)
	p.Answer("")
	assert.NoError(t, <-done)
}

func TestSubscribePublish(t *testing.T) {
	p := New(time.Millisecond)
	events, cancel := p.Subscribe()

	p.Publish(Event{Kind: EventMove, Side: core.ColorWhite, Text: "e4"})
	ev := <-events
	assert.Equal(t, EventMove, ev.Kind)
	assert.Equal(t, "e4", ev.Text)
	assert.False(t, ev.Time.IsZero())

	p.Send(core.SignalPause)
	assert.Equal(t, EventPaused, (<-events).Kind)

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)

	// publishing with no subscribers is a no-op
	p.Publish(Event{Kind: EventNotice})
}
