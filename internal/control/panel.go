// FILE: internal/control/panel.go
// Package control is the shared operator surface between the hosts (text
// console, terminal UI, HTTP API) and the running game: signals, the pause
// and orientation flags, pending questions and the event feed.
package control

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

const (
	DefaultIdle     = 100 * time.Millisecond
	signalBuffer    = 8
	subscriberQueue = 64
)

var ErrAskPending = errors.New("another question is already pending")

// AskKind identifies what a pending question expects.
type AskKind int

const (
	AskMove AskKind = iota + 1
	AskGuidance
	AskContinue
)

func (k AskKind) String() string {
	switch k {
	case AskMove:
		return "move"
	case AskGuidance:
		return "guidance"
	case AskContinue:
		return "continue"
	default:
		return "none"
	}
}

// Ask is a question waiting for free-text operator input.
type Ask struct {
	Kind   AskKind
	Side   core.Color
	Prompt string
}

type pendingAsk struct {
	Ask
	reply chan string
}

// Panel is safe for concurrent use by any number of hosts.
type Panel struct {
	signals chan core.Signal
	paused  atomic.Bool
	flipped atomic.Bool
	idle    time.Duration

	mu      sync.Mutex
	pending *pendingAsk
	subs    map[int]chan Event
	nextSub int
}

func New(idle time.Duration) *Panel {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Panel{
		signals: make(chan core.Signal, signalBuffer),
		idle:    idle,
		subs:    make(map[int]chan Event),
	}
}

// Send delivers an operator signal. Pause, resume and flip take effect
// immediately; stop, restart and quit are queued for the game loop.
func (p *Panel) Send(sig core.Signal) {
	switch sig {
	case core.SignalPause:
		if !p.paused.Swap(true) {
			p.Publish(Event{Kind: EventPaused, Text: "Game paused."})
		}
	case core.SignalResume:
		if p.paused.Swap(false) {
			p.Publish(Event{Kind: EventResumed, Text: "Game resumed."})
		}
	case core.SignalFlip:
		flipped := !p.flipped.Load()
		p.flipped.Store(flipped)
		p.Publish(Event{Kind: EventFlipped, Text: "Board flipped."})
	case core.SignalNone:
	default:
		select {
		case p.signals <- sig:
		default:
			// queue full, the loop already has enough to act on
		}
	}
}

// TogglePause flips the pause flag and returns the new value.
func (p *Panel) TogglePause() bool {
	if p.paused.Load() {
		p.Send(core.SignalResume)
		return false
	}
	p.Send(core.SignalPause)
	return true
}

// Poll returns a queued terminating signal or SignalNone without blocking.
func (p *Panel) Poll() core.Signal {
	select {
	case sig := <-p.signals:
		return sig
	default:
		return core.SignalNone
	}
}

// WaitSignal blocks until a terminating signal arrives or ctx ends.
func (p *Panel) WaitSignal(ctx context.Context) core.Signal {
	select {
	case sig := <-p.signals:
		return sig
	case <-ctx.Done():
		return core.SignalQuit
	}
}

// Drain discards queued signals, used when a new session starts.
func (p *Panel) Drain() {
	for {
		select {
		case <-p.signals:
		default:
			return
		}
	}
}

func (p *Panel) Paused() bool {
	return p.paused.Load()
}

func (p *Panel) Flipped() bool {
	return p.flipped.Load()
}

// Idle is one beat of the paused loop.
func (p *Panel) Idle() {
	time.Sleep(p.idle)
}

// Ask publishes a question and blocks until a host answers or ctx ends.
func (p *Panel) Ask(ctx context.Context, a Ask) (string, error) {
	pa := &pendingAsk{Ask: a, reply: make(chan string, 1)}

	p.mu.Lock()
	if p.pending != nil {
		p.mu.Unlock()
		return "", ErrAskPending
	}
	p.pending = pa
	p.mu.Unlock()

	p.Publish(Event{Kind: EventAsk, Side: a.Side, Text: a.Prompt})

	defer func() {
		p.mu.Lock()
		if p.pending == pa {
			p.pending = nil
		}
		p.mu.Unlock()
	}()

	select {
	case text := <-pa.reply:
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pending returns the open question, if any.
func (p *Panel) Pending() (Ask, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return Ask{}, false
	}
	return p.pending.Ask, true
}

// Answer resolves the open question. It returns false if nothing was pending.
func (p *Panel) Answer(text string) bool {
	p.mu.Lock()
	pa := p.pending
	p.pending = nil
	p.mu.Unlock()

	if pa == nil {
		return false
	}
	pa.reply <- text
	return true
}

// Guidance asks the operator for free text to steer an assistant that ran
// out of attempts.
func (p *Panel) Guidance(ctx context.Context, side core.Color) (string, error) {
	return p.Ask(ctx, Ask{
		Kind: AskGuidance,
		Side: side,
		Prompt: side.Name() + " did not provide a legal move within the attempt limit. " +
			"Enter an additional prompt to guide it:",
	})
}

// ContinueWaiting implements the assistant checkpoint raised after a full
// round of failed transport retries.
func (p *Panel) ContinueWaiting(ctx context.Context, cause error) error {
	_, err := p.Ask(ctx, Ask{
		Kind:   AskContinue,
		Prompt: "Assistant unreachable (" + cause.Error() + "). Press enter to keep waiting.",
	})
	return err
}
