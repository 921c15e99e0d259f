// FILE: internal/control/event.go
package control

import (
	"time"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

type EventKind int

const (
	EventNotice EventKind = iota
	EventSession
	EventTurn
	EventAttempt
	EventReply
	EventIllegal
	EventMove
	EventGuidance
	EventGameOver
	EventAsk
	EventPaused
	EventResumed
	EventFlipped
)

func (k EventKind) String() string {
	switch k {
	case EventSession:
		return "session"
	case EventTurn:
		return "turn"
	case EventAttempt:
		return "attempt"
	case EventReply:
		return "reply"
	case EventIllegal:
		return "illegal"
	case EventMove:
		return "move"
	case EventGuidance:
		return "guidance"
	case EventGameOver:
		return "game_over"
	case EventAsk:
		return "ask"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventFlipped:
		return "flipped"
	default:
		return "notice"
	}
}

// Event is a progress notification for hosts.
type Event struct {
	Kind    EventKind
	Side    core.Color
	Text    string
	Attempt int
	Max     int
	Time    time.Time
}

// Subscribe returns a feed of events and a function that cancels it. Slow
// subscribers miss events rather than block the game.
func (p *Panel) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberQueue)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans an event out to every subscriber without blocking.
func (p *Panel) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
