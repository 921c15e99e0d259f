// FILE: internal/session/runner.go
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/conversation"
	"github.com/jimmyshjj/ChessGPT/internal/core"
)

// Builder creates the session for the next game.
type Builder interface {
	New(ctx context.Context) (*Session, error)
}

// Runner plays sessions back to back: a restart replaces the session with a
// fresh one, and after a game ends it waits for the operator to restart, stop
// or quit. Stop and quit end the run.
type Runner struct {
	builder        Builder
	panel          *control.Panel
	contexts       *conversation.Store
	resetOnRestart bool
	log            zerolog.Logger

	mu      sync.RWMutex
	current *Session
	ready   chan struct{}
}

func NewRunner(b Builder, panel *control.Panel, contexts *conversation.Store, resetOnRestart bool, log zerolog.Logger) *Runner {
	return &Runner{
		builder:        b,
		panel:          panel,
		contexts:       contexts,
		resetOnRestart: resetOnRestart,
		log:            log,
		ready:          make(chan struct{}),
	}
}

// Current returns the active or most recently finished session, or nil
// before the first one is built.
func (r *Runner) Current() *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Ready is closed once the first session exists.
func (r *Runner) Ready() <-chan struct{} {
	return r.ready
}

func (r *Runner) setCurrent(s *Session) {
	r.mu.Lock()
	first := r.current == nil
	r.current = s
	r.mu.Unlock()
	if first {
		close(r.ready)
	}
}

// Run returns nil when the operator stops or quits, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	for {
		r.panel.Drain()

		s, err := r.builder.New(ctx)
		if err != nil {
			return err
		}
		r.setCurrent(s)

		res, runErr := s.Run(ctx)
		if err := s.Close(); err != nil {
			r.log.Warn().Err(err).Msg("failed to release session resources")
		}

		if runErr != nil {
			if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
				return nil
			}
			return runErr
		}

		switch {
		case res.Phase == core.PhaseRestarting:
			r.restart()
			continue
		case res.Signal == core.SignalStop, res.Signal == core.SignalQuit:
			return nil
		}

		if !r.awaitRestart(ctx) {
			return nil
		}
		r.restart()
	}
}

func (r *Runner) restart() {
	if r.resetOnRestart {
		r.contexts.Reset()
	}
	r.log.Info().Bool("context_reset", r.resetOnRestart).Msg("restarting")
}

// awaitRestart blocks after a finished game. It reports whether a new game
// should start.
func (r *Runner) awaitRestart(ctx context.Context) bool {
	r.panel.Publish(control.Event{Kind: control.EventNotice, Text: "Game over. Restart to play again, or quit."})
	for {
		switch r.panel.WaitSignal(ctx) {
		case core.SignalRestart:
			return true
		case core.SignalStop, core.SignalQuit:
			return false
		}
	}
}
