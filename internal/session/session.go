// FILE: internal/session/session.go
// Package session runs one game from creation to its end or restart and
// persists the board whenever it stops.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/board"
	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/conversation"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/rules"
	"github.com/jimmyshjj/ChessGPT/internal/storage"
	"github.com/jimmyshjj/ChessGPT/internal/turn"
)

const persistTimeout = 5 * time.Second

// Archive receives the game as it is played. *storage.Store satisfies it.
type Archive interface {
	RecordNewGame(row storage.GameRow) error
	RecordMove(row storage.MoveRow) error
}

// Options assemble a session. Players must hold both sides.
type Options struct {
	Players  map[core.Color]turn.Player
	Panel    *control.Panel
	Contexts *conversation.Store
	Turn     turn.Config
	Recorder storage.Recorder
	Archive  Archive
	Closers  []io.Closer
	Board    *rules.Board
	Started  time.Time
	Log      zerolog.Logger
}

// Result is how Run ended.
type Result struct {
	Phase   core.Phase
	Reason  core.Reason
	Message string
	Signal  core.Signal
}

// View is a copy of the session state safe to read from any goroutine.
type View struct {
	ID          string
	Started     time.Time
	Phase       core.Phase
	Turn        core.Color
	FEN         string
	Moves       []string
	Grid        board.Grid
	White       core.SourceKind
	Black       core.SourceKind
	Attempt     int
	MaxAttempts int
	Reason      core.Reason
	Message     string
}

// Session owns the board. Only the goroutine in Run touches it; everyone
// else reads View.
type Session struct {
	ID      string
	Started time.Time

	players  map[core.Color]turn.Player
	board    *rules.Board
	orch     *turn.Orchestrator
	panel    *control.Panel
	recorder storage.Recorder
	archive  Archive
	closers  []io.Closer
	log      zerolog.Logger

	mu      sync.RWMutex
	view    View
	changed chan struct{}
}

func New(opts Options) (*Session, error) {
	for _, side := range []core.Color{core.ColorWhite, core.ColorBlack} {
		p, ok := opts.Players[side]
		if !ok || p.Source == nil {
			return nil, fmt.Errorf("%w for %s", turn.ErrUnknownSource, side)
		}
	}
	if opts.Panel == nil {
		return nil, errors.New("session requires a control panel")
	}
	if opts.Contexts == nil {
		opts.Contexts = conversation.NewStore()
	}
	if opts.Board == nil {
		opts.Board = rules.New()
	}
	if opts.Started.IsZero() {
		opts.Started = time.Now()
	}

	s := &Session{
		ID:       uuid.New().String(),
		Started:  opts.Started,
		players:  opts.Players,
		board:    opts.Board,
		panel:    opts.Panel,
		recorder: opts.Recorder,
		archive:  opts.Archive,
		closers:  opts.Closers,
		changed:  make(chan struct{}),
	}
	s.log = opts.Log.With().Str("session", s.ID).Logger()
	s.orch = turn.New(opts.Contexts, &host{Panel: opts.Panel, s: s}, opts.Turn, s.log)

	s.view = View{
		ID:          s.ID,
		Started:     s.Started,
		Phase:       core.PhaseCreated,
		White:       opts.Players[core.ColorWhite].Config.Kind,
		Black:       opts.Players[core.ColorBlack].Config.Kind,
		MaxAttempts: opts.Turn.MaxAttempts,
	}
	s.refresh()
	return s, nil
}

// Run plays turns until the game ends, a side forfeits, or the operator
// stops, restarts or quits. Only a configuration problem or cancellation
// is returned as an error.
func (s *Session) Run(ctx context.Context) (Result, error) {
	s.setPhase(core.PhaseInProgress)
	s.log.Info().
		Stringer("white", s.view.White).
		Stringer("black", s.view.Black).
		Msg("session started")
	s.panel.Publish(control.Event{
		Kind: control.EventSession,
		Text: fmt.Sprintf("New game: %s (White) vs %s (Black).", s.view.White, s.view.Black),
	})

	if s.archive != nil {
		if err := s.archive.RecordNewGame(storage.GameRow{
			GameID:     s.ID,
			WhiteKind:  s.view.White.String(),
			BlackKind:  s.view.Black.String(),
			StartedUTC: s.Started.UTC(),
		}); err != nil {
			s.log.Warn().Err(err).Msg("failed to archive new game")
		}
	}

	for {
		side := s.board.Turn()
		out, err := s.orch.ResolveTurn(ctx, s.board, s.players[side])
		if err != nil {
			if errors.Is(err, turn.ErrUnknownSource) {
				s.setPhase(core.PhaseTerminated)
				return Result{Phase: core.PhaseTerminated}, err
			}
			return s.end(core.ReasonQuit, side, core.SignalQuit), err
		}

		switch {
		case out.Signal == core.SignalStop:
			return s.end(core.ReasonStopped, side, out.Signal), nil
		case out.Signal == core.SignalRestart:
			return s.end(core.ReasonRestart, side, out.Signal), nil
		case out.Signal == core.SignalQuit:
			return s.end(core.ReasonQuit, side, out.Signal), nil
		case out.Forfeit:
			return s.end(core.ReasonForfeit, side, core.SignalNone), nil
		}

		s.moved(side, out)
		if out.Terminal != core.ReasonNone {
			return s.end(out.Terminal, side, core.SignalNone), nil
		}
	}
}

func (s *Session) moved(side core.Color, out turn.Outcome) {
	if s.archive == nil {
		return
	}
	if err := s.archive.RecordMove(storage.MoveRow{
		GameID:      s.ID,
		MoveNumber:  s.board.MoveCount(),
		SAN:         out.Move,
		UCI:         out.UCI,
		FENAfter:    s.board.FEN(),
		PlayerColor: side.Short(),
		Attempts:    out.Attempts,
		MoveTimeUTC: time.Now().UTC(),
	}); err != nil {
		s.log.Warn().Err(err).Msg("failed to archive move")
	}
}

// end moves the session out of InProgress. Every reason except quit
// persists the board; restart leaves the session Restarting.
func (s *Session) end(reason core.Reason, mover core.Color, sig core.Signal) Result {
	phase := core.PhaseTerminated
	if reason == core.ReasonRestart {
		phase = core.PhaseRestarting
	}
	msg := reason.Describe(mover)

	s.mu.Lock()
	s.view.Phase = phase
	s.view.Reason = reason
	s.view.Message = msg
	s.mu.Unlock()
	s.notify()

	s.log.Info().Str("reason", string(reason)).Str("message", msg).Int("moves", s.board.MoveCount()).Msg("session ended")

	if reason != core.ReasonQuit {
		s.panel.Publish(control.Event{Kind: control.EventGameOver, Side: mover, Text: msg})
		s.persist(reason, msg)
	}
	return Result{Phase: phase, Reason: reason, Message: msg, Signal: sig}
}

func (s *Session) persist(reason core.Reason, msg string) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	rec := storage.Record{
		SessionID: s.ID,
		White:     s.view.White.String(),
		Black:     s.view.Black.String(),
		Reason:    reason,
		Message:   msg,
		Timestamp: s.Started,
		Ended:     time.Now(),
		Diagram:   s.board.RenderDiagram(),
		Notation:  s.board.NotationList(),
		FEN:       s.board.FEN(),
		PGN:       s.board.PGN(),
	}
	if err := s.recorder.SaveRecord(ctx, rec); err != nil {
		s.log.Error().Err(err).Msg("failed to save game record")
		s.panel.Publish(control.Event{Kind: control.EventNotice, Text: "Failed to save game record: " + err.Error()})
		return
	}
	s.panel.Publish(control.Event{Kind: control.EventNotice, Text: "Game record saved."})
}

// View returns a copy of the current state.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.view
	v.Moves = append([]string(nil), s.view.Moves...)
	return v
}

// Changed returns a channel closed at the next state change.
func (s *Session) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

func (s *Session) notify() {
	s.mu.Lock()
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

// refresh copies the board into the view. Called from the Run goroutine only.
func (s *Session) refresh() {
	grid := board.Grid(s.board.Grid())
	s.mu.Lock()
	s.view.Turn = s.board.Turn()
	s.view.FEN = s.board.FEN()
	s.view.Moves = s.board.NotationList()
	s.view.Grid = grid
	s.view.Attempt = 0
	s.mu.Unlock()
	s.notify()
}

func (s *Session) setPhase(p core.Phase) {
	s.mu.Lock()
	s.view.Phase = p
	s.mu.Unlock()
	s.notify()
}

func (s *Session) setAttempt(n, max int) {
	s.mu.Lock()
	s.view.Attempt = n
	s.view.MaxAttempts = max
	s.mu.Unlock()
	s.notify()
}

// Close releases transcripts and engine processes.
func (s *Session) Close() error {
	var result *multierror.Error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.closers = nil
	return result.ErrorOrNil()
}

// host forwards orchestrator events to the panel and keeps the view in step
// with them.
type host struct {
	*control.Panel
	s *Session
}

func (h *host) Publish(ev control.Event) {
	switch ev.Kind {
	case control.EventAttempt:
		h.s.setAttempt(ev.Attempt, ev.Max)
	case control.EventMove:
		// the board already holds the move
		h.s.refresh()
	}
	h.Panel.Publish(ev)
}
