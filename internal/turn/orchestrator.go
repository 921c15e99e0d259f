// FILE: internal/turn/orchestrator.go
// Package turn resolves one legal move per turn from a pluggable move
// source, running the source in the background while the host keeps
// servicing operator signals.
package turn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/conversation"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/prompt"
	"github.com/jimmyshjj/ChessGPT/internal/rules"
	"github.com/jimmyshjj/ChessGPT/internal/source"
	"github.com/jimmyshjj/ChessGPT/internal/worker"
)

const (
	DefaultMaxAttempts  = 10
	DefaultPollInterval = 100 * time.Millisecond
)

var ErrUnknownSource = errors.New("unrecognized move source")

// Host is the operator surface polled while a source is running.
// control.Panel satisfies it.
type Host interface {
	Poll() core.Signal
	Paused() bool
	Idle()
	Guidance(ctx context.Context, side core.Color) (string, error)
	Publish(ev control.Event)
}

// Board is the rules surface the orchestrator mutates. *rules.Board
// satisfies it.
type Board interface {
	prompt.Board
	Turn() core.Color
	Parse(token string, enc core.Encoding) (rules.Move, error)
	Apply(m rules.Move) error
	IsCheckmate() bool
	IsStalemate() bool
	IsInsufficientMaterial() bool
	CanClaimThreefold() bool
	CanClaimFiftyMove() bool
	Snapshot() rules.Snapshot
}

// Player binds a side's configuration to the source that plays it.
type Player struct {
	Config core.PlayerConfig
	Source source.Source
}

// Outcome is how a turn ended: a move (possibly game ending), a forfeit,
// or a terminating signal.
type Outcome struct {
	Move     string
	UCI      string
	Terminal core.Reason
	Forfeit  bool
	Signal   core.Signal
	Attempts int
}

type Config struct {
	MaxAttempts  int
	PollInterval time.Duration
}

// Orchestrator owns the board and attempt state for the duration of a turn.
type Orchestrator struct {
	contexts    *conversation.Store
	host        Host
	log         zerolog.Logger
	maxAttempts int
	poll        time.Duration
}

func New(contexts *conversation.Store, host Host, cfg Config, log zerolog.Logger) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Orchestrator{
		contexts:    contexts,
		host:        host,
		log:         log,
		maxAttempts: cfg.MaxAttempts,
		poll:        cfg.PollInterval,
	}
}

// ResolveTurn drives the retry protocol until the side to move produces a
// legal move, forfeits, or a terminating signal arrives. The only error
// besides context cancellation is an unrecognized source.
func (o *Orchestrator) ResolveTurn(ctx context.Context, board Board, p Player) (Outcome, error) {
	if p.Source == nil {
		return Outcome{}, ErrUnknownSource
	}
	kind := p.Source.Kind()
	switch kind {
	case core.SourceHuman, core.SourceAssistant, core.SourceEngine:
	default:
		return Outcome{}, fmt.Errorf("%w: %d", ErrUnknownSource, kind)
	}

	side := board.Turn()
	attempt := core.NewAttemptState(o.maxAttempts)
	log := o.log.With().Str("side", side.String()).Str("source", kind.String()).Logger()

	o.host.Publish(control.Event{Kind: control.EventTurn, Side: side, Text: side.Name() + " to move."})

	for {
		o.host.Publish(control.Event{
			Kind:    control.EventAttempt,
			Side:    side,
			Attempt: attempt.Number,
			Max:     attempt.Max,
			Text:    fmt.Sprintf("Attempt %d/%d", attempt.Number, attempt.Max),
		})

		req := source.Request{
			Config:   p.Config,
			Board:    board.Snapshot(),
			Content:  prompt.Build(p.Config, board, attempt, o.last(side)),
			Attempt:  attempt.Number,
			Attempts: attempt.Max,
		}

		fut := worker.Go(ctx, func(ctx context.Context) (source.Reply, error) {
			return p.Source.Propose(ctx, req)
		})
		res, sig := await(ctx, o.host, fut, o.poll)
		if sig.Terminates() {
			log.Info().Stringer("signal", sig).Int("attempt", attempt.Number).Msg("turn interrupted")
			return Outcome{Signal: sig, Attempts: attempt.Number}, nil
		}
		if res.Err != nil {
			if ctx.Err() != nil {
				return Outcome{Signal: core.SignalQuit, Attempts: attempt.Number}, ctx.Err()
			}
			log.Warn().Err(res.Err).Int("attempt", attempt.Number).Msg("move source failed")
		}

		reply := res.Value
		if reply.Exchange != nil {
			o.contexts.Record(side, *reply.Exchange, p.Config.IncludeChatContext)
			o.host.Publish(control.Event{Kind: control.EventReply, Side: side, Text: reply.Exchange.Reply})
		}

		token := core.NoProposalToken
		if reply.Proposal != nil {
			token = reply.Proposal.Token
			move, err := board.Parse(token, reply.Proposal.Encoding)
			if err == nil {
				err = board.Apply(move)
			}
			if err == nil {
				log.Info().Str("move", move.SAN).Str("uci", move.UCI).Int("attempt", attempt.Number).Msg("move applied")
				o.host.Publish(control.Event{Kind: control.EventMove, Side: side, Text: move.SAN, Attempt: attempt.Number, Max: attempt.Max})
				return Outcome{
					Move:     move.SAN,
					UCI:      move.UCI,
					Terminal: TerminalCheck(board),
					Attempts: attempt.Number,
				}, nil
			}
			log.Debug().Err(err).Str("token", token).Msg("proposal rejected")
		}

		attempt.Reject(token)
		o.host.Publish(control.Event{
			Kind:    control.EventIllegal,
			Side:    side,
			Attempt: attempt.Number - 1,
			Max:     attempt.Max,
			Text:    fmt.Sprintf("Illegal move: %s", token),
		})

		if !attempt.Exhausted() {
			continue
		}

		if kind != core.SourceAssistant {
			log.Warn().Strs("tried", attempt.Tried).Msg("attempts exhausted, side forfeits")
			return Outcome{Forfeit: true, Terminal: core.ReasonForfeit, Attempts: attempt.Max}, nil
		}

		guidance, sig, err := o.solicitGuidance(ctx, side)
		if sig.Terminates() {
			return Outcome{Signal: sig, Attempts: attempt.Number}, nil
		}
		if err != nil {
			return Outcome{Signal: core.SignalQuit, Attempts: attempt.Number}, err
		}
		log.Info().Str("guidance", guidance).Msg("guidance received, attempts renewed")
		o.host.Publish(control.Event{Kind: control.EventGuidance, Side: side, Text: guidance})
		attempt.Renew(guidance)
	}
}

func (o *Orchestrator) last(side core.Color) *core.Exchange {
	if ex, ok := o.contexts.Last(side); ok {
		return &ex
	}
	return nil
}

// solicitGuidance asks the operator on a worker so that stop, restart and
// quit remain serviceable while the question is open.
func (o *Orchestrator) solicitGuidance(ctx context.Context, side core.Color) (string, core.Signal, error) {
	fut := worker.Go(ctx, func(ctx context.Context) (string, error) {
		return o.host.Guidance(ctx, side)
	})
	res, sig := await(ctx, o.host, fut, o.poll)
	if sig.Terminates() {
		return "", sig, nil
	}
	return res.Value, core.SignalNone, res.Err
}

// await joins fut in short beats. Each beat first services a terminating
// signal, which abandons the call. While paused the host idles and fut is
// left running; its result is picked up on the first beat after resume.
func await[T any](ctx context.Context, host Host, fut *worker.Future[T], poll time.Duration) (worker.Result[T], core.Signal) {
	for {
		if sig := host.Poll(); sig.Terminates() {
			fut.Abandon()
			return worker.Result[T]{}, sig
		}
		if err := ctx.Err(); err != nil {
			fut.Abandon()
			return worker.Result[T]{Err: err}, core.SignalNone
		}
		if host.Paused() {
			host.Idle()
			continue
		}
		if res, ok := fut.Wait(poll); ok {
			fut.Release()
			return res, core.SignalNone
		}
	}
}

// TerminalCheck evaluates the end conditions in precedence order; the first
// that holds wins.
func TerminalCheck(board Board) core.Reason {
	switch {
	case board.IsCheckmate():
		return core.ReasonCheckmate
	case board.IsStalemate():
		return core.ReasonStalemate
	case board.IsInsufficientMaterial():
		return core.ReasonInsufficientMaterial
	case board.CanClaimThreefold():
		return core.ReasonThreefold
	case board.CanClaimFiftyMove():
		return core.ReasonFiftyMove
	default:
		return core.ReasonNone
	}
}
