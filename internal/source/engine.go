// FILE: internal/source/engine.go
package source

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

// BestMover is satisfied by engine.UCI.
type BestMover interface {
	SetPosition(fen string)
	BestMove(ctx context.Context) (string, error)
}

// Engine asks a local search engine for its best move. There is no retry:
// an engine failure is simply no proposal.
type Engine struct {
	engine BestMover
	log    zerolog.Logger
}

func NewEngine(e BestMover, log zerolog.Logger) *Engine {
	return &Engine{engine: e, log: log}
}

func (e *Engine) Kind() core.SourceKind {
	return core.SourceEngine
}

func (e *Engine) Propose(ctx context.Context, req Request) (Reply, error) {
	e.engine.SetPosition(req.Board.FEN)
	move, err := e.engine.BestMove(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		e.log.Warn().Err(err).Str("fen", req.Board.FEN).Msg("engine produced no move")
		return Reply{}, nil
	}
	return Reply{Proposal: propose(core.SourceEngine, core.EncodingCoordinate, move)}, nil
}
