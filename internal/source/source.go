// FILE: internal/source/source.go
// Package source implements the interchangeable move sources: an operator
// at the console, a chat assistant and a UCI engine.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/conversation"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/rules"
)

var ErrUnknownKind = errors.New("unknown source kind")

// Request is everything a source may look at for one attempt.
type Request struct {
	Config   core.PlayerConfig
	Board    rules.Snapshot
	Content  string
	Attempt  int
	Attempts int
}

// Reply is the result of one call. Proposal is nil when the source produced
// nothing usable; Exchange is set when an assistant answered.
type Reply struct {
	Proposal *core.Proposal
	Exchange *core.Exchange
}

// Source produces one move proposal per call. Propose runs on a worker
// goroutine and must return promptly once ctx is cancelled.
type Source interface {
	Kind() core.SourceKind
	Propose(ctx context.Context, req Request) (Reply, error)
}

func propose(kind core.SourceKind, enc core.Encoding, token string) *core.Proposal {
	if token == "" {
		return nil
	}
	return &core.Proposal{Token: token, Encoding: enc, Kind: kind}
}

// Deps are the collaborators a source may need. Only those required by the
// requested kind must be set.
type Deps struct {
	Asker        Asker
	Completer    Completer
	Contexts     *conversation.Store
	ContextLimit int
	Engine       BestMover
	Transcript   zerolog.Logger
	Log          zerolog.Logger
}

// New builds the source for a player configuration.
func New(cfg core.PlayerConfig, deps Deps) (Source, error) {
	switch cfg.Kind {
	case core.SourceHuman:
		if deps.Asker == nil {
			return nil, fmt.Errorf("human source for %s: no input host", cfg.Color)
		}
		return NewHuman(deps.Asker), nil
	case core.SourceAssistant:
		if deps.Completer == nil || deps.Contexts == nil {
			return nil, fmt.Errorf("assistant source for %s: no transport configured", cfg.Color)
		}
		return NewAssistant(deps.Completer, deps.Contexts, deps.ContextLimit, deps.Transcript), nil
	case core.SourceEngine:
		if deps.Engine == nil {
			return nil, fmt.Errorf("engine source for %s: no engine process", cfg.Color)
		}
		return NewEngine(deps.Engine, deps.Log), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, cfg.Kind)
	}
}
