// FILE: internal/session/factory.go
package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/config"
	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/conversation"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/engine"
	"github.com/jimmyshjj/ChessGPT/internal/logging"
	"github.com/jimmyshjj/ChessGPT/internal/source"
	"github.com/jimmyshjj/ChessGPT/internal/storage"
	"github.com/jimmyshjj/ChessGPT/internal/turn"
)

// EngineProcess is a running engine. *engine.UCI satisfies it.
type EngineProcess interface {
	source.BestMover
	Close() error
}

type StartEngineFunc func(ctx context.Context, opts engine.Options) (EngineProcess, error)

// StartUCI launches the configured UCI binary.
func StartUCI(ctx context.Context, opts engine.Options) (EngineProcess, error) {
	e, err := engine.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := e.NewGame(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// ArchiveRecorder is both the move archive and a final-record sink.
type ArchiveRecorder interface {
	Archive
	storage.Recorder
}

// Factory builds a fresh session per game. Transcripts and engine
// processes belong to the session and are released by its Close.
type Factory struct {
	Config      *config.Config
	Kinds       map[core.Color]core.SourceKind
	Panel       *control.Panel
	Contexts    *conversation.Store
	Completer   source.Completer
	Archive     ArchiveRecorder
	StartEngine StartEngineFunc
	Log         zerolog.Logger
}

var validate = validator.New()

func (f *Factory) New(ctx context.Context) (s *Session, err error) {
	cfg := f.Config
	started := time.Now()

	transcripts, err := logging.OpenTranscripts(cfg.Logging.Dir, started)
	if err != nil {
		return nil, err
	}
	closers := []io.Closer{transcripts}
	defer func() {
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
		}
	}()

	start := f.StartEngine
	if start == nil {
		start = StartUCI
	}

	players := make(map[core.Color]turn.Player, 2)
	for _, side := range []core.Color{core.ColorWhite, core.ColorBlack} {
		pc := cfg.PlayerConfig(side, f.Kinds[side])
		if err := validate.Struct(pc); err != nil {
			return nil, fmt.Errorf("invalid %s player: %w", side, err)
		}

		deps := source.Deps{
			Asker:        f.Panel,
			Completer:    f.Completer,
			Contexts:     f.Contexts,
			ContextLimit: cfg.Turn.ContextLimit,
			Transcript:   transcripts.For(side),
			Log:          f.Log.With().Str("side", side.String()).Logger(),
		}
		if pc.Kind == core.SourceEngine {
			proc, err := start(ctx, cfg.EngineOptions(side))
			if err != nil {
				return nil, fmt.Errorf("failed to start engine for %s: %w", side, err)
			}
			closers = append(closers, proc)
			deps.Engine = proc
		}

		src, err := source.New(pc, deps)
		if err != nil {
			return nil, err
		}
		players[side] = turn.Player{Config: pc, Source: src}
	}

	recorders := storage.Recorders{storage.FileRecorder{Dir: cfg.Storage.RecordDir}}
	opts := Options{
		Players:  players,
		Panel:    f.Panel,
		Contexts: f.Contexts,
		Turn: turn.Config{
			MaxAttempts:  cfg.Turn.MaxAttempts,
			PollInterval: cfg.Turn.PollInterval,
		},
		Closers: closers,
		Started: started,
		Log:     f.Log,
	}
	if f.Archive != nil {
		recorders = append(recorders, f.Archive)
		opts.Archive = f.Archive
	}
	opts.Recorder = recorders

	return New(opts)
}
