// FILE: internal/source/assistant.go
package source

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/conversation"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/prompt"
)

// Completer is satisfied by assistant.Client.
type Completer interface {
	Complete(ctx context.Context, model string, messages []core.Message, temperature float32) (string, error)
}

// Assistant asks a chat model for a move. The conversation log is read
// here but only written by the orchestrator once it accepts the reply.
type Assistant struct {
	client     Completer
	contexts   *conversation.Store
	limit      int
	transcript zerolog.Logger
}

func NewAssistant(client Completer, contexts *conversation.Store, limit int, transcript zerolog.Logger) *Assistant {
	if limit <= 0 {
		limit = conversation.DefaultLimit
	}
	return &Assistant{
		client:     client,
		contexts:   contexts,
		limit:      limit,
		transcript: transcript,
	}
}

func (a *Assistant) Kind() core.SourceKind {
	return core.SourceAssistant
}

// Messages builds system prompt, truncated context and the current request.
func (a *Assistant) Messages(cfg core.PlayerConfig, content string) []core.Message {
	msgs := []core.Message{{Role: core.RoleSystem, Content: cfg.SystemPrompt}}
	if cfg.IncludeChatContext {
		msgs = append(msgs, a.contexts.Snapshot(cfg.Color, a.limit)...)
	}
	return append(msgs, core.Message{Role: core.RoleUser, Content: content})
}

func (a *Assistant) Propose(ctx context.Context, req Request) (Reply, error) {
	msgs := a.Messages(req.Config, req.Content)

	a.transcript.Info().
		Str("section", "prompt").
		Int("attempt", req.Attempt).
		Int("max_attempts", req.Attempts).
		Interface("messages", msgs).
		Msgf("Prompt (Attempt %d/%d)", req.Attempt, req.Attempts)

	reply, err := a.client.Complete(ctx, req.Config.Model, msgs, req.Config.Temperature)
	if err != nil {
		return Reply{}, err
	}

	a.transcript.Info().
		Str("section", "response").
		Str("reply", reply).
		Msg("Response")

	return Reply{
		Proposal: propose(core.SourceAssistant, core.EncodingAlgebraic, prompt.ExtractMove(reply)),
		Exchange: &core.Exchange{Request: req.Content, Reply: reply},
	}, nil
}
