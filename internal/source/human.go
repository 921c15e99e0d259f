// FILE: internal/source/human.go
package source

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/rules"
)

// askRetry spaces attempts to ask while a question abandoned by the previous
// game is still being withdrawn.
const askRetry = 10 * time.Millisecond

var sanPattern = regexp.MustCompile(`^([NBRQK]?[a-h]?[1-8]?x?[a-h][1-8](=?[NBRQ])?|O-O(-O)?|0-0(-0)?)[+#]?[!?]*$`)

// Asker is the slice of the control panel the human source needs.
type Asker interface {
	Ask(ctx context.Context, a control.Ask) (string, error)
	Publish(ev control.Event)
}

// Human waits for the operator to type a move. Input that is neither a
// coordinate pair nor algebraic notation is refused and asked again;
// legality is left to the orchestrator.
type Human struct {
	asker Asker
}

func NewHuman(asker Asker) *Human {
	return &Human{asker: asker}
}

func (h *Human) Kind() core.SourceKind {
	return core.SourceHuman
}

func (h *Human) Propose(ctx context.Context, req Request) (Reply, error) {
	side := req.Board.Turn
	prompt := fmt.Sprintf("%s to move (e.g. e2e4 or Nf3):", side.Name())
	if req.Attempt > 1 {
		prompt = fmt.Sprintf("Illegal move. %s to move, attempt %d/%d:", side.Name(), req.Attempt, req.Attempts)
	}

	for {
		text, err := h.asker.Ask(ctx, control.Ask{Kind: control.AskMove, Side: side, Prompt: prompt})
		if errors.Is(err, control.ErrAskPending) {
			select {
			case <-ctx.Done():
				return Reply{}, ctx.Err()
			case <-time.After(askRetry):
			}
			continue
		}
		if err != nil {
			return Reply{}, err
		}

		token := strings.TrimSpace(text)
		if enc, ok := Classify(token); ok {
			return Reply{Proposal: propose(core.SourceHuman, enc, token)}, nil
		}
		h.asker.Publish(control.Event{Kind: control.EventNotice, Side: side, Text: "Invalid input format, please try again."})
	}
}

// Classify applies the syntactic shape check to operator input.
func Classify(token string) (core.Encoding, bool) {
	switch {
	case rules.IsCoordinate(token):
		return core.EncodingCoordinate, true
	case sanPattern.MatchString(token):
		return core.EncodingAlgebraic, true
	default:
		return 0, false
	}
}
