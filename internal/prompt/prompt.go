// FILE: internal/prompt/prompt.go
// Package prompt assembles the request text sent to a move source for one
// attempt and extracts the move token from an assistant reply.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

// Board is the read surface the builder needs.
type Board interface {
	GameRecord() []string
	RenderDiagram() string
}

const (
	noHistory     = "None, this is the first move."
	reconsider    = "Please reconsider your move step by step based on the feedback."
	diagramLegend = "*Uppercase for White and lowercase for Black. You are %s.*"
)

// Checklist is emitted from the halfway attempt onward.
const Checklist = "Please carefully reanalyze the proposed chess move step by step. " +
	"**First, analyze why the previous move was deemed illegal. What specific rule or condition did it violate?** " +
	"After clarifying this, proceed to determine a legal move. " +
	"**Have you reviewed the board diagram carefully? Can you confirm which pieces on the board are yours? " +
	"Which of your pieces are currently available and able to move?** " +
	"Identify which piece you intend to move and confirm its current position with coordinates. " +
	"**What is the piece and its exact location?** " +
	"Then, ensure that its movement adheres to the legal rules for that piece. " +
	"**Does the move comply with the movement rules of the identified piece?** " +
	"Next, verify that the destination square is valid by specifying its coordinates and confirming whether it is unoccupied or appropriately capturable. " +
	"**What is the destination square, and is it free or can it be captured?** " +
	"Additionally, confirm that the move does not place or leave the player's king in check. " +
	"**Does this move affect the king's safety in any way?** " +
	"Please address all these questions thoroughly to ensure the move is valid."

// Build returns the request content for one attempt. The output depends
// only on its inputs. last is the most recent exchange for the side and is
// quoted inline when the side does not carry chat context.
func Build(cfg core.PlayerConfig, board Board, attempt *core.AttemptState, last *core.Exchange) string {
	var sb strings.Builder

	sb.WriteString(cfg.PreText)
	sb.WriteString("\n\n")

	if cfg.IncludeHistory {
		sb.WriteString("Game History:\n")
		if record := board.GameRecord(); len(record) > 0 {
			sb.WriteString(strings.Join(record, "\n"))
		} else {
			sb.WriteString(noHistory)
		}
		sb.WriteString("\n\n")
	}

	if cfg.IncludeDiagram {
		sb.WriteString("Chessboard Diagram:\n")
		fmt.Fprintf(&sb, diagramLegend+"\n", cfg.Color)
		sb.WriteString(board.RenderDiagram())
		sb.WriteString("\n\n")
	}

	if attempt != nil && attempt.Number > 1 {
		fmt.Fprintf(&sb, "Your previous move was illegal. Attempt %d/%d.\n", attempt.Number, attempt.Max)

		if attempt.Escalated() {
			sb.WriteString(Checklist)
			sb.WriteString("\n")
			if attempt.Guidance != "" {
				sb.WriteString(attempt.Guidance)
				sb.WriteString("\n")
			}
		} else {
			sb.WriteString(reconsider)
			sb.WriteString("\n")
		}

		if !cfg.IncludeChatContext && last != nil {
			sb.WriteString("Previous interaction:\nUser: ")
			sb.WriteString(last.Request)
			sb.WriteString("\nAssistant: ")
			sb.WriteString(last.Reply)
			sb.WriteString("\n\n")
		}

		if len(attempt.Tried) > 0 {
			sb.WriteString("You have already tried: ")
			sb.WriteString(strings.Join(attempt.Tried, ", "))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(cfg.PostText)
	sb.WriteString("\n")
	return sb.String()
}

var markerPattern = regexp.MustCompile(`###\n([A-Za-z0-9 +#=\-]+)\n###`)

// ExtractMove returns the token written between two ### marker lines, or
// the empty string when the reply does not follow the format.
func ExtractMove(reply string) string {
	reply = strings.ReplaceAll(reply, "\r\n", "\n")
	m := markerPattern.FindStringSubmatch(reply)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
