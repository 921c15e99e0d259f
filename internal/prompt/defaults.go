// FILE: internal/prompt/defaults.go
package prompt

import (
	"fmt"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

// DefaultPostText states the response format contract.
const DefaultPostText = "Please provide your best move in standard algebraic notation (e.g., e4, Nf3, Bb5), " +
	"and write it on a separate line surrounded by triple hashes (###), like this:\n###\ne4\n###"

// ChainOfThought is an optional system prompt suffix walking the assistant
// through a full move analysis before answering.
const ChainOfThought = `As a Chess Grandmaster, you must approach each move with meticulous attention to detail, carefully and thoroughly finishing the following *Chain of Thought for Analyzing Chess Moves* to ensure the best possible decision on every turn:

0. Analyze the Current Situation:
   - What is the overall state of the game (opening, middle game, endgame)?
   - How have the previous moves shaped the current position?
   - Are there any immediate tactical or strategic threats from either side?

1. Evaluate the Board:
   - What is the current position on the board, and how is the material balance?
   - What are my strategic goals in this position, and what might the opponent be planning?

2. Identify Threats and Opportunities:
   - Are any of my pieces under attack or vulnerable to capture?
   - Are there forks, pins, skewers or discovered attacks I can exploit?

3. Check for Opening Patterns and Known Games:
   - Does the position match a common opening line, and am I following its established plans?

4. Generate Candidate Moves. For each candidate:
   1. Piece Identification and Position Check: identify the piece and confirm its starting coordinates.
   2. Movement Rule Verification: verify the movement follows that piece's rules.
   3. Destination Square Analysis: the square is on the board and either empty or holds a capturable enemy piece.
   4. Special Rule Checks: promotion, en passant and castling conditions.
   5. King Safety Check: the move does not place or leave your king in check.

5. Analyze Candidate Moves:
   - What are the opponent's strongest replies, and how do they change the position?
   - Does the move keep my king safe and improve the coordination of my pieces?

6. Develop and Refine Strategies:
   - What short-term and long-term plans follow from this move?

7. Assess Long-Term Plans:
   - Does this move lead to a favorable middle-game or endgame?

8. Final Verification:
   - Reassess the legality of the move and recheck king safety after the likely replies.

9. Synthesize and Decide:
   - Combine the insights above and choose the move that best balances tactics and strategy.
`

// DefaultSystemPrompt is the persona given to the assistant for a side.
func DefaultSystemPrompt(side core.Color, chainOfThought bool) string {
	s := fmt.Sprintf("You are an experienced %s chess player.\n", side)
	if chainOfThought {
		s += ChainOfThought
	}
	return s
}

// DefaultPreText opens every request.
func DefaultPreText(side core.Color) string {
	return fmt.Sprintf("You are about to make a move as %s.", side.Name())
}
