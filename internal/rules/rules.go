// FILE: internal/rules/rules.go
// Package rules adapts github.com/notnil/chess to the narrow surface the turn
// orchestrator depends on: legality, move application and terminal queries.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/notnil/chess"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrBadToken    = errors.New("unparseable move token")
)

var coordinatePattern = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

// IsCoordinate reports whether token has the from-to shape, e.g. e2e4 or a7a8q.
func IsCoordinate(token string) bool {
	return coordinatePattern.MatchString(token)
}

// Move is a legal move resolved against a specific position.
type Move struct {
	m   *chess.Move
	SAN string
	UCI string
}

func (m Move) String() string {
	return m.SAN
}

// Board owns a game in progress. Only the turn orchestrator mutates it.
type Board struct {
	game *chess.Game
}

func New() *Board {
	return &Board{game: chess.NewGame()}
}

// FromFEN starts a board from an arbitrary position.
func FromFEN(fen string) (*Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN: %w", err)
	}
	return &Board{game: chess.NewGame(opt)}, nil
}

func (b *Board) Turn() core.Color {
	if b.game.Position().Turn() == chess.Black {
		return core.ColorBlack
	}
	return core.ColorWhite
}

func (b *Board) FEN() string {
	return b.game.Position().String()
}

// LegalMoves returns every legal move in coordinate encoding.
func (b *Board) LegalMoves() []string {
	pos := b.game.Position()
	valid := pos.ValidMoves()
	moves := make([]string, 0, len(valid))
	for _, m := range valid {
		moves = append(moves, chess.UCINotation{}.Encode(pos, m))
	}
	return moves
}

// Parse resolves a proposal token to a legal move in the current position.
func (b *Board) Parse(token string, enc core.Encoding) (Move, error) {
	token = strings.TrimSpace(token)
	if token == "" || token == core.NoProposalToken {
		return Move{}, ErrBadToken
	}
	if enc == core.EncodingCoordinate {
		return b.parseCoordinate(token)
	}
	return b.parseAlgebraic(token)
}

func (b *Board) parseAlgebraic(token string) (Move, error) {
	pos := b.game.Position()
	m, err := chess.AlgebraicNotation{}.Decode(pos, token)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, token)
	}
	return b.wrap(m), nil
}

// parseCoordinate matches by membership in the legal set. A promotion
// without an explicit piece resolves to a queen.
func (b *Board) parseCoordinate(token string) (Move, error) {
	if !IsCoordinate(token) {
		return Move{}, fmt.Errorf("%w: %s", ErrBadToken, token)
	}
	from, to := token[0:2], token[2:4]
	var promo chess.PieceType
	if len(token) == 5 {
		promo = promotionPiece(token[4])
	}

	var plain, queen *chess.Move
	for _, m := range b.game.Position().ValidMoves() {
		if m.S1().String() != from || m.S2().String() != to {
			continue
		}
		switch {
		case m.Promo() == promo:
			plain = m
		case promo == chess.NoPieceType && m.Promo() == chess.Queen:
			queen = m
		}
	}
	if plain != nil {
		return b.wrap(plain), nil
	}
	if queen != nil {
		return b.wrap(queen), nil
	}
	return Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, token)
}

func promotionPiece(c byte) chess.PieceType {
	switch c {
	case 'q':
		return chess.Queen
	case 'r':
		return chess.Rook
	case 'b':
		return chess.Bishop
	case 'n':
		return chess.Knight
	}
	return chess.NoPieceType
}

func (b *Board) wrap(m *chess.Move) Move {
	pos := b.game.Position()
	return Move{
		m:   m,
		SAN: chess.AlgebraicNotation{}.Encode(pos, m),
		UCI: chess.UCINotation{}.Encode(pos, m),
	}
}

// Apply plays a move previously returned by Parse on this same position.
func (b *Board) Apply(m Move) error {
	if m.m == nil {
		return ErrIllegalMove
	}
	if err := b.game.Move(m.m); err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	return nil
}

func (b *Board) IsCheckmate() bool {
	return b.game.Position().Status() == chess.Checkmate
}

func (b *Board) IsStalemate() bool {
	return b.game.Position().Status() == chess.Stalemate
}

func (b *Board) IsInsufficientMaterial() bool {
	if b.game.Method() == chess.InsufficientMaterial {
		return true
	}
	return !hasMatingMaterial(b.game.Position().Board())
}

func (b *Board) CanClaimThreefold() bool {
	return b.eligible(chess.ThreefoldRepetition)
}

func (b *Board) CanClaimFiftyMove() bool {
	return b.eligible(chess.FiftyMoveRule)
}

func (b *Board) eligible(method chess.Method) bool {
	for _, m := range b.game.EligibleDraws() {
		if m == method {
			return true
		}
	}
	return false
}

// hasMatingMaterial treats K vs K, K+minor vs K and bishops all on one
// square color as dead positions.
func hasMatingMaterial(board *chess.Board) bool {
	var minors, bishopsLight, bishopsDark int
	for sq, p := range board.SquareMap() {
		switch p.Type() {
		case chess.King:
		case chess.Queen, chess.Rook, chess.Pawn:
			return true
		case chess.Knight:
			minors++
		case chess.Bishop:
			minors++
			if (int(sq.File())+int(sq.Rank()))%2 == 0 {
				bishopsDark++
			} else {
				bishopsLight++
			}
		}
	}
	if minors <= 1 {
		return false
	}
	knights := minors - bishopsLight - bishopsDark
	if knights == 0 && (bishopsLight == 0 || bishopsDark == 0) {
		return false
	}
	return true
}

// NotationList returns the move history in standard algebraic notation.
func (b *Board) NotationList() []string {
	positions := b.game.Positions()
	moves := b.game.Moves()
	list := make([]string, 0, len(moves))
	for i, m := range moves {
		list = append(list, chess.AlgebraicNotation{}.Encode(positions[i], m))
	}
	return list
}

// GameRecord numbers the history in move pairs, one line per full move.
func (b *Board) GameRecord() []string {
	return NumberMoves(b.NotationList())
}

// NumberMoves formats a SAN list as "1. e4 e5" lines.
func NumberMoves(san []string) []string {
	var lines []string
	for i, s := range san {
		if i%2 == 0 {
			lines = append(lines, fmt.Sprintf("%d. %s", i/2+1, s))
		} else {
			lines[len(lines)-1] += " " + s
		}
	}
	return lines
}

// MoveCount is the number of half-moves played.
func (b *Board) MoveCount() int {
	return len(b.game.Moves())
}

// Snapshot is a read-only copy of the position handed to move sources.
type Snapshot struct {
	FEN     string
	Turn    core.Color
	History []string
}

func (b *Board) Snapshot() Snapshot {
	return Snapshot{
		FEN:     b.FEN(),
		Turn:    b.Turn(),
		History: b.NotationList(),
	}
}

// PGN exports the game in portable game notation.
func (b *Board) PGN() string {
	return b.game.String()
}
