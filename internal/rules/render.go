// FILE: internal/rules/render.go
package rules

import (
	"strings"

	"github.com/notnil/chess"
)

// PieceAt returns the FEN letter of the piece on a square ("e4"), uppercase
// for White, or 0 when the square is empty.
func (b *Board) PieceAt(square string) rune {
	if len(square) != 2 {
		return 0
	}
	file := chess.File(square[0] - 'a')
	rank := chess.Rank(square[1] - '1')
	if file < chess.FileA || file > chess.FileH || rank < chess.Rank1 || rank > chess.Rank8 {
		return 0
	}
	p := b.game.Position().Board().Piece(chess.NewSquare(file, rank))
	if p == chess.NoPiece {
		return 0
	}
	letter := p.Type().String()
	if p.Color() == chess.White {
		letter = strings.ToUpper(letter)
	}
	return rune(letter[0])
}

// Grid returns the board as rows from rank 8 down to rank 1, files a to h,
// with '.' for empty squares.
func (b *Board) Grid() [8][8]rune {
	var grid [8][8]rune
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			sq := string([]byte{byte('a' + f), byte('8' - r)})
			p := b.PieceAt(sq)
			if p == 0 {
				p = '.'
			}
			grid[r][f] = p
		}
	}
	return grid
}

// RenderDiagram renders the position as a markdown table indexed by rank
// (8 to 1) with file columns a to h.
func (b *Board) RenderDiagram() string {
	grid := b.Grid()
	var sb strings.Builder
	sb.WriteString("|    | a   | b   | c   | d   | e   | f   | g   | h   |\n")
	sb.WriteString("|---:|:----|:----|:----|:----|:----|:----|:----|:----|")
	for r := 0; r < 8; r++ {
		sb.WriteString("\n|  ")
		sb.WriteByte(byte('8' - r))
		sb.WriteString(" |")
		for f := 0; f < 8; f++ {
			sb.WriteString(" ")
			sb.WriteRune(grid[r][f])
			sb.WriteString("   |")
		}
	}
	return sb.String()
}
