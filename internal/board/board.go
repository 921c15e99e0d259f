// FILE: internal/board/board.go
// Package board draws a position grid for the hosts in either orientation.
package board

import (
	"fmt"
	"strings"
)

// Grid is a position as rows from rank 8 to rank 1, files a to h, with '.'
// for empty squares.
type Grid [8][8]rune

// ToASCII creates an ASCII representation of the board. Flipped puts Black
// at the bottom.
func ToASCII(g Grid, flipped bool) string {
	files := "  a b c d e f g h"
	if flipped {
		files = "  h g f e d c b a"
	}

	var sb strings.Builder
	sb.WriteString(files + "\n")

	for i := 0; i < 8; i++ {
		r := i
		if flipped {
			r = 7 - i
		}
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for j := 0; j < 8; j++ {
			f := j
			if flipped {
				f = 7 - j
			}
			piece := g[r][f]
			if piece == 0 {
				piece = '.'
			}
			sb.WriteString(fmt.Sprintf("%c ", piece))
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString(files)

	return sb.String()
}

// PieceAt returns the piece on a square such as "e4", or 0 when empty or
// out of range.
func (g Grid) PieceAt(square string) rune {
	if len(square) != 2 {
		return 0
	}
	if square[0] < 'a' || square[0] > 'h' || square[1] < '1' || square[1] > '8' {
		return 0
	}
	p := g['8'-square[1]][square[0]-'a']
	if p == '.' {
		return 0
	}
	return p
}
