package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

func play(t *testing.T, b *Board, tokens ...string) {
	t.Helper()
	for _, tok := range tokens {
		m, err := b.Parse(tok, core.EncodingAlgebraic)
		require.NoError(t, err, tok)
		require.NoError(t, b.Apply(m))
	}
}

func TestStartingPosition(t *testing.T) {
	b := New()
	assert.Equal(t, core.ColorWhite, b.Turn())
	assert.Len(t, b.LegalMoves(), 20)
	assert.Empty(t, b.NotationList())
	assert.False(t, b.IsCheckmate())
	assert.False(t, b.IsInsufficientMaterial())
}

func TestParseAlgebraic(t *testing.T) {
	b := New()
	m, err := b.Parse("e4", core.EncodingAlgebraic)
	require.NoError(t, err)
	assert.Equal(t, "e4", m.SAN)
	assert.Equal(t, "e2e4", m.UCI)

	require.NoError(t, b.Apply(m))
	assert.Equal(t, core.ColorBlack, b.Turn())

	_, err = b.Parse("e4", core.EncodingAlgebraic)
	assert.ErrorIs(t, err, ErrIllegalMove)
}

func TestParseRejectsEmptyAndSentinel(t *testing.T) {
	b := New()
	_, err := b.Parse("", core.EncodingAlgebraic)
	assert.ErrorIs(t, err, ErrBadToken)
	_, err = b.Parse(core.NoProposalToken, core.EncodingAlgebraic)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestParseCoordinate(t *testing.T) {
	b := New()
	m, err := b.Parse("g1f3", core.EncodingCoordinate)
	require.NoError(t, err)
	assert.Equal(t, "Nf3", m.SAN)

	_, err = b.Parse("e2e5", core.EncodingCoordinate)
	assert.ErrorIs(t, err, ErrIllegalMove)

	_, err = b.Parse("Nf3", core.EncodingCoordinate)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestCoordinatePromotionDefaultsToQueen(t *testing.T) {
	b, err := FromFEN("8/P7/8/8/8/8/8/k6K w - - 0 1")
	require.NoError(t, err)

	m, err := b.Parse("a7a8", core.EncodingCoordinate)
	require.NoError(t, err)
	assert.Equal(t, "a7a8q", m.UCI)

	m, err = b.Parse("a7a8n", core.EncodingCoordinate)
	require.NoError(t, err)
	assert.Equal(t, "a7a8n", m.UCI)
}

func TestCheckmate(t *testing.T) {
	b := New()
	play(t, b, "f3", "e5", "g4", "Qh4")
	assert.True(t, b.IsCheckmate())
	assert.False(t, b.IsStalemate())
}

func TestStalemate(t *testing.T) {
	b, err := FromFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	assert.True(t, b.IsStalemate())
	assert.False(t, b.IsCheckmate())
	assert.Empty(t, b.LegalMoves())
}

func TestInsufficientMaterial(t *testing.T) {
	cases := map[string]bool{
		"8/8/8/8/8/8/8/k6K w - - 0 1":   true,
		"8/8/8/8/8/8/8/kN5K w - - 0 1":  true,
		"8/8/8/8/8/8/8/kB5K w - - 0 1":  true,
		"8/8/8/8/8/8/8/kNN4K w - - 0 1": false,
		"8/8/8/8/8/8/7R/k6K w - - 0 1":  false,
	}
	for fen, want := range cases {
		b, err := FromFEN(fen)
		require.NoError(t, err)
		assert.Equal(t, want, b.IsInsufficientMaterial(), fen)
	}
}

func TestThreefoldRepetition(t *testing.T) {
	b := New()
	play(t, b, "Nf3", "Nf6", "Ng1", "Ng8", "Nf3", "Nf6", "Ng1", "Ng8")
	assert.True(t, b.CanClaimThreefold())
	assert.False(t, b.CanClaimFiftyMove())
}

func TestFiftyMoveRule(t *testing.T) {
	b, err := FromFEN("8/8/8/8/8/8/7R/k6K w - - 100 80")
	require.NoError(t, err)
	assert.True(t, b.CanClaimFiftyMove())
}

func TestGameRecord(t *testing.T) {
	b := New()
	play(t, b, "e4", "e5", "Nf3")
	assert.Equal(t, []string{"e4", "e5", "Nf3"}, b.NotationList())
	assert.Equal(t, []string{"1. e4 e5", "2. Nf3"}, b.GameRecord())
	assert.Equal(t, 3, b.MoveCount())
}

func TestRenderDiagram(t *testing.T) {
	lines := strings.Split(New().RenderDiagram(), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "|    | a   | b   | c   | d   | e   | f   | g   | h   |", lines[0])
	assert.Equal(t, "|  8 | r   | n   | b   | q   | k   | b   | n   | r   |", lines[2])
	assert.Equal(t, "|  4 | .   | .   | .   | .   | .   | .   | .   | .   |", lines[6])
	assert.Equal(t, "|  1 | R   | N   | B   | Q   | K   | B   | N   | R   |", lines[9])
}

func TestIsCoordinate(t *testing.T) {
	assert.True(t, IsCoordinate("e2e4"))
	assert.True(t, IsCoordinate("a7a8q"))
	assert.False(t, IsCoordinate("e4"))
	assert.False(t, IsCoordinate("e2e4k"))
	assert.False(t, IsCoordinate("Nf3"))
}
