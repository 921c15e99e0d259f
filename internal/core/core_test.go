package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceKind(t *testing.T) {
	tests := map[string]SourceKind{
		"1":         SourceHuman,
		"human":     SourceHuman,
		" 2 ":       SourceAssistant,
		"ChatGPT":   SourceAssistant,
		"3":         SourceEngine,
		"Stockfish": SourceEngine,
	}
	for in, want := range tests {
		got, err := ParseSourceKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSourceKind("4")
	assert.Error(t, err)
}

func TestParseSignal(t *testing.T) {
	sig, err := ParseSignal("Restart")
	require.NoError(t, err)
	assert.Equal(t, SignalRestart, sig)
	assert.True(t, sig.Terminates())

	sig, err = ParseSignal("pause")
	require.NoError(t, err)
	assert.False(t, sig.Terminates())

	_, err = ParseSignal("undo")
	assert.Error(t, err)
}

func TestAttemptStateLifecycle(t *testing.T) {
	a := NewAttemptState(4)
	assert.Equal(t, 1, a.Number)
	assert.False(t, a.Escalated())

	a.Reject("Ke9")
	assert.Equal(t, 2, a.Number)
	assert.True(t, a.Escalated())

	a.Reject(NoProposalToken)
	a.Reject("Ke9")
	assert.False(t, a.Exhausted())
	a.Reject("Ke9")
	assert.True(t, a.Exhausted())
	assert.Equal(t, []string{"Ke9", NoProposalToken, "Ke9", "Ke9"}, a.Tried)

	a.Renew("look at the knight")
	assert.Equal(t, 1, a.Number)
	assert.Equal(t, "look at the knight", a.Guidance)
	assert.Len(t, a.Tried, 4)
}

func TestReasonDescribe(t *testing.T) {
	assert.Equal(t, "White wins by checkmate!", ReasonCheckmate.Describe(ColorWhite))
	assert.Equal(t, "Black wins by checkmate!", ReasonCheckmate.Describe(ColorBlack))
	assert.Equal(t, "The game ends in a stalemate.", ReasonStalemate.Describe(ColorWhite))
	assert.Equal(t, "Draw due to the fifty-move rule.", ReasonFiftyMove.Describe(ColorBlack))
	assert.Equal(t, "Black wins by forfeit.", ReasonForfeit.Describe(ColorWhite))
}

func TestColor(t *testing.T) {
	assert.Equal(t, ColorBlack, OppositeColor(ColorWhite))
	assert.Equal(t, "White", ColorWhite.Name())
	assert.Equal(t, "b", ColorBlack.Short())
}
