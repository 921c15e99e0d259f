package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "games.db"), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.InitDB())
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id string) Record {
	return Record{
		SessionID: id,
		White:     "Assistant",
		Black:     "Engine",
		Reason:    core.ReasonCheckmate,
		Message:   "Black wins by checkmate!",
		Timestamp: time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
		Diagram:   "|    | a   |",
		Notation:  []string{"f3", "e5", "g4", "Qh4#"},
		FEN:       "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
	}
}

func TestStoreArchivesGame(t *testing.T) {
	s := openStore(t)
	id := uuid.New().String()
	ctx := context.Background()

	require.NoError(t, s.RecordNewGame(GameRow{GameID: id, WhiteKind: "Assistant", BlackKind: "Engine", StartedUTC: time.Now().UTC()}))
	require.NoError(t, s.RecordMove(MoveRow{GameID: id, MoveNumber: 1, SAN: "f3", UCI: "f2f3", FENAfter: "x", PlayerColor: "w", Attempts: 3, MoveTimeUTC: time.Now().UTC()}))
	require.NoError(t, s.RecordMove(MoveRow{GameID: id, MoveNumber: 2, SAN: "e5", UCI: "e7e5", FENAfter: "y", PlayerColor: "b", Attempts: 1, MoveTimeUTC: time.Now().UTC()}))
	require.NoError(t, s.SaveRecord(ctx, sampleRecord(id)))
	require.NoError(t, s.Flush(ctx))

	games, err := s.QueryGames(id, "")
	require.NoError(t, err)
	require.Len(t, games, 1)
	g := games[0]
	assert.Equal(t, "Assistant", g.WhiteKind)
	assert.Equal(t, "checkmate", g.Reason)
	assert.Equal(t, "Black wins by checkmate!", g.Message)
	assert.Equal(t, 4, g.MoveCount)
	assert.NotNil(t, g.EndedUTC)

	moves, err := s.QueryMoves(id)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "f3", moves[0].SAN)
	assert.Equal(t, 3, moves[0].Attempts)
	assert.Equal(t, "b", moves[1].PlayerColor)
}

func TestSaveRecordInsertsUnknownGame(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	rec := sampleRecord("restart-only")
	rec.Reason = core.ReasonRestart
	require.NoError(t, s.SaveRecord(ctx, rec))
	require.NoError(t, s.Flush(ctx))

	games, err := s.QueryGames("*", "restart")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "restart-only", games[0].GameID)
}

func TestStoreDegradesOnFailedWrite(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	// move for a game that does not exist violates the foreign key
	require.NoError(t, s.RecordMove(MoveRow{GameID: "missing", MoveNumber: 1, SAN: "e4", UCI: "e2e4", FENAfter: "x", PlayerColor: "w"}))
	assert.ErrorIs(t, s.Flush(ctx), ErrDegraded)
	assert.False(t, s.IsHealthy())

	// later writes are dropped silently
	assert.NoError(t, s.SaveRecord(ctx, sampleRecord("dropped")))
}

func TestDeleteDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.db")
	s, err := NewStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.InitDB())
	require.FileExists(t, path)

	require.NoError(t, s.DeleteDB())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileRecorderName(t *testing.T) {
	f := FileRecorder{}
	assert.Equal(t, "Assistant_vs_Engine_Black_wins_by_checkmate_20240309_140507.txt", f.Name(sampleRecord("x")))

	rec := sampleRecord("x")
	rec.Reason = core.ReasonRestart
	rec.Message = ""
	assert.Equal(t, "Assistant_vs_Engine_restart_20240309_140507.txt", f.Name(rec))
}

func TestFileRecorderWritesRecord(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "records")
	f := FileRecorder{Dir: dir}
	rec := sampleRecord("x")

	require.NoError(t, f.SaveRecord(context.Background(), rec))
	data, err := os.ReadFile(f.Path(rec))
	require.NoError(t, err)
	assert.Equal(t, "Final position:\n|    | a   |\n\nGame record:\n1. f3 e5\n2. g4 Qh4#\n", string(data))

	rec.Reason = core.ReasonRestart
	rec.Message = "restart"
	assert.Contains(t, Format(rec), "Position before restart:\n")
}

type failingRecorder struct{ err error }

func (f failingRecorder) SaveRecord(context.Context, Record) error { return f.err }

func TestRecordersCollectsErrors(t *testing.T) {
	dir := t.TempDir()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	rs := Recorders{failingRecorder{errA}, FileRecorder{Dir: dir}, nil, failingRecorder{errB}}

	err := rs.SaveRecord(context.Background(), sampleRecord("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.FileExists(t, filepath.Join(dir, FileRecorder{}.Name(sampleRecord("x"))))

	assert.NoError(t, Recorders{FileRecorder{Dir: dir}}.SaveRecord(context.Background(), sampleRecord("y")))
}
