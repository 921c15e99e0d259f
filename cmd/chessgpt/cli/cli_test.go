package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/storage"
)

func TestDBLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.db")
	var out bytes.Buffer

	require.NoError(t, Run([]string{"db", "init", "-path", path}, &out))
	assert.Contains(t, out.String(), "Database initialized at: "+path)

	out.Reset()
	require.NoError(t, Run([]string{"db", "query", "-path", path}, &out))
	assert.Equal(t, "No games found\n", out.String())

	store, err := storage.NewStore(path, zerolog.Nop())
	require.NoError(t, err)
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordNewGame(storage.GameRow{GameID: "0123456789abcdef", WhiteKind: "Engine", BlackKind: "Human", StartedUTC: started}))
	require.NoError(t, store.RecordMove(storage.MoveRow{GameID: "0123456789abcdef", MoveNumber: 1, SAN: "e4", UCI: "e2e4", PlayerColor: "w", Attempts: 1, MoveTimeUTC: started}))
	require.NoError(t, store.SaveRecord(context.Background(), storage.Record{
		SessionID: "0123456789abcdef", White: "Engine", Black: "Human",
		Reason: core.ReasonStopped, Message: "stopped", Timestamp: started, Notation: []string{"e4"},
	}))
	require.NoError(t, store.Flush(context.Background()))
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, Run([]string{"db", "query", "-path", path, "-moves"}, &out))
	assert.Contains(t, out.String(), "01234567...")
	assert.Contains(t, out.String(), "Engine")
	assert.Contains(t, out.String(), "2024-03-01 12:00:00")
	assert.Contains(t, out.String(), "e2e4")
	assert.Contains(t, out.String(), "Found 1 game(s)")

	out.Reset()
	require.NoError(t, Run([]string{"db", "query", "-path", path, "-reason", "checkmate"}, &out))
	assert.Equal(t, "No games found\n", out.String())

	out.Reset()
	require.NoError(t, Run([]string{"db", "delete", "-path", path}, &out))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chessgpt.yaml")
	var out bytes.Buffer

	require.NoError(t, Run([]string{"config", "init", "-path", path}, &out))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_attempts: 10")

	assert.Error(t, Run([]string{"config", "init", "-path", path}, &out))
	assert.NoError(t, Run([]string{"config", "init", "-path", path, "-force"}, &out))
}

func TestRunRejectsUnknownCommands(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, Run(nil, &out))
	assert.Error(t, Run([]string{"serve"}, &out))
	assert.Error(t, Run([]string{"db"}, &out))
	assert.Error(t, Run([]string{"db", "drop"}, &out))
	assert.Error(t, Run([]string{"config"}, &out))
}
