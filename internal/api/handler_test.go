package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/session"
	"github.com/jimmyshjj/ChessGPT/internal/source"
	"github.com/jimmyshjj/ChessGPT/internal/turn"
)

type idle struct{}

func (idle) Kind() core.SourceKind { return core.SourceHuman }

func (idle) Propose(ctx context.Context, req source.Request) (source.Reply, error) {
	<-ctx.Done()
	return source.Reply{}, ctx.Err()
}

type fixed struct{ s *session.Session }

func (f fixed) Current() *session.Session { return f.s }

func newFixture(t *testing.T, withSession bool, wait time.Duration) (*fiber.App, *control.Panel, fixed) {
	t.Helper()
	panel := control.New(time.Millisecond)
	var v fixed
	if withSession {
		p := turn.Player{Config: core.PlayerConfig{Kind: core.SourceHuman}, Source: idle{}}
		s, err := session.New(session.Options{
			Players: map[core.Color]turn.Player{core.ColorWhite: p, core.ColorBlack: p},
			Panel:   panel,
			Turn:    turn.Config{MaxAttempts: 10},
			Log:     zerolog.Nop(),
		})
		require.NoError(t, err)
		v.s = s
	}
	app := NewFiberApp(NewHTTPHandler(v, panel, NewWaitRegistry(wait)), true)
	return app, panel, v
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	app, _, _ := newFixture(t, false, 0)
	code, body := do(t, app, fiber.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(body), `"status":"healthy"`)
}

func TestGetSessionBeforeStart(t *testing.T) {
	app, _, _ := newFixture(t, false, 0)
	code, body := do(t, app, fiber.MethodGet, "/api/v1/session", "")
	assert.Equal(t, fiber.StatusNotFound, code)

	var e core.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, core.ErrNoSession, e.Code)
}

func TestGetSession(t *testing.T) {
	app, _, v := newFixture(t, true, 0)
	code, body := do(t, app, fiber.MethodGet, "/api/v1/session", "")
	require.Equal(t, fiber.StatusOK, code)

	var resp core.SessionResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, v.s.ID, resp.SessionID)
	assert.Equal(t, "created", resp.Phase)
	assert.Equal(t, "white", resp.Turn)
	assert.Equal(t, "Human", resp.White)
	assert.Equal(t, []string{}, resp.Moves)
	assert.Equal(t, 10, resp.MaxAttempts)
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", resp.FEN)
}

func TestLongPollReturnsImmediatelyOnStaleCount(t *testing.T) {
	app, _, _ := newFixture(t, true, time.Minute)
	start := time.Now()
	code, _ := do(t, app, fiber.MethodGet, "/api/v1/session?wait=true&moveCount=3", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLongPollTimesOut(t *testing.T) {
	app, _, _ := newFixture(t, true, 50*time.Millisecond)
	start := time.Now()
	code, body := do(t, app, fiber.MethodGet, "/api/v1/session?wait=true&moveCount=0", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Contains(t, string(body), `"phase":"created"`)
}

func TestGetBoard(t *testing.T) {
	app, panel, _ := newFixture(t, true, 0)
	code, body := do(t, app, fiber.MethodGet, "/api/v1/session/board", "")
	require.Equal(t, fiber.StatusOK, code)

	var resp core.BoardResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Contains(t, resp.Board, "8 r n b q k b n r  8")

	panel.Send(core.SignalFlip)
	_, body = do(t, app, fiber.MethodGet, "/api/v1/session/board", "")
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, strings.HasPrefix(resp.Board, "  h g f e d c b a"))
}

func TestControl(t *testing.T) {
	app, panel, _ := newFixture(t, true, 0)

	code, body := do(t, app, fiber.MethodPost, "/api/v1/session/control", `{"action":"pause"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.True(t, panel.Paused())
	assert.Contains(t, string(body), `"paused":true`)

	code, _ = do(t, app, fiber.MethodPost, "/api/v1/session/control", `{"action":"stop"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, core.SignalStop, panel.Poll())
}

func TestControlRejectsBadRequests(t *testing.T) {
	app, panel, _ := newFixture(t, true, 0)

	code, body := do(t, app, fiber.MethodPost, "/api/v1/session/control", `{"action":"quit"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, string(body), "Action must be one of")

	code, _ = do(t, app, fiber.MethodPost, "/api/v1/session/control", `{"action":`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/session/control", strings.NewReader("action=pause"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	assert.Equal(t, core.SignalNone, panel.Poll())
}

func TestAnswer(t *testing.T) {
	app, panel, _ := newFixture(t, true, 0)

	code, body := do(t, app, fiber.MethodPost, "/api/v1/session/answer", `{"text":"e2e4"}`)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Contains(t, string(body), core.ErrNothingPending)

	got := make(chan string, 1)
	go func() {
		text, _ := panel.Ask(context.Background(), control.Ask{Kind: control.AskMove, Side: core.ColorWhite})
		got <- text
	}()
	require.Eventually(t, func() bool { _, ok := panel.Pending(); return ok }, time.Second, time.Millisecond)

	_, body = do(t, app, fiber.MethodGet, "/api/v1/session", "")
	assert.Contains(t, string(body), `"pending":"move"`)

	code, _ = do(t, app, fiber.MethodPost, "/api/v1/session/answer", `{"text":" e2e4 "}`)
	assert.Equal(t, fiber.StatusNoContent, code)
	assert.Equal(t, "e2e4", <-got)
}
