// FILE: internal/api/handler.go
// Package api serves the running session over HTTP: observers read the
// state and long-poll for moves, and operators send control actions or
// answer pending questions.
package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jimmyshjj/ChessGPT/internal/board"
	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/session"
)

const rateLimitRate = 10 // req/sec

// Viewer exposes the session currently being played. *session.Runner
// satisfies it.
type Viewer interface {
	Current() *session.Session
}

type HTTPHandler struct {
	viewer Viewer
	panel  *control.Panel
	waiter *WaitRegistry
}

func NewHTTPHandler(viewer Viewer, panel *control.Panel, waiter *WaitRegistry) *HTTPHandler {
	return &HTTPHandler{viewer: viewer, panel: panel, waiter: waiter}
}

func NewFiberApp(h *HTTPHandler, devMode bool) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          WaitTimeout + 5*time.Second,
		IdleTimeout:           30 * time.Second,
		DisableStartupMessage: true,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	if devMode {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))
	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Get("/session", h.GetSession)
	api.Get("/session/board", h.GetBoard)
	api.Post("/session/control", h.Control)
	api.Post("/session/answer", h.Answer)

	return app
}

// Health check endpoint
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *HTTPHandler) current() (*session.Session, error) {
	s := h.viewer.Current()
	if s == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "no session has started")
	}
	return s, nil
}

// GetSession returns the session state. With wait=true it holds the request
// until the move count differs from moveCount, the session ends, or the wait
// times out.
func (h *HTTPHandler) GetSession(c *fiber.Ctx) error {
	s, err := h.current()
	if err != nil {
		return err
	}

	if c.Query("wait", "false") != "true" {
		return c.JSON(h.sessionResponse(s))
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		moveCount = -1
	}

	v := s.View()
	if len(v.Moves) != moveCount || v.Phase == core.PhaseTerminated || v.Phase == core.PhaseRestarting {
		return c.JSON(h.sessionResponse(s))
	}

	ctx := c.Context()
	notify, cancel := h.waiter.RegisterWait(ctx, s.ID, moveCount)
	defer cancel()

	select {
	case <-notify:
		// a restart may have replaced the session while waiting
		if next := h.viewer.Current(); next != nil {
			s = next
		}
		return c.JSON(h.sessionResponse(s))
	case <-ctx.Done():
		return nil
	}
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	s, err := h.current()
	if err != nil {
		return err
	}
	v := s.View()
	return c.JSON(core.BoardResponse{
		FEN:   v.FEN,
		Board: board.ToASCII(v.Grid, h.panel.Flipped()),
	})
}

// Control feeds an operator action to the running game.
func (h *HTTPHandler) Control(c *fiber.Ctx) error {
	req, err := validatedBody[core.ControlRequest](c)
	if err != nil {
		return err
	}
	sig, err := core.ParseSignal(req.Action)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	h.panel.Send(sig)

	if s := h.viewer.Current(); s != nil {
		return c.JSON(h.sessionResponse(s))
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// Answer resolves the pending question: a human move, guidance text, or the
// continue checkpoint.
func (h *HTTPHandler) Answer(c *fiber.Ctx) error {
	req, err := validatedBody[core.AnswerRequest](c)
	if err != nil {
		return err
	}
	if !h.panel.Answer(strings.TrimSpace(req.Text)) {
		return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
			Error: "nothing is waiting for input",
			Code:  core.ErrNothingPending,
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTPHandler) sessionResponse(s *session.Session) core.SessionResponse {
	v := s.View()
	resp := core.SessionResponse{
		SessionID:   v.ID,
		Timestamp:   v.Started.Format(core.TimestampLayout),
		Phase:       v.Phase.String(),
		Turn:        strings.ToLower(v.Turn.Name()),
		FEN:         v.FEN,
		Moves:       v.Moves,
		White:       v.White.String(),
		Black:       v.Black.String(),
		Attempt:     v.Attempt,
		MaxAttempts: v.MaxAttempts,
		Paused:      h.panel.Paused(),
		Flipped:     h.panel.Flipped(),
		Reason:      string(v.Reason),
		Message:     v.Message,
	}
	if resp.Moves == nil {
		resp.Moves = []string{}
	}
	if ask, ok := h.panel.Pending(); ok {
		resp.Pending = ask.Kind.String()
	}
	return resp
}
