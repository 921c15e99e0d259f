// FILE: internal/api/server.go
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/control"
)

const gracefulShutdownTimeout = 5 * time.Second

// Server runs the fiber app next to the game and wakes long-poll clients
// from panel events.
type Server struct {
	app    *fiber.App
	viewer Viewer
	panel  *control.Panel
	waiter *WaitRegistry
	log    zerolog.Logger
}

func NewServer(viewer Viewer, panel *control.Panel, devMode bool, log zerolog.Logger) *Server {
	waiter := NewWaitRegistry(WaitTimeout)
	return &Server{
		app:    NewFiberApp(NewHTTPHandler(viewer, panel, waiter), devMode),
		viewer: viewer,
		panel:  panel,
		waiter: waiter,
		log:    log,
	}
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	events, cancel := s.panel.Subscribe()
	defer cancel()
	go s.watch(ctx, events)

	listenErr := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("API listening")
		listenErr <- s.app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down API server")
	var result *multierror.Error
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.waiter.Shutdown(gracefulShutdownTimeout); err != nil {
		result = multierror.Append(result, err)
	}
	if err := <-listenErr; err != nil && !errors.Is(err, context.Canceled) {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (s *Server) watch(ctx context.Context, events <-chan control.Event) {
	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.dispatch(ev, &last)
		}
	}
}

// dispatch wakes waiters of the current session on a move, and every
// waiter of a session that ended or was replaced.
func (s *Server) dispatch(ev control.Event, last *string) {
	cur := s.viewer.Current()
	if cur == nil {
		return
	}
	switch ev.Kind {
	case control.EventMove:
		s.waiter.NotifySession(cur.ID, len(cur.View().Moves))
	case control.EventGameOver:
		s.waiter.EndSession(cur.ID)
	case control.EventSession:
		if *last != "" && *last != cur.ID {
			s.waiter.EndSession(*last)
		}
	}
	*last = cur.ID
}
