// FILE: internal/cli/cli.go
// Package cli is the line-oriented text host: it reads operator commands and
// move input, and prints game progress as it happens.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/jimmyshjj/ChessGPT/internal/board"
	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/rules"
	"github.com/jimmyshjj/ChessGPT/internal/session"
)

type CommandType int

const (
	CmdNone CommandType = iota
	CmdSignal
	CmdBoard
	CmdHistory
	CmdHelp
	CmdAnswer
)

type Command struct {
	Type   CommandType
	Signal core.Signal
	Raw    string
}

// LineReader is the subset of *readline.Instance the host uses.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// Viewer exposes the session currently being played. *session.Runner
// satisfies it.
type Viewer interface {
	Current() *session.Session
}

type CLI struct {
	input  LineReader
	output io.Writer
	panel  *control.Panel
	viewer Viewer
	colors palette

	mu sync.Mutex
}

func New(input LineReader, output io.Writer, panel *control.Panel, viewer Viewer, color bool) *CLI {
	return &CLI{
		input:  input,
		output: output,
		panel:  panel,
		viewer: viewer,
		colors: palette{enabled: color},
	}
}

// ParseCommand maps a line to a host command. Anything that is not a
// command answers the pending question, if there is one.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{Type: CmdNone}
	}

	switch strings.ToLower(input) {
	case "board", "b":
		return Command{Type: CmdBoard}
	case "history", "h":
		return Command{Type: CmdHistory}
	case "help", "?":
		return Command{Type: CmdHelp}
	}
	if sig, err := core.ParseSignal(input); err == nil {
		return Command{Type: CmdSignal, Signal: sig, Raw: input}
	}
	return Command{Type: CmdAnswer, Raw: input}
}

// Run reads lines until the operator quits, input ends or ctx is cancelled.
// Events from the panel are printed as they arrive.
func (c *CLI) Run(ctx context.Context) error {
	events, cancel := c.panel.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go c.printEvents(ctx, events)

	c.ShowWelcome()
	for {
		c.input.SetPrompt(c.prompt())
		line, err := c.input.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
			c.panel.Send(core.SignalQuit)
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if c.Handle(line) {
			return nil
		}
	}
}

// Handle executes one input line and reports whether the host should exit.
func (c *CLI) Handle(line string) bool {
	cmd := ParseCommand(line)
	switch cmd.Type {
	case CmdBoard:
		c.ShowBoard()
	case CmdHistory:
		c.ShowHistory()
	case CmdHelp:
		c.ShowHelp()
	case CmdSignal:
		c.panel.Send(cmd.Signal)
		return cmd.Signal == core.SignalQuit
	case CmdAnswer:
		if !c.panel.Answer(cmd.Raw) {
			c.ShowMessage("Nothing is waiting for input. Type 'help' for commands.")
		}
	case CmdNone:
		// empty enter answers a continue checkpoint
		if ask, ok := c.panel.Pending(); ok && ask.Kind == control.AskContinue {
			c.panel.Answer("")
		}
	}
	return false
}

func (c *CLI) prompt() string {
	if ask, ok := c.panel.Pending(); ok {
		switch ask.Kind {
		case control.AskMove:
			return c.colors.Prompt(ask.Side.Name() + " move")
		case control.AskGuidance:
			return c.colors.Prompt(ask.Side.Name() + " guidance")
		}
	}
	return c.colors.Prompt("chess")
}

func (c *CLI) printEvents(ctx context.Context, events <-chan control.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.showEvent(ev)
		}
	}
}

func (c *CLI) showEvent(ev control.Event) {
	switch ev.Kind {
	case control.EventMove:
		c.ShowMessage(fmt.Sprintf("%s plays %s", c.colors.Side(ev.Side), ev.Text))
		c.ShowBoard()
	case control.EventFlipped:
		c.ShowBoard()
	case control.EventSession:
		c.ShowMessage(c.colors.paint(Cyan, ev.Text))
		c.ShowBoard()
	default:
		if text := FormatEvent(ev); text != "" {
			c.ShowMessage(text)
		}
	}
}

// FormatEvent renders an event as a plain line, or "" for events the text
// host does not print.
func FormatEvent(ev control.Event) string {
	switch ev.Kind {
	case control.EventTurn:
		return ev.Side.Name() + " to move."
	case control.EventAttempt:
		return fmt.Sprintf("%s attempt %d/%d", ev.Side.Name(), ev.Attempt, ev.Max)
	case control.EventReply, control.EventIllegal, control.EventGuidance, control.EventAsk:
		return ev.Text
	case control.EventMove:
		return ev.Side.Name() + " plays " + ev.Text
	case control.EventGameOver:
		return "Game over: " + ev.Text
	case control.EventFlipped:
		return ""
	default:
		return ev.Text
	}
}

func (c *CLI) ShowMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.output, msg)
}

func (c *CLI) ShowError(err error) {
	c.ShowMessage(c.colors.paint(Red, fmt.Sprintf("Error: %v", err)))
}

func (c *CLI) ShowBoard() {
	s := c.viewer.Current()
	if s == nil {
		c.ShowMessage("No game in progress.")
		return
	}
	v := s.View()
	c.ShowMessage("\n" + c.colors.Board(board.ToASCII(v.Grid, c.panel.Flipped())) + "\n")
}

func (c *CLI) ShowHistory() {
	s := c.viewer.Current()
	if s == nil {
		c.ShowMessage("No game in progress.")
		return
	}
	v := s.View()
	if len(v.Moves) == 0 {
		c.ShowMessage("No moves yet.")
	}
	for _, line := range rules.NumberMoves(v.Moves) {
		c.ShowMessage(line)
	}
	c.ShowMessage(fmt.Sprintf("Current FEN: %s", v.FEN))
	c.ShowMessage(fmt.Sprintf("Game state: %s", v.Phase))
}

func (c *CLI) ShowHelp() {
	help := `Commands:
  <move>           - Enter a move when asked (e.g., e2e4, Nf3, e7e8q)
  pause / resume   - Hold or continue the game between attempts
  flip             - Flip the board orientation
  stop             - Save the record and exit
  restart          - Save the record and start a new game
  board            - Show the board
  history          - Show the move history
  quit/exit        - Exit the program
  help/?           - Show this help message

When asked for guidance, type the extra instructions for the assistant.
When the assistant is unreachable, press ENTER to keep waiting.`

	c.ShowMessage(help)
}

func (c *CLI) ShowWelcome() {
	c.ShowMessage(c.colors.paint(Cyan, "Welcome to ChessGPT!"))
	c.ShowMessage("Commands: pause, resume, flip, stop, restart, board, history, quit/exit, help/?")
	c.ShowMessage("")
}
