// FILE: internal/tui/app.go
// Full-screen host for a running game. Panel events arrive as messages,
// the board and status are re-read from the current session on every
// render, and a text input opens whenever a question is pending.

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jimmyshjj/ChessGPT/internal/board"
	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/session"
)

const (
	refreshInterval = 250 * time.Millisecond
	logLines        = 12
)

// Viewer exposes the session currently being played. *session.Runner
// satisfies it.
type Viewer interface {
	Current() *session.Session
}

type eventMsg control.Event

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	whiteStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	blackStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD166"))
)

// App is the bubbletea model.
type App struct {
	panel  *control.Panel
	viewer Viewer
	events <-chan control.Event

	input textinput.Model
	ask   control.Ask
	// asking is true while the input answers a pending question
	asking bool

	log      []string
	width    int
	quitting bool
}

func New(panel *control.Panel, viewer Viewer, events <-chan control.Event) *App {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 2000
	input.Blur()

	return &App{
		panel:  panel,
		viewer: viewer,
		events: events,
		input:  input,
	}
}

// Run shows the TUI until the operator quits or ctx is cancelled.
func Run(ctx context.Context, panel *control.Panel, viewer Viewer) error {
	events, cancel := panel.Subscribe()
	defer cancel()

	p := tea.NewProgram(New(panel, viewer, events), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.waitEvent(), tick())
}

func (a *App) waitEvent() tea.Cmd {
	if a.events == nil {
		return nil
	}
	ch := a.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.input.Width = max(20, msg.Width-8)
		return a, nil

	case eventMsg:
		a.record(control.Event(msg))
		return a, tea.Batch(a.waitEvent(), a.syncAsk())

	case tickMsg:
		return a, tea.Batch(tick(), a.syncAsk())

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a.quit()
	}

	if a.asking {
		if msg.Type == tea.KeyEnter {
			text := strings.TrimSpace(a.input.Value())
			a.input.Reset()
			if a.panel.Answer(text) {
				a.asking = false
				a.input.Blur()
			}
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a.quit()
	case "p":
		a.panel.TogglePause()
	case "f":
		a.panel.Send(core.SignalFlip)
	case "s":
		a.panel.Send(core.SignalStop)
	case "r":
		a.panel.Send(core.SignalRestart)
	}
	return a, nil
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	a.quitting = true
	a.panel.Send(core.SignalQuit)
	return a, tea.Quit
}

// syncAsk opens the input for a new question and closes it once the
// question is gone.
func (a *App) syncAsk() tea.Cmd {
	ask, ok := a.panel.Pending()
	switch {
	case ok && (!a.asking || ask != a.ask):
		a.ask = ask
		a.asking = true
		a.input.Reset()
		a.input.Placeholder = placeholder(ask)
		return a.input.Focus()
	case !ok && a.asking:
		a.asking = false
		a.input.Blur()
	}
	return nil
}

func placeholder(ask control.Ask) string {
	switch ask.Kind {
	case control.AskMove:
		return "e2e4, Nf3, e7e8q"
	case control.AskGuidance:
		return "extra instructions for the assistant"
	default:
		return "press enter to keep waiting"
	}
}

func (a *App) record(ev control.Event) {
	var line string
	switch ev.Kind {
	case control.EventAttempt, control.EventFlipped:
		return
	case control.EventMove:
		line = fmt.Sprintf("%s plays %s", ev.Side.Name(), ev.Text)
	case control.EventGameOver:
		line = alertStyle.Render("Game over: " + ev.Text)
	case control.EventIllegal:
		line = mutedStyle.Render(ev.Text)
	default:
		line = ev.Text
	}
	if line == "" {
		return
	}
	a.log = append(a.log, ev.Time.Format("15:04:05")+" "+line)
	if len(a.log) > logLines {
		a.log = a.log[len(a.log)-logLines:]
	}
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	sections := []string{titleStyle.Render("♞ ChessGPT")}

	s := a.viewer.Current()
	if s == nil {
		sections = append(sections, mutedStyle.Render("Waiting for the game to start..."))
	} else {
		v := s.View()
		left := boxStyle.Render(renderBoard(board.ToASCII(v.Grid, a.panel.Flipped())))
		right := boxStyle.Width(max(30, a.width-30)).Render(a.renderStatus(v))
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	}

	if len(a.log) > 0 {
		sections = append(sections, boxStyle.Render(strings.Join(a.log, "\n")))
	}
	if a.asking {
		sections = append(sections, alertStyle.Render(a.ask.Prompt), a.input.View())
	}
	sections = append(sections, mutedStyle.Render(a.help()))
	return strings.Join(sections, "\n")
}

func (a *App) renderStatus(v session.View) string {
	lines := []string{
		fmt.Sprintf("%s %s  %s %s", whiteStyle.Render("White"), v.White, blackStyle.Render("Black"), v.Black),
		labelStyle.Render("Phase: ") + v.Phase.String(),
	}
	if v.Phase == core.PhaseInProgress {
		lines = append(lines, labelStyle.Render("Turn: ")+v.Turn.Name())
		if v.Attempt > 0 {
			lines = append(lines, labelStyle.Render("Attempt: ")+fmt.Sprintf("%d/%d", v.Attempt, v.MaxAttempts))
		}
	}
	if a.panel.Paused() {
		lines = append(lines, alertStyle.Render("PAUSED"))
	}
	if v.Message != "" {
		lines = append(lines, alertStyle.Render(v.Message))
	}
	if n := len(v.Moves); n > 0 {
		lines = append(lines, "", labelStyle.Render("Moves:"))
		history := v.Moves
		if n > 16 {
			history = history[n-16:]
		}
		lines = append(lines, strings.Join(history, " "))
	}
	return strings.Join(lines, "\n")
}

func (a *App) help() string {
	if a.asking {
		return "enter: submit · ctrl+c: quit"
	}
	return "p: pause/resume · f: flip · s: stop · r: restart · q: quit"
}

// renderBoard styles White pieces blue and Black pieces red; labels and
// empty squares stay plain.
func renderBoard(ascii string) string {
	lines := strings.Split(ascii, "\n")
	for i, line := range lines {
		if i == 0 || i == len(lines)-1 {
			continue
		}
		var sb strings.Builder
		for _, char := range line {
			switch {
			case char >= 'A' && char <= 'Z':
				sb.WriteString(whiteStyle.Render(string(char)))
			case char >= 'a' && char <= 'z':
				sb.WriteString(blackStyle.Render(string(char)))
			default:
				sb.WriteRune(char)
			}
		}
		lines[i] = sb.String()
	}
	return strings.Join(lines, "\n")
}
