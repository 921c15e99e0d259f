// FILE: internal/engine/engine.go
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	DefaultPath  = "stockfish"
	DefaultDepth = 20

	handshakeTimeout = 5 * time.Second
	stopTimeout      = 2 * time.Second
)

var (
	ErrClosed   = errors.New("engine closed unexpectedly")
	ErrNoMove   = errors.New("engine returned no move")
	ErrNotFound = errors.New("engine binary not found")
)

// Options configures the engine process and its searches.
type Options struct {
	Path            string
	Depth           int // search depth, used when MoveTime is zero
	MoveTime        time.Duration
	Threads         int
	Hash            int // MB
	MinThinkingTime time.Duration
	SkillLevel      int // 0-20, negative leaves the engine default
}

// UCI drives a UCI engine subprocess. A single reader goroutine forwards
// stdout lines; commands are serialized by mu.
type UCI struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	opts  Options

	mu       sync.Mutex
	position string
}

type SearchResult struct {
	BestMove string
	Score    int
	Depth    int
	IsMate   bool
	MateIn   int
}

// New starts the engine and completes the uci/isready handshake.
func New(ctx context.Context, opts Options) (*UCI, error) {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Depth <= 0 && opts.MoveTime <= 0 {
		opts.Depth = DefaultDepth
	}

	path, err := exec.LookPath(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, opts.Path)
	}
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	u := &UCI{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, 256),
		opts:  opts,
	}
	go u.readLoop(stdout)

	if err := u.initialize(ctx); err != nil {
		u.Close()
		return nil, err
	}

	return u, nil
}

func (u *UCI) readLoop(r io.Reader) {
	defer close(u.lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		u.lines <- scanner.Text()
	}
}

func (u *UCI) initialize(ctx context.Context) error {
	u.send("uci")
	if _, err := u.readUntil(ctx, handshakeTimeout, func(line string) bool {
		return line == "uciok"
	}); err != nil {
		return fmt.Errorf("uci handshake: %w", err)
	}

	if u.opts.Threads > 0 {
		u.setOption("Threads", u.opts.Threads)
	}
	if u.opts.Hash > 0 {
		u.setOption("Hash", u.opts.Hash)
	}
	if u.opts.MinThinkingTime > 0 {
		u.setOption("Minimum Thinking Time", int(u.opts.MinThinkingTime/time.Millisecond))
	}
	if u.opts.SkillLevel >= 0 {
		u.SetSkillLevel(u.opts.SkillLevel)
	}

	return u.waitReady(ctx)
}

// SetSkillLevel sets the Stockfish skill level (0-20)
func (u *UCI) SetSkillLevel(level int) {
	if level < 0 {
		level = 0
	} else if level > 20 {
		level = 20
	}
	u.setOption("Skill Level", level)
}

func (u *UCI) setOption(name string, value int) {
	u.send(fmt.Sprintf("setoption name %s value %d", name, value))
}

func (u *UCI) waitReady(ctx context.Context) error {
	u.send("isready")
	if _, err := u.readUntil(ctx, handshakeTimeout, func(line string) bool {
		return line == "readyok"
	}); err != nil {
		return fmt.Errorf("waiting for readyok: %w", err)
	}
	return nil
}

// readUntil consumes lines until match returns true and returns that line.
func (u *UCI) readUntil(ctx context.Context, timeout time.Duration, match func(string) bool) (string, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case line, ok := <-u.lines:
			if !ok {
				return "", ErrClosed
			}
			if match(line) {
				return line, nil
			}
		case <-deadline:
			return "", fmt.Errorf("timeout after %s", timeout)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (u *UCI) send(cmd string) {
	fmt.Fprintln(u.stdin, cmd)
}

func (u *UCI) NewGame(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.send("ucinewgame")
	return u.waitReady(ctx)
}

// SetPosition stores the position used by the next search.
func (u *UCI) SetPosition(fen string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.position = fen
}

// BestMove searches the current position and returns the coordinate token.
func (u *UCI) BestMove(ctx context.Context) (string, error) {
	res, err := u.Search(ctx)
	if err != nil {
		return "", err
	}
	return res.BestMove, nil
}

// Search runs a depth- or time-limited search on the stored position.
func (u *UCI) Search(ctx context.Context) (*SearchResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.position == "" {
		u.send("position startpos")
	} else {
		u.send("position fen " + u.position)
	}

	if u.opts.MoveTime > 0 {
		u.send(fmt.Sprintf("go movetime %d", u.opts.MoveTime/time.Millisecond))
	} else {
		u.send(fmt.Sprintf("go depth %d", u.opts.Depth))
	}

	result := &SearchResult{}
	line, err := u.readUntil(ctx, 0, func(line string) bool {
		if strings.HasPrefix(line, "info ") {
			parseInfo(line, result)
			return false
		}
		return strings.HasPrefix(line, "bestmove")
	})
	if err != nil {
		if ctx.Err() != nil {
			u.abort()
		}
		return nil, err
	}

	result.BestMove = parseBestMove(line)
	if result.BestMove == "" {
		return result, ErrNoMove
	}
	return result, nil
}

// abort stops a running search and drains its bestmove so the next search
// does not read a stale answer.
func (u *UCI) abort() {
	u.send("stop")
	u.readUntil(context.Background(), stopTimeout, func(line string) bool {
		return strings.HasPrefix(line, "bestmove")
	})
}

func parseInfo(line string, result *SearchResult) {
	fields := strings.Fields(line)
	for i := 0; i < len(fields)-1; i++ {
		switch fields[i] {
		case "depth":
			fmt.Sscanf(fields[i+1], "%d", &result.Depth)
		case "cp":
			fmt.Sscanf(fields[i+1], "%d", &result.Score)
			result.IsMate = false
		case "mate":
			fmt.Sscanf(fields[i+1], "%d", &result.MateIn)
			result.IsMate = true
			if result.MateIn > 0 {
				result.Score = 100000 - result.MateIn
			} else {
				result.Score = -100000 - result.MateIn
			}
		}
	}
}

// parseBestMove returns the move of a "bestmove" line, or "" for "(none)".
func parseBestMove(line string) string {
	parts := strings.Fields(line)
	if len(parts) < 2 || parts[1] == "(none)" || parts[1] == "0000" {
		return ""
	}
	return parts[1]
}

func (u *UCI) Close() error {
	u.send("quit")
	u.stdin.Close()

	// Try graceful shutdown first
	done := make(chan error, 1)
	go func() {
		done <- u.cmd.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(1 * time.Second):
		// Force kill if doesn't exit gracefully
		return u.cmd.Process.Kill()
	}
}
