// FILE: internal/core/core.go
package core

import (
	"fmt"
	"strings"
)

type Color byte

const (
	ColorWhite Color = iota + 1
	ColorBlack
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "white"
	case ColorBlack:
		return "black"
	default:
		return "-"
	}
}

// Name returns the capitalized side name used in prompts and messages.
func (c Color) Name() string {
	switch c {
	case ColorWhite:
		return "White"
	case ColorBlack:
		return "Black"
	default:
		return "-"
	}
}

// Short returns the single-letter form stored in the archive ("w" or "b").
func (c Color) Short() string {
	switch c {
	case ColorWhite:
		return "w"
	case ColorBlack:
		return "b"
	default:
		return "-"
	}
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// SourceKind selects which move source drives a side.
type SourceKind int

const (
	SourceHuman SourceKind = iota + 1
	SourceAssistant
	SourceEngine
)

func (k SourceKind) String() string {
	switch k {
	case SourceHuman:
		return "Human"
	case SourceAssistant:
		return "Assistant"
	case SourceEngine:
		return "Engine"
	default:
		return "Unknown"
	}
}

// ParseSourceKind accepts the menu numbers (1-3), the kind names and the
// historical aliases used in saved record names.
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "human":
		return SourceHuman, nil
	case "2", "assistant", "chatgpt", "gpt":
		return SourceAssistant, nil
	case "3", "engine", "stockfish":
		return SourceEngine, nil
	default:
		return 0, fmt.Errorf("unknown source kind: %q", s)
	}
}

// Encoding is the notation a proposal token is written in.
type Encoding int

const (
	EncodingAlgebraic Encoding = iota
	EncodingCoordinate
)

func (e Encoding) String() string {
	if e == EncodingCoordinate {
		return "coordinate"
	}
	return "algebraic"
}

// NoProposalToken is recorded as a tried move when a source produced nothing usable.
const NoProposalToken = "<none>"

// Proposal is an unvalidated move token produced by a move source.
type Proposal struct {
	Token    string
	Encoding Encoding
	Kind     SourceKind
}

// Signal is an operator event raised by a host.
type Signal int

const (
	SignalNone Signal = iota
	SignalPause
	SignalResume
	SignalFlip
	SignalStop
	SignalRestart
	SignalQuit
)

func (s Signal) String() string {
	switch s {
	case SignalPause:
		return "pause"
	case SignalResume:
		return "resume"
	case SignalFlip:
		return "flip"
	case SignalStop:
		return "stop"
	case SignalRestart:
		return "restart"
	case SignalQuit:
		return "quit"
	default:
		return "none"
	}
}

// ParseSignal maps a control action name to a Signal.
func ParseSignal(s string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pause":
		return SignalPause, nil
	case "resume":
		return SignalResume, nil
	case "flip":
		return SignalFlip, nil
	case "stop":
		return SignalStop, nil
	case "restart":
		return SignalRestart, nil
	case "quit", "exit":
		return SignalQuit, nil
	default:
		return SignalNone, fmt.Errorf("unknown action: %q", s)
	}
}

// Terminates reports whether the signal ends the current turn.
func (s Signal) Terminates() bool {
	return s == SignalStop || s == SignalRestart || s == SignalQuit
}
