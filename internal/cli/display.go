// FILE: internal/cli/display.go
package cli

import (
	"strings"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

// Terminal color codes
const (
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

type palette struct {
	enabled bool
}

func (p palette) paint(color, text string) string {
	if !p.enabled {
		return text
	}
	return color + text + Reset
}

// Prompt returns a colored prompt string
func (p palette) Prompt(text string) string {
	if !p.enabled {
		return text + " > "
	}
	return Yellow + text + " > " + Reset
}

// Side returns the colored side name.
func (p palette) Side(c core.Color) string {
	if c == core.ColorWhite {
		return p.paint(Blue, c.Name())
	}
	return p.paint(Red, c.Name())
}

// Board colors an ASCII board: file and rank labels cyan, White pieces blue,
// Black pieces red.
func (p palette) Board(ascii string) string {
	if !p.enabled {
		return ascii
	}
	lines := strings.Split(ascii, "\n")
	var sb strings.Builder
	for i, line := range lines {
		labelLine := i == 0 || i == len(lines)-1
		for _, char := range line {
			switch {
			case char >= 'a' && char <= 'h' && labelLine:
				sb.WriteString(Cyan + string(char) + Reset)
			case char >= 'A' && char <= 'Z':
				sb.WriteString(Blue + string(char) + Reset)
			case char >= 'a' && char <= 'z':
				sb.WriteString(Red + string(char) + Reset)
			case char >= '1' && char <= '8':
				sb.WriteString(Cyan + string(char) + Reset)
			default:
				sb.WriteRune(char)
			}
		}
		if i < len(lines)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
