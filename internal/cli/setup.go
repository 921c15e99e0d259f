// FILE: internal/cli/setup.go
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

var ErrNotTerminal = errors.New("stdin is not a terminal")

// ChooseKinds asks for every side without a configured source kind,
// repeating the question until the answer is 1, 2 or 3.
func ChooseKinds(input LineReader, output io.Writer, kinds map[core.Color]core.SourceKind) error {
	for _, side := range []core.Color{core.ColorWhite, core.ColorBlack} {
		if kinds[side] != 0 {
			continue
		}
		fmt.Fprintf(output, "Select %s player: 1) Human  2) Assistant  3) Engine\n", side.Name())
		for {
			input.SetPrompt(side.Name() + " > ")
			line, err := input.Readline()
			if err != nil {
				return fmt.Errorf("failed to read player kind: %w", err)
			}
			kind, err := core.ParseSourceKind(line)
			if err != nil {
				fmt.Fprintln(output, "Please enter 1, 2 or 3.")
				continue
			}
			kinds[side] = kind
			break
		}
	}
	return nil
}

// ReadAPIKey prompts for the assistant API key without echoing it.
func ReadAPIKey(output io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}
	fmt.Fprint(output, "Assistant API key: ")
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(output)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}
