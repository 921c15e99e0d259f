// FILE: internal/logging/logging.go
// Package logging builds the process logger and the per-side transcript
// files that record every prompt and reply of a session.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

// New returns a console logger at the named level ("debug", "info", ...).
// An unknown level falls back to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Transcripts holds one log file per side for a single session.
type Transcripts struct {
	files   map[core.Color]*os.File
	loggers map[core.Color]zerolog.Logger
}

// TranscriptName is "<side>_<timestamp>.log".
func TranscriptName(side core.Color, ts time.Time) string {
	return fmt.Sprintf("%s_%s.log", side, ts.Format(core.TimestampLayout))
}

// OpenTranscripts creates white_<ts>.log and black_<ts>.log in dir. An
// empty dir disables transcripts; the loggers then discard everything.
func OpenTranscripts(dir string, ts time.Time) (*Transcripts, error) {
	t := &Transcripts{
		files:   make(map[core.Color]*os.File),
		loggers: make(map[core.Color]zerolog.Logger),
	}
	if dir == "" {
		return t, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	for _, side := range []core.Color{core.ColorWhite, core.ColorBlack} {
		f, err := os.OpenFile(filepath.Join(dir, TranscriptName(side, ts)), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("failed to open %s transcript: %w", side, err)
		}
		t.files[side] = f
		t.loggers[side] = zerolog.New(f).With().Timestamp().Str("side", side.String()).Logger()
	}
	return t, nil
}

// For returns the transcript logger of a side.
func (t *Transcripts) For(side core.Color) zerolog.Logger {
	if l, ok := t.loggers[side]; ok {
		return l
	}
	return zerolog.Nop()
}

func (t *Transcripts) Close() error {
	var result *multierror.Error
	for side, f := range t.files {
		if err := f.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s transcript: %w", side, err))
		}
		delete(t.files, side)
	}
	return result.ErrorOrNil()
}
