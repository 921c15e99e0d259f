// FILE: internal/storage/record.go
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/rules"
)

// Record is the board as it stood when a session ended or restarted.
type Record struct {
	SessionID string
	White     string
	Black     string
	Reason    core.Reason
	Message   string
	Timestamp time.Time // session start, used to name the record
	Ended     time.Time
	Diagram   string
	Notation  []string // SAN, one entry per half-move
	FEN       string
	PGN       string
}

// Recorder persists a finished or interrupted session.
type Recorder interface {
	SaveRecord(ctx context.Context, rec Record) error
}

// Recorders fans a record out to every recorder; one failing does not stop the others.
type Recorders []Recorder

func (rs Recorders) SaveRecord(ctx context.Context, rec Record) error {
	var result *multierror.Error
	for _, r := range rs {
		if r == nil {
			continue
		}
		if err := r.SaveRecord(ctx, rec); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

var (
	spaceRun = regexp.MustCompile(`\s+`)
	nonWord  = regexp.MustCompile(`[^\w\-]`)
)

// FileRecorder writes a plain-text record per session into Dir.
type FileRecorder struct {
	Dir string
}

// Name is "<White>_vs_<Black>_<message>_<timestamp>.txt", with the message
// reduced to word characters and dashes.
func (f FileRecorder) Name(rec Record) string {
	msg := rec.Message
	if msg == "" {
		msg = string(rec.Reason)
	}
	msg = nonWord.ReplaceAllString(spaceRun.ReplaceAllString(msg, "_"), "")
	return fmt.Sprintf("%s_vs_%s_%s_%s.txt", rec.White, rec.Black, msg, rec.Timestamp.Format(core.TimestampLayout))
}

func (f FileRecorder) Path(rec Record) string {
	return filepath.Join(f.Dir, f.Name(rec))
}

func (f FileRecorder) SaveRecord(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Dir != "" {
		if err := os.MkdirAll(f.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create record directory: %w", err)
		}
	}
	if err := os.WriteFile(f.Path(rec), []byte(Format(rec)), 0o644); err != nil {
		return fmt.Errorf("failed to write game record: %w", err)
	}
	return nil
}

// Format renders the record body: header, diagram, numbered game record.
func Format(rec Record) string {
	var sb strings.Builder
	if rec.Reason == core.ReasonRestart {
		sb.WriteString("Position before restart:\n")
	} else {
		sb.WriteString("Final position:\n")
	}
	sb.WriteString(rec.Diagram)
	sb.WriteString("\n\nGame record:\n")
	sb.WriteString(strings.Join(rules.NumberMoves(rec.Notation), "\n"))
	sb.WriteString("\n")
	return sb.String()
}
