// FILE: internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const writeQueue = 1000

var ErrDegraded = errors.New("storage degraded")

// Store archives sessions in SQLite. Writes are queued and applied by a
// single writer goroutine; a failed write marks the store degraded and
// later writes are dropped.
type Store struct {
	db           *sql.DB
	path         string
	log          zerolog.Logger
	writeChan    chan writeOp
	healthStatus atomic.Bool
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	closeOnce    sync.Once
	closeErr     error
}

// writeOp is a queued transaction, or a barrier closed once reached.
type writeOp struct {
	fn      func(*sql.Tx) error
	barrier chan struct{}
}

// NewStore opens the database and starts the async writer
func NewStore(dataSourceName string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// pragmas are per connection
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:        db,
		path:      dataSourceName,
		log:       log.With().Str("component", "storage").Logger(),
		writeChan: make(chan writeOp, writeQueue),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.healthStatus.Store(true)

	s.wg.Add(1)
	go s.writerLoop()

	return s, nil
}

func (s *Store) writerLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// drain what is already queued
			for {
				select {
				case op := <-s.writeChan:
					s.apply(op)
				default:
					return
				}
			}

		case op := <-s.writeChan:
			s.apply(op)
		}
	}
}

func (s *Store) apply(op writeOp) {
	switch {
	case op.barrier != nil:
		close(op.barrier)
	case s.healthStatus.Load():
		s.executeWrite(op.fn)
	}
}

func (s *Store) executeWrite(fn func(*sql.Tx) error) {
	tx, err := s.db.Begin()
	if err != nil {
		s.log.Error().Err(err).Msg("storage degraded: failed to begin transaction")
		s.healthStatus.Store(false)
		return
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		s.log.Error().Err(err).Msg("storage degraded: write operation failed")
		s.healthStatus.Store(false)
		return
	}

	if err := tx.Commit(); err != nil {
		s.log.Error().Err(err).Msg("storage degraded: failed to commit")
		s.healthStatus.Store(false)
	}
}

// enqueue drops the write when degraded or when the queue is full.
func (s *Store) enqueue(what string, fn func(*sql.Tx) error) error {
	if !s.healthStatus.Load() {
		return nil
	}
	select {
	case s.writeChan <- writeOp{fn: fn}:
	default:
		s.log.Warn().Str("write", what).Msg("storage write queue full, dropping")
	}
	return nil
}

// RecordNewGame queues the games row for a session that just started.
func (s *Store) RecordNewGame(row GameRow) error {
	return s.enqueue("game", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO games (game_id, white_kind, black_kind, started_utc) VALUES (?, ?, ?, ?)`,
			row.GameID, row.WhiteKind, row.BlackKind, row.StartedUTC,
		)
		return err
	})
}

// RecordMove queues one applied move.
func (s *Store) RecordMove(row MoveRow) error {
	return s.enqueue("move", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO moves (
			game_id, move_number, san, uci, fen_after, player_color, attempts, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			row.GameID, row.MoveNumber, row.SAN, row.UCI,
			row.FENAfter, row.PlayerColor, row.Attempts, row.MoveTimeUTC,
		)
		return err
	})
}

// SaveRecord closes out the games row with the final position and reason.
// A game never announced with RecordNewGame is inserted.
func (s *Store) SaveRecord(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ended := rec.Ended
	if ended.IsZero() {
		ended = time.Now()
	}
	return s.enqueue("record", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO games (
			game_id, white_kind, black_kind, reason, message, final_fen, pgn, move_count, started_utc, ended_utc
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id) DO UPDATE SET
			reason = excluded.reason,
			message = excluded.message,
			final_fen = excluded.final_fen,
			pgn = excluded.pgn,
			move_count = excluded.move_count,
			ended_utc = excluded.ended_utc`,
			rec.SessionID, rec.White, rec.Black, string(rec.Reason), rec.Message,
			rec.FEN, rec.PGN, len(rec.Notation), rec.Timestamp.UTC(), ended.UTC(),
		)
		return err
	})
}

// Flush blocks until every write queued before the call has been applied.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case s.writeChan <- writeOp{barrier: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if !s.healthStatus.Load() {
		return ErrDegraded
	}
	return nil
}

// IsHealthy returns the current health status
func (s *Store) IsHealthy() bool {
	return s.healthStatus.Load()
}

// Close stops the writer after draining the queue and closes the database.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			s.log.Warn().Msg("storage writer shutdown timeout, some writes may be lost")
		}

		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// InitDB creates the database schema
func (s *Store) InitDB() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return tx.Commit()
}

// DeleteDB closes the store and removes the database file
func (s *Store) DeleteDB() error {
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete database file: %w", err)
	}

	return nil
}

// QueryGames lists archived games, newest first. Empty or "*" filters match all.
func (s *Store) QueryGames(gameID, reason string) ([]GameRow, error) {
	query := `SELECT
		game_id, white_kind, black_kind, reason, message, final_fen, pgn,
		move_count, started_utc, ended_utc
	FROM games WHERE 1=1`

	var args []any

	if gameID != "" && gameID != "*" {
		query += " AND game_id = ?"
		args = append(args, gameID)
	}
	if reason != "" && reason != "*" {
		query += " AND reason = ?"
		args = append(args, reason)
	}

	query += " ORDER BY started_utc DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRow
	for rows.Next() {
		var g GameRow
		err := rows.Scan(
			&g.GameID, &g.WhiteKind, &g.BlackKind, &g.Reason, &g.Message,
			&g.FinalFEN, &g.PGN, &g.MoveCount, &g.StartedUTC, &g.EndedUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		games = append(games, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return games, nil
}

// QueryMoves returns the moves of one game in play order.
func (s *Store) QueryMoves(gameID string) ([]MoveRow, error) {
	rows, err := s.db.Query(`SELECT
		move_id, game_id, move_number, san, uci, fen_after, player_color, attempts, move_time_utc
	FROM moves WHERE game_id = ? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var moves []MoveRow
	for rows.Next() {
		var m MoveRow
		if err := rows.Scan(
			&m.MoveID, &m.GameID, &m.MoveNumber, &m.SAN, &m.UCI,
			&m.FENAfter, &m.PlayerColor, &m.Attempts, &m.MoveTimeUTC,
		); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		moves = append(moves, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return moves, nil
}
