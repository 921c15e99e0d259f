// FILE: internal/storage/schema.go
package storage

import "time"

// GameRow represents a row in the games table
type GameRow struct {
	GameID     string     `db:"game_id"`
	WhiteKind  string     `db:"white_kind"`
	BlackKind  string     `db:"black_kind"`
	Reason     string     `db:"reason"`
	Message    string     `db:"message"`
	FinalFEN   string     `db:"final_fen"`
	PGN        string     `db:"pgn"`
	MoveCount  int        `db:"move_count"`
	StartedUTC time.Time  `db:"started_utc"`
	EndedUTC   *time.Time `db:"ended_utc"`
}

// MoveRow represents a row in the moves table
type MoveRow struct {
	MoveID      int64     `db:"move_id"`
	GameID      string    `db:"game_id"`
	MoveNumber  int       `db:"move_number"`
	SAN         string    `db:"san"`
	UCI         string    `db:"uci"`
	FENAfter    string    `db:"fen_after"`
	PlayerColor string    `db:"player_color"` // "w" or "b"
	Attempts    int       `db:"attempts"`
	MoveTimeUTC time.Time `db:"move_time_utc"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id TEXT PRIMARY KEY,
	white_kind TEXT NOT NULL,
	black_kind TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	final_fen TEXT NOT NULL DEFAULT '',
	pgn TEXT NOT NULL DEFAULT '',
	move_count INTEGER NOT NULL DEFAULT 0,
	started_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ended_utc DATETIME
);

CREATE TABLE IF NOT EXISTS moves (
	move_id INTEGER PRIMARY KEY AUTOINCREMENT,
	game_id TEXT NOT NULL,
	move_number INTEGER NOT NULL,
	san TEXT NOT NULL,
	uci TEXT NOT NULL,
	fen_after TEXT NOT NULL,
	player_color TEXT NOT NULL CHECK(player_color IN ('w', 'b')),
	attempts INTEGER NOT NULL DEFAULT 1,
	move_time_utc DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (game_id) REFERENCES games(game_id) ON DELETE CASCADE,
	UNIQUE(game_id, move_number)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
CREATE INDEX IF NOT EXISTS idx_games_reason ON games(reason);
`
