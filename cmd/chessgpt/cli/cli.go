// FILE: cmd/chessgpt/cli/cli.go
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/jimmyshjj/ChessGPT/internal/config"
	"github.com/jimmyshjj/ChessGPT/internal/storage"
)

// Run is the entry point for the maintenance subcommands:
// db init|delete|query and config init.
func Run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: db or config")
	}

	switch args[0] {
	case "db":
		return runDB(args[1:], out)
	case "config":
		return runConfig(args[1:], out)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func runDB(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("db subcommand required: init, delete, or query")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], out)
	case "delete":
		return runDelete(args[1:], out)
	case "query":
		return runQuery(args[1:], out)
	default:
		return fmt.Errorf("unknown db subcommand: %s", args[0])
	}
}

func runConfig(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] != "init" {
		return fmt.Errorf("config subcommand required: init")
	}

	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	fs.SetOutput(out)
	path := fs.String("path", config.DefaultFile, "Config file to write")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if err := config.WriteDefault(*path, *force); err != nil {
		return err
	}
	fmt.Fprintf(out, "Default configuration written to: %s\n", *path)
	return nil
}

type dbFlags struct {
	path   string
	gameID string
	reason string
	moves  bool
}

func openStore(name string, args []string, out io.Writer) (*storage.Store, dbFlags, error) {
	var f dbFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&f.path, "path", config.DefaultDBPath, "Database file path")
	if name == "query" {
		fs.StringVar(&f.gameID, "gameId", "", "Game ID to filter (optional, * for all)")
		fs.StringVar(&f.reason, "reason", "", "End reason to filter (optional, * for all)")
		fs.BoolVar(&f.moves, "moves", false, "List the moves of each game")
	}

	if err := fs.Parse(args); err != nil {
		return nil, f, err
	}
	if f.path == "" {
		return nil, f, fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(f.path, zerolog.Nop())
	if err != nil {
		return nil, f, fmt.Errorf("failed to open store: %w", err)
	}
	return store, f, nil
}

func runInit(args []string, out io.Writer) error {
	store, f, err := openStore("init", args, out)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", f.path)
	return nil
}

func runDelete(args []string, out io.Writer) error {
	store, f, err := openStore("delete", args, out)
	if err != nil {
		return err
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", f.path)
	return nil
}

func runQuery(args []string, out io.Writer) error {
	store, f, err := openStore("query", args, out)
	if err != nil {
		return err
	}
	defer store.Close()

	games, err := store.QueryGames(f.gameID, f.reason)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(games) == 0 {
		fmt.Fprintln(out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tWhite\tBlack\tMoves\tResult\tStart Time")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, g := range games {
		result := g.Message
		if result == "" {
			result = "in progress"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			shortID(g.GameID),
			g.WhiteKind,
			g.BlackKind,
			g.MoveCount,
			result,
			g.StartedUTC.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	if f.moves {
		for _, g := range games {
			moves, err := store.QueryMoves(g.GameID)
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			fmt.Fprintf(out, "\n%s:\n", g.GameID)
			for _, m := range moves {
				fmt.Fprintf(out, "  %3d. %-8s %-6s attempts=%d\n", m.MoveNumber, m.SAN, m.UCI, m.Attempts)
			}
		}
	}

	fmt.Fprintf(out, "\nFound %d game(s)\n", len(games))
	return nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
