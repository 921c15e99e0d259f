// FILE: cmd/chessgpt/main.go
// Package main runs a chess game between any combination of a human, a chat
// assistant and a local engine, from a text console or a full-screen TUI,
// with an optional HTTP observer API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/sourcegraph/conc"
	"golang.org/x/term"

	chesscli "github.com/jimmyshjj/ChessGPT/cmd/chessgpt/cli"
	"github.com/jimmyshjj/ChessGPT/internal/api"
	"github.com/jimmyshjj/ChessGPT/internal/assistant"
	"github.com/jimmyshjj/ChessGPT/internal/cli"
	"github.com/jimmyshjj/ChessGPT/internal/config"
	"github.com/jimmyshjj/ChessGPT/internal/control"
	"github.com/jimmyshjj/ChessGPT/internal/conversation"
	"github.com/jimmyshjj/ChessGPT/internal/core"
	"github.com/jimmyshjj/ChessGPT/internal/logging"
	"github.com/jimmyshjj/ChessGPT/internal/session"
	"github.com/jimmyshjj/ChessGPT/internal/storage"
	"github.com/jimmyshjj/ChessGPT/internal/tui"
)

func main() {
	// Maintenance subcommands
	if len(os.Args) > 1 && (os.Args[1] == "db" || os.Args[1] == "config") {
		if err := chesscli.Run(os.Args[1:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "CLI error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		configPath = flag.String("config", "", "Path to config file (default: search ./chessgpt.yaml, ~/.config/chessgpt)")
		white      = flag.String("white", "", "White player: human, assistant or engine (1-3)")
		black      = flag.String("black", "", "Black player: human, assistant or engine (1-3)")
		useTUI     = flag.Bool("tui", false, "Full-screen terminal UI")
		serveAPI   = flag.Bool("api", false, "Serve the HTTP observer API")
		listen     = flag.String("listen", "", "API listen address (overrides api.listen)")
		dev        = flag.Bool("dev", false, "Development mode (request log, relaxed rate limits)")
		pidPath    = flag.String("pid", "", "Optional PID file, locked for the life of the process")
		noColor    = flag.Bool("no-color", false, "Disable colors in the text console")
	)
	flag.Parse()

	if err := run(options{
		configPath: *configPath,
		white:      *white,
		black:      *black,
		tui:        *useTUI,
		api:        *serveAPI,
		listen:     *listen,
		dev:        *dev,
		pidPath:    *pidPath,
		color:      !*noColor && term.IsTerminal(int(os.Stdout.Fd())),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath   string
	white, black string
	tui, api     bool
	listen       string
	dev          bool
	pidPath      string
	color        bool
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.api {
		cfg.API.Enabled = true
	}
	if opts.listen != "" {
		cfg.API.Listen = opts.listen
	}

	logOut, closeLog, err := logDestination(cfg, opts.tui)
	if err != nil {
		return err
	}
	defer closeLog()
	log := logging.New(logOut, cfg.Logging.Level)

	if opts.pidPath != "" {
		release, err := lockInstance(opts.pidPath)
		if err != nil {
			return err
		}
		defer release()
	}

	kinds, err := resolveKinds(cfg, opts.white, opts.black)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "chess > ",
		HistoryFile:     filepath.Join(os.TempDir(), ".chessgpt_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize console: %w", err)
	}
	defer rl.Close()

	if err := cli.ChooseKinds(rl, rl.Stdout(), kinds); err != nil {
		return err
	}

	panel := control.New(cfg.Turn.PollInterval)
	contexts := conversation.NewStore()

	factory := &session.Factory{
		Config:   cfg,
		Kinds:    kinds,
		Panel:    panel,
		Contexts: contexts,
		Log:      log,
	}

	if kinds[core.ColorWhite] == core.SourceAssistant || kinds[core.ColorBlack] == core.SourceAssistant {
		if cfg.Assistant.APIKey == "" {
			key, err := cli.ReadAPIKey(rl.Stdout())
			if errors.Is(err, cli.ErrNotTerminal) {
				return fmt.Errorf("assistant.api_key is not set (use OPENAI_API_KEY or %s_ASSISTANT_API_KEY)", config.EnvPrefix)
			}
			if err != nil {
				return err
			}
			cfg.Assistant.APIKey = key
		}
		factory.Completer = assistant.NewClient(
			assistant.NewOpenAI(cfg.Assistant.APIKey, cfg.Assistant.BaseURL),
			panel,
			assistant.ClientConfig{MaxRetries: cfg.Assistant.MaxRetries, RetryDelay: cfg.Assistant.RetryDelay},
			log.With().Str("component", "assistant").Logger(),
		)
	}

	if cfg.Storage.Database != "" {
		store, err := storage.NewStore(cfg.Storage.Database, log.With().Str("component", "storage").Logger())
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close storage cleanly")
			}
		}()
		factory.Archive = store
	}

	runner := session.NewRunner(factory, panel, contexts, cfg.Conversation.ResetOnRestart, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr, apiErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		runErr = runner.Run(ctx)
		stop()
		// unblock a console read
		rl.Close()
	})

	if cfg.API.Enabled {
		srv := api.NewServer(runner, panel, opts.dev, log.With().Str("component", "api").Logger())
		wg.Go(func() {
			apiErr = srv.Serve(ctx, cfg.API.Listen)
		})
	}

	var hostErr error
	if opts.tui {
		rl.Close()
		hostErr = tui.Run(ctx, panel, runner)
	} else {
		hostErr = cli.New(rl, rl.Stdout(), panel, runner, opts.color).Run(ctx)
	}
	// the host returned: the operator quit or the game loop already ended
	panel.Send(core.SignalQuit)
	stop()
	wg.Wait()

	switch {
	case runErr != nil:
		return runErr
	case hostErr != nil:
		return hostErr
	default:
		return apiErr
	}
}

// resolveKinds takes flags over the config file. Sides left empty are asked
// for at startup.
func resolveKinds(cfg *config.Config, white, black string) (map[core.Color]core.SourceKind, error) {
	kinds := make(map[core.Color]core.SourceKind, 2)
	for side, flagValue := range map[core.Color]string{core.ColorWhite: white, core.ColorBlack: black} {
		value := flagValue
		if value == "" {
			value = cfg.Player(side).Kind
		}
		if value == "" {
			continue
		}
		kind, err := core.ParseSourceKind(value)
		if err != nil {
			return nil, fmt.Errorf("%s player: %w", side, err)
		}
		kinds[side] = kind
	}
	return kinds, nil
}

// logDestination keeps the console for the game: the TUI logs to a file in
// the log directory, or nowhere when that is unset.
func logDestination(cfg *config.Config, useTUI bool) (io.Writer, func(), error) {
	if !useTUI {
		return os.Stderr, func() {}, nil
	}
	if cfg.Logging.Dir == "" {
		return io.Discard, func() {}, nil
	}
	if err := os.MkdirAll(cfg.Logging.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(cfg.Logging.Dir, config.AppName+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
