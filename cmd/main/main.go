package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/CTAG07/Runesmith/pkg/compilelog"
	"github.com/CTAG07/Runesmith/pkg/runesmith"
	"github.com/natefinch/atomic"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and either compiles the given files or serves the preview
// API until shut down.
func run(outW io.Writer, args []string) error {
	opts, shouldExit, err := parseArgs(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	if opts.Serve {
		return serve(opts)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return compileFiles(ctx, opts, outW)
}

// compileFiles compiles every file named in opts and writes each result to
// the output directory, stopping at the first failure.
func compileFiles(ctx context.Context, opts *Options, outW io.Writer) error {
	config, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(os.Stderr, levelFor(opts, config))

	outDir := config.Server.OutDir
	if opts.OutDir != "" {
		outDir = opts.OutDir
	}
	if err = os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	db, history, err := openHistory(config.Server, logger)
	if err != nil {
		return err
	}
	defer closeHistory(db, history, logger)

	rs := newRunesmith(config, logger, history)
	for _, file := range opts.Files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", file, err)
		}

		rs.ClearMap()
		out, err := rs.Compile(ctx, abs, nil)
		if err != nil {
			return fmt.Errorf("failed to compile %s: %w", file, err)
		}

		target := filepath.Join(outDir, filepath.Base(abs))
		if err = atomic.WriteFile(target, strings.NewReader(out)); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		logger.Debug("Compile map", "file", abs, "entries", len(rs.Map()))
		fmt.Fprintf(outW, "%s -> %s (%d bytes)\n", file, target, len(out))
	}
	return nil
}

// serve hosts the preview API, restarting it with a freshly loaded
// configuration whenever a restart is requested.
func serve(opts *Options) error {
	baseLogger := slog.Default()
	actionChan := make(chan string, 1)

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan
		baseLogger.Info("OS signal received, initiating shutdown.")
		actionChan <- actionShutdown
	}()

	for {
		action, err := runServer(opts, actionChan)
		if err != nil {
			return err
		}
		if action != actionRestart {
			break
		}
		baseLogger.Info("--- Server Restarting ---")
	}

	baseLogger.Info("Runesmith has shut down.")
	return nil
}

// runServer hosts the API for one cycle and returns the action that ended it.
func runServer(opts *Options, actionChan chan string) (string, error) {
	config, err := LoadConfig(opts.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := newLogger(os.Stdout, levelFor(opts, config))
	logger.Info("Starting server cycle...")

	db, history, err := openHistory(config.Server, logger)
	if err != nil {
		return "", err
	}
	defer closeHistory(db, history, logger)

	if history != nil && config.Server.HistoryRetentionHours > 0 {
		cutoff := time.Now().Add(-time.Duration(config.Server.HistoryRetentionHours) * time.Hour)
		if _, err = history.Prune(context.Background(), cutoff); err != nil {
			logger.Error("Failed to prune compile history", "error", err)
		}
	}

	rs := newRunesmith(config, logger, history)
	server := NewServer(config, logger, rs, history, actionChan)
	apiHttpServer := &http.Server{Addr: config.Server.ApiAddr, Handler: server.apiMux}

	go func() {
		logger.Info("Starting preview api server", "address", apiHttpServer.Addr)
		if err := apiHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Api server failed", "error", err)
		}
	}()

	action := <-actionChan

	logger.Info("Stopping server for " + action + "...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = apiHttpServer.Shutdown(ctx); err != nil {
		logger.Error("Api server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped.")

	return action, nil
}

func newRunesmith(config *Config, logger *slog.Logger, history *compilelog.Store) *runesmith.Runesmith {
	var opts []runesmith.Option
	if history != nil {
		opts = append(opts, runesmith.WithRecorder(history))
	}
	return runesmith.New(logger, config.Compiler, opts...)
}

// openHistory opens the compile history database. Both results are nil when
// no database path is configured.
func openHistory(config *ServerConfig, logger *slog.Logger) (*sql.DB, *compilelog.Store, error) {
	if config.HistoryDatabasePath == "" {
		logger.Debug("Compile history disabled")
		return nil, nil, nil
	}
	if config.DataDir != "" {
		if err := os.MkdirAll(config.DataDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := initDB(config.HistoryDatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = compilelog.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to setup history schema: %w", err)
	}
	store, err := compilelog.NewStore(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create history store: %w", err)
	}
	return db, store, nil
}

func closeHistory(db *sql.DB, store *compilelog.Store, logger *slog.Logger) {
	if store != nil {
		store.Close()
	}
	if db == nil {
		return
	}
	logger.Debug("Closing database connection.")
	if err := db.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	}
}

// levelFor picks the -log-level flag over the configured level.
func levelFor(opts *Options, config *Config) string {
	if opts.LogLevel != "" {
		return opts.LogLevel
	}
	return config.Server.LogLevel
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
