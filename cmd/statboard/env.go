package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foxzi/statboard/internal/access"
	"github.com/foxzi/statboard/internal/backend"
	"github.com/foxzi/statboard/internal/config"
	"github.com/foxzi/statboard/internal/credential"
	"github.com/foxzi/statboard/internal/dashboard"
	"github.com/foxzi/statboard/internal/session"
	"github.com/foxzi/statboard/internal/stats"
)

// cliEnv is what every backend command runs against: the loaded config, the
// persisted credential and a session bootstrapped from it.
type cliEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *credential.BoltStore
	client  *backend.Client
	session *session.Manager
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := cmd.Flags().Changed("config")
	cfg, err := config.Load(cmd.Context(), config.ResolvePath(cfgFile, explicit))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the slog logger. Interactive commands log to stderr and
// stay quiet below warn unless --verbose is set.
func newLogger(cfg config.LoggingConfig, w io.Writer, quiet bool) *slog.Logger {
	level := parseLogLevel(cfg.Level)
	if quiet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openCredentials(path string) (*credential.BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}
	return credential.Open(path)
}

// openEnv wires the gateway and session for a CLI command. With resolve set
// the session is bootstrapped from the stored credential.
func openEnv(cmd *cobra.Command, resolve bool) (*cliEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging, os.Stderr, true)

	store, err := openCredentials(cfg.Credentials.Path)
	if err != nil {
		return nil, err
	}

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, store, logger)
	mgr := session.NewManager(client, store, logger)
	if resolve {
		mgr.Bootstrap(cmd.Context())
	}

	return &cliEnv{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		client:  client,
		session: mgr,
	}, nil
}

func (e *cliEnv) Close() error {
	return e.store.Close()
}

// require maps a non-Allow gate decision to an error
func (e *cliEnv) require(req access.Requirement) error {
	return access.Evaluate(e.session.Snapshot(), req).Err()
}

func (e *cliEnv) formatter() (*stats.Formatter, error) {
	return stats.NewFormatter(e.cfg.Display.Locale, e.cfg.Display.CurrencySymbol, e.cfg.Display.TruncateAt)
}

// withSession runs fn against a resolved session
func withSession(fn func(ctx context.Context, e *cliEnv, args []string) error) func(*cobra.Command, []string) error {
	return runEnv(true, fn)
}

// withGateway runs fn without resolving the session first
func withGateway(fn func(ctx context.Context, e *cliEnv, args []string) error) func(*cobra.Command, []string) error {
	return runEnv(false, fn)
}

func runEnv(resolve bool, fn func(ctx context.Context, e *cliEnv, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, resolve)
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(cmd.Context(), e, args)
	}
}

// viewError reduces a view loader failure to its user-facing message
func viewError(err error) error {
	var ve *dashboard.Error
	if errors.As(err, &ve) {
		return errors.New(ve.Message)
	}
	return err
}
