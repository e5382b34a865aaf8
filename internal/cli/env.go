package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/docgraph/internal/config"
	"github.com/roach88/docgraph/internal/engine"
	"github.com/roach88/docgraph/internal/store"
)

// env is the opened store and engine a command works against.
type env struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger
}

// loadConfig resolves configuration and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Resolve(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// newLogger writes text logs to w at the configured level, or Debug with
// --verbose.
func newLogger(w io.Writer, cfg *config.Config, verbose bool) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openEnv opens the configured database. Callers must Close it.
func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg, opts.Verbose)

	st, err := store.Open(cfg.Database, store.Options{
		Algorithm:    cfg.Algorithm(),
		Compression:  cfg.CompressionTag(),
		CacheTTL:     cfg.Cache.TTL,
		CacheCleanup: cfg.Cache.Cleanup,
		Authorizer:   store.NewStaticAuthorizer(cfg.Certifiers...),
		Logger:       logger,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &env{
		cfg:    cfg,
		store:  st,
		engine: engine.New(st, engine.WithMaxDepth(cfg.MaxDepth), engine.WithLogger(logger)),
		logger: logger,
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}
