package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/studygate/internal/config"
	"github.com/roach88/studygate/internal/curriculum"
	"github.com/roach88/studygate/internal/metrics"
	"github.com/roach88/studygate/internal/practice"
	"github.com/roach88/studygate/internal/store"
	"github.com/roach88/studygate/internal/tracing"
)

// app is the wired engine stack for one command invocation.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *store.Store
	tracer   *tracing.Tracer
	gate     *curriculum.Gate
	recorder *practice.Recorder
}

// resolveConfig loads configuration and applies the global flag overrides.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.DB != "" {
		cfg.DB = opts.DB
	}
	if opts.MetricsTextfile != "" {
		cfg.MetricsTextfile = opts.MetricsTextfile
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(cfg config.Config, cmd *cobra.Command) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// openApp resolves configuration, opens the database and wires the engines.
// Failures are reported through f and returned as command errors.
func openApp(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter) (*app, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	logger := newLogger(cfg, cmd)
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStorage, err.Error(), nil)
	}
	logger.Debug("database opened", "path", cfg.DB)

	tracer := tracing.New(st, tracing.WithLogger(logger))
	gate := curriculum.NewGate(st, tracer, curriculum.WithLogger(logger))
	recorder := practice.NewRecorder(gate, tracer, st, practice.WithLogger(logger))

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		tracer:   tracer,
		gate:     gate,
		recorder: recorder,
	}, nil
}

// Close writes the metrics textfile, if configured, and closes the database.
func (a *app) Close() error {
	var errs []error
	if a.cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		} else {
			a.logger.Debug("metrics written", "path", a.cfg.MetricsTextfile)
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// closeApp closes a and folds a close failure into err.
func closeApp(a *app, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = WrapExitError(ExitCommandError, ErrCodeStorage, cerr)
	}
}
