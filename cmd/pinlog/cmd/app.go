package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/hugo-lorenzo-mato/pinlog/internal/adapters/kv"
	"github.com/hugo-lorenzo-mato/pinlog/internal/config"
	"github.com/hugo-lorenzo-mato/pinlog/internal/controller"
	"github.com/hugo-lorenzo-mato/pinlog/internal/logging"
	"github.com/hugo-lorenzo-mato/pinlog/internal/metrics"
	"github.com/hugo-lorenzo-mato/pinlog/internal/persistence"
	"github.com/hugo-lorenzo-mato/pinlog/internal/store"
	"github.com/hugo-lorenzo-mato/pinlog/internal/tui"
)

// app holds everything a command needs to touch workouts.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	kv        kv.Store
	snapshots *persistence.Adapter
	store     *store.WorkoutStore
	ctl       *controller.Controller
	metrics   *metrics.Manager
	registry  *prometheus.Registry
	report    controller.LoadReport

	closers []func() error
}

// openApp wires the configured backend into a started controller. Extra
// options are applied after the defaults, so callers can swap in their views.
func openApp(ctx context.Context, extra ...controller.Option) (a *app, err error) {
	cfg, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	opened := &app{
		cfg:      cfg,
		logger:   logger,
		kv:       backend,
		store:    store.New(),
		registry: metrics.NewRegistry(),
	}
	opened.closers = append(opened.closers, backend.Close)
	defer func() {
		if err != nil {
			err = multierr.Append(err, opened.Close())
		}
	}()
	a = opened

	a.metrics = metrics.NewManager("pinlog", "", a.registry)
	a.snapshots = newSnapshots(cfg, backend, logger)

	opts := []controller.Option{
		controller.WithNotifier(consoleNotifier{w: os.Stderr}),
		controller.WithMetrics(a.metrics),
		controller.WithLogger(logger.WithComponent("controller")),
		controller.WithZoom(cfg.Map.Zoom),
	}
	a.ctl = controller.New(a.store, a.snapshots, append(opts, extra...)...)

	a.report, err = a.ctl.Start(ctx)
	if err != nil {
		return nil, err
	}
	if a.report.Discarded {
		logger.Warn("stored workouts were unreadable and have been ignored",
			slog.String("reason", a.report.Reason))
	}
	return a, nil
}

func openBackend(cfg *config.Config) (kv.Store, error) {
	backend, err := kv.New(kv.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Redis: kv.RedisOptions{
			Addr:      cfg.Store.Redis.Addr,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			KeyPrefix: cfg.Store.Redis.KeyPrefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	return backend, nil
}

func newSnapshots(cfg *config.Config, backend kv.Store, logger *logging.Logger) *persistence.Adapter {
	return persistence.New(backend,
		persistence.WithKey(cfg.Store.Key),
		persistence.WithRetryPolicy(persistence.NewRetryPolicy(
			persistence.WithMaxAttempts(cfg.Store.Retry.MaxAttempts),
			persistence.WithBaseDelay(cfg.Store.Retry.BaseDelayDuration()),
			persistence.WithMaxDelay(cfg.Store.Retry.MaxDelayDuration()),
		)),
		persistence.WithLogger(logger.WithComponent("persistence")),
	)
}

func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
}

// loadedConfig returns the config loaded by the root command, loading it
// when a command runs outside Execute.
func loadedConfig() (*config.Config, error) {
	if appConfig == nil {
		if err := initConfig(); err != nil {
			return nil, err
		}
	}
	return appConfig, nil
}

// commandContext returns the command's context, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Close releases the backend. Every closer runs even if an earlier one fails.
func (a *app) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}

// withApp opens the app, runs fn and closes the app, reporting close errors
// alongside fn's.
func withApp(ctx context.Context, fn func(a *app) error, extra ...controller.Option) (err error) {
	a, err := openApp(ctx, extra...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, a.Close())
	}()
	return fn(a)
}

// consoleNotifier prints controller notices to the terminal.
type consoleNotifier struct {
	w io.Writer
}

func (n consoleNotifier) Notify(_ context.Context, message string) {
	fmt.Fprintln(n.w, tui.ErrorStyle.Render(message))
}
