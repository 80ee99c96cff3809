package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/hrbot/core/bootstrap"
	coreconfig "github.com/m3rciful/hrbot/core/config"
	"github.com/m3rciful/hrbot/core/logger"
)

// DefaultConfigEnv names the variable holding the config path.
const DefaultConfigEnv = "CONFIG_PATH"

// Options describe how to load configuration, bootstrap the app, and run it.
type Options struct {
	ConfigPath string

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(ctx context.Context, cfg *coreconfig.Config) (*bootstrap.App, error)

	ShutdownLogger func() error
	// Signals cancel the run context. Defaults to SIGINT and SIGTERM.
	Signals []os.Signal
}

// LoadApp loads configuration and bootstraps the app without starting any
// frontend. The caller owns app.Close and logger shutdown.
func LoadApp(ctx context.Context, opts Options) (*bootstrap.App, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("cmd: config path not provided via --config or %s", DefaultConfigEnv)
	}
	load := opts.LoadConfig
	if load == nil {
		load = coreconfig.Load
	}
	boot := opts.Bootstrap
	if boot == nil {
		boot = func(ctx context.Context, cfg *coreconfig.Config) (*bootstrap.App, error) {
			return bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
		}
	}

	log.Printf("loading config: %s", opts.ConfigPath)
	cfg, err := load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("cmd: failed to load config: %w", err)
	}
	app, err := boot(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	return app, nil
}

// Run bootstraps the app and runs every enabled frontend until a signal
// arrives or one of them fails.
func Run(ctx context.Context, opts Options) error {
	startedAt := time.Now()
	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := signal.NotifyContext(ctx, signals...)
	defer cancel()

	app, err := LoadApp(ctx, opts)
	if err != nil {
		return err
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn(context.Background(), logger.CompApp, "close", slog.String("err", err.Error()))
		}
	}()

	fronts, err := app.Frontends()
	if err != nil {
		return fmt.Errorf("cmd: %w", err)
	}
	return RunFrontends(ctx, fronts, startedAt)
}

// RunFrontends runs fronts concurrently. The first failure cancels the rest.
func RunFrontends(ctx context.Context, fronts []bootstrap.Frontend, startedAt time.Time) error {
	if len(fronts) == 0 {
		return errors.New("cmd: no frontend enabled")
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fronts {
		g.Go(func() error {
			if err := f.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", f.Name(), err)
			}
			return nil
		})
	}
	logger.Info(ctx, logger.CompApp, "ready",
		slog.Int("frontends", len(fronts)),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	err := g.Wait()
	logger.Info(context.Background(), logger.CompApp, "shutdown")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
