package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/hrbot/core/config"
	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/netutil"
	tghelpers "github.com/m3rciful/hrbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/hrbot/core/telegram/sender"
)

// Middleware is a named global middleware passed to bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a Telebot endpoint such as a command or tele.OnText.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher queues replies; one is created from DispatcherOptions when nil.
	Dispatcher        *tgsender.Dispatcher
	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to see.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram starts the bot and blocks until ctx is cancelled or the
// poller gives up. Cancellation is a clean stop.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, err := newBot(ctx, opts.Config)
	if err != nil {
		return err
	}
	rt := Runtime{Bot: bot, Dispatcher: opts.Dispatcher, Registry: opts.Registry}
	if rt.Dispatcher == nil {
		rt.Dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(rt.Dispatcher)
	defer func() {
		rt.Dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	SetupCommands(bot, rt.Registry)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := poll(ctx, bot)
	logger.Info(ctx, logger.CompTG, "stopped",
		slog.Uint64("sent", rt.Dispatcher.SentCount()),
		slog.Uint64("send_errors", rt.Dispatcher.ErrorCount()),
	)
	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// newBot builds the bot for the configured run mode. In long-poll mode a
// leftover webhook is removed, since getUpdates fails with 409 while one is set.
func newBot(ctx context.Context, cfg *coreconfig.Config) (*tele.Bot, error) {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: netutil.BuildHTTPClient(netutil.TelegramClientOptions()),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	took := slog.Duration("duration", time.Since(start))

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.Info(ctx, logger.CompTG, "mode", slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen), slog.String("public_url", p.Endpoint.PublicURL), took)
	case *tele.LongPoller:
		logger.Info(ctx, logger.CompTG, "mode", slog.String("mode", coreconfig.RunModeLongpoll),
			slog.Duration("timeout", p.Timeout), took)
		if err := bot.RemoveWebhook(false); err != nil {
			logger.Warn(ctx, logger.CompTG, "delete_webhook", slog.Any("err", err))
		}
	}
	return bot, nil
}

// poll runs bot.Start until it returns on its own or ctx ends.
func poll(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	}
}
