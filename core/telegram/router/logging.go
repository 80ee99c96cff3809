package router

import (
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
	tghelpers "github.com/m3rciful/hrbot/core/telegram/helpers"
	"github.com/m3rciful/hrbot/core/telegram/middleware"
	"github.com/m3rciful/hrbot/core/telegram/state"
)

// served runs h under the handler name and logs one summary line for it.
// A nil h is logged as skipped.
func served(c tele.Context, name string, h tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)

	var err error
	status, outcome := "ok", "ok"
	switch {
	case h == nil:
		status = "skip"
	default:
		if err = h(c); err != nil {
			status, outcome = "fail", "fail"
		}
	}

	msgs, kb := middleware.Replies(c)
	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}, extras...)
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.Warn(ctx, logger.CompTG, "handler.handled", attrs...)
		return err
	}
	logger.Info(ctx, logger.CompTG, "handler.handled", attrs...)
	return nil
}

// handlerName turns a command or callback key into a log-friendly name.
func handlerName(key string) string {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(key, " ", "_"))
}

// wrapRoute applies the per-route chain every handler shares.
func wrapRoute(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(state.WithSender()(h)))
}
