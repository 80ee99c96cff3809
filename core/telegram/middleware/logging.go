package middleware

import (
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/hrbot/core/telegram/helpers"
)

// seenUpdates remembers recently logged update ids so a chain applied on
// several branches logs each receipt once.
var seenUpdates = expirable.NewLRU[int, struct{}](4096, nil, 10*time.Second)

func firstSighting(updateID int) bool {
	if _, seen := seenUpdates.Get(updateID); seen {
		return false
	}
	seenUpdates.Add(updateID, struct{}{})
	return true
}

// LoggerMiddleware assigns the update's rid, stores its logging context and
// emits one sampled debug line describing the update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}
		upd := c.Update()
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())
		ctx := logger.WithUpdateMeta(logger.WithRID(logger.Background(), rid), upd.ID, userID, chatID)
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && firstSighting(upd.ID) {
			logger.Debug(ctx, logger.CompTG, "update.received", receiptAttrs(c, upd)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	attrs := []slog.Attr{slog.String("kind", UpdateKind(upd))}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	if upd.Callback != nil {
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		return appendNonEmpty(attrs, "cb_key", logger.SanitizeLimit(key, 128), "payload", logger.SanitizeLimit(payload, 256))
	}
	return appendNonEmpty(attrs, "payload", logger.SanitizeLimit(c.Text(), 256))
}

func appendNonEmpty(attrs []slog.Attr, kv ...string) []slog.Attr {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			attrs = append(attrs, slog.String(kv[i], kv[i+1]))
		}
	}
	return attrs
}
