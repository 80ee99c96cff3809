package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/hrbot/core/telegram"
	"github.com/m3rciful/hrbot/core/telegram/callbacks"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches inline button presses by their unique key.
// Handlers answer the callback themselves so they can attach a toast.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	press := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + handlerName(key)

		if h, ok := reg.GetCallback(key); ok && h != nil {
			return served(c, name, h, slog.String("cb_key", key))
		}
		missing := reg.CallbackNotFound()
		if missing == nil {
			missing = opts.NotFound
		}
		return served(c, name, missing, slog.String("cb_key", key), slog.String("reason", "not_found"))
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrapRoute(press)}
}
