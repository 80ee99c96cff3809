package middleware

import (
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
	tghelpers "github.com/m3rciful/hrbot/core/telegram/helpers"
)

// RecoverMiddleware turns a handler panic into an error log. A pending
// callback is still answered so the client stops its spinner.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(tghelpers.BuildContext(c), logger.CompTG, "tg.panic",
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
			if c.Callback() != nil {
				_ = c.Respond()
			}
			err = nil
		}()
		return next(c)
	}
}
