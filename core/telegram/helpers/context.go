package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
)

// ctxSlot is where the per-update logging context lives on tele.Context.
const ctxSlot = "hrbot.ctx"

// StoreContext replaces the logging context kept on c.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxSlot, ctx)
	}
}

// ContextFrom returns the context saved by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxSlot).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the update's logging context, deriving it from the
// update ids on first use. The rid set by the logging middleware is reused.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}
	ctx := logger.WithUpdateMeta(logger.WithRID(logger.Background(), rid), updateID, userID, chatID)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the update's context with the serving handler.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	StoreContext(c, ctx)
	return ctx
}
