package state

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
	tghelpers "github.com/m3rciful/hrbot/core/telegram/helpers"
)

const senderKey = "sender_id"

// WithSender derives the conversation id from the chat and stores it on
// the context for handlers. Private chats map one-to-one to users.
func WithSender() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			id := SenderID(c)
			if id != "" {
				c.Set(senderKey, id)
				ctx := logger.WithSender(tghelpers.BuildContext(c), id)
				tghelpers.StoreContext(c, ctx)
			}
			return next(c)
		}
	}
}

// SenderID returns the conversation id for c.
func SenderID(c tele.Context) string {
	if v, ok := c.Get(senderKey).(string); ok && v != "" {
		return v
	}
	if chat := c.Chat(); chat != nil {
		return strconv.FormatInt(chat.ID, 10)
	}
	if user := c.Sender(); user != nil {
		return strconv.FormatInt(user.ID, 10)
	}
	return ""
}
