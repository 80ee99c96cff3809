package helpers

import (
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/telegram/sender"
)

// outbox queues replies per chat. While nil, replies go out inline.
var outbox atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the reply queue used by SendText and SendMarkup.
func SetDispatcher(d *sender.Dispatcher) {
	outbox.Store(d)
}

// queueCounter is implemented by contexts that count replies. A queued
// reply is counted on the handler goroutine and sent on the inner context.
type queueCounter interface {
	CountQueued(keyboard bool)
	Unwrap() tele.Context
}

// SendText sends plain text to the current chat.
func SendText(c tele.Context, text string) error {
	return SendMarkup(c, text, nil)
}

// SendMarkup sends plain text with an optional keyboard. Replies for one
// chat leave in the order they were queued.
func SendMarkup(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	sendOn := func(target tele.Context) func() error {
		return func() error {
			if markup == nil {
				return target.Send(text)
			}
			return target.Send(text, &tele.SendOptions{ReplyMarkup: markup})
		}
	}
	d := outbox.Load()
	if d == nil {
		return sendOn(c)()
	}

	target := c
	counter, counting := c.(queueCounter)
	if counting {
		target = counter.Unwrap()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, queueKey(c), "send.text", "sendMessage", sendOn(target))
	switch {
	case err == nil:
		if counting {
			counter.CountQueued(markup != nil)
		}
		return nil
	case errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, logger.CompTGSender, "queue.fallback", slog.Any("err", err))
		return sendOn(c)()
	}
	return err
}

func queueKey(c tele.Context) string {
	switch {
	case c.Chat() != nil:
		return strconv.FormatInt(c.Chat().ID, 10)
	case c.Sender() != nil:
		return strconv.FormatInt(c.Sender().ID, 10)
	}
	return ""
}
