package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/metrics"
)

const statsKey = "reply_stats"

// replyStats counts what a handler sent back for one update. Sends may
// complete on dispatcher workers, so fields are atomic.
type replyStats struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

func (s *replyStats) add(keyboard bool) {
	s.messages.Add(1)
	if keyboard {
		s.keyboard.Store(true)
	}
}

func (s *replyStats) record(opts []any, err error) error {
	if err != nil {
		return err
	}
	kb := false
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			kb = kb || v != nil
		case *tele.SendOptions:
			kb = kb || (v != nil && v.ReplyMarkup != nil)
		}
	}
	s.add(kb)
	return nil
}

// countingContext observes outgoing messages on their way to Telegram.
type countingContext struct {
	tele.Context
	stats *replyStats
}

// CountQueued counts a reply handed to the send queue. The queued send then
// goes out on Unwrap() so it is not counted twice.
func (c countingContext) CountQueued(keyboard bool) { c.stats.add(keyboard) }

// Unwrap returns the context replies are finally sent on.
func (c countingContext) Unwrap() tele.Context { return c.Context }

func (c countingContext) Send(what any, opts ...any) error {
	return c.stats.record(opts, c.Context.Send(what, opts...))
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.stats.record(opts, c.Context.Reply(what, opts...))
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.stats.record(opts, c.Context.Edit(what, opts...))
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.stats.record(opts, c.Context.EditOrSend(what, opts...))
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.stats.record(opts, c.Context.EditOrReply(what, opts...))
}

// MessageMetricsMiddleware counts the update by kind and tracks the replies
// the handler sends, for Replies to report afterwards.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		metrics.TelegramUpdates.WithLabelValues(UpdateKind(c.Update())).Inc()
		stats := &replyStats{}
		c.Set(statsKey, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// Replies reports how many messages were sent for the update so far and
// whether any carried a keyboard.
func Replies(c tele.Context) (int, bool) {
	if s, ok := c.Get(statsKey).(*replyStats); ok && s != nil {
		return int(s.messages.Load()), s.keyboard.Load()
	}
	return 0, false
}

// UpdateKind classifies an update for rate limiting and metrics.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
