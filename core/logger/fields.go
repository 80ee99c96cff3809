package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
)

type ctxKey int

const (
	keyLogger ctxKey = iota
	keyRID
	keyUpdate
	keyHandler
	keySender
	keyAction
)

// updateMeta identifies the Telegram update a log line belongs to.
type updateMeta struct {
	updateID int
	userID   int64
	chatID   int64
}

// contextFields lists what the handler copies from ctx into every line.
// Attributes passed explicitly win over these.
var contextFields = []struct {
	key string
	get func(context.Context) any
}{
	{"rid", func(ctx context.Context) any { return RIDFrom(ctx) }},
	{"sender_id", func(ctx context.Context) any { return SenderFrom(ctx) }},
	{"action", func(ctx context.Context) any { return ActionFrom(ctx) }},
	{"handler", func(ctx context.Context) any { return HandlerFrom(ctx) }},
	{"update_id", func(ctx context.Context) any { return int64(meta(ctx).updateID) }},
	{"user_id", func(ctx context.Context) any { return meta(ctx).userID }},
	{"chat_id", func(ctx context.Context) any { return ChatIDFrom(ctx) }},
}

func with(ctx context.Context, key ctxKey, v any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, v)
}

// withString leaves ctx untouched for empty values.
func withString(ctx context.Context, key ctxKey, v string) context.Context {
	if v == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return with(ctx, key, v)
}

func str(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

func meta(ctx context.Context) updateMeta {
	if ctx == nil {
		return updateMeta{}
	}
	m, _ := ctx.Value(keyUpdate).(updateMeta)
	return m
}

// Background is the root context for lines logged outside any request.
func Background() context.Context {
	return context.Background()
}

// WithLogger carries a preconfigured logger, usually a component scope.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return with(ctx, keyLogger, l)
}

// FromContext returns the logger stored in ctx, or the base logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(keyLogger).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID sets the correlation id.
func WithRID(ctx context.Context, rid string) context.Context { return with(ctx, keyRID, rid) }

// RIDFrom returns the correlation id.
func RIDFrom(ctx context.Context) string { return str(ctx, keyRID) }

// WithUpdateMeta records the Telegram update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return with(ctx, keyUpdate, updateMeta{updateID: updateID, userID: userID, chatID: chatID})
}

// ChatIDFrom returns the Telegram chat id, or 0.
func ChatIDFrom(ctx context.Context) int64 { return meta(ctx).chatID }

// WithHandler names the Telegram handler serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	return withString(ctx, keyHandler, handler)
}

// HandlerFrom returns the handler name.
func HandlerFrom(ctx context.Context) string { return str(ctx, keyHandler) }

// WithSender sets the conversation id.
func WithSender(ctx context.Context, senderID string) context.Context {
	return withString(ctx, keySender, senderID)
}

// SenderFrom returns the conversation id.
func SenderFrom(ctx context.Context) string { return str(ctx, keySender) }

// WithAction sets the running action name.
func WithAction(ctx context.Context, action string) context.Context {
	return withString(ctx, keyAction, action)
}

// ActionFrom returns the running action name.
func ActionFrom(ctx context.Context) string { return str(ctx, keyAction) }

// BuildRID joins update, chat and user ids as base36 segments.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%s.%s.%s",
		base36(int64(updateID)), base36(chatID), base36(userID))
}

func base36(n int64) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if n == 0 {
		return "0"
	}
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	var buf [14]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = digits[u%36]
		u /= 36
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Sanitize drops control and format runes, keeping tabs and newlines.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit sanitizes s and cuts it to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	s = Sanitize(s)
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// RoundMS rounds d to whole milliseconds; negative values become 0.
func RoundMS(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Took is RoundMS(time.Since(start)).
func Took(start time.Time) time.Duration { return RoundMS(time.Since(start)) }

// SummarizeStrings joins at most limit values and reports whether some were cut.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit < 0 {
		limit = 0
	}
	cut := len(values) > limit
	if cut {
		values = values[:limit]
	}
	return strings.Join(values, ", "), cut
}
