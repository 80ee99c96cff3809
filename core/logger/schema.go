package logger

import (
	"log/slog"
	"strings"
)

// Level names as printed.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarn
	case l >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// enumFields are lower-cased so dashboards can group on them.
var enumFields = []string{"status", "outcome", "error_kind", "lang", "target_lang", "detected_lang"}

// defaultKeyOrder puts identity and correlation first, payload and errors last.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "sender_id", "action", "lang", "target_lang", "detected_lang", "confidence", "accepted",
	"update_id", "user_id", "chat_id", "chat_type", "handler", "cb_key", "payload",
	"outcome", "duration_ms", "messages", "buttons", "kb", "events",
	"provider", "method", "route", "path", "http_code",
	"mode", "listen", "addr", "db", "host", "port",
	"err", "err_code", "error_kind", "cause", "attempts",
}
