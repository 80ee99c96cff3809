package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, enc encoder, fn func(l *slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	w := newLineWriter([]io.Writer{buf}, 1024, time.Hour)
	fn(slog.New(newHandler(handlerConfig{level: slog.LevelDebug, out: w, enc: enc})))
	require.NoError(t, w.Close())
	return strings.TrimSpace(buf.String())
}

func TestKVLineStartsWithFixedKeys(t *testing.T) {
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)
	line := capture(t, kvEncoder{}, func(l *slog.Logger) {
		Event(WithLogger(ctx, l), CompTG, slog.LevelInfo, "handler.handled",
			slog.String("status", "OK"),
			slog.String("cause", "unit test"),
		)
	})

	tokens := strings.Split(line, " ")
	for i, prefix := range []string{"ts=", "level=INFO", "component=tg", "event=handler.handled", "status=ok", "rid=rid-123"} {
		require.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s", i, tokens[i])
	}
	require.Contains(t, line, "update_id=42")
	require.Contains(t, line, `cause="unit test"`)
}

func TestJSONLineCarriesConversationFields(t *testing.T) {
	ctx := WithSender(Background(), "chat-1")
	ctx = WithAction(ctx, "action_greet")
	line := capture(t, jsonEncoder{}, func(l *slog.Logger) {
		Error(WithLogger(ctx, l), CompActions, "action.run",
			slog.Duration("duration", 1500*time.Microsecond),
			slog.Any("err", errors.New("boom")),
			slog.String("lang", "HI"),
			slog.String("empty", ""),
		)
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	require.Equal(t, "ERROR", got["level"])
	require.Equal(t, "actions", got["component"])
	require.Equal(t, "chat-1", got["sender_id"])
	require.Equal(t, "action_greet", got["action"])
	require.Equal(t, float64(2), got["duration_ms"])
	require.Equal(t, "boom", got["err"])
	require.Equal(t, "hi", got["lang"])
	require.NotContains(t, got, "empty")
	require.True(t, strings.HasPrefix(line, `{"ts":`))
}

func TestGroupsAndPresetAttrs(t *testing.T) {
	line := capture(t, kvEncoder{}, func(l *slog.Logger) {
		l.With("component", "db").WithGroup("pool").Info("stats", slog.Int("open", 3))
	})
	require.Contains(t, line, "component=db")
	require.Contains(t, line, "event=stats")
	require.Contains(t, line, "pool.open=3")
}

func TestExplicitAttrsBeatContext(t *testing.T) {
	ctx := WithSender(Background(), "from-ctx")
	line := capture(t, kvEncoder{}, func(l *slog.Logger) {
		Info(WithLogger(ctx, l), CompApp, "x", slog.String("sender_id", "explicit"))
	})
	require.Contains(t, line, "sender_id=explicit")
}

func TestNilLoggerIsSafe(t *testing.T) {
	require.NotPanics(t, func() {
		Info(context.Background(), CompApp, "ignored")
		Debug(Background(), CompApp, "ignored", slog.Int("n", 1))
	})
}

func TestBuildRID(t *testing.T) {
	require.Equal(t, "16.-1.z", BuildRID(42, -1, 35))
	require.Equal(t, "0.0.0", BuildRID(0, 0, 0))
}

func TestSanitizeLimit(t *testing.T) {
	require.Equal(t, "héllo", SanitizeLimit("hé\x00llo\u200b world", 5))
	require.Equal(t, "a\tb", Sanitize("a\tb\x07"))
	require.Empty(t, SanitizeLimit("abc", 0))
}

func TestSampler(t *testing.T) {
	s := newSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	require.Equal(t, 3, allowed)

	s.Set(0, 0)
	require.True(t, s.Allow())

	num, den := parseRatio("2/5")
	require.Equal(t, [2]int{2, 5}, [2]int{num, den})
	num, den = parseRatio("10")
	require.Equal(t, [2]int{1, 10}, [2]int{num, den})
	num, den = parseRatio("x/y")
	require.Equal(t, [2]int{0, 0}, [2]int{num, den})
}

func TestSummarizeStrings(t *testing.T) {
	s, cut := SummarizeStrings([]string{"a", "b", "c"}, 2)
	require.Equal(t, "a, b", s)
	require.True(t, cut)
	s, cut = SummarizeStrings([]string{"a"}, 2)
	require.Equal(t, "a", s)
	require.False(t, cut)
}
