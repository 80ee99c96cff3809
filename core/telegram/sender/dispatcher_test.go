package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/metrics"
)

func TestDispatcherKeepsOrderPerKey(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 32})

	var mu sync.Mutex
	got := map[string][]int{}
	for i := 0; i < 20; i++ {
		for _, key := range []string{"chat-a", "chat-b"} {
			key, i := key, i
			require.NoError(t, d.Enqueue(context.Background(), key, "send.text", "sendMessage", func() error {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				return nil
			}))
		}
	}
	d.Close()

	for _, key := range []string{"chat-a", "chat-b"} {
		require.Len(t, got[key], 20)
		for i, v := range got[key] {
			require.Equal(t, i, v)
		}
	}
	require.Equal(t, uint64(40), d.SentCount())
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "k", "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	}))
	d.Close()
	require.Equal(t, int32(3), calls.Load())
	require.Zero(t, d.ErrorCount())
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "k", "send.text", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("bad request: chat not found")
	}))
	d.Close()
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(context.Background(), "k", "a", "e", func() error { return nil })
	require.ErrorIs(t, err, ErrQueueClosed)
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:ABC-def_ghi/sendMessage": timeout`)
	require.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout`, sanitizeErrorMessage(err))
}

func TestClassifyError(t *testing.T) {
	require.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	require.Equal(t, "dial", classifyError(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	require.Equal(t, "unknown", classifyError(errors.New("boom")))
}

func TestClassifyTelegramErrors(t *testing.T) {
	require.Equal(t, "flood", classifyError(tele.FloodError{RetryAfter: 3}))
	require.Equal(t, "http_4xx", classifyError(&tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}))
	require.Equal(t, "http_5xx", classifyError(&tele.Error{Code: 502}))
	require.Equal(t, "dns", classifyError(&net.DNSError{Name: "api.telegram.org"}))
	require.Equal(t, "timeout", classifyError(&net.DNSError{IsTimeout: true}))
	require.Empty(t, classifyError(nil))
}

func TestDispatcherCountsSendsByOutcome(t *testing.T) {
	failed := testutil.ToFloat64(metrics.TelegramSends.WithLabelValues(metrics.OutcomeError, "unknown"))
	d := NewDispatcher(Options{Workers: 1})
	require.NoError(t, d.Enqueue(context.Background(), "k", "send.text", "sendMessage", func() error {
		return errors.New("nope")
	}))
	d.Close()
	require.Equal(t, failed+1, testutil.ToFloat64(metrics.TelegramSends.WithLabelValues(metrics.OutcomeError, "unknown")))
}
