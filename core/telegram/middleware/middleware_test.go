package middleware

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/metrics"
	tghelpers "github.com/m3rciful/hrbot/core/telegram/helpers"
	"github.com/m3rciful/hrbot/core/telegram/sender"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	user   *tele.User
	store  map[string]any
}

func newContext(upd tele.Update, userID int64) *fakeContext {
	return &fakeContext{update: upd, user: &tele.User{ID: userID}, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Get(k string) any         { return f.store[k] }
func (f *fakeContext) Set(k string, v any)      { f.store[k] = v }
func (f *fakeContext) Send(any, ...any) error   { return nil }

func TestUpdateKind(t *testing.T) {
	require.Equal(t, "callback", UpdateKind(tele.Update{Callback: &tele.Callback{}}))
	require.Equal(t, "message", UpdateKind(tele.Update{Message: &tele.Message{}}))
	require.Equal(t, "inline_query", UpdateKind(tele.Update{Query: &tele.Query{}}))
	require.Equal(t, "other", UpdateKind(tele.Update{}))
}

func TestAdminOnly(t *testing.T) {
	var calls, rejects int
	h := AdminOnlyMiddleware(AdminOptions{
		AdminID:  1,
		OnReject: func(tele.Context) error { rejects++; return nil },
	})(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(newContext(tele.Update{}, 1)))
	require.NoError(t, h(newContext(tele.Update{}, 2)))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, rejects)

	closed := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { calls++; return nil })
	require.NoError(t, closed(newContext(tele.Update{}, 0)))
	require.Equal(t, 1, calls, "no admin configured rejects everyone")
}

func TestRateLimitPerUser(t *testing.T) {
	var calls, limited int
	h := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})(func(tele.Context) error { calls++; return nil })

	msg := tele.Update{Message: &tele.Message{Text: "hi"}}
	require.NoError(t, h(newContext(msg, 5)))
	require.NoError(t, h(newContext(msg, 5)))
	require.NoError(t, h(newContext(msg, 6)))
	require.NoError(t, h(newContext(tele.Update{Callback: &tele.Callback{}}, 5)))

	require.Equal(t, 3, calls)
	require.Equal(t, 1, limited)
}

func TestRecoverSwallowsPanics(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	require.NotPanics(t, func() {
		require.NoError(t, h(newContext(tele.Update{}, 1)))
	})
}

func TestMessageMetricsCountsUpdates(t *testing.T) {
	before := testutil.ToFloat64(metrics.TelegramUpdates.WithLabelValues("message"))
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		msgs, kb := Replies(c)
		require.Zero(t, msgs)
		require.False(t, kb)
		require.NoError(t, c.Send("hi", &tele.ReplyMarkup{}))
		msgs, kb = Replies(c)
		require.Equal(t, 1, msgs)
		require.True(t, kb)
		return nil
	})
	require.NoError(t, h(newContext(tele.Update{Message: &tele.Message{}}, 1)))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.TelegramUpdates.WithLabelValues("message")))
}

type deliveredContext struct {
	*fakeContext
	delivered atomic.Int32
}

func (d *deliveredContext) Send(any, ...any) error {
	d.delivered.Add(1)
	return nil
}

func TestMessageMetricsCountsQueuedReplies(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 2, QueueSize: 8})
	tghelpers.SetDispatcher(d)
	defer tghelpers.SetDispatcher(nil)

	base := &deliveredContext{fakeContext: newContext(tele.Update{Message: &tele.Message{}}, 7)}
	var msgs int
	var kb bool
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		require.NoError(t, tghelpers.SendText(c, "one"))
		require.NoError(t, tghelpers.SendMarkup(c, "two", &tele.ReplyMarkup{}))
		msgs, kb = Replies(c)
		return nil
	})
	require.NoError(t, h(base))
	d.Close()

	require.Equal(t, 2, msgs)
	require.True(t, kb)
	require.Equal(t, int32(2), base.delivered.Load())
	got, _ := Replies(base)
	require.Equal(t, 2, got, "queued sends are not counted again on delivery")
}
