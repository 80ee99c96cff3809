package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/hrbot/core/telegram"
	"github.com/m3rciful/hrbot/core/telegram/callbacks"
	"github.com/m3rciful/hrbot/core/telegram/commands"
	"github.com/m3rciful/hrbot/core/telegram/state"
)

type fakeContext struct {
	tele.Context
	update    tele.Update
	store     map[string]any
	responses []string
}

func textUpdate(id int, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: id, Message: &tele.Message{Text: text, Chat: &tele.Chat{ID: 7}, Sender: &tele.User{ID: 7}}},
		store:  map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Sender() *tele.User       { return &tele.User{ID: 7} }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: 7} }
func (f *fakeContext) Get(k string) any         { return f.store[k] }
func (f *fakeContext) Set(k string, v any)      { f.store[k] = v }
func (f *fakeContext) Text() string {
	if f.update.Message == nil {
		return ""
	}
	return f.update.Message.Text
}
func (f *fakeContext) Respond(r ...*tele.CallbackResponse) error {
	if len(r) > 0 {
		f.responses = append(f.responses, r[0].Text)
	}
	return nil
}

func handlerFor(t *testing.T, routes []tg.Route, endpoint string) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %q", endpoint)
	return nil
}

func TestTextRoutesPreferCommands(t *testing.T) {
	reg := tg.NewRegistry()
	var got []string
	require.NoError(t, reg.RegisterCommand("/language", commands.Command{
		Handler:     func(tele.Context) error { got = append(got, "language"); return nil },
		Description: "lang",
		Aliases:     []string{"lang"},
	}))
	require.NoError(t, reg.RegisterCommand("/actions", commands.Command{
		Handler:     func(tele.Context) error { got = append(got, "actions"); return nil },
		Description: "admin",
		AdminOnly:   true,
	}))
	reg.SetTextFallback(func(c tele.Context) error {
		got = append(got, "text:"+c.Text())
		require.Equal(t, "7", state.SenderID(c))
		return nil
	})

	routes := TextRoutes(reg, TextOptions{})
	require.Len(t, routes, 5)
	text := handlerFor(t, routes, tele.OnText)

	require.NoError(t, text(textUpdate(1, "lang")))
	require.NoError(t, text(textUpdate(2, "/actions")))
	require.NoError(t, text(textUpdate(3, "hello")))
	require.Equal(t, []string{"language", "text:/actions", "text:hello"}, got)
}

func TestTextRoutesUnsupportedMedia(t *testing.T) {
	var media int
	routes := TextRoutes(tg.NewRegistry(), TextOptions{Unsupported: func(tele.Context) error { media++; return nil }})
	require.NoError(t, handlerFor(t, routes, tele.OnPhoto)(textUpdate(1, "")))
	require.NoError(t, handlerFor(t, routes, tele.OnVoice)(textUpdate(2, "")))
	require.Equal(t, 2, media)

	// No fallback and no unknown handler is a quiet skip.
	require.NoError(t, handlerFor(t, routes, tele.OnText)(textUpdate(3, "hi")))
}

func TestCallbackRoute(t *testing.T) {
	reg := tg.NewRegistry()
	var payload string
	require.NoError(t, reg.RegisterCallback("menu", func(c tele.Context) error {
		payload = callbacks.CallbackPayload(c)
		return nil
	}))
	route := CallbackRoute(reg, CallbackOptions{})
	require.Equal(t, tele.OnCallback, route.Endpoint)

	press := &fakeContext{update: tele.Update{ID: 1, Callback: &tele.Callback{Data: callbacks.Data("menu", "/PF")}}, store: map[string]any{}}
	require.NoError(t, route.Handler(press))
	require.Equal(t, "/PF", payload)

	stale := &fakeContext{update: tele.Update{ID: 2, Callback: &tele.Callback{Data: callbacks.Data("gone", "x")}}, store: map[string]any{}}
	require.NoError(t, route.Handler(stale))
	require.Equal(t, []string{"This button is no longer available"}, stale.responses)
}

func TestCommandRoutesAdminOnly(t *testing.T) {
	reg := tg.NewRegistry()
	var calls, rejected int
	require.NoError(t, reg.RegisterCommand("/actions", commands.Command{
		Handler:     func(tele.Context) error { calls++; return nil },
		Description: "admin",
		AdminOnly:   true,
	}))
	boom := errors.New("boom")
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{
		Handler:     func(tele.Context) error { return boom },
		Description: "start",
	}))

	routes := CommandRoutes(reg, CommandRouteOptions{
		AdminID:       99,
		OnAdminReject: func(tele.Context) error { rejected++; return nil },
	})
	require.Len(t, routes, 2)
	require.NoError(t, handlerFor(t, routes, "/actions")(textUpdate(1, "/actions")))
	require.Zero(t, calls)
	require.Equal(t, 1, rejected)

	require.ErrorIs(t, handlerFor(t, routes, "/start")(textUpdate(2, "/start")), boom)
	require.Nil(t, CommandRoutes(nil, CommandRouteOptions{}))
}

func TestHandlerName(t *testing.T) {
	require.Equal(t, "language", handlerName(" /Language "))
	require.Equal(t, "menu_item", handlerName("menu item"))
	require.Equal(t, "unknown", handlerName(""))
}
