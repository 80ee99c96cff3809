package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"}))
	require.NoError(t, reg.RegisterCommand("/language", commands.Command{Handler: noop, Description: "lang", Aliases: []string{"lang"}}))
	require.NoError(t, reg.RegisterCommand("/actions", commands.Command{Handler: noop, Description: "list", AdminOnly: true}))
	require.ErrorIs(t, reg.RegisterCommand("nope", commands.Command{Handler: noop, Description: "no slash"}), ErrInvalidRegistration)
	require.ErrorIs(t, reg.RegisterCommand("/blank", commands.Command{Handler: noop}), ErrInvalidRegistration)
	require.ErrorIs(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"}), ErrDuplicate)

	require.Len(t, reg.Commands(), 3)
	require.Equal(t, "start", reg.Commands()["/start"].Description)

	visible := reg.ListCommands(true)
	require.Equal(t, []tele.Command{
		{Text: "/language", Description: "lang"},
		{Text: "/start", Description: "start"},
	}, visible)
	require.Len(t, reg.ListCommands(false), 3)

	key, _, ok := reg.LookupCommand("/lang")
	require.True(t, ok)
	require.Equal(t, "/language", key)
	key, _, ok = reg.LookupCommand("start")
	require.True(t, ok)
	require.Equal(t, "/start", key)
	_, _, ok = reg.LookupCommand("hello there")
	require.False(t, ok)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("menu", noop))
	require.ErrorIs(t, reg.RegisterCallback("menu", noop), ErrDuplicate)
	require.ErrorIs(t, reg.RegisterCallback("", noop), ErrInvalidRegistration)

	_, ok := reg.GetCallback("menu")
	require.True(t, ok)
	_, ok = reg.GetCallback("other")
	require.False(t, ok)
	require.Equal(t, []string{"menu"}, reg.ListCallbacks())
	require.NotNil(t, reg.CallbackNotFound())

	require.Nil(t, reg.TextFallback())
	reg.SetTextFallback(noop)
	require.NotNil(t, reg.TextFallback())
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "longpoll"})
	lp, ok := p.(*tele.LongPoller)
	require.True(t, ok)
	require.Equal(t, "10s", lp.Timeout.String())

	p = BuildPoller(PollerOptions{RunMode: "Webhook", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"}})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	require.Equal(t, "0.0.0.0:8443", wh.Listen)
	require.Equal(t, "https://example.org/hook", wh.Endpoint.PublicURL)
}
