package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/hrbot/core/telegram"
)

// TextOptions controls fallback behaviour for text and non-text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
	// Unsupported answers media the assistant cannot read.
	Unsupported tele.HandlerFunc
}

// TextRoutes builds handlers for free text and unsupported media. Slash
// commands typed as text resolve through the registry first, then anything
// else goes to the registry's text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return served(c, handlerName(key), cmd.Handler)
			}
			if fb := reg.TextFallback(); fb != nil {
				return served(c, "fallback", fb)
			}
		}
		return served(c, "unknown_text", opts.UnknownText)
	}
	media := wrapRoute(func(c tele.Context) error {
		return served(c, "unsupported_media", opts.Unsupported)
	})

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrapRoute(text)}}
	for _, ep := range []string{tele.OnDocument, tele.OnPhoto, tele.OnVoice, tele.OnSticker} {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: media})
	}
	return routes
}
