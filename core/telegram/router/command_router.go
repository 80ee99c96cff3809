package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
	tg "github.com/m3rciful/hrbot/core/telegram"
	"github.com/m3rciful/hrbot/core/telegram/middleware"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns one route per registered command. Admin-only
// commands are checked before the handler runs.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for endpoint, cmd := range cmds {
		run, name := cmd.Handler, handlerName(endpoint)
		h := wrapRoute(func(c tele.Context) error { return served(c, name, run) })
		if cmd.AdminOnly {
			h = adminOnly(h)
		}
		routes = append(routes, tg.Route{Endpoint: endpoint, Handler: h})
	}

	logger.Info(logger.Background(), logger.CompTGWire, "wire.complete",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
