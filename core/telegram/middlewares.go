package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/hrbot/core/config"
	"github.com/m3rciful/hrbot/core/telegram/middleware"
)

// DefaultMiddlewares is the global chain: panic recovery, the per-user rate
// limit when configured, receipt logging and update counters.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	chain := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}
	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		skip := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			skip[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
		}
		chain = append(chain, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:   skip,
				OnLimited: onLimited,
			}),
		})
	}
	return append(chain,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}
