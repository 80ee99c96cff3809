package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hrbot/core/logger"
	tghelpers "github.com/m3rciful/hrbot/core/telegram/helpers"
)

const rateLimitUsers = 10000

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// RateLimitMiddleware drops updates arriving from one user closer together
// than Interval. Excluded update kinds always pass.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Interval <= 0 {
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	// Entries expire after one interval, so presence alone means "too soon".
	recent := expirable.NewLRU[int64, struct{}](rateLimitUsers, nil, opts.Interval)
	var mu sync.Mutex
	tooSoon := func(id int64) bool {
		mu.Lock()
		defer mu.Unlock()
		if _, seen := recent.Get(id); seen {
			return true
		}
		recent.Add(id, struct{}{})
		return false
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip || user == nil {
				return next(c)
			}
			if !tooSoon(user.ID) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), logger.CompTG, "tg.rate_limit",
				slog.String("kind", kind),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
