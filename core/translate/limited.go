package translate

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles outbound calls. Waiting honours ctx cancellation.
type Limited struct {
	next    Translator
	limiter *rate.Limiter
}

// NewLimited allows perSecond calls with the given burst.
func NewLimited(next Translator, perSecond float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Translate implements Translator.
func (l *Limited) Translate(ctx context.Context, text, target string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("translate: rate limit: %w", err)
	}
	return l.next.Translate(ctx, text, target)
}
