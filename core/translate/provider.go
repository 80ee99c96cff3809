package translate

import (
	"fmt"
	"time"

	"github.com/m3rciful/hrbot/core/config"
	"github.com/m3rciful/hrbot/core/netutil"
)

// New builds the configured provider with its cache and rate limit.
// The limiter sits below the cache so hits are never throttled.
func New(cfg config.TranslationConfig) (Translator, error) {
	client := netutil.BuildHTTPClient(netutil.ClientOptions{
		Timeout:         time.Duration(cfg.TimeoutMS) * time.Millisecond,
		ResponseTimeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		RetryAttempts:   1,
		RetryBackoff:    200 * time.Millisecond,
		RetryStatus:     true,
	})

	var tr Translator
	switch cfg.Provider {
	case config.ProviderNone:
		return Identity{}, nil
	case config.ProviderGoogle, "":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = config.DefaultGoogleEndpoint
		}
		tr = NewGoogle(endpoint, client)
	case config.ProviderLibreTranslate:
		tr = NewLibreTranslate(cfg.Endpoint, cfg.APIKey, client)
	default:
		return nil, fmt.Errorf("translate: unknown provider %q", cfg.Provider)
	}

	if cfg.RateLimitPerSecond > 0 {
		tr = NewLimited(tr, cfg.RateLimitPerSecond, cfg.Burst)
	}
	if cfg.CacheSize > 0 {
		cached, err := NewCached(tr, cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("translate: cache: %w", err)
		}
		tr = cached
	}
	return tr, nil
}
