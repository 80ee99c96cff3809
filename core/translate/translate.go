package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/metrics"
)

// ErrEmptyTranslation is returned by providers that answered without text.
var ErrEmptyTranslation = errors.New("translate: empty translation")

// Translator converts text into the target language (ISO 639-1 code).
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Func adapts a plain function to Translator.
type Func func(ctx context.Context, text, target string) (string, error)

// Translate implements Translator.
func (f Func) Translate(ctx context.Context, text, target string) (string, error) {
	return f(ctx, text, target)
}

// Identity returns text unchanged. It backs the "none" provider.
type Identity struct{}

// Translate implements Translator.
func (Identity) Translate(_ context.Context, text, _ string) (string, error) {
	return text, nil
}

// Text translates text into target and never fails: any error, a nil
// translator or an empty answer yields the source text unchanged.
func Text(ctx context.Context, tr Translator, text, target string) string {
	if tr == nil {
		return text
	}
	start := time.Now()
	out, err := tr.Translate(ctx, text, NormalizeCode(target))
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmptyTranslation
	}
	if err != nil {
		metrics.Translations.WithLabelValues(metrics.OutcomeFallback).Inc()
		logger.Warn(ctx, logger.CompTranslate, "translate.fallback",
			slog.String("target_lang", target),
			slog.Int("chars", len(text)),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return text
	}
	metrics.Translations.WithLabelValues(metrics.OutcomeOK).Inc()
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, logger.CompTranslate, "translate.ok",
			slog.String("target_lang", target),
			slog.Int("chars", len(text)),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return out
}

// NormalizeCode reduces a language tag to its lower-case primary subtag:
// "hi-IN" and "HI" both become "hi".
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	return strings.ToLower(code)
}
