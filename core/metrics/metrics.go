package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hrbot"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
	OutcomeFallback = "fallback"
	OutcomeLimited  = "rate_limited"
	OutcomeNotFound = "not_found"
)

// Registry holds every collector served on /metrics. It is separate from the
// prometheus default registry so tests can read counters in isolation.
var Registry = prometheus.NewRegistry()

var (
	Translations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "translations_total",
		Help:      "Translation attempts by outcome.",
	}, []string{"outcome"})

	// TranslationCacheHits counts attempts answered from the cache. Those
	// attempts are also counted in Translations under their outcome.
	TranslationCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "translation_cache_hits_total",
		Help:      "Translations served from the in-process cache.",
	})

	Detections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "language_detections_total",
		Help:      "Language detections by whether the guess cleared the threshold.",
	}, []string{"accepted"})

	Actions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Action invocations by action name and outcome.",
	}, []string{"action", "outcome"})

	ActionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "action_duration_seconds",
		Help:      "Action run time including translation calls.",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"action"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "action_server_requests_total",
		Help:      "Action server HTTP requests by route and status code.",
	}, []string{"route", "status"})

	TelegramUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telegram_updates_total",
		Help:      "Telegram updates received by kind.",
	}, []string{"kind"})

	TelegramSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telegram_sends_total",
		Help:      "Outbound Telegram calls by outcome and failure kind.",
	}, []string{"outcome", "error_kind"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Translations,
		TranslationCacheHits,
		Detections,
		Actions,
		ActionDuration,
		HTTPRequests,
		TelegramUpdates,
		TelegramSends,
	)
}

// ObserveAction records one action run.
func ObserveAction(name, outcome string, took time.Duration) {
	Actions.WithLabelValues(name, outcome).Inc()
	ActionDuration.WithLabelValues(name).Observe(took.Seconds())
}

// Handler serves Registry in the text exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
