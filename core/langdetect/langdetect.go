package langdetect

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/hrbot/core/logger"
	"github.com/m3rciful/hrbot/core/metrics"
)

// Detector guesses the language of free text.
type Detector interface {
	// Classify returns an ISO 639-1 code and a confidence in [0, 1].
	// Empty text or an unknown language yields ("", 0).
	Classify(text string) (code string, confidence float64)
}

// Func adapts a plain function to Detector.
type Func func(text string) (string, float64)

// Classify implements Detector.
func (f Func) Classify(text string) (string, float64) { return f(text) }

// Resolve returns the detected code when its confidence is strictly above
// threshold, and fallback otherwise.
func Resolve(ctx context.Context, d Detector, text string, threshold float64, fallback string) string {
	if d == nil || strings.TrimSpace(text) == "" {
		return fallback
	}
	code, conf := d.Classify(text)
	code = strings.ToLower(strings.TrimSpace(code))
	accepted := code != "" && conf > threshold

	metrics.Detections.WithLabelValues(strconv.FormatBool(accepted)).Inc()
	logger.Debug(ctx, logger.CompDetect, "detect",
		slog.String("detected_lang", code),
		slog.Float64("confidence", conf),
		slog.Float64("threshold", threshold),
		slog.Bool("accepted", accepted),
	)
	if !accepted {
		return fallback
	}
	return code
}
