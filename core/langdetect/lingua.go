package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Lingua is a Detector backed by lingua-go's statistical models.
type Lingua struct {
	detector lingua.LanguageDetector
}

// Options tunes the Lingua detector.
type Options struct {
	// LowAccuracy trades accuracy on short texts for much lower memory use.
	LowAccuracy bool
	// Languages restricts candidates; empty means every supported language.
	Languages []lingua.Language
}

// NewLingua builds a detector. Models load lazily on first use.
func NewLingua(opts Options) *Lingua {
	var b lingua.LanguageDetectorBuilder
	if len(opts.Languages) > 0 {
		b = lingua.NewLanguageDetectorBuilder().FromLanguages(opts.Languages...)
	} else {
		b = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
	}
	if opts.LowAccuracy {
		b = b.WithLowAccuracyMode()
	}
	return &Lingua{detector: b.Build()}
}

// Classify implements Detector using the top confidence value.
func (l *Lingua) Classify(text string) (string, float64) {
	if strings.TrimSpace(text) == "" {
		return "", 0
	}
	values := l.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 {
		return "", 0
	}
	top := values[0]
	if top.Value() <= 0 {
		return "", 0
	}
	return strings.ToLower(top.Language().IsoCode639_1().String()), top.Value()
}
