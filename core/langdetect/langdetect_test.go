package langdetect

import (
	"context"
	"testing"

	"github.com/pemistahl/lingua-go"
	"github.com/stretchr/testify/require"
)

func fixed(code string, conf float64) Detector {
	return Func(func(string) (string, float64) { return code, conf })
}

func TestResolveThresholdIsStrict(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, "en", Resolve(ctx, fixed("hi", 0.5), "namaste", 0.5, "en"))
	require.Equal(t, "hi", Resolve(ctx, fixed("hi", 0.51), "namaste", 0.5, "en"))
	require.Equal(t, "hi", Resolve(ctx, fixed("HI", 0.9), "namaste", 0.5, "en"))
}

func TestResolveFallbacks(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, "en", Resolve(ctx, nil, "namaste", 0.5, "en"))
	require.Equal(t, "en", Resolve(ctx, fixed("", 0.99), "namaste", 0.5, "en"))
	require.Equal(t, "en", Resolve(ctx, fixed("hi", 0.99), "   ", 0.5, "en"))
}

func TestLinguaClassify(t *testing.T) {
	d := NewLingua(Options{Languages: []lingua.Language{lingua.English, lingua.Hindi, lingua.Tamil}})

	code, conf := d.Classify("   ")
	require.Equal(t, "", code)
	require.Zero(t, conf)

	code, conf = d.Classify("मुझे अपने वेतन के बारे में जानकारी चाहिए")
	require.Equal(t, "hi", code)
	require.Greater(t, conf, 0.5)

	code, _ = d.Classify("I would like to know about my salary slip")
	require.Equal(t, "en", code)
}
