package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// LibreTranslate talks to a self-hosted LibreTranslate instance.
type LibreTranslate struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewLibreTranslate returns a translator for the instance at endpoint.
func NewLibreTranslate(endpoint, apiKey string, client *http.Client) *LibreTranslate {
	if client == nil {
		client = http.DefaultClient
	}
	return &LibreTranslate{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   client,
	}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// Translate implements Translator.
func (l *LibreTranslate) Translate(ctx context.Context, text, target string) (string, error) {
	payload, err := json.Marshal(libreRequest{Q: text, Source: "auto", Target: target, Format: "text", APIKey: l.apiKey})
	if err != nil {
		return "", fmt.Errorf("translate: libretranslate encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("translate: libretranslate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := do(l.client, req)
	if err != nil {
		return "", fmt.Errorf("translate: libretranslate: %w", err)
	}
	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return "", fmt.Errorf("translate: libretranslate: %s", msg.String())
	}
	out := gjson.GetBytes(body, "translatedText").String()
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}
