package translate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const maxResponseBytes = 1 << 20

// Google talks to the keyless translate_a/single endpoint.
type Google struct {
	endpoint string
	client   *http.Client
}

// NewGoogle returns a Google translator. client may be nil.
func NewGoogle(endpoint string, client *http.Client) *Google {
	if client == nil {
		client = http.DefaultClient
	}
	return &Google{endpoint: endpoint, client: client}
}

// Translate implements Translator.
func (g *Google) Translate(ctx context.Context, text, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("translate: google request: %w", err)
	}
	body, err := do(g.client, req)
	if err != nil {
		return "", fmt.Errorf("translate: google: %w", err)
	}
	return parseGoogle(body)
}

// parseGoogle joins the translated part of every segment in element 0 of
// the nested array answer.
func parseGoogle(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("translate: google: malformed response")
	}
	segments := gjson.GetBytes(body, "0")
	if !segments.IsArray() {
		return "", ErrEmptyTranslation
	}
	var b strings.Builder
	segments.ForEach(func(_, seg gjson.Result) bool {
		b.WriteString(seg.Get("0").String())
		return true
	})
	if b.Len() == 0 {
		return "", ErrEmptyTranslation
	}
	return b.String(), nil
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
