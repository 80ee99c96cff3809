package netutil

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// ClientOptions tunes BuildHTTPClient. Zero fields take package defaults;
// a negative RetryAttempts disables retries.
type ClientOptions struct {
	Timeout         time.Duration
	ResponseTimeout time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
	// RetryStatus also retries idempotent requests answered with 429 or 5xx.
	RetryStatus bool
}

// TelegramClientOptions matches the Bot API's long-poll friendly limits.
func TelegramClientOptions() ClientOptions {
	return ClientOptions{}
}

// BuildHTTPClient returns an HTTP client with pooled keep-alive connections
// and transparent retries of transient network failures.
func BuildHTTPClient(opts ClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultClientTimeout
	}
	if opts.ResponseTimeout <= 0 {
		opts.ResponseTimeout = defaultResponseTimeout
	}
	switch {
	case opts.RetryAttempts < 0:
		opts.RetryAttempts = 0
	case opts.RetryAttempts == 0:
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: opts.ResponseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: NewRetryTransport(transport, opts),
	}
}

// NewRetryTransport wraps base with the retry policy from opts.
func NewRetryTransport(base http.RoundTripper, opts ClientOptions) http.RoundTripper {
	return &retryTransport{
		base:        base,
		maxRetries:  opts.RetryAttempts,
		backoff:     opts.RetryBackoff,
		retryStatus: opts.RetryStatus,
	}
}

type retryTransport struct {
	base        http.RoundTripper
	maxRetries  int
	backoff     time.Duration
	retryStatus bool
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		currReq := req
		if attempt > 1 {
			currReq = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				currReq.Body = body
			} else if req.Body != nil && req.Body != http.NoBody {
				return nil, lastErr
			}
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			if attempt < attempts && t.retryStatus && isIdempotent(req) && RetryableStatus(resp.StatusCode) {
				_ = resp.Body.Close()
				lastErr = &StatusError{Code: resp.StatusCode}
				if !t.wait(req, attempt) {
					return nil, req.Context().Err()
				}
				continue
			}
			return resp, nil
		}
		lastErr = err
		if !ShouldRetry(err) || attempt == attempts {
			break
		}
		if !t.wait(req, attempt) {
			return nil, req.Context().Err()
		}
	}

	return nil, lastErr
}

func (t *retryTransport) wait(req *http.Request, attempt int) bool {
	delay := t.backoff * time.Duration(attempt)
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return false
	case <-timer.C:
		return true
	}
}

func isIdempotent(req *http.Request) bool {
	switch req.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return req.GetBody != nil
}
