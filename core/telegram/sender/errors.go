package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"regexp"

	tele "gopkg.in/telebot.v4"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// errorKinds are tried in order; the first match names the failure.
var errorKinds = []struct {
	kind  string
	match func(error) bool
}{
	{"timeout", isTimeout},
	{"dns", func(err error) bool { var e *net.DNSError; return errors.As(err, &e) }},
	{"dial", func(err error) bool { var e *net.OpError; return errors.As(err, &e) && e.Op == "dial" }},
	{"tls", func(err error) bool { var e tls.AlertError; return errors.As(err, &e) }},
	{"flood", func(err error) bool { return apiStatus(err) == http.StatusTooManyRequests }},
	{"http_5xx", func(err error) bool { return apiStatus(err) >= 500 }},
	{"http_4xx", func(err error) bool { return apiStatus(err) >= 400 }},
}

func classifyError(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if k.match(err) {
			return k.kind
		}
	}
	return "unknown"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// apiStatus maps Telebot's error types to the HTTP status Telegram answered with.
func apiStatus(err error) int {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return http.StatusTooManyRequests
	}
	var api *tele.Error
	if errors.As(err, &api) {
		return api.Code
	}
	var group tele.GroupError
	if errors.As(err, &group) {
		return http.StatusBadRequest
	}
	return 0
}

// sanitizeErrorMessage hides bot tokens that net/http puts in request URLs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
