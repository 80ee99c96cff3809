package netutil

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// StatusError reports a retryable HTTP status that survived every attempt.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

// RetryableStatus reports whether an upstream answer is likely transient.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// ShouldRetry reports whether err is a transient transport failure: a
// timeout, a refused or reset connection, a failed dial, or a retryable status.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return RetryableStatus(status.Code)
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}
