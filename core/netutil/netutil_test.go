package netutil

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	require.False(t, ShouldRetry(nil))
	require.False(t, ShouldRetry(errors.New("boom")))
	require.True(t, ShouldRetry(timeoutErr{}))
	require.True(t, ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	require.True(t, ShouldRetry(&url.Error{Op: "Get", URL: "http://x", Err: timeoutErr{}}))
	require.True(t, ShouldRetry(&StatusError{Code: http.StatusBadGateway}))
	require.False(t, ShouldRetry(&StatusError{Code: http.StatusBadRequest}))
	require.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{Op: "read", Err: syscall.ECONNRESET}}))
}

func TestRetryTransportRetriesStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := BuildHTTPClient(ClientOptions{
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
		RetryStatus:   true,
	})
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(3), hits.Load())
}

func TestRetryTransportReturnsLastStatusWhenExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := BuildHTTPClient(ClientOptions{RetryAttempts: 1, RetryBackoff: time.Millisecond, RetryStatus: true})
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, int32(2), hits.Load())
}

func TestRetryTransportDisabled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := BuildHTTPClient(ClientOptions{RetryAttempts: -1, RetryStatus: true})
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, int32(1), hits.Load())
}
