package cmd

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viber/viber-cli/internal/viber"
)

func fastRetries(t *testing.T) {
	t.Helper()
	old := retryInitialInterval
	retryInitialInterval = time.Millisecond
	t.Cleanup(func() { retryInitialInterval = old })
}

func TestWithRetryRetriesTransportErrors(t *testing.T) {
	fastRetries(t)
	var calls int
	got, err := withRetry(context.Background(), 3, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, &viber.TransportError{Endpoint: "get_online", Err: errors.New("reset")}
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	fastRetries(t)
	var calls int
	_, err := withRetry(context.Background(), 2, func() (int, error) {
		calls++
		return 0, &viber.TransportError{Endpoint: "get_online", Err: errors.New("reset")}
	})
	assert.True(t, viber.IsTransportError(err))
	assert.Equal(t, 3, calls)
}

func TestWithRetryDoesNotRetryRemoteErrors(t *testing.T) {
	fastRetries(t)
	var calls int
	_, err := withRetry(context.Background(), 5, func() (int, error) {
		calls++
		return 0, &viber.RemoteAPIError{Status: viber.StatusBadData, Message: "badData"}
	})
	assert.True(t, viber.IsRemoteAPIError(err))
	assert.Equal(t, 1, calls)
}

func TestWithRetryZeroRunsOnce(t *testing.T) {
	var calls int
	_, _ = withRetry(context.Background(), 0, func() (int, error) {
		calls++
		return 0, &viber.TransportError{Err: errors.New("x")}
	})
	assert.Equal(t, 1, calls)
}

func TestRetriesFlagRecoversFrom502(t *testing.T) {
	fastRetries(t)
	var n atomic.Int64
	handler := newRouteHandler().On("POST", "/pa/get_online", func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
			return
		}
		okResponse(`"users":[]`)(w, r)
	})
	setupTestEnv(t, handler)

	_ = captureStdout(t, func() {
		require.NoError(t, Execute(context.Background(), []string{"online", "u1", "--retries", "2"}))
	})
	assert.Equal(t, int64(2), n.Load())
}
