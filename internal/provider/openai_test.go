package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chorus/internal/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invokeAgainst(t *testing.T, handler http.HandlerFunc) orchestrator.Outcome {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	inv := NewChatInvoker("test", srv.URL, "sk-test", "test-model", nil, nil)
	return inv.Invoke(context.Background(), orchestrator.InvocationRequest{
		Model:  "test",
		Prompt: "hello",
	})
}

func TestInvokeSuccess(t *testing.T) {
	var gotAuth, gotPath string
	out := invokeAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hi there"}}]}`))
	})

	require.True(t, out.Succeeded())
	assert.Equal(t, "hi there", out.Output)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.NotEmpty(t, out.TimestampUTC)
}

func TestInvokeClassifiesStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   orchestrator.ErrorClass
	}{
		{http.StatusUnauthorized, orchestrator.ErrorAuth},
		{http.StatusForbidden, orchestrator.ErrorAuth},
		{http.StatusBadRequest, orchestrator.ErrorInvalidRequest},
		{http.StatusUnprocessableEntity, orchestrator.ErrorInvalidRequest},
		{http.StatusNotFound, orchestrator.ErrorNotFound},
		{http.StatusTooManyRequests, orchestrator.ErrorRateLimit},
		{http.StatusGatewayTimeout, orchestrator.ErrorTimeout},
		{http.StatusInternalServerError, orchestrator.ErrorUnknown},
		{http.StatusBadGateway, orchestrator.ErrorUnknown},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			out := invokeAgainst(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"error":{"message":"nope","type":"test_error"}}`))
			})
			require.False(t, out.Succeeded())
			assert.Equal(t, tc.want, out.ErrorClass)
			assert.Contains(t, out.ErrorMessage, "nope")
			assert.Contains(t, out.ErrorMessage, "test_error")
		})
	}
}

func TestInvokeEmptyChoicesIsFailure(t *testing.T) {
	out := invokeAgainst(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	require.False(t, out.Succeeded())
	assert.Equal(t, orchestrator.ErrorUnknown, out.ErrorClass)
}

func TestInvokeTimeoutClassifiedAsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect and
		// cancels the request context; otherwise srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	inv := NewChatInvoker("slow", srv.URL, "", "m", nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out := inv.Invoke(ctx, orchestrator.InvocationRequest{Model: "slow", Prompt: "p"})

	require.False(t, out.Succeeded())
	assert.Equal(t, orchestrator.ErrorTimeout, out.ErrorClass)
}

func TestInvokeTransportErrorIsUnknown(t *testing.T) {
	inv := NewChatInvoker("down", "http://127.0.0.1:1", "", "m", nil, nil)
	out := inv.Invoke(context.Background(), orchestrator.InvocationRequest{Model: "down", Prompt: "p"})

	require.False(t, out.Succeeded())
	assert.Equal(t, orchestrator.ErrorUnknown, out.ErrorClass)
}

func TestInvokeOpenBreakerShortCircuits(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	breaker := NewBreaker("b", 2, time.Minute)
	inv := NewChatInvoker("b", srv.URL, "", "m", nil, breaker)
	req := orchestrator.InvocationRequest{Model: "b", Prompt: "p"}

	inv.Invoke(context.Background(), req)
	inv.Invoke(context.Background(), req)
	require.Equal(t, BreakerOpen, breaker.State())

	out := inv.Invoke(context.Background(), req)
	assert.Equal(t, 2, calls, "open circuit must not reach the network")
	assert.Equal(t, orchestrator.ErrorRateLimit, out.ErrorClass)
	assert.Contains(t, out.ErrorMessage, "circuit open")
}

func TestConfigErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	breaker := NewBreaker("b", 1, time.Minute)
	inv := NewChatInvoker("b", srv.URL, "", "m", nil, breaker)
	inv.Invoke(context.Background(), orchestrator.InvocationRequest{Model: "b", Prompt: "p"})

	assert.Equal(t, BreakerClosed, breaker.State())
}

func TestChatCompletionsURLNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "https://api.openai.com/v1/chat/completions"},
		{"https://api.x.ai/v1", "https://api.x.ai/v1/chat/completions"},
		{"https://api.x.ai/v1/", "https://api.x.ai/v1/chat/completions"},
		{"https://h/v1/chat/completions", "https://h/v1/chat/completions"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, chatCompletionsURL(tc.in), "input %q", tc.in)
	}
}
