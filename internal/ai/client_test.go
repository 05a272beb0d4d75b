package ai

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient points a client at the given server with a zero-delay
// clock that records every scheduled backoff.
func newTestClient(serverURL string, delays *[]time.Duration) *Client {
	return &Client{
		baseURL:    serverURL,
		httpClient: &http.Client{},
		timeout:    2 * time.Second,
		maxRetries: 3,
		sleep: func(d time.Duration) {
			*delays = append(*delays, d)
		},
		jitter: func() time.Duration { return 0 },
		log:    discardLogger(),
	}
}

func TestCreateChatCompletionRetriesServerErrors(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++

		if calls <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	var delays []time.Duration

	c := newTestClient(srv.URL, &delays)

	resp, err := c.CreateChatCompletion(context.Background(), "key", ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}

	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}

	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hello" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// delay schedule is 2s, 4s, 8s with zero jitter
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}

	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %d: %v", len(want), len(delays), delays)
	}

	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d: got %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestCreateChatCompletionExhaustsRetries(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	var delays []time.Duration

	c := newTestClient(srv.URL, &delays)

	_, err := c.CreateChatCompletion(context.Background(), "key", ChatRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}

	failure, ok := err.(*Failure)
	if !ok {
		t.Fatalf("expected *Failure, got %T", err)
	}

	if failure.Kind != KindServer || failure.Status != http.StatusBadGateway {
		t.Fatalf("unexpected failure: %+v", failure)
	}

	// the original message survives retry exhaustion
	if failure.Message != "upstream exploded" {
		t.Fatalf("expected upstream message to survive, got %q", failure.Message)
	}

	if calls != 4 || len(delays) != 3 {
		t.Fatalf("expected 4 attempts and 3 delays, got %d and %d", calls, len(delays))
	}
}

func TestCreateChatCompletionDoesNotRetryClientErrors(t *testing.T) {
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	var delays []time.Duration

	c := newTestClient(srv.URL, &delays)

	_, err := c.CreateChatCompletion(context.Background(), "key", ChatRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected failure")
	}

	if calls != 1 {
		t.Fatalf("4xx must not retry, got %d attempts", calls)
	}

	if len(delays) != 0 {
		t.Fatalf("4xx must not sleep, got %v", delays)
	}

	failure := err.(*Failure)

	if failure.Kind != KindInvalidRequest {
		t.Fatalf("expected invalid_request, got %s", failure.Kind)
	}
}

func TestCreateChatCompletionRetriesConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	url := srv.URL
	srv.Close() // nothing listening anymore

	var delays []time.Duration

	c := newTestClient(url, &delays)

	_, err := c.CreateChatCompletion(context.Background(), "key", ChatRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected failure")
	}

	failure := err.(*Failure)

	if failure.Kind != KindConnRefused {
		t.Fatalf("expected connection_refused, got %s", failure.Kind)
	}

	if len(delays) != 3 {
		t.Fatalf("expected 3 retries, got %d", len(delays))
	}
}

func TestCreateChatCompletionSetsAuthHeader(t *testing.T) {
	var gotAuth, gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	var delays []time.Duration

	c := newTestClient(srv.URL, &delays)

	_, err := c.CreateChatCompletion(context.Background(), "sk-test", ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Fatalf("got Authorization %q", gotAuth)
	}

	if gotContentType != "application/json" {
		t.Fatalf("got Content-Type %q", gotContentType)
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		n      int
		jitter time.Duration
		want   time.Duration
	}{
		{1, 0, 2 * time.Second},
		{2, 0, 4 * time.Second},
		{3, 0, 8 * time.Second},
		{4, 0, 10 * time.Second},              // capped
		{1, 500 * time.Millisecond, 2500 * time.Millisecond},
		{3, 5 * time.Second, 10 * time.Second}, // jitter cannot exceed the cap
		{30, 0, 10 * time.Second},              // shift overflow still capped
	}

	for _, tt := range tests {
		got := backoffDelay(tt.n, tt.jitter)

		if got != tt.want {
			t.Errorf("backoffDelay(%d, %v) = %v, want %v", tt.n, tt.jitter, got, tt.want)
		}
	}
}
