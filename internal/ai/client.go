package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/routewise/triphub/internal/config"
	"github.com/routewise/triphub/internal/observability"
)

const maxRetries = 3

// VendorError is the error object some providers embed in an otherwise
// well-formed completion envelope.
type VendorError struct {
	Code    string `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type ChatChoice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Error   *VendorError `json:"error,omitempty"`
}

// Client sends chat-completion requests with bounded retries. Delay and
// jitter are injectable so tests can run with a zero-delay clock.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	maxRetries int
	sleep      func(time.Duration)
	jitter     func() time.Duration

	log  *slog.Logger
	prom *observability.Prom
}

// prom may be nil; retry metrics are then skipped.

func NewClient(cfg config.AIConfig, log *slog.Logger, prom *observability.Prom) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		// per-attempt deadline comes from the context, not the client
		httpClient: &http.Client{},
		timeout:    cfg.RequestTimeout,
		maxRetries: maxRetries,
		sleep:      time.Sleep,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(time.Second)))
		},
		log:  log,
		prom: prom,
	}
}

// CreateChatCompletion issues the call, retrying transient failures with
// exponential backoff and jitter. The last failure surfaces verbatim once
// retries are exhausted.
func (c *Client) CreateChatCompletion(ctx context.Context, apiKey string, req ChatRequest) (ChatResponse, error) {
	body, err := json.Marshal(req)

	if err != nil {
		return ChatResponse{}, &Failure{Kind: KindInvalidRequest, Message: err.Error()}
	}

	var lastFailure *Failure

	for attempt := 0; ; attempt++ {
		resp, failure := c.do(ctx, apiKey, body)

		if failure == nil {
			return resp, nil
		}

		lastFailure = failure

		if attempt >= c.maxRetries || !failure.Transient() {
			break
		}

		// retry n is 1-indexed in the delay schedule
		delay := backoffDelay(attempt+1, c.jitter())

		c.log.Warn("ai request retry scheduled",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"delay_ms", delay.Milliseconds(),
			"kind", string(failure.Kind),
			"status", failure.Status,
		)

		if c.prom != nil {
			c.prom.AIRetriesTotal.WithLabelValues(string(failure.Kind)).Inc()
		}

		c.sleep(delay)

		if ctx.Err() != nil {
			break
		}
	}

	return ChatResponse{}, lastFailure
}

// backoffDelay returns min(1s * 2^n + jitter, 10s) for retry n (1-indexed).
func backoffDelay(n int, jitter time.Duration) time.Duration {
	const base = time.Second
	const capDelay = 10 * time.Second

	delay := base << uint(n)

	if delay > capDelay || delay <= 0 {
		delay = capDelay
	}

	delay += jitter

	if delay > capDelay {
		delay = capDelay
	}

	return delay
}

func (c *Client) do(ctx context.Context, apiKey string, body []byte) (ChatResponse, *Failure) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))

	if err != nil {
		return ChatResponse{}, &Failure{Kind: KindInvalidRequest, Message: err.Error()}
	}

	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)

	if err != nil {
		return ChatResponse{}, classifyTransportError(err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return ChatResponse{}, classifyHTTPStatus(httpResp.StatusCode, readSnippet(httpResp.Body, 512))
	}

	var resp ChatResponse

	err = json.NewDecoder(httpResp.Body).Decode(&resp)

	if err != nil {
		return ChatResponse{}, &Failure{Kind: KindUnknown, Status: httpResp.StatusCode, Message: "decode response: " + err.Error()}
	}

	return resp, nil
}

func classifyTransportError(err error) *Failure {
	var dnsErr *net.DNSError

	switch {
	case errors.As(err, &dnsErr):
		return &Failure{Kind: KindDNS, Message: err.Error()}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Failure{Kind: KindConnRefused, Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: KindNetwork, Message: err.Error()}
	}

	var netErr net.Error

	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Kind: KindTimeout, Message: err.Error()}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: KindTimeout, Message: err.Error()}
	}

	return &Failure{Kind: KindNetwork, Message: err.Error()}
}

func classifyHTTPStatus(status int, body string) *Failure {
	kind := KindInvalidRequest

	switch {
	case status >= 500:
		kind = KindServer
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusTooManyRequests:
		kind = KindRateLimit
	}

	return &Failure{Kind: kind, Status: status, Message: body}
}

func readSnippet(r io.Reader, n int64) string {
	b, _ := io.ReadAll(io.LimitReader(r, n))
	return strings.TrimSpace(string(b))
}
