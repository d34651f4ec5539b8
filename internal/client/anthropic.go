// Package client provides the upstream HTTP client for the Anthropic Messages API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"claude-relay-go/internal/config"
	"claude-relay-go/internal/metrics"
	"claude-relay-go/internal/model"
)

// AnthropicClient sends requests to the upstream Messages API.
// It is safe for concurrent use; all requests share one pooled transport.
type AnthropicClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewAnthropicClient creates an AnthropicClient with connection pooling.
// A zero upstream timeout leaves the client without an overall deadline.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewAnthropicClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *AnthropicClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &AnthropicClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "anthropic_client"),
		metrics: m,
	}
}

// Do executes req and buffers the whole upstream response body.
func (c *AnthropicClient) Do(req *http.Request) (*model.UpstreamResponse, error) {
	c.logger.Debug("upstream request",
		"method", req.Method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		c.observe(method, start, 0, err)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(method, start, 0, err)
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	c.observe(method, start, resp.StatusCode, nil)

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Post sends body to url with the given header. The provided context controls
// the lifetime of the upstream request: when it is canceled (e.g. the client
// disconnects), the upstream request is canceled too.
func (c *AnthropicClient) Post(ctx context.Context, url string, header http.Header, body []byte) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header = header

	return c.Do(req)
}

func (c *AnthropicClient) observe(method string, start time.Time, status int, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamFailures.WithLabelValues(failureKind(err)).Inc()
		return
	}
	c.metrics.UpstreamResponses.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// failureKind buckets transport errors into a bounded label set.
func failureKind(err error) string {
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}
