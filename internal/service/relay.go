// Package service implements the core relay logic.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"claude-relay-go/internal/client"
	"claude-relay-go/internal/config"
	"claude-relay-go/internal/model"
)

// Outbound header names.
const (
	HeaderAPIKey  = "X-Api-Key"
	HeaderVersion = "Anthropic-Version"
)

// allowedUpstreamHosts restricts which hosts the relay will forward to.
var allowedUpstreamHosts = map[string]bool{
	"api.anthropic.com": true,
}

// forwardableResponseHeaders are the only upstream response headers handed back.
var forwardableResponseHeaders = map[string]bool{
	"Content-Type": true,
	"Request-Id":   true,
}

// RelayService forwards inbound payloads to the upstream with the caller's
// credential moved from the body into a header. It holds no per-request state.
type RelayService struct {
	client          *client.AnthropicClient
	logger          *slog.Logger
	upstreamURL     string
	version         string
	credentialField string
}

// NewRelayService creates a RelayService.
func NewRelayService(c *client.AnthropicClient, cfg *config.Config, logger *slog.Logger) (*RelayService, error) {
	u, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}

	if !allowedUpstreamHosts[u.Hostname()] {
		return nil, fmt.Errorf("upstream host %q is not in the allowlist", u.Hostname())
	}

	return newRelayService(c, cfg, logger, u), nil
}

// NewRelayServiceForTest creates a RelayService without host allowlist validation.
// This is intended only for tests that use httptest servers on localhost.
func NewRelayServiceForTest(c *client.AnthropicClient, cfg *config.Config, logger *slog.Logger) (*RelayService, error) {
	u, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}

	return newRelayService(c, cfg, logger, u), nil
}

func newRelayService(c *client.AnthropicClient, cfg *config.Config, logger *slog.Logger, u *url.URL) *RelayService {
	field := cfg.Relay.CredentialField
	if field == "" {
		field = config.DefaultCredentialField
	}
	version := cfg.Upstream.Version
	if version == "" {
		version = config.DefaultAPIVersion
	}

	return &RelayService{
		client:          c,
		logger:          logger.With("component", "relay_service"),
		upstreamURL:     u.String(),
		version:         version,
		credentialField: field,
	}
}

// UpstreamURL returns the endpoint every request is relayed to.
func (s *RelayService) UpstreamURL() string {
	return s.upstreamURL
}

// Relay strips the credential from in and posts the remaining fields upstream.
//
// A non-nil response is returned for every status the upstream answers with,
// including 4xx and 5xx; callers decide how to present it. An error means no
// upstream response exists (dial, DNS, timeout, or cancellation).
func (s *RelayService) Relay(ctx context.Context, in model.InboundRequest) (*model.UpstreamResponse, error) {
	credential, payload := in.Split(s.credentialField)

	body, err := encodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("encode forward payload: %w", err)
	}

	s.logger.Debug("relaying request",
		"fields", len(payload),
		"has_credential", credential != "",
	)

	resp, err := s.client.Post(ctx, s.upstreamURL, s.buildHeader(credential), body)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	resp.Header = filterResponseHeaders(resp.Header)
	return resp, nil
}

// encodePayload serializes p without HTML escaping so prompt text containing
// <, > or & is forwarded byte-for-byte.
func encodePayload(p model.ForwardPayload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// buildHeader returns the complete outbound header set. Nothing from the
// inbound request is copied.
func (s *RelayService) buildHeader(credential string) http.Header {
	h := make(http.Header, 3)
	h.Set("Content-Type", "application/json")
	if credential != "" {
		h.Set(HeaderAPIKey, credential)
	}
	h.Set(HeaderVersion, s.version)
	return h
}

func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for key, vals := range src {
		if forwardableResponseHeaders[http.CanonicalHeaderKey(key)] {
			dst[key] = vals
		}
	}
	return dst
}
