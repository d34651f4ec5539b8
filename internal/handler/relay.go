package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"

	"github.com/labstack/echo/v4"

	"claude-relay-go/internal/model"
	"claude-relay-go/internal/service"
)

const errBodyNotObject = "request body must be a JSON object"

// credentialPattern matches Anthropic API keys that may surface in upstream error text.
var credentialPattern = regexp.MustCompile(`(sk-ant-)[A-Za-z0-9_\-]+`)

// RelayHandler serves POST /api/claude.
type RelayHandler struct {
	service *service.RelayService
	logger  *slog.Logger
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(svc *service.RelayService, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		service: svc,
		logger:  logger.With("component", "relay_handler"),
	}
}

// Handle relays the request body upstream and writes back the upstream's answer.
//
// Any 2xx from upstream is reported as 200 with the upstream body. Upstream
// rejections keep their status and body. When no upstream response exists the
// client gets 500 with a {"message": ...} body.
func (h *RelayHandler) Handle(c echo.Context) error {
	in, err := decodeInbound(c)
	if err != nil {
		return err
	}

	resp, err := h.service.Relay(c.Request().Context(), in)
	if err != nil {
		return h.transportError(c, err)
	}

	if !resp.OK() {
		return h.upstreamError(c, resp)
	}

	copyHeaders(c, resp)
	return c.Blob(http.StatusOK, contentType(resp), resp.Body)
}

// decodeInbound parses the body as exactly one JSON object. Malformed bodies,
// trailing data and non-object values fail with 400 before anything is
// relayed; an empty body counts as {}.
func decodeInbound(c echo.Context) (model.InboundRequest, error) {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unable to read request body").SetInternal(err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return model.InboundRequest{}, nil
	}

	var in model.InboundRequest
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, errBodyNotObject).SetInternal(err)
	}
	if in == nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, errBodyNotObject)
	}
	return in, nil
}

func (h *RelayHandler) upstreamError(c echo.Context, resp *model.UpstreamResponse) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		message := http.StatusText(resp.StatusCode)
		if message == "" {
			message = "upstream request failed"
		}
		h.logger.Error("upstream rejected request",
			"status", resp.StatusCode,
			"message", message,
		)
		return c.JSON(resp.StatusCode, model.ErrorBody{Message: message})
	}

	h.logger.Error("upstream rejected request",
		"status", resp.StatusCode,
		"body", redact(string(resp.Body)),
	)
	copyHeaders(c, resp)
	return c.Blob(resp.StatusCode, contentType(resp), resp.Body)
}

func (h *RelayHandler) transportError(c echo.Context, err error) error {
	message := describeError(err)
	h.logger.Error("relay error",
		"err", redact(err.Error()),
		"message", message,
	)
	return c.JSON(http.StatusInternalServerError, model.ErrorBody{Message: message})
}

// describeError turns a transport failure into a short client-facing description.
func describeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "upstream request timed out"
	}

	if errors.Is(err, context.Canceled) {
		return "client disconnected"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "upstream host unreachable"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "upstream request timed out"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "upstream connection failed"
	}

	return "upstream request failed"
}

func copyHeaders(c echo.Context, resp *model.UpstreamResponse) {
	if id := resp.Header.Get("Request-Id"); id != "" {
		c.Response().Header().Set("Request-Id", id)
	}
}

func contentType(resp *model.UpstreamResponse) string {
	if ct := resp.Header.Get(echo.HeaderContentType); ct != "" {
		return ct
	}
	return echo.MIMEApplicationJSON
}

// redact masks API keys in text bound for logs.
func redact(s string) string {
	return credentialPattern.ReplaceAllString(s, "${1}[REDACTED]")
}
