package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErr "judgeview/pkg/errors"
	"judgeview/pkg/utils/contextkey"
	"judgeview/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-Id"

	apiPrefix = "/api/v1"
)

// TokenProvider supplies the bearer credential attached to outgoing requests.
// Credential issuance and refresh belong to an external collaborator; the
// client only forwards whatever the provider returns.
type TokenProvider func() string

// Client is the typed HTTP client for the judge platform. It owns no
// submission state; every method is a plain request/response mapping.
type Client struct {
	baseURL       string
	tokenProvider TokenProvider

	httpClient *http.Client
	// streamClient has no overall timeout so long-lived event subscriptions
	// are bounded by context cancellation instead.
	streamClient *http.Client
}

// New creates a platform client.
func New(baseURL string, timeout time.Duration, tokenProvider TokenProvider) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		tokenProvider: tokenProvider,
		httpClient:    &http.Client{Timeout: timeout},
		streamClient:  &http.Client{},
	}
}

// SetBaseURL replaces the platform base URL.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetTimeout replaces the one-shot request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.InternalError, "marshal request body failed")
		}
		reader = bytes.NewReader(payload)
	}

	target := fmt.Sprintf("%s%s%s", c.baseURL, apiPrefix, path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "build request failed")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID, _ := ctx.Value(contextkey.RequestID).(string)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(requestIDHeader, requestID)

	if c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// doJSON executes a one-shot request and decodes the 2xx body into out.
// It never retries: creation is not idempotent-safe and the retry decision
// belongs to the caller for everything else.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return appErr.Wrapf(ctx.Err(), appErr.Timeout, "request canceled: %s %s", method, path)
		}
		return appErr.Wrapf(err, appErr.TransportFailed, "request failed: %s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	logger.Debug(ctx, "platform request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 400 {
		return decodeErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErr.Wrapf(err, appErr.DecodeFailed, "decode response failed: %s %s", method, path)
	}
	return nil
}

// errorEnvelope matches the platform's FastAPI error payloads: either a bare
// string detail or a list of field validation errors.
type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

func decodeErrorResponse(resp *http.Response) error {
	code := appErr.FromHTTPStatus(resp.StatusCode)
	detail := ""

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(payload) > 0 {
		var envelope errorEnvelope
		if json.Unmarshal(payload, &envelope) == nil && len(envelope.Detail) > 0 {
			var s string
			if json.Unmarshal(envelope.Detail, &s) == nil {
				detail = s
			} else {
				detail = string(envelope.Detail)
			}
		}
	}

	if detail == "" {
		return appErr.Newf(code, "%s (HTTP %d)", code.Message(), resp.StatusCode)
	}
	return appErr.Newf(code, "%s", detail).WithDetail("http_status", resp.StatusCode)
}

// openStream issues a GET expecting a server-push event stream and hands the
// undecoded body to the caller. The caller owns closing it on every path.
func (c *Client) openStream(ctx context.Context, path string, lastEventID string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if lastEventID != "" {
		req.Header.Set("Last-Event-ID", lastEventID)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, appErr.Wrapf(ctx.Err(), appErr.Timeout, "stream open canceled: %s", path)
		}
		return nil, appErr.Wrapf(err, appErr.TransportFailed, "stream open failed: %s", path)
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, decodeErrorResponse(resp)
	}
	return resp.Body, nil
}
