package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"research-agent/internal/common/logger"
	"research-agent/internal/common/metrics"
)

const (
	DefaultTimeout    = 12 * time.Second
	DefaultMaxRetries = 2

	backoffBase = 600 * time.Millisecond
	backoffMax  = 6 * time.Second
	jitterRatio = 0.25

	bodyPreviewLimit = 400
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

type Request struct {
	Method   string
	URL      string
	Headers  map[string]string
	Params   url.Values
	JSONBody interface{}
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client performs outbound calls with a per-call timeout and bounded retries
// on transient failures. Failures are returned as *Error.
type Client struct {
	httpClient      *http.Client
	maxRetries      int
	logRedactedBody bool
	logger          logger.Logger
	sleep           func(ctx context.Context, d time.Duration) error
	jitter          func() float64
}

type Option func(*Client)

func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithRedactedBodyLogging(enabled bool) Option {
	return func(c *Client) { c.logRedactedBody = enabled }
}

// WithSleeper replaces the backoff sleep. Tests use it to observe delays.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithJitter replaces the jitter source, which must return values in [0, 1).
func WithJitter(jitter func() float64) Option {
	return func(c *Client) { c.jitter = jitter }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: DefaultMaxRetries,
		logger:     logger.NewNoOpLogger(),
		sleep:      sleepContext,
		jitter:     rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(map[string]interface{}{"component": "http"})
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BackoffDelay is base*2^attempt plus up to 25% of that as jitter, capped.
func BackoffDelay(attempt int, jitterFrac float64) time.Duration {
	expo := float64(backoffBase) * math.Pow(2, float64(attempt))
	delay := expo + jitterFrac*jitterRatio*expo
	if delay > float64(backoffMax) {
		return backoffMax
	}
	return time.Duration(delay)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func buildURL(raw string, params url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Do sends the request, retrying network errors, timeouts and 429/5xx
// gateway statuses up to maxRetries times. Other 4xx fail immediately.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if !allowedMethods[method] {
		return nil, &Error{Kind: KindUnexpected, Message: fmt.Sprintf("unsupported method: %s", req.Method), URL: req.URL}
	}

	fullURL, err := buildURL(req.URL, req.Params)
	if err != nil {
		return nil, &Error{Kind: KindUnexpected, Message: err.Error(), URL: req.URL}
	}

	var payload []byte
	if req.JSONBody != nil {
		payload, err = json.Marshal(req.JSONBody)
		if err != nil {
			return nil, &Error{Kind: KindUnexpected, Message: fmt.Sprintf("encode body: %v", err), URL: req.URL}
		}
	}

	host := hostOf(fullURL)
	attempts := c.maxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		c.logAttempt(method, fullURL, attempt, attempts, req)

		resp, callErr := c.send(ctx, method, fullURL, req.Headers, payload)
		if callErr != nil {
			kind := KindNetwork
			if isTimeout(callErr) {
				kind = KindTimeout
			}
			msg := transportMessage(callErr, fullURL)
			if ctx.Err() != nil {
				return nil, &Error{Kind: kind, Message: msg, URL: fullURL}
			}
			c.logger.Warn("outbound call failed", map[string]interface{}{
				"url":     SanitizeURL(fullURL),
				"kind":    string(kind),
				"attempt": attempt + 1,
				"error":   msg,
			})
			if attempt < attempts-1 {
				if err := c.backoff(ctx, attempt, host, string(kind)); err != nil {
					return nil, &Error{Kind: KindTimeout, Message: err.Error(), URL: fullURL}
				}
				continue
			}
			return nil, &Error{Kind: kind, Message: msg, URL: fullURL}
		}

		if isRetryableStatus(resp.StatusCode) {
			c.logger.Warn("retryable status", map[string]interface{}{
				"url":        SanitizeURL(fullURL),
				"statusCode": resp.StatusCode,
				"attempt":    attempt + 1,
			})
			if attempt < attempts-1 {
				if err := c.backoff(ctx, attempt, host, strconv.Itoa(resp.StatusCode)); err != nil {
					return nil, &Error{Kind: KindTimeout, Message: err.Error(), URL: fullURL}
				}
				continue
			}
			return nil, &Error{
				Kind:         KindHTTP,
				Message:      fmt.Sprintf("retryable HTTP status: %d", resp.StatusCode),
				StatusCode:   resp.StatusCode,
				URL:          fullURL,
				ResponseText: truncate(string(resp.Body), maxResponseText),
			}
		}

		if resp.StatusCode >= 400 {
			return nil, &Error{
				Kind:         KindHTTP,
				Message:      fmt.Sprintf("HTTP error %d", resp.StatusCode),
				StatusCode:   resp.StatusCode,
				URL:          fullURL,
				ResponseText: truncate(string(resp.Body), maxResponseText),
			}
		}

		return resp, nil
	}

	return nil, &Error{Kind: KindUnexpected, Message: "request loop exhausted", URL: fullURL}
}

// DoJSON is Do followed by decoding a JSON object body.
func (c *Client) DoJSON(ctx context.Context, req Request) (map[string]interface{}, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return nil, &Error{
			Kind:         KindParse,
			Message:      fmt.Sprintf("failed to parse JSON from response: %v", err),
			StatusCode:   resp.StatusCode,
			URL:          req.URL,
			ResponseText: truncate(string(resp.Body), maxResponseText),
		}
	}
	return data, nil
}

// DoInto is Do followed by decoding the JSON body into out.
func (c *Client) DoInto(ctx context.Context, req Request, out interface{}) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Error{
			Kind:         KindParse,
			Message:      fmt.Sprintf("failed to parse JSON from response: %v", err),
			StatusCode:   resp.StatusCode,
			URL:          req.URL,
			ResponseText: truncate(string(resp.Body), maxResponseText),
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, fullURL string, headers map[string]string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) backoff(ctx context.Context, attempt int, host, reason string) error {
	delay := BackoffDelay(attempt, c.jitter())
	metrics.HTTPRetries.WithLabelValues(host, reason).Inc()
	c.logger.Debug("backing off", map[string]interface{}{
		"host":    host,
		"reason":  reason,
		"attempt": attempt + 1,
		"delayMs": delay.Milliseconds(),
	})
	return c.sleep(ctx, delay)
}

func (c *Client) logAttempt(method, fullURL string, attempt, attempts int, req Request) {
	fields := map[string]interface{}{
		"method":     method,
		"url":        SanitizeURL(fullURL),
		"attempt":    attempt + 1,
		"maxAttempt": attempts,
	}
	if len(req.Params) > 0 {
		keys := make(map[string]interface{}, len(req.Params))
		for k := range req.Params {
			keys[k] = nil
		}
		fields["paramKeys"] = sortedKeys(keys, 25)
	}
	if req.JSONBody != nil {
		fields["jsonKeys"] = bodyKeys(req.JSONBody)
		if c.logRedactedBody {
			fields["jsonPreview"] = bodyPreview(req.JSONBody, bodyPreviewLimit)
		}
	}
	c.logger.Debug("http request", fields)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "unknown"
	}
	return u.Host
}

// transportMessage describes a transport failure without the request URL,
// whose query string may carry an API key.
func transportMessage(err error, fullURL string) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return fmt.Sprintf("%s %s: %v", urlErr.Op, SanitizeURL(urlErr.URL), urlErr.Err)
	}
	return strings.ReplaceAll(err.Error(), fullURL, SanitizeURL(fullURL))
}
