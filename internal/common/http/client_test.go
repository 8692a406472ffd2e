package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"research-agent/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestClient(t *testing.T, rec *sleepRecorder, opts ...Option) *Client {
	base := []Option{
		WithLogger(logger.NewTestLogger(t)),
		WithSleeper(rec.sleep),
		WithJitter(func() float64 { return 0 }),
	}
	return NewClient(2*time.Second, append(base, opts...)...)
}

func statusSequence(t *testing.T, statuses []int, body string) (*httptest.Server, *int32) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		idx := int(n) - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		w.WriteHeader(statuses[idx])
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestClient_RetryThenSuccess(t *testing.T) {
	server, calls := statusSequence(t, []int{http.StatusTooManyRequests, http.StatusOK}, `{"ok": true}`)
	rec := &sleepRecorder{}
	client := newTestClient(t, rec)

	data, err := client.DoJSON(context.Background(), Request{Method: "GET", URL: server.URL})

	require.NoError(t, err)
	assert.Equal(t, true, data["ok"])
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	require.Len(t, rec.delays, 1)
	assert.Equal(t, 600*time.Millisecond, rec.delays[0])
}

func TestClient_NonRetryable4xx(t *testing.T) {
	server, calls := statusSequence(t, []int{http.StatusBadRequest}, `bad request`)
	rec := &sleepRecorder{}
	client := newTestClient(t, rec)

	_, err := client.Do(context.Background(), Request{Method: "POST", URL: server.URL, JSONBody: map[string]string{"q": "x"}})

	var httpErr *Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, KindHTTP, httpErr.Kind)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "bad request", httpErr.ResponseText)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Empty(t, rec.delays)
}

func TestClient_RetriesExhausted(t *testing.T) {
	server, calls := statusSequence(t, []int{http.StatusServiceUnavailable}, `down`)
	rec := &sleepRecorder{}
	client := newTestClient(t, rec, WithMaxRetries(2))

	_, err := client.Do(context.Background(), Request{Method: "GET", URL: server.URL})

	var httpErr *Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, KindHTTP, httpErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Equal(t, []time.Duration{600 * time.Millisecond, 1200 * time.Millisecond}, rec.delays)
}

func TestClient_ParseErrorAfterSuccess(t *testing.T) {
	server, _ := statusSequence(t, []int{http.StatusOK}, `<html>not json</html>`)
	client := newTestClient(t, &sleepRecorder{})

	_, err := client.DoJSON(context.Background(), Request{Method: "GET", URL: server.URL})

	var httpErr *Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, KindParse, httpErr.Kind)
	assert.Equal(t, http.StatusOK, httpErr.StatusCode)
}

func TestClient_NetworkErrorRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	rec := &sleepRecorder{}
	client := newTestClient(t, rec, WithMaxRetries(1))

	_, err := client.Do(context.Background(), Request{Method: "GET", URL: addr})

	var httpErr *Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, KindNetwork, httpErr.Kind)
	assert.Len(t, rec.delays, 1)
}

func TestClient_TimeoutKind(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	rec := &sleepRecorder{}
	client := NewClient(50*time.Millisecond,
		WithLogger(logger.NewTestLogger(t)),
		WithSleeper(rec.sleep),
		WithMaxRetries(0),
	)

	_, err := client.Do(context.Background(), Request{Method: "GET", URL: server.URL})

	var httpErr *Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, KindTimeout, httpErr.Kind)
	assert.Empty(t, rec.delays)
}

func TestClient_UnsupportedMethod(t *testing.T) {
	client := newTestClient(t, &sleepRecorder{})
	_, err := client.Do(context.Background(), Request{Method: "TRACE", URL: "http://example.invalid"})

	var httpErr *Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, KindUnexpected, httpErr.Kind)
}

func TestClient_SendsParamsHeadersAndBody(t *testing.T) {
	var gotQuery url.Values
	var gotHeader string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotHeader = r.Header.Get("X-API-KEY")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, &sleepRecorder{}, WithRedactedBodyLogging(true))
	_, err := client.DoJSON(context.Background(), Request{
		Method:   "post",
		URL:      server.URL + "/search",
		Headers:  map[string]string{"X-API-KEY": "secret-key"},
		Params:   url.Values{"q": {"golang"}},
		JSONBody: map[string]interface{}{"q": "golang", "num": 3},
	})

	require.NoError(t, err)
	assert.Equal(t, "golang", gotQuery.Get("q"))
	assert.Equal(t, "secret-key", gotHeader)
	assert.Equal(t, "golang", gotBody["q"])
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt int
		jitter  float64
		want    time.Duration
	}{
		{0, 0, 600 * time.Millisecond},
		{1, 0, 1200 * time.Millisecond},
		{2, 0, 2400 * time.Millisecond},
		{0, 1, 750 * time.Millisecond},
		{3, 1, 6 * time.Second},
		{10, 0, 6 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BackoffDelay(tt.attempt, tt.jitter), "attempt=%d jitter=%v", tt.attempt, tt.jitter)
	}
}

func TestError_SanitizesURL(t *testing.T) {
	err := &Error{
		Kind:       KindHTTP,
		Message:    "HTTP error 403",
		StatusCode: 403,
		URL:        "https://www.googleapis.com/youtube/v3/search?key=abc123&q=go",
	}

	assert.Equal(t, "https://www.googleapis.com/youtube/v3/search", err.SafeURL())
	assert.Equal(t, "http error: HTTP error 403 (status=403) (url=https://www.googleapis.com/youtube/v3/search)", err.Error())
	assert.NotContains(t, err.Error(), "abc123")
}

func TestRedact(t *testing.T) {
	body := map[string]interface{}{
		"q":       "golang",
		"api_key": "k",
		"nested": map[string]interface{}{
			"Authorization": "Bearer x",
			"items":         []interface{}{map[string]interface{}{"refresh_token": "r", "keep": 1}},
		},
	}

	got := Redact(body).(map[string]interface{})
	assert.Equal(t, "golang", got["q"])
	assert.Equal(t, redactedValue, got["api_key"])
	nested := got["nested"].(map[string]interface{})
	assert.Equal(t, redactedValue, nested["Authorization"])
	item := nested["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, redactedValue, item["refresh_token"])
	assert.Equal(t, 1, item["keep"])
	assert.Equal(t, "k", body["api_key"], "input must not be mutated")
}

func TestBodyPreview_TruncatesAndRedacts(t *testing.T) {
	preview := bodyPreview(map[string]interface{}{"password": "hunter2", "q": "x"}, 400)
	assert.NotContains(t, preview, "hunter2")
	assert.Contains(t, preview, redactedValue)

	long := bodyPreview(map[string]interface{}{"q": string(make([]byte, 1000))}, 50)
	assert.Len(t, long, 50)
}

func TestClient_TransportErrorsHideQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL + "/youtube/v3/search"
	server.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	client := NewClient(2*time.Second,
		WithLogger(logger.NewZapAdapter(zap.New(core))),
		WithSleeper((&sleepRecorder{}).sleep),
		WithMaxRetries(1),
	)

	_, err := client.Do(context.Background(), Request{
		Method: "GET",
		URL:    addr,
		Params: url.Values{"key": {"SUPERSECRETKEY"}, "q": {"ros2"}},
	})

	var httpErr *Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, KindNetwork, httpErr.Kind)
	assert.NotContains(t, err.Error(), "SUPERSECRETKEY")
	assert.NotContains(t, httpErr.Message, "SUPERSECRETKEY")
	assert.Contains(t, httpErr.Message, "/youtube/v3/search")

	require.NotEmpty(t, logs.All())
	for _, entry := range logs.All() {
		for k, v := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(v), "SUPERSECRETKEY", "log field %s", k)
		}
	}
}

func TestClient_TimeoutHidesQuery(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := NewClient(50*time.Millisecond,
		WithLogger(logger.NewTestLogger(t)),
		WithSleeper((&sleepRecorder{}).sleep),
		WithMaxRetries(0),
	)

	_, err := client.Do(context.Background(), Request{
		Method: "GET",
		URL:    server.URL,
		Params: url.Values{"api_key": {"SUPERSECRETKEY"}},
	})

	var httpErr *Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, KindTimeout, httpErr.Kind)
	assert.NotContains(t, httpErr.Message, "SUPERSECRETKEY")
}

func TestTransportMessage(t *testing.T) {
	full := "http://127.0.0.1:1/search?key=SUPERSECRETKEY"

	wrapped := &url.Error{Op: "Get", URL: full, Err: errors.New("connection refused")}
	assert.Equal(t, "Get http://127.0.0.1:1/search: connection refused", transportMessage(wrapped, full))

	plain := fmt.Errorf("dial %s failed", full)
	assert.Equal(t, "dial http://127.0.0.1:1/search failed", transportMessage(plain, full))
}
