package kcdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// QueryParam is one URL query parameter. Parameters are sent in slice order.
type QueryParam struct {
	Key   string
	Value string
}

// Request is a single KCDB request.
type Request struct {
	Method string
	URL    string
	Query  []QueryParam
	// Body is marshalled to JSON when non-nil.
	Body any
	// Timeout bounds the whole round trip. NoTimeout disables it.
	Timeout time.Duration
}

// FullURL returns URL with the encoded query appended.
func (r *Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	var b strings.Builder
	b.WriteString(r.URL)
	sep := "?"
	if strings.Contains(r.URL, "?") {
		sep = "&"
	}
	for _, p := range r.Query {
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
		sep = "&"
	}
	return b.String()
}

// Response is a received KCDB reply. Error statuses are not errors at this level.
type Response struct {
	StatusCode int
	Reason     string
	URL        string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 200.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// RaiseForStatus returns an *HTTPError for 4xx and 5xx statuses.
func (r *Response) RaiseForStatus() error {
	if r.StatusCode >= 400 && r.StatusCode < 600 {
		return &HTTPError{StatusCode: r.StatusCode, Reason: r.Reason, URL: r.URL}
	}
	return nil
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return unmarshal(r.Body, v, "response from "+r.URL)
}

// Transport sends requests to the KCDB server.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// CircuitBreakerConfig configures the optional circuit breaker of HTTPTransport.
type CircuitBreakerConfig struct {
	Enabled          bool          `json:"enabled"`
	MaxRequests      uint32        `json:"max_requests"`
	Interval         time.Duration `json:"interval"`
	Timeout          time.Duration `json:"timeout"`
	FailureThreshold uint32        `json:"failure_threshold"`
}

// HTTPTransportConfig configures an HTTPTransport.
type HTTPTransportConfig struct {
	HTTPClient *http.Client
	UserAgent  string
	// RateLimit is the maximum number of requests per second. Zero means unlimited.
	RateLimit      float64
	CircuitBreaker CircuitBreakerConfig
	Logger         *logrus.Logger
	Metrics        *Metrics
}

// HTTPTransport is the net/http implementation of Transport.
type HTTPTransport struct {
	httpClient *http.Client
	userAgent  string
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
	metrics    *Metrics
}

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "kcdb-go/0.1.0"

// errServerStatus marks a 5xx reply as a failure for the circuit breaker.
var errServerStatus = errors.New("server error status")

// NewHTTPTransport creates an HTTPTransport.
func NewHTTPTransport(config HTTPTransportConfig) *HTTPTransport {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Logger == nil {
		config.Logger = discardLogger()
	}
	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	t := &HTTPTransport{
		httpClient: config.HTTPClient,
		userAgent:  config.UserAgent,
		rateLimit:  rate.NewLimiter(limit, 1),
		logger:     config.Logger,
		metrics:    config.Metrics,
	}
	if config.CircuitBreaker.Enabled {
		t.breaker = newCircuitBreaker(config.CircuitBreaker, config.Logger)
	}
	return t
}

func newCircuitBreaker(cb CircuitBreakerConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	if cb.MaxRequests == 0 {
		cb.MaxRequests = 1
	}
	if cb.Interval == 0 {
		cb.Interval = 60 * time.Second
	}
	if cb.Timeout == 0 {
		cb.Timeout = 30 * time.Second
	}
	if cb.FailureThreshold == 0 {
		cb.FailureThreshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "KCDB",
		MaxRequests: cb.MaxRequests,
		Interval:    cb.Interval,
		Timeout:     cb.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cb.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from_state":      from.String(),
				"to_state":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

// Send performs req. A timeout produces a *TimeoutError, cancellation of ctx
// produces an error wrapping ctx.Err().
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	requestID := uuid.NewString()
	fullURL := req.FullURL()

	parent := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	resp, err := t.execute(ctx, req, fullURL, requestID)

	code := 0
	if resp != nil {
		code = resp.StatusCode
	}
	t.metrics.ObserveRequest(req.Method, endpointOf(req.URL), code, start)

	entry := t.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     req.Method,
		"url":        fullURL,
		"duration":   time.Since(start).String(),
	})
	if err != nil {
		err = classifyError(parent, req, fullURL, err)
		entry.WithError(err).Debug("KCDB request failed")
		return nil, err
	}
	entry.WithField("status", code).Debug("KCDB request completed")
	return resp, nil
}

func (t *HTTPTransport) execute(ctx context.Context, req *Request, fullURL, requestID string) (*Response, error) {
	if t.breaker == nil {
		return t.roundTrip(ctx, req, fullURL, requestID)
	}

	result, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.roundTrip(ctx, req, fullURL, requestID)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})
	switch {
	case errors.Is(err, errServerStatus):
		return result.(*Response), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	case err != nil:
		return nil, err
	}
	return result.(*Response), nil
}

func (t *HTTPTransport) roundTrip(ctx context.Context, req *Request, fullURL, requestID string) (*Response, error) {
	if err := t.rateLimit.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			// the limiter refuses to wait past the deadline
			return nil, fmt.Errorf("rate limit wait failed: %v: %w", err, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Reason:     reasonOf(httpResp),
		URL:        fullURL,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func classifyError(parent context.Context, req *Request, fullURL string, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s %s: %w", req.Method, fullURL, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Timeout: req.Timeout, URL: fullURL, Err: err}
	}
	return fmt.Errorf("%s %s: %w", req.Method, fullURL, err)
}

func reasonOf(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

func endpointOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
