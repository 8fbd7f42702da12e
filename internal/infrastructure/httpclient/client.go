// Package httpclient provides the outbound HTTP client shared by the package
// registry and the remote transpiler backend.
//
// Built on go-resty/resty over a go-retryablehttp transport:
//   - Retries with exponential backoff on transient failures
//   - Per-client rate limiting (golang.org/x/time/rate)
//   - Circuit breaker so a dead upstream fails fast
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/playground/internal/infrastructure/resilience"
)

// ErrUnavailable is returned while the breaker is open
var ErrUnavailable = errors.New("upstream unavailable: circuit breaker open")

// Options configures a client
type Options struct {
	Name       string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RPS        float64 // 0 disables rate limiting
	UserAgent  string
}

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	mu      sync.RWMutex
}

// New creates a client from opts
func New(opts Options) *Client {
	if opts.Name == "" {
		opts.Name = "http-external"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "playground/1.0"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetTransport(retryClient.HTTPClient.Transport)
	if opts.BaseURL != "" {
		restyClient.SetBaseURL(opts.BaseURL)
	}

	breaker := resilience.New(opts.Name, resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     20 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
	})

	c := &Client{
		Resty:   restyClient,
		Breaker: breaker,
	}
	c.SetRateLimit(opts.RPS)
	return c
}

// SetRateLimit configures requests per second; rps <= 0 removes the limit
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Request waits for the rate limiter and returns a request bound to ctx
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker.State() == resilience.StateOpen {
		return nil, ErrUnavailable
	}

	c.mu.RLock()
	limiter := c.Limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return c.Resty.R().SetContext(ctx), nil
}

// Do runs fn under the breaker. Responses with a 5xx status count as
// failures; 4xx responses are the caller's problem and do not trip it.
func (c *Client) Do(fn func() (*resty.Response, error)) (*resty.Response, error) {
	var last *resty.Response
	resp, err := resilience.Execute(c.Breaker, func() (*resty.Response, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 500 {
			last = resp
			return nil, fmt.Errorf("upstream status %d", resp.StatusCode())
		}
		return resp, nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, ErrUnavailable
	}
	if err != nil && last != nil {
		return last, err
	}
	return resp, err
}
