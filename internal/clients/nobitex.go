// Package clients holds the HTTP client for the Nobitex REST API.
package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/finbase/nobisync/internal/domain"
	"github.com/finbase/nobisync/pkg/retrier"
)

const (
	defaultBaseURL    = "https://api.nobitex.ir"
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// Config is the transport policy for the client. Zero values fall back to
// the defaults above.
type Config struct {
	BaseURL    string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Nobitex is a thin JSON client for the Nobitex REST API with bounded
// fixed-delay retries on transient failures.
type Nobitex struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	logger     *zap.Logger
}

// CallOptions overrides transport policy and request shape for one call.
type CallOptions struct {
	Query      url.Values
	Headers    map[string]string
	Timeout    time.Duration
	RetryDelay time.Duration
}

// NewNobitex creates a client from the given transport policy.
func NewNobitex(cfg Config, logger *zap.Logger) *Nobitex {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Nobitex{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
		logger:     logger,
	}
}

type statusProbe struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Call issues a GET to path, retries transient failures, and decodes the
// JSON response into out.
func (c *Nobitex) Call(ctx context.Context, path string, opts CallOptions, out any) error {
	delay := c.retryDelay
	if opts.RetryDelay > 0 {
		delay = opts.RetryDelay
	}

	r := retrier.New(retrier.WithMaxRetries(c.maxRetries), retrier.WithDelay(delay))

	return r.Do(ctx, func(ctx context.Context) error {
		err := c.do(ctx, path, opts, out)
		if err != nil {
			c.logger.Debug("nobitex call failed",
				zap.String("path", path),
				zap.Error(err))
		}
		return err
	})
}

func (c *Nobitex) do(ctx context.Context, path string, opts CallOptions, out any) error {
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + path
	if len(opts.Query) > 0 {
		u += "?" + opts.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return retrier.Permanent(errors.Wrap(err, "build request"))
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.RemoteError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.RemoteError{Path: path, Err: err}
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return &domain.RemoteError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        errors.Errorf("%s", http.StatusText(resp.StatusCode)),
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return retrier.Permanent(&domain.ValidationError{Reason: "exchange rejected the API key"})
	case resp.StatusCode >= http.StatusBadRequest:
		return retrier.Permanent(&domain.RemoteError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        errors.Errorf("%s", http.StatusText(resp.StatusCode)),
		})
	}

	var probe statusProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		return retrier.Permanent(&domain.RemoteError{Path: path, Err: errors.Wrap(err, "decode response")})
	}
	if probe.Status == "failed" {
		return retrier.Permanent(&domain.RemoteError{
			Path: path,
			Err:  errors.Errorf("exchange reported failure: %s", probe.Message),
		})
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return retrier.Permanent(&domain.RemoteError{Path: path, Err: errors.Wrap(err, "decode response")})
	}

	return nil
}
