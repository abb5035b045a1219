package util

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Adapts slog to the retryablehttp leveled logger interface.
type LeveledSlog struct {
	inner *slog.Logger
}

func NewLeveledSlog(logger *slog.Logger) LeveledSlog {
	if logger == nil {
		logger = slog.Default()
	}
	return LeveledSlog{inner: logger.With("component", "http")}
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledSlog) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warn(msg, keysAndValues...)
}

// retryablehttp logs every request at DEBUG, which is too chatty for INFO
func (l LeveledSlog) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Debug(msg, keysAndValues...)
}

func (l LeveledSlog) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debug(msg, keysAndValues...)
}

type HTTPClientOptions struct {
	Logger       *slog.Logger
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// overall timeout per request, including retries
	Timeout time.Duration
	// retry policy; retryablehttp.DefaultRetryPolicy if nil
	CheckRetry retryablehttp.CheckRetry
}

func DefaultHTTPClientOptions() HTTPClientOptions {
	return HTTPClientOptions{
		RetryMax:     3,
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 10 * time.Second,
		Timeout:      20 * time.Second,
	}
}

// Generates an HTTP client with the stdlib http.Client interface, but Hashicorp retryablehttp logic internally.
//
// Retries on connection errors, 5xx status (except 501), and 429 (respecting the 'Retry-After' header, which the discord API sets on rate limits). Intermediate failures are logged at WARN level. Requests are traced when an OTEL tracer provider is configured.
func NewRobustHTTPClient(opts HTTPClientOptions) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = otelhttp.NewTransport(cleanhttp.DefaultPooledTransport())
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	retryClient.Logger = retryablehttp.LeveledLogger(NewLeveledSlog(opts.Logger))
	if opts.CheckRetry != nil {
		retryClient.CheckRetry = opts.CheckRetry
	}
	client := retryClient.StandardClient()
	client.Timeout = opts.Timeout
	return client
}

func RobustHTTPClient() *http.Client {
	return NewRobustHTTPClient(DefaultHTTPClientOptions())
}

// Retry policy which only retries requests the server explicitly refused to process (429). Connection errors and 5xx responses are not retried: the request may already have taken effect.
func RateLimitRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusTooManyRequests, nil
}

// Client for non-idempotent requests (eg, posting a message): same as RobustHTTPClient, but only retries on rate limits.
func SendOnceHTTPClient() *http.Client {
	opts := DefaultHTTPClientOptions()
	opts.CheckRetry = RateLimitRetryPolicy
	return NewRobustHTTPClient(opts)
}
