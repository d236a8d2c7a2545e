package sdk

import (
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// options holds the client settings. Risk passes over large catalogs can
// take a while, so the default call timeout is generous.
type options struct {
	timeout      time.Duration
	maxAttempts  int
	initialDelay time.Duration
}

func defaultOptions() options {
	return options{
		timeout:      time.Minute,
		maxAttempts:  3,
		initialDelay: 250 * time.Millisecond,
	}
}

func (o options) retryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:   o.maxAttempts,
		InitialDelay:  o.initialDelay,
		BackoffPolicy: retry.BackoffExponential,
	}
}

// Option configures the SDK client.
type Option func(*options)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetry sets how often a failed transport call is attempted. Tool
// errors reported by the server are never retried. An attempt count below
// one is treated as one.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		o.maxAttempts = maxAttempts
		o.initialDelay = initialDelay
	}
}
