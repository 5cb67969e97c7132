package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	pkghttp "github.com/futig/interview-flow/pkg/http"
)

const (
	defaultAttempts = 3
	defaultMaxDelay = 2 * time.Second
	defaultDelay    = 100 * time.Millisecond
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"200ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"2s"`
	// Timeout bounds all attempts together; zero leaves it to the caller's context.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"0s"`
}

func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	attempts := rc.Attempts
	if attempts == 0 {
		attempts = 1
	}

	return []retry.Option{
		retry.Attempts(attempts),
		retry.MaxDelay(rc.MaxDelay),
		retry.Delay(rc.Delay),
		retry.DelayType(serverPacedDelay),
		retry.RetryIf(pkghttp.IsRetryable),
		retry.LastErrorOnly(true),
	}
}

var jitteredBackoff = retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)

// serverPacedDelay waits as long as a throttling collaborator asked,
// otherwise backs off with jitter. MaxDelay caps both.
func serverPacedDelay(n uint, err error, config *retry.Config) time.Duration {
	if d, ok := pkghttp.RetryAfter(err); ok {
		return d
	}
	return jitteredBackoff(n, err, config)
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error or the
// attempts are used up.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	opts := append(cfg.ToRetryOptions(), retry.Context(ctx))

	return retry.Do(func() error {
		return fn(ctx)
	}, opts...)
}

// DoWithData is Do for calls that return a value.
func DoWithData[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	opts := append(cfg.ToRetryOptions(), retry.Context(ctx))

	return retry.DoWithData(func() (T, error) {
		return fn(ctx)
	}, opts...)
}
