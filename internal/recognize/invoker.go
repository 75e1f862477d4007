package recognize

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/rstamps01/image-to-text/pkg/logger"
)

const (
	// DefaultAttempts is the total number of recognition attempts,
	// including the first.
	DefaultAttempts = 3

	// DefaultInitialDelay is the wait before the first retry; each
	// subsequent wait doubles.
	DefaultInitialDelay = 1000 * time.Millisecond
)

// InvokerConfig tunes the retry behaviour of an Invoker.
type InvokerConfig struct {
	Attempts     uint
	InitialDelay time.Duration
}

// Invoker drives a Provider with bounded exponential-backoff retry.
// Transient upstream failures are retried up to the attempt limit;
// permanent failures propagate immediately. The invoker is stateless and
// never touches page records.
type Invoker struct {
	provider Provider
	cfg      InvokerConfig
	logger   logger.Logger
}

func NewInvoker(provider Provider, cfg *InvokerConfig, log logger.Logger) *Invoker {
	c := InvokerConfig{
		Attempts:     DefaultAttempts,
		InitialDelay: DefaultInitialDelay,
	}
	if cfg != nil {
		if cfg.Attempts > 0 {
			c.Attempts = cfg.Attempts
		}
		if cfg.InitialDelay > 0 {
			c.InitialDelay = cfg.InitialDelay
		}
	}

	return &Invoker{
		provider: provider,
		cfg:      c,
		logger:   log,
	}
}

// Recognize runs one recognition with retries. The error returned after
// exhausted attempts is the provider's last error; callers cannot
// distinguish it from a permanent failure and should not retry further.
func (i *Invoker) Recognize(ctx context.Context, image []byte) (*OCRResult, error) {
	var result *OCRResult

	err := retry.Do(
		func() error {
			res, err := i.provider.Recognize(ctx, image)
			if err != nil {
				return err
			}
			result = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(i.cfg.Attempts),
		retry.Delay(i.cfg.InitialDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(2*time.Minute),
		retry.RetryIf(IsTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			i.logger.Warn("recognition attempt failed, retrying",
				logger.String("provider", i.provider.Name()),
				logger.Uint("attempt", n+1),
				logger.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, err
	}

	return result, nil
}
