package qa

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/metrics"
)

// AdapterConfig tunes how the adapter calls its oracle.
type AdapterConfig struct {
	Provider string
	Model    string
	Timeout  time.Duration // per attempt; 0 disables
	Retry    config.RetryConfig
	Stats    *Stats
	Logger   *zap.Logger
}

// Adapter sends the selected chunk as context and returns the oracle's
// output unchanged. It never thresholds or validates the answer. Any
// failure comes back wrapped in ErrOracleUnavailable.
type Adapter struct {
	oracle   Oracle
	provider string
	model    string
	timeout  time.Duration
	retry    []retry.Option
	stats    *Stats
	log      *zap.Logger
}

// NewAdapter wraps oracle with the timeout, retry and stats in cfg.
func NewAdapter(oracle Oracle, cfg AdapterConfig) *Adapter {
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 1
	}
	if cfg.Stats == nil {
		cfg.Stats = NewStats(time.Hour)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Provider == "" {
		cfg.Provider = "unknown"
	}

	opts := append(cfg.Retry.ToRetryOptions(),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			cfg.Logger.Warn("retrying oracle call",
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)

	return &Adapter{
		oracle:   oracle,
		provider: cfg.Provider,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		retry:    opts,
		stats:    cfg.Stats,
		log:      cfg.Logger,
	}
}

func (a *Adapter) Answer(ctx context.Context, question, passage string) (Answer, error) {
	start := time.Now()

	ans, err := retry.DoWithData(func() (Answer, error) {
		return a.call(ctx, question, passage)
	}, append(slices.Clip(a.retry), retry.Context(ctx))...)

	duration := time.Since(start)
	if err != nil {
		metrics.OracleRequestsTotal.WithLabelValues(a.provider, "error").Inc()
		a.stats.RecordError()
		a.log.Warn("oracle call failed",
			zap.String("provider", a.provider),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if errors.Is(err, ErrOracleUnavailable) {
			return Answer{}, err
		}
		return Answer{}, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}

	metrics.OracleRequestsTotal.WithLabelValues(a.provider, "success").Inc()
	metrics.OracleRequestDuration.WithLabelValues(a.provider).Observe(duration.Seconds())
	a.stats.Record(duration)
	return ans, nil
}

func (a *Adapter) call(ctx context.Context, question, passage string) (Answer, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.oracle.Answer(ctx, question, passage)
}

// Close releases the wrapped oracle's resources.
func (a *Adapter) Close() {
	if c, ok := a.oracle.(closer); ok {
		c.Close()
	}
}

// Provider returns the configured provider name.
func (a *Adapter) Provider() string { return a.provider }

// Model returns the configured model name.
func (a *Adapter) Model() string { return a.model }

// Stats returns the rolling latency window.
func (a *Adapter) Stats() StatsSnapshot { return a.stats.Snapshot() }
