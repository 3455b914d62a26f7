package youtube

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/richardwooding/ytfeed/model"
)

// Upstream operations, each guarded by its own breaker.
const (
	OperationChannels = "channels"
	OperationSearch   = "search"
	OperationAtom     = "atom"
)

// BreakerConfig configures the per-operation circuit breakers.
type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig opens a breaker after 3 consecutive failures and
// lets calls through again after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// Breakers holds one circuit breaker per upstream operation. A nil or
// disabled Breakers runs every call directly.
type Breakers struct {
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakers creates breakers for the given operations.
func NewBreakers(config BreakerConfig, logger *zap.Logger, operations ...string) *Breakers {
	if !config.Enabled {
		return &Breakers{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 3
	}
	if config.Interval <= 0 {
		config.Interval = 60 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 3
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker, len(operations))
	for _, op := range operations {
		breakers[op] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        op,
			MaxRequests: config.MaxRequests,
			Interval:    config.Interval,
			Timeout:     config.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= config.FailureThreshold
			},
			IsSuccessful: countsAsHealthy,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			},
		})
	}
	return &Breakers{breakers: breakers}
}

// countsAsHealthy reports whether err leaves the breaker's failure count
// alone. Only upstream trouble counts: a cancelled caller, a limiter refusal
// or a 4xx for a bad request (an unknown channel id) does not. Quota errors
// do.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	fe, ok := model.AsFeedError(err)
	if !ok {
		return false
	}
	switch fe.ErrorType {
	case model.ErrorTypeHTTPClientError, model.ErrorTypeRateLimit:
		return true
	}
	return false
}

// State reports the state of an operation's breaker. Unknown operations and
// disabled breakers report closed.
func (b *Breakers) State(operation string) gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}
	if cb, ok := b.breakers[operation]; ok {
		return cb.State()
	}
	return gobreaker.StateClosed
}

// execute runs fn under the breaker for operation. A rejected call becomes a
// circuit breaker FeedError without fn being invoked.
func execute[T any](b *Breakers, operation string, fn func() (T, error)) (T, error) {
	var cb *gobreaker.CircuitBreaker
	if b != nil {
		cb = b.breakers[operation]
	}
	if cb == nil {
		return fn()
	}

	var zero T
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, model.CreateCircuitBreakerError(operation, cb.State().String(), err).
			WithComponent("youtube")
	}
	if err != nil {
		return zero, err
	}
	value, ok := result.(T)
	if !ok {
		return zero, model.NewFeedError(model.ErrorTypeInternal, "unexpected result type from circuit breaker").
			WithOperation(operation)
	}
	return value, nil
}
