package mailer

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/yukikurage/taskwave-api/internal/logging"
	"github.com/yukikurage/taskwave-api/internal/metrics"
)

// BreakerConfig tunes the circuit breaker around the provider.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig opens after five consecutive failures for thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "email",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerSender stops calling a failing provider until it recovers.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSender wraps next with a circuit breaker.
func NewBreakerSender(next Sender, cfg BreakerConfig) *BreakerSender {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Email circuit breaker state changed")
		},
	}

	return &BreakerSender{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (s *BreakerSender) Send(ctx context.Context, msg Message) error {
	_, err := s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.next.Send(ctx, msg)
	})
	if err != nil {
		metrics.EmailFailures.Inc()
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// State reports the breaker state.
func (s *BreakerSender) State() string {
	return s.cb.State().String()
}

// Check fails while the breaker is open. It is registered as the email
// health check.
func (s *BreakerSender) Check(ctx context.Context) error {
	if s.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: circuit breaker %s is open", ErrDelivery, s.cb.Name())
	}
	return nil
}
