package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"FinNarrative/internal/domain/models"
	drepo "FinNarrative/internal/domain/repository"
	applogger "FinNarrative/pkg/logger"
)

// ErrCircuitOpen is returned while a provider's breaker rejects calls.
var ErrCircuitOpen = errors.New("provider circuit open")

type BreakerConfig struct {
	MinRequests     uint32
	FailureRatio    float64
	OpenTimeout     time.Duration
	HalfOpenMaxReqs uint32
	CountInterval   time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MinRequests:     5,
		FailureRatio:    0.6,
		OpenTimeout:     30 * time.Second,
		HalfOpenMaxReqs: 2,
		CountInterval:   time.Minute,
	}
}

// StateObserver receives breaker transitions (0=closed, 1=half_open, 2=open).
type StateObserver interface {
	SetBreakerState(provider string, state int)
}

// Breaker guards a PriceSource with a circuit breaker. Unknown symbols and
// caller cancellations do not count as provider failures.
type Breaker struct {
	next drepo.NamedSource
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(next drepo.NamedSource, cfg BreakerConfig, log *applogger.Logger, obs StateObserver) *Breaker {
	log = log.Component("breaker")
	name := next.Name()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxReqs,
		Interval:    cfg.CountInterval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, models.ErrSymbolNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				applogger.String("provider", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
			if obs != nil {
				obs.SetBreakerState(name, stateToInt(to))
			}
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Name() string { return b.next.Name() }

func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) DailyBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return b.next.DailyBars(ctx, symbol, n)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", b.Name(), ErrCircuitOpen)
		}
		return nil, err
	}
	return out.([]models.DailyBar), nil
}

func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
