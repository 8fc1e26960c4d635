package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
	"github.com/kaurinho-svg/waura-backend/internal/metrics"
)

// BreakerConfig tunes the circuit breaker applied to a provider client.
type BreakerConfig struct {
	// FailureRatio trips the breaker once this share of requests fails.
	FailureRatio float64
	// MinRequests must be observed before the ratio is evaluated.
	MinRequests uint32
	// OpenFor is how long the breaker stays open before probing.
	OpenFor time.Duration
}

// BreakerSearcher shields a provider behind a circuit breaker. While open,
// FetchPage fails fast with ErrProviderUnavailable so the fallback chain
// moves on without burning the page budget.
type BreakerSearcher struct {
	next    ImageSearcher
	breaker *gobreaker.CircuitBreaker[*domain.ImagePage]
}

// WithBreaker wraps an image searcher with a circuit breaker.
func WithBreaker(next ImageSearcher, cfg BreakerConfig, log *zap.Logger) *BreakerSearcher {
	name := next.Name()
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("provider breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: func(err error) bool {
			// Client-side misuse must not trip the breaker.
			return err == nil || isPermanent(err)
		},
	}

	metrics.BreakerState.WithLabelValues(name).Set(0)

	return &BreakerSearcher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*domain.ImagePage](settings),
	}
}

func (b *BreakerSearcher) Name() string     { return b.next.Name() }
func (b *BreakerSearcher) MaxPageSize() int { return b.next.MaxPageSize() }
func (b *BreakerSearcher) MaxOffset() int   { return b.next.MaxOffset() }

func (b *BreakerSearcher) FetchPage(ctx context.Context, query string, start, num int) (*domain.ImagePage, error) {
	page, err := b.breaker.Execute(func() (*domain.ImagePage, error) {
		return b.next.FetchPage(ctx, query, start, num)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s breaker open", domain.ErrProviderUnavailable, b.next.Name())
		}
		return nil, err
	}
	return page, nil
}

// State returns the current breaker state.
func (b *BreakerSearcher) State() gobreaker.State {
	return b.breaker.State()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
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
