package provider

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// RetrySearcher retries transient FetchPage failures with exponential
// backoff. Misconfiguration and invalid input are permanent and never
// retried.
type RetrySearcher struct {
	next     ImageSearcher
	maxTries uint
	initial  time.Duration
	log      *zap.Logger
}

// WithRetry wraps an image searcher with bounded retries.
func WithRetry(next ImageSearcher, maxAttempts int, initialDelay time.Duration, log *zap.Logger) *RetrySearcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetrySearcher{
		next:     next,
		maxTries: uint(maxAttempts),
		initial:  initialDelay,
		log:      log,
	}
}

func (r *RetrySearcher) Name() string     { return r.next.Name() }
func (r *RetrySearcher) MaxPageSize() int { return r.next.MaxPageSize() }
func (r *RetrySearcher) MaxOffset() int   { return r.next.MaxOffset() }

func (r *RetrySearcher) FetchPage(ctx context.Context, query string, start, num int) (*domain.ImagePage, error) {
	attempt := 0
	operation := func() (*domain.ImagePage, error) {
		attempt++
		page, err := r.next.FetchPage(ctx, query, start, num)
		if err != nil {
			if isPermanent(err) {
				return nil, backoff.Permanent(err)
			}
			r.log.Warn("provider request failed",
				zap.String("provider", r.next.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return nil, err
		}
		return page, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.initial

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(r.maxTries),
	)
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrProviderNotConfigured) ||
		errors.Is(err, domain.ErrInvalidQuery) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
