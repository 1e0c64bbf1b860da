// Package dispatch implements the bulk notification dispatch engine: it
// partitions a broadcast into provider-sized batches, retries transient
// failures with exponential backoff, and reports partial success instead of
// failing the triggering business operation.
//
// Delivery is at-least-once, best effort. A batch that fails after the
// provider partially processed it may be retried in full, so recipients can
// receive duplicates; the engine does not deduplicate.
package dispatch

import (
	"context"
	"time"

	"offermarket_backend/internal/delivery"
	"offermarket_backend/platform/config"
	"offermarket_backend/platform/logger"
)

const (
	// DefaultMaxBatchSize is the provider batch ceiling.
	DefaultMaxBatchSize = delivery.MaxBatchMessages
	// DefaultMaxRetries is the total number of attempts per batch.
	DefaultMaxRetries = 3
	// DefaultInterBatchDelay spaces out successive batch calls so a large
	// broadcast stays under the provider's aggregate rate ceiling.
	DefaultInterBatchDelay = time.Second
)

// Result reports the outcome of a dispatch call. Notified counts recipients
// in batches that were accepted by the provider; a batch that exhausts its
// retries reduces Notified but is not an error.
type Result struct {
	Notified int `json:"notified"`
	Total    int `json:"total"`
}

// Engine sends batches sequentially through the delivery provider. One engine
// instance is shared; it holds no per-dispatch state.
type Engine struct {
	provider        delivery.Provider
	log             *logger.Logger
	maxBatchSize    int
	maxRetries      int
	interBatchDelay time.Duration

	// sleep is injectable so tests can observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a dispatch engine with the configured tuning knobs.
func New(provider delivery.Provider, cfg config.DispatchConfig, log *logger.Logger) *Engine {
	e := &Engine{
		provider:        provider,
		log:             log,
		maxBatchSize:    cfg.GetDispatchMaxBatchSize(),
		maxRetries:      cfg.GetDispatchMaxRetries(),
		interBatchDelay: cfg.GetDispatchInterBatchDelay(),
		sleep:           sleepContext,
	}
	if e.maxBatchSize < 1 || e.maxBatchSize > delivery.MaxBatchMessages {
		e.maxBatchSize = DefaultMaxBatchSize
	}
	if e.maxRetries < 1 {
		e.maxRetries = DefaultMaxRetries
	}
	if e.interBatchDelay <= 0 {
		e.interBatchDelay = DefaultInterBatchDelay
	}
	return e
}

// Dispatch fans one broadcast event out to all recipients. Batches run
// sequentially; a batch that exhausts all attempts is logged and skipped so
// the remaining batches still go out. The returned Result never carries an
// error: delivery failures degrade, they do not propagate.
func (e *Engine) Dispatch(ctx context.Context, event string, msgs []delivery.Message) Result {
	result := Result{Total: len(msgs)}
	if len(msgs) == 0 {
		return result
	}

	batches := partition(msgs, e.maxBatchSize)
	for i, batch := range batches {
		if i > 0 {
			if err := e.sleep(ctx, e.interBatchDelay); err != nil {
				e.log.DispatchBatchFailed(event, i, len(batch), 0, err)
				continue
			}
		}

		attempts, err := e.sendWithRetry(ctx, func(c context.Context) error {
			return e.provider.SendBatch(c, batch)
		})
		if err != nil {
			e.log.DispatchBatchFailed(event, i, len(batch), attempts, err)
			continue
		}
		result.Notified += len(batch)
	}

	return result
}

// Send delivers a single-recipient notification through the same retry
// policy. Unlike Dispatch, the error is returned so callers can record it;
// the lifecycle coordinator still must not fail on it.
func (e *Engine) Send(ctx context.Context, msg delivery.Message) error {
	_, err := e.sendWithRetry(ctx, func(c context.Context) error {
		return e.provider.SendOne(c, msg)
	})
	return err
}

// sendWithRetry attempts the call up to maxRetries times, waiting 2^attempt
// time units between attempts (2s after the first failure, 4s after the
// second). Rate-limit-shaped failures and any non-final failure are retried.
func (e *Engine) sendWithRetry(ctx context.Context, send func(context.Context) error) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		lastErr = send(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == e.maxRetries {
			// Budget spent; rate-limit-shaped or not, there is no next attempt.
			break
		}

		if e.log != nil {
			e.log.Debug("dispatch attempt failed",
				"attempt", attempt,
				"rate_limited", delivery.IsRateLimited(lastErr),
				"error", lastErr.Error(),
			)
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		if err := e.sleep(ctx, backoff); err != nil {
			return attempt, lastErr
		}
	}
	return e.maxRetries, lastErr
}

func partition(msgs []delivery.Message, size int) [][]delivery.Message {
	batches := make([][]delivery.Message, 0, (len(msgs)+size-1)/size)
	for start := 0; start < len(msgs); start += size {
		end := start + size
		if end > len(msgs) {
			end = len(msgs)
		}
		batches = append(batches, msgs[start:end])
	}
	return batches
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
