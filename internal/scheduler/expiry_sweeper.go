package scheduler

import (
	"context"
	"time"

	"offermarket_backend/platform/logger"
)

// ExpirySweeper periodically enqueues the offer expiry sweep task.
type ExpirySweeper struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewExpirySweeper(client *Client, interval time.Duration, log *logger.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpirySweeper{client: client, interval: interval, log: log}
}

func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := s.client.EnqueueExpireOffers(ctx); err != nil {
			s.log.Warn("enqueue expiry sweep failed", "error", err.Error())
		}
	}
}
