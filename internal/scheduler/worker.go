package scheduler

import (
	"context"
	"fmt"
	"time"

	"offermarket_backend/internal/events"
	"offermarket_backend/platform/config"
	"offermarket_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// OfferExpirer is the quotes-side port for the expiry sweep.
type OfferExpirer interface {
	ExpireOffers(ctx context.Context, now time.Time) (int64, error)
}

// Worker consumes scheduler tasks and hands them back to the domain via the
// event bus.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	bus     events.Bus
	expirer OfferExpirer
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, bus events.Bus, expirer OfferExpirer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		bus:     bus,
		expirer: expirer,
		log:     log,
	}

	mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)
	mux.HandleFunc(TaskExpireOffers, w.handleExpireOffers)

	return w, nil
}

// handleNotificationOutboxDue runs the notification handler synchronously so
// a delivery error fails the task and asynq retries it.
func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	return w.bus.PublishSync(ctx, events.NotificationOutboxDue{
		BaseEvent: events.NewBaseEvent(),
		OutboxID:  outboxID,
	})
}

func (w *Worker) handleExpireOffers(ctx context.Context, _ *asynq.Task) error {
	if w.expirer == nil {
		return nil
	}
	_, err := w.expirer.ExpireOffers(ctx, time.Now().UTC())
	return err
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
