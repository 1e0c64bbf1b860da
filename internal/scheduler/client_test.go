package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string      { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "test-queue" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func newMiniredisClient(t *testing.T) (*Client, *asynq.Inspector) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := testSchedulerConfig{redisURL: "redis://" + mr.Addr()}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = inspector.Close() })

	return client, inspector
}

func TestClientEnqueuesOutboxDueTask(t *testing.T) {
	client, inspector := newMiniredisClient(t)

	err := client.EnqueueOutboxDue(context.Background(), NotificationOutboxDuePayload{
		OutboxID: "3e7c32c3-3a3e-4d05-9f13-1ff04cb6c9a1",
	}, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("EnqueueOutboxDue failed: %v", err)
	}

	tasks, err := inspector.ListScheduledTasks("test-queue")
	if err != nil {
		t.Fatalf("ListScheduledTasks failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("scheduled tasks = %d, want 1", len(tasks))
	}
	if tasks[0].Type != TaskNotificationOutboxDue {
		t.Fatalf("task type = %s, want %s", tasks[0].Type, TaskNotificationOutboxDue)
	}

	var payload NotificationOutboxDuePayload
	if err := json.Unmarshal(tasks[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OutboxID != "3e7c32c3-3a3e-4d05-9f13-1ff04cb6c9a1" {
		t.Fatalf("payload outbox id = %s", payload.OutboxID)
	}
}

func TestClientEnqueuesExpireOffersTask(t *testing.T) {
	client, inspector := newMiniredisClient(t)

	if err := client.EnqueueExpireOffers(context.Background()); err != nil {
		t.Fatalf("EnqueueExpireOffers failed: %v", err)
	}

	tasks, err := inspector.ListPendingTasks("test-queue")
	if err != nil {
		t.Fatalf("ListPendingTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Type != TaskExpireOffers {
		t.Fatalf("pending tasks = %v", tasks)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatalf("expected error for missing redis url")
	}
}
