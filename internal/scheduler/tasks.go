// Package scheduler moves notification work from the durable outbox onto the
// asynq queue and back into the event bus, and runs the periodic offer
// expiry sweep.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskNotificationOutboxDue = "notification.outbox.due"

const TaskExpireOffers = "quotes.offers.expire"

type NotificationOutboxDuePayload struct {
	OutboxID string `json:"outboxId"`
}

func NewNotificationOutboxDueTask(payload NotificationOutboxDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationOutboxDue, data), nil
}

func ParseNotificationOutboxDuePayload(task *asynq.Task) (NotificationOutboxDuePayload, error) {
	var payload NotificationOutboxDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationOutboxDuePayload{}, err
	}
	return payload, nil
}

func NewExpireOffersTask() *asynq.Task {
	return asynq.NewTask(TaskExpireOffers, nil)
}
