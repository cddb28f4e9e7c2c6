package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookline/config"
	"bookline/models"

	"github.com/hibiken/asynq"
)

const TypeSendReminder = "reminder:send"

// NewReminderTask builds the asynq task for a scheduled appointment
// reminder.
func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}

// Client wraps the asynq client as a booking.ReminderScheduler.
type Client struct {
	inner *asynq.Client
}

func NewClient() *Client {
	return &Client{inner: asynq.NewClient(RedisOpt())}
}

// RedisOpt is the shared queue connection config for client and worker.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	}
}

// ScheduleReminder enqueues the reminder to fire at the payload's FireAt.
func (c *Client) ScheduleReminder(ctx context.Context, p models.ReminderPayload) error {
	task, opts, err := NewReminderTask(p, p.FireAt)
	if err != nil {
		return fmt.Errorf("reminder task build failed: %w", err)
	}
	if _, err := c.inner.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("reminder enqueue failed: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.inner.Close()
}
