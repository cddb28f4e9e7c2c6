package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	apptRepo "bookline/database/repository/appointment"
	"bookline/models"
	"bookline/services/channel"
	"bookline/services/tasks"
	"bookline/utils"

	"github.com/hibiken/asynq"
)

// InitReminderWorker runs the async reminder worker in background.
func InitReminderWorker(appts apptRepo.Repository, sender channel.Sender) {
	srv := asynq.NewServer(
		tasks.RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, handleReminderTask(appts, sender))

	go func() {
		log.Println("[ReminderWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReminderWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ReminderWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

// handleReminderTask re-reads the appointment before sending so reminders
// for cancelled or rescheduled bookings are silently dropped.
func handleReminderTask(appts apptRepo.Repository, sender channel.Sender) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] invalid payload: %v", err)
			return err
		}

		appt, err := appts.GetByID(ctx, p.TenantID, p.AppointmentID)
		if err != nil {
			log.Printf("[ReminderHandler] appointment %s gone, skipping: %v", p.AppointmentID, err)
			return nil
		}
		if appt.Status != models.StatusConfirmed {
			return nil
		}
		// Rescheduled after the reminder was queued; the task enqueued for
		// the new start covers it.
		if !appt.StartTime.Equal(p.FireAt.Add(utils.ReminderLead)) {
			return nil
		}

		if err := sender.Send(p.Phone, p.Body); err != nil {
			log.Printf("[ReminderHandler] failed to send reminder: %v", err)
			return err
		}
		return nil
	}
}
