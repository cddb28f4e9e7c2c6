package booking

import (
	"context"
	"time"

	"bookline/models"
)

// CreateRequest carries the validated arguments of an appointment creation.
// StartTime is absolute; its wall-clock meaning is the tenant's timezone.
type CreateRequest struct {
	ClientName  string
	ClientPhone string
	ServiceName string
	StartTime   time.Time
	Source      string
}

// UpdateRequest moves a contact's upcoming appointment to a new start.
type UpdateRequest struct {
	ClientPhone string
	NewStart    time.Time
}

// StatusResult is the read-before-respond snapshot the tool loop consults
// before making any conversational claim about existing bookings.
type StatusResult struct {
	Exists      bool
	State       string
	Appointment *models.Appointment
}

// ReminderScheduler enqueues the pre-appointment reminder. Implemented by
// the asynq-backed tasks client; nil disables reminders.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, p models.ReminderPayload) error
}

// Engine owns the appointment lifecycle: idempotent creation, overlap
// detection, rescheduling and cancellation.
type Engine interface {
	CheckStatus(ctx context.Context, tenantID, contactPhone, knownName string) (*StatusResult, error)
	Create(ctx context.Context, tenantID string, req CreateRequest) (*models.Appointment, bool, error)
	Update(ctx context.Context, tenantID string, req UpdateRequest) (*models.Appointment, error)
	Cancel(ctx context.Context, tenantID, contactPhone string) (int, error)
	Agenda(ctx context.Context, tenantID string, day time.Time) ([]models.Appointment, error)
	Complete(ctx context.Context, tenantID, apptID string) error
	Delete(ctx context.Context, tenantID, apptID string) error
}
