package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	apptRepo "bookline/database/repository/appointment"
	contactRepo "bookline/database/repository/contact"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/models"
	"bookline/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultEngine is the production booking engine.
type DefaultEngine struct {
	Appointments apptRepo.Repository
	Contacts     contactRepo.Repository
	Tenants      tenantRepo.Repository
	Reminders    ReminderScheduler

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (e *DefaultEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// CheckStatus finds the contact's earliest future-or-today non-terminal
// appointment, falling back to a name match when the phone lookup is empty
// (manually entered bookings carry no phone).
func (e *DefaultEngine) CheckStatus(ctx context.Context, tenantID, contactPhone, knownName string) (*StatusResult, error) {
	tenant, err := e.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, NewError(CodeSyncFail, "tenant lookup failed: %v", err)
	}

	appts, err := e.Appointments.FindActiveByPhone(ctx, tenantID, contactPhone)
	if err != nil {
		return nil, NewError(CodeSyncFail, "appointment lookup failed: %v", err)
	}
	if len(appts) == 0 && knownName != "" {
		appts, err = e.Appointments.FindActiveByClientName(ctx, tenantID, knownName)
		if err != nil {
			return nil, NewError(CodeSyncFail, "appointment lookup failed: %v", err)
		}
	}

	// Earliest appointment whose day is today or later, tenant-local.
	loc := tenant.Location()
	todayStart := startOfDay(e.now().In(loc))
	for i := range appts {
		if !appts[i].StartTime.In(loc).Before(todayStart) {
			return &StatusResult{Exists: true, State: appts[i].Status, Appointment: &appts[i]}, nil
		}
	}
	return &StatusResult{Exists: false}, nil
}

// Create validates and books a new appointment. Returns the stored record
// and whether it was newly created; an identical pending/confirmed booking
// for the same contact and start is an idempotent success.
func (e *DefaultEngine) Create(ctx context.Context, tenantID string, req CreateRequest) (*models.Appointment, bool, error) {
	tenant, err := e.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, false, NewError(CodeSyncFail, "tenant lookup failed: %v", err)
	}

	svc, ok := tenant.FindService(req.ServiceName)
	if !ok {
		return nil, false, NewError(CodeUnknownService, "service %q is not in the catalog", req.ServiceName)
	}

	loc := tenant.Location()
	local := req.StartTime.In(loc)
	if !req.StartTime.After(e.now()) {
		return nil, false, NewError(CodePastDate, "requested start %s is in the past", local.Format(time.RFC3339))
	}
	if !tenant.OpenAt(local) {
		return nil, false, NewError(CodeBusinessClosed, "business is closed at %s", local.Format("Mon 15:04"))
	}

	source := req.Source
	if source == "" {
		source = models.SourceAI
	}
	appt := &models.Appointment{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		ClientName:      req.ClientName,
		ClientPhone:     req.ClientPhone,
		ServiceName:     svc.Name,
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.StartTime.Add(time.Duration(svc.DurationMinutes) * time.Minute).UTC(),
		DurationMinutes: svc.DurationMinutes,
		Price:           svc.Price,
		Status:          models.StatusConfirmed,
		Source:          source,
		CreatedAt:       e.now().UTC(),
	}

	stored, created, err := e.Appointments.CreateTx(ctx, appt)
	if err != nil {
		return nil, false, mapRepoErr(err)
	}

	e.afterBookingSuccess(ctx, tenantID, req.ClientPhone, req.ClientName)
	if created {
		e.scheduleReminder(ctx, tenant, stored)
	}
	return stored, created, nil
}

// Update moves the contact's earliest upcoming active appointment to a new
// start, keeping its duration.
func (e *DefaultEngine) Update(ctx context.Context, tenantID string, req UpdateRequest) (*models.Appointment, error) {
	tenant, err := e.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, NewError(CodeSyncFail, "tenant lookup failed: %v", err)
	}

	appts, err := e.Appointments.FindActiveByPhone(ctx, tenantID, req.ClientPhone)
	if err != nil {
		return nil, NewError(CodeSyncFail, "appointment lookup failed: %v", err)
	}
	if len(appts) == 0 {
		return nil, NewError(CodeNotFound, "no active appointment for this contact")
	}
	appt := appts[0]

	loc := tenant.Location()
	local := req.NewStart.In(loc)
	if !req.NewStart.After(e.now()) {
		return nil, NewError(CodePastDate, "requested start %s is in the past", local.Format(time.RFC3339))
	}
	if !tenant.OpenAt(local) {
		return nil, NewError(CodeBusinessClosed, "business is closed at %s", local.Format("Mon 15:04"))
	}

	newStart := req.NewStart.UTC()
	newEnd := newStart.Add(time.Duration(appt.DurationMinutes) * time.Minute)
	if err := e.Appointments.RescheduleTx(ctx, tenantID, appt.ID, newStart, newEnd); err != nil {
		return nil, mapRepoErr(err)
	}

	appt.StartTime = newStart
	appt.EndTime = newEnd
	e.afterBookingSuccess(ctx, tenantID, req.ClientPhone, appt.ClientName)
	e.scheduleReminder(ctx, tenant, &appt)
	return &appt, nil
}

// Cancel transitions all of the contact's active appointments to cancelled.
// Re-cancelling is a no-op success.
func (e *DefaultEngine) Cancel(ctx context.Context, tenantID, contactPhone string) (int, error) {
	appts, err := e.Appointments.FindActiveByPhone(ctx, tenantID, contactPhone)
	if err != nil {
		return 0, NewError(CodeSyncFail, "appointment lookup failed: %v", err)
	}

	cancelled := 0
	for i := range appts {
		if err := models.ValidateTransition(appts[i].Status, models.StatusCancelled); err != nil {
			return cancelled, NewError(CodeForbiddenTransition, "%v", err)
		}
		err := e.Appointments.UpdateStatus(ctx, tenantID, appts[i].ID, appts[i].Status, models.StatusCancelled)
		if errors.Is(err, apptRepo.ErrNotFound) {
			continue // already transitioned concurrently
		}
		if err != nil {
			return cancelled, mapRepoErr(err)
		}
		cancelled++
	}

	if cancelled > 0 {
		e.afterBookingSuccess(ctx, tenantID, contactPhone, "")
	}
	return cancelled, nil
}

// Agenda returns the tenant's non-cancelled appointments for one
// tenant-local day.
func (e *DefaultEngine) Agenda(ctx context.Context, tenantID string, day time.Time) ([]models.Appointment, error) {
	tenant, err := e.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, NewError(CodeSyncFail, "tenant lookup failed: %v", err)
	}
	from := startOfDay(day.In(tenant.Location()))
	appts, err := e.Appointments.ListBetween(ctx, tenantID, from, from.Add(24*time.Hour))
	if err != nil {
		return nil, NewError(CodeSyncFail, "agenda query failed: %v", err)
	}
	return appts, nil
}

// Complete marks an appointment as served. Only valid from confirmed.
func (e *DefaultEngine) Complete(ctx context.Context, tenantID, apptID string) error {
	appt, err := e.Appointments.GetByID(ctx, tenantID, apptID)
	if err != nil {
		return mapRepoErr(err)
	}
	if err := models.ValidateTransition(appt.Status, models.StatusCompleted); err != nil {
		return NewError(CodeForbiddenTransition, "%v", err)
	}
	if err := e.Appointments.UpdateStatus(ctx, tenantID, apptID, appt.Status, models.StatusCompleted); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// Delete physically removes an appointment (manual tool only).
func (e *DefaultEngine) Delete(ctx context.Context, tenantID, apptID string) error {
	if err := e.Appointments.DeleteByID(ctx, tenantID, apptID); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// afterBookingSuccess records the CRM name and resets the interaction budget.
// Both are best-effort: the booking already committed.
func (e *DefaultEngine) afterBookingSuccess(ctx context.Context, tenantID, phone, name string) {
	logger := utils.GetLogger()
	if name != "" {
		if err := e.Contacts.SetName(ctx, phone, name); err != nil {
			logger.Warn("crm name update failed", zap.String("contact", phone), zap.Error(err))
		}
	}
	if err := e.Contacts.ResetGovernor(ctx, phone, tenantID); err != nil {
		logger.Warn("governor reset failed", zap.String("contact", phone), zap.Error(err))
	}
}

func (e *DefaultEngine) scheduleReminder(ctx context.Context, tenant *models.Tenant, appt *models.Appointment) {
	if e.Reminders == nil {
		return
	}
	fireAt := appt.StartTime.Add(-utils.ReminderLead)
	if fireAt.Before(e.now()) {
		return // already inside the reminder window
	}
	body := fmt.Sprintf("Reminder: %s at %s on %s.", appt.ServiceName, tenant.Name,
		appt.StartTime.In(tenant.Location()).Format("Mon 2 Jan 15:04"))
	p := models.ReminderPayload{
		TenantID:      tenant.ID,
		AppointmentID: appt.ID,
		Phone:         appt.ClientPhone,
		Body:          body,
		FireAt:        fireAt,
	}
	if err := e.Reminders.ScheduleReminder(ctx, p); err != nil {
		utils.GetLogger().Warn("reminder scheduling failed", zap.String("appointment", appt.ID), zap.Error(err))
	}
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, apptRepo.ErrSlotOccupied):
		return NewError(CodeSlotOccupied, "the requested slot is already taken")
	case errors.Is(err, apptRepo.ErrNotFound):
		return NewError(CodeNotFound, "appointment not found")
	default:
		return NewError(CodeSyncFail, "store transaction failed: %v", err)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
