package apptRepo

import (
	"context"
	"errors"
	"time"

	"bookline/models"
)

// Sentinel errors surfaced by the transactional paths. The booking engine
// maps them onto its typed error codes.
var (
	ErrSlotOccupied = errors.New("slot occupied")
	ErrNotFound     = errors.New("appointment not found")
	ErrTxFailed     = errors.New("appointment transaction failed")
)

// Repository owns appointment persistence for all tenants. Every query is
// scoped to a single tenant; CreateTx and RescheduleTx run as atomic
// read-then-write transactions so concurrent writers for the same slot
// cannot both succeed.
type Repository interface {
	// CreateTx inserts appt unless its interval overlaps a non-cancelled
	// appointment of the same tenant. When a non-cancelled appointment
	// already exists for (tenant, clientPhone, startTime), it is returned
	// with created=false and nothing is written (idempotent success).
	CreateTx(ctx context.Context, appt *models.Appointment) (stored *models.Appointment, created bool, err error)

	// RescheduleTx moves an appointment to newStart, re-checking overlap
	// against every other non-cancelled appointment of the tenant.
	RescheduleTx(ctx context.Context, tenantID, apptID string, newStart, newEnd time.Time) error

	// UpdateStatus transitions an appointment conditionally on its current
	// status; a concurrent transition makes the write a no-op ErrNotFound.
	UpdateStatus(ctx context.Context, tenantID, apptID, fromStatus, toStatus string) error

	GetByID(ctx context.Context, tenantID, apptID string) (*models.Appointment, error)

	// FindActiveByPhone returns non-terminal appointments for the contact,
	// earliest first.
	FindActiveByPhone(ctx context.Context, tenantID, phone string) ([]models.Appointment, error)

	// FindActiveByClientName is the fallback lookup for manually entered
	// bookings that carry no phone.
	FindActiveByClientName(ctx context.Context, tenantID, name string) ([]models.Appointment, error)

	// ListBetween returns non-cancelled appointments whose start falls within
	// [from, to), earliest first.
	ListBetween(ctx context.Context, tenantID string, from, to time.Time) ([]models.Appointment, error)

	// DeleteByID physically removes an appointment. Only the manual delete
	// tool uses this; cancellation is a soft status transition.
	DeleteByID(ctx context.Context, tenantID, apptID string) error
}
