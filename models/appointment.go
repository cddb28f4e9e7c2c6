package models

import (
	"fmt"
	"time"
)

// Appointment statuses. "confirmed" covers the CONFIRMED/SCHEDULED spellings
// used interchangeably by the dashboard.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment sources.
const (
	SourceAI    = "ai"
	SourceHuman = "human"
)

// Appointment is a booked slot scoped under a tenant. ClientPhone is the
// idempotency correlation key: one contact holds at most one non-cancelled
// appointment per start time. EndTime is derived from StartTime and
// DurationMinutes and stored so the overlap query stays indexable.
type Appointment struct {
	ID              string    `bson:"id" json:"id"`
	TenantID        string    `bson:"tenant_id" json:"tenant_id"`
	ClientName      string    `bson:"client_name" json:"client_name"`
	ClientPhone     string    `bson:"client_phone" json:"client_phone"`
	ServiceName     string    `bson:"service_name" json:"service_name"`
	StartTime       time.Time `bson:"start_time" json:"start_time"`
	EndTime         time.Time `bson:"end_time" json:"end_time"`
	DurationMinutes int       `bson:"duration_minutes" json:"duration_minutes"`
	Price           float64   `bson:"price" json:"price"`
	Status          string    `bson:"status" json:"status"`
	Source          string    `bson:"source" json:"source"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// Active reports whether the appointment still occupies its slot.
func (a *Appointment) Active() bool {
	return a.Status != StatusCancelled && a.Status != StatusCompleted
}

// Overlaps reports whether the half-open intervals [StartTime, EndTime) of
// a and b intersect.
func (a *Appointment) Overlaps(b *Appointment) bool {
	return a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
}

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

// ValidateTransition checks the appointment state machine. Cancelled and
// completed are terminal.
func ValidateTransition(from, to string) error {
	allowed, ok := transitions[from]
	if !ok {
		return fmt.Errorf("unknown appointment status %q", from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("forbidden transition %s -> %s", from, to)
}
