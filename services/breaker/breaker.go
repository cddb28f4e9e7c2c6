// Package breaker is the outermost fault-isolation layer: any uncaught
// failure in the request pipeline becomes a logged incident, a tenant alert
// and a paused conversation instead of being repeated on the next turn.
package breaker

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	alertRepo "bookline/database/repository/alert"
	contactRepo "bookline/database/repository/contact"
	"bookline/models"
	"bookline/services/notification"
	"bookline/utils"

	"go.uber.org/zap"
)

// Ctx carries the request context available at trigger time. Fields may be
// empty when the failure happened before resolution.
type Ctx struct {
	TenantID string
	Contact  string
	Channel  string
}

// Breaker converts pipeline failures into a safe paused state.
type Breaker interface {
	Trigger(ctx context.Context, cause error, info Ctx)
}

// DefaultBreaker is the production implementation.
type DefaultBreaker struct {
	Contacts contactRepo.Repository
	Alerts   alertRepo.Repository
	Notifier notification.Service // optional tenant push
}

// Trigger records the failure and forces the conversation into the
// human-handled state. It never panics and never returns an error: every
// internal failure is reported through the lowest-level logging facility and
// swallowed, so the caller can always hand the user the fixed fallback reply.
func (b *DefaultBreaker) Trigger(_ context.Context, cause error, info Ctx) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("circuit breaker panicked while handling %v: %v", cause, r)
		}
	}()

	// The caller's context is often the very thing that failed (an expired
	// request deadline), so recovery writes run on their own clock.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger := utils.GetLogger()
	logger.Error("circuit breaker triggered",
		zap.Error(cause),
		zap.String("tenant", info.TenantID),
		zap.String("contact", info.Contact),
		zap.String("channel", info.Channel),
		zap.ByteString("stack", debug.Stack()))

	desc := fmt.Sprintf("unhandled pipeline failure: %v", cause)

	if b.Alerts != nil && info.TenantID != "" {
		incident := &models.Incident{
			TenantID:    info.TenantID,
			Contact:     info.Contact,
			Reason:      models.ReasonCircuitBreaker,
			Severity:    "critical",
			Description: desc,
		}
		if err := b.Alerts.CreateIncident(ctx, incident); err != nil {
			log.Printf("circuit breaker: incident write failed: %v", err)
		}
		alert := &models.Alert{
			TenantID:    info.TenantID,
			Contact:     info.Contact,
			Reason:      models.ReasonCircuitBreaker,
			Description: desc,
		}
		if err := b.Alerts.CreateAlert(ctx, alert); err != nil {
			log.Printf("circuit breaker: alert write failed: %v", err)
		}
	}

	if b.Contacts != nil && info.TenantID != "" && info.Contact != "" {
		if err := b.Contacts.SetStatus(ctx, info.Contact, info.TenantID, models.ContactPaused, models.PauseSystemFailure); err != nil {
			log.Printf("circuit breaker: pause write failed: %v", err)
		}
	}

	if b.Notifier != nil && info.TenantID != "" {
		if err := b.Notifier.PushTenantAlert(ctx, info.TenantID, "Automated replies paused", desc); err != nil {
			log.Printf("circuit breaker: tenant push failed: %v", err)
		}
	}
}
