// Package governor enforces the per-conversation interaction budget and
// hands exhausted conversations to a human.
package governor

import (
	"context"
	"fmt"

	alertRepo "bookline/database/repository/alert"
	contactRepo "bookline/database/repository/contact"
	"bookline/models"
	"bookline/services/notification"
	"bookline/utils"

	"go.uber.org/zap"
)

// Verdict is the outcome of an escalation evaluation.
type Verdict struct {
	ShouldEscalate  bool
	FallbackMessage string
}

// Governor tracks the interaction budget and escalates when it is spent
// without a resolved booking.
type Governor interface {
	Evaluate(ctx context.Context, tenantID, contactIdentity string, interactionCount int, bookingState string) (*Verdict, error)
	Reset(ctx context.Context, contactIdentity, tenantID string) error
}

// DefaultGovernor is the production implementation.
type DefaultGovernor struct {
	Contacts contactRepo.Repository
	Alerts   alertRepo.Repository
	Notifier notification.Service // optional tenant push
}

// resolvedStates are booking states that count as a completed conversation:
// the contact got what they came for, no human is needed.
var resolvedStates = map[string]bool{
	models.StatusConfirmed: true,
	models.StatusCancelled: true,
}

// Evaluate escalates iff the interaction budget is spent and the booking is
// not in a resolved state. Escalation writes the audit incident, the tenant
// alert and the paused status together; a turn that completes a booking on
// the budget's last interaction does not escalate.
func (g *DefaultGovernor) Evaluate(ctx context.Context, tenantID, contactIdentity string, interactionCount int, bookingState string) (*Verdict, error) {
	if interactionCount < utils.MaxInteractions || resolvedStates[bookingState] {
		return &Verdict{}, nil
	}

	logger := utils.GetLogger()
	logger.Warn("interaction budget exhausted, escalating",
		zap.String("tenant", tenantID),
		zap.String("contact", contactIdentity),
		zap.Int("interactions", interactionCount))

	desc := fmt.Sprintf("conversation reached %d interactions without a resolved booking", interactionCount)
	incident := &models.Incident{
		TenantID:    tenantID,
		Contact:     contactIdentity,
		Reason:      models.ReasonGovernorLimit,
		Severity:    "warning",
		Description: desc,
	}
	if err := g.Alerts.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("incident write failed: %w", err)
	}
	alert := &models.Alert{
		TenantID:    tenantID,
		Contact:     contactIdentity,
		Reason:      models.ReasonGovernorLimit,
		Description: desc,
	}
	if err := g.Alerts.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("alert write failed: %w", err)
	}
	if err := g.Contacts.SetStatus(ctx, contactIdentity, tenantID, models.ContactPaused, models.PauseGovernorLimit); err != nil {
		return nil, fmt.Errorf("pause write failed: %w", err)
	}

	if g.Notifier != nil {
		if err := g.Notifier.PushTenantAlert(ctx, tenantID, "Conversation needs attention", desc); err != nil {
			logger.Warn("tenant push failed", zap.String("tenant", tenantID), zap.Error(err))
		}
	}

	return &Verdict{
		ShouldEscalate:  true,
		FallbackMessage: "I'm handing this conversation over to the team so they can help you personally. They'll reply here shortly.",
	}, nil
}

// Reset zeroes the interaction counter and restores the active status. The
// booking engine invokes it after every successful create/update/cancel.
func (g *DefaultGovernor) Reset(ctx context.Context, contactIdentity, tenantID string) error {
	return g.Contacts.ResetGovernor(ctx, contactIdentity, tenantID)
}
