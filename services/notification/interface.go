package notification

import (
	"context"
	"fmt"

	tenantRepo "bookline/database/repository/tenant"
	"bookline/utils"

	"firebase.google.com/go/v4/messaging"
)

// Service delivers tenant-facing push notifications. All alert delivery is
// best-effort: the alert document in the store is the source of truth, the
// push is a convenience for operators away from the dashboard.
type Service interface {
	PushTenantAlert(ctx context.Context, tenantID, title, body string) error
}

// DefaultService is the FCM-backed implementation.
type DefaultService struct {
	Tenants tenantRepo.Repository
}

// PushTenantAlert looks up the tenant's FCM token and sends a push.
func (s *DefaultService) PushTenantAlert(ctx context.Context, tenantID, title, body string) error {
	if utils.FCMClient == nil {
		return nil // push disabled
	}
	tenant, err := s.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("PushTenantAlert: could not find tenant %s: %w", tenantID, err)
	}
	if tenant.FCMToken == "" {
		return nil // operator never registered a device
	}

	msg := &messaging.Message{
		Token: tenant.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{"tenantId": tenantID},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("PushTenantAlert: failed to send FCM message: %w", err)
	}
	return nil
}
