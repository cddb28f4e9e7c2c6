package alertRepo

import (
	"context"

	"bookline/models"
)

// Repository persists tenant-facing alerts and audit incidents.
type Repository interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	CreateIncident(ctx context.Context, incident *models.Incident) error
	ListOpenAlerts(ctx context.Context, tenantID string) ([]models.Alert, error)
	ResolveAlert(ctx context.Context, tenantID, alertID string) error
}
