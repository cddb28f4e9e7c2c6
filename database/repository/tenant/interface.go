package tenantRepo

import (
	"context"

	"bookline/models"
)

// Repository provides read access to tenant documents plus the narrow
// mutations the dashboard API needs. Tenant profiles themselves are managed
// out of band.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	GetByOperatorEmail(ctx context.Context, email string) (*models.Tenant, error)
	UpdateFCMToken(ctx context.Context, id, token string) error
}
