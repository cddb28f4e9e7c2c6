package contactRepo

import (
	"context"
	"time"

	"bookline/models"
)

// Repository manages contact mappings, keyed process-wide by the external
// contact identity. All per-tenant conversation state (interaction count,
// paused status) lives on the mapping's tenant links.
type Repository interface {
	// Get returns the mapping, or ErrNotFound when the identity has never
	// been seen.
	Get(ctx context.Context, identity string) (*models.ContactMapping, error)

	// Upsert writes the full mapping document.
	Upsert(ctx context.Context, m *models.ContactMapping) error

	// TouchTenant upserts the link for tenantID with a fresh lastInteraction
	// and makes it the contact's last-active tenant, creating the mapping if
	// needed.
	TouchTenant(ctx context.Context, identity, tenantID string, at time.Time) error

	// IncrementInteraction bumps the link's interaction count and returns the
	// new value.
	IncrementInteraction(ctx context.Context, identity, tenantID string) (int, error)

	// SetStatus flips the per-tenant conversation status.
	SetStatus(ctx context.Context, identity, tenantID, status, reason string) error

	// ResetGovernor zeroes the interaction count and restores active status.
	ResetGovernor(ctx context.Context, identity, tenantID string) error

	// SetName records the contact's display name when learned.
	SetName(ctx context.Context, identity, name string) error

	// SetNotes replaces the CRM notes for the contact.
	SetNotes(ctx context.Context, identity, notes string) error
}
