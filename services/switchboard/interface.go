package switchboard

import (
	"context"

	"bookline/models"
)

// Choice is one entry of the disambiguation menu presented to a contact
// linked to several tenants.
type Choice struct {
	Number   int
	TenantID string
	Name     string
}

// Resolution is the outcome of routing an inbound message. Exactly one of
// the branches is set.
type Resolution struct {
	// TenantID is resolved when routing succeeded.
	TenantID string
	// IsInitial marks a first contact through an onboarding token.
	IsInitial bool
	// NeedsLink means the contact has no tenant context yet and must be told
	// to use an onboarding link.
	NeedsLink bool
	// NeedsChoice means several tenants are plausible; Choices carries the
	// numbered menu.
	NeedsChoice bool
	Choices     []Choice
	// Err carries a resolution failure (unknown onboarding token).
	Err error

	// Mapping is the contact's mapping after any upsert, for downstream use.
	Mapping *models.ContactMapping
}

// Resolver maps an inbound contact identity to exactly one active tenant.
type Resolver interface {
	Resolve(ctx context.Context, contactIdentity, messageText string) (*Resolution, error)
}
