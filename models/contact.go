package models

import "time"

// Per-tenant conversation statuses for a contact.
const (
	ContactActive = "active"
	ContactPaused = "paused"
)

// Pause reasons recorded on a TenantLink.
const (
	PauseGovernorLimit = "governor_limit_exceeded"
	PauseSystemFailure = "system_failure"
	PauseToolErrors    = "tool_errors"
	PauseRequested     = "human_requested"
)

// TenantLink tracks one contact's relationship with one tenant.
type TenantLink struct {
	TenantID         string    `bson:"tenant_id" json:"tenant_id"`
	LastInteraction  time.Time `bson:"last_interaction" json:"last_interaction"`
	InteractionCount int       `bson:"interaction_count" json:"interaction_count"`
	Status           string    `bson:"status" json:"status"`
	PausedReason     string    `bson:"paused_reason,omitempty" json:"paused_reason,omitempty"`
}

// ContactMapping is the process-wide record for one external contact
// identity (a WhatsApp phone number). It is created on first inbound
// contact and never deleted by the conversational core.
type ContactMapping struct {
	Identity           string                 `bson:"identity" json:"identity"`
	Name               string                 `bson:"name,omitempty" json:"name,omitempty"`
	Notes              string                 `bson:"notes,omitempty" json:"notes,omitempty"`
	Tenants            map[string]*TenantLink `bson:"tenants" json:"tenants"`
	LastActiveTenantID string                 `bson:"last_active_tenant_id,omitempty" json:"last_active_tenant_id,omitempty"`
	CreatedAt          time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time              `bson:"updated_at" json:"updated_at"`
}

// Link returns the link for tenantID, or nil when the contact has never
// interacted with that tenant.
func (m *ContactMapping) Link(tenantID string) *TenantLink {
	if m == nil || m.Tenants == nil {
		return nil
	}
	return m.Tenants[tenantID]
}

// PausedFor reports whether the contact's conversation with tenantID is in
// the human-handled state.
func (m *ContactMapping) PausedFor(tenantID string) bool {
	link := m.Link(tenantID)
	return link != nil && link.Status == ContactPaused
}
