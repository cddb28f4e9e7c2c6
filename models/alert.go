package models

import "time"

// Alert reason codes surfaced to tenants.
const (
	ReasonGovernorLimit  = "GOVERNOR_LIMIT_EXCEEDED"
	ReasonCircuitBreaker = "CIRCUIT_BREAKER_FAILURE"
	ReasonToolErrors     = "TOOL_ERROR_BUDGET"
	ReasonHumanNeeded    = "HUMAN_ATTENTION_NEEDED"
	ReasonTierGate       = "PLAN_UPGRADE_REQUIRED"
)

// Alert is a tenant-facing notification consumed by the dashboard.
type Alert struct {
	ID          string    `bson:"id" json:"id"`
	TenantID    string    `bson:"tenant_id" json:"tenant_id"`
	Contact     string    `bson:"contact" json:"contact"`
	Reason      string    `bson:"reason" json:"reason"`
	Description string    `bson:"description" json:"description"`
	Resolved    bool      `bson:"resolved" json:"resolved"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Incident is the audit counterpart of an Alert, written on escalations and
// pipeline failures. Incidents are never shown to end customers.
type Incident struct {
	ID          string    `bson:"id" json:"id"`
	TenantID    string    `bson:"tenant_id" json:"tenant_id"`
	Contact     string    `bson:"contact" json:"contact"`
	Reason      string    `bson:"reason" json:"reason"`
	Severity    string    `bson:"severity" json:"severity"` // "warning" or "critical"
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
