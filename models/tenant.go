package models

import (
	"strings"
	"time"
)

// ServiceOffering is a single entry in a tenant's service catalog.
type ServiceOffering struct {
	Name            string  `bson:"name" json:"name"`
	Price           float64 `bson:"price" json:"price"`
	DurationMinutes int     `bson:"duration_minutes" json:"duration_minutes"`
}

// OperatingHours describes a tenant's weekly opening policy. Times are
// tenant-local wall clock in "15:04" form. Break times are optional.
type OperatingHours struct {
	Open       string `bson:"open" json:"open"`
	Close      string `bson:"close" json:"close"`
	BreakStart string `bson:"break_start,omitempty" json:"break_start,omitempty"`
	BreakEnd   string `bson:"break_end,omitempty" json:"break_end,omitempty"`
	// Weekdays holds the active days, time.Weekday values (0 = Sunday).
	Weekdays []int `bson:"weekdays" json:"weekdays"`
}

// Subscription tiers. Only pro tenants receive AI-driven replies.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// Tenant represents a service business on the platform. Tenant documents are
// created at registration and read-only to the conversational core.
type Tenant struct {
	ID       string `bson:"id" json:"id"`
	Slug     string `bson:"slug" json:"slug"` // friendly onboarding token used in wa.me deep links
	Name     string `bson:"name" json:"name"`
	Country  string `bson:"country" json:"country"`
	Timezone string `bson:"timezone" json:"timezone"` // IANA name, e.g. "Europe/Madrid"

	Hours    OperatingHours    `bson:"hours" json:"hours"`
	Services []ServiceOffering `bson:"services" json:"services"`
	Tier     string            `bson:"tier" json:"tier"`

	// Operator credentials for the dashboard API.
	OperatorEmail string `bson:"operator_email" json:"operator_email"`
	PasswordHash  string `bson:"password_hash" json:"-"`
	FCMToken      string `bson:"fcm_token,omitempty" json:"-"`

	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// FindService returns the catalog entry matching name, ignoring case. The
// returned offering carries the verbatim catalog spelling.
func (t *Tenant) FindService(name string) (ServiceOffering, bool) {
	for _, svc := range t.Services {
		if strings.EqualFold(svc.Name, name) {
			return svc, true
		}
	}
	return ServiceOffering{}, false
}

// Location resolves the tenant's IANA timezone, falling back to UTC when the
// stored name is invalid.
func (t *Tenant) Location() *time.Location {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// OpenAt reports whether the tenant is open for business at the given
// tenant-local instant.
func (t *Tenant) OpenAt(local time.Time) bool {
	activeDay := false
	for _, wd := range t.Hours.Weekdays {
		if int(local.Weekday()) == wd {
			activeDay = true
			break
		}
	}
	if !activeDay {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	open, okOpen := parseClock(t.Hours.Open)
	closeAt, okClose := parseClock(t.Hours.Close)
	if !okOpen || !okClose {
		return true
	}
	if minute < open || minute >= closeAt {
		return false
	}
	if bs, ok := parseClock(t.Hours.BreakStart); ok {
		if be, ok := parseClock(t.Hours.BreakEnd); ok && minute >= bs && minute < be {
			return false
		}
	}
	return true
}

func parseClock(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
