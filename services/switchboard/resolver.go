package switchboard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	contactRepo "bookline/database/repository/contact"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/models"
	"bookline/utils"

	"go.uber.org/zap"
)

// Onboarding token forms: an inline "[ref:acme-barbers]" tag (what the
// prefilled wa.me deep link produces) or a bare "start acme-barbers".
var (
	refTagRe   = regexp.MustCompile(`(?i)\[ref:([a-z0-9][a-z0-9-]*)\]`)
	startCmdRe = regexp.MustCompile(`(?i)^\s*start\s+([a-z0-9][a-z0-9-]*)\s*$`)
	menuPickRe = regexp.MustCompile(`^\s*([0-9]{1,2})\s*$`)
)

// ErrUnknownToken is wrapped into resolutions for onboarding tokens that
// match no tenant.
var ErrUnknownToken = errors.New("unknown onboarding token")

// DefaultResolver is the production switchboard.
type DefaultResolver struct {
	Contacts contactRepo.Repository
	Tenants  tenantRepo.Repository

	// Fallback tenant for single-tenant deployments without onboarding
	// links. Empty in multi-tenant deployments.
	DefaultTenantID string

	Now func() time.Time
}

func (r *DefaultResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Resolve implements the switchboard algorithm: onboarding token first, then
// the zero/one/many linked-tenant branches with a 30-minute stickiness
// window and bare-integer menu selection.
func (r *DefaultResolver) Resolve(ctx context.Context, contactIdentity, messageText string) (*Resolution, error) {
	mapping, err := r.Contacts.Get(ctx, contactIdentity)
	if errors.Is(err, contactRepo.ErrNotFound) {
		mapping = &models.ContactMapping{
			Identity: contactIdentity,
			Tenants:  make(map[string]*models.TenantLink),
		}
	} else if err != nil {
		return nil, fmt.Errorf("contact lookup failed: %w", err)
	}

	if token := extractToken(messageText); token != "" {
		return r.resolveToken(ctx, mapping, token)
	}

	switch len(mapping.Tenants) {
	case 0:
		if r.DefaultTenantID != "" {
			return r.attach(ctx, mapping, r.DefaultTenantID, true)
		}
		return &Resolution{NeedsLink: true, Mapping: mapping}, nil
	case 1:
		for tenantID := range mapping.Tenants {
			ok, err := r.tenantActive(ctx, tenantID)
			if err != nil {
				return nil, err
			}
			if !ok {
				// Sole linked tenant deleted or deactivated since linking.
				return &Resolution{NeedsLink: true, Mapping: mapping}, nil
			}
			return r.attach(ctx, mapping, tenantID, false)
		}
	}

	return r.resolveSwitchboard(ctx, mapping, messageText)
}

func (r *DefaultResolver) resolveToken(ctx context.Context, mapping *models.ContactMapping, token string) (*Resolution, error) {
	tenant, err := r.Tenants.GetBySlug(ctx, token)
	if errors.Is(err, tenantRepo.ErrNotFound) {
		tenant, err = r.Tenants.GetByID(ctx, token)
	}
	if errors.Is(err, tenantRepo.ErrNotFound) {
		utils.GetLogger().Info("onboarding token matched no tenant", zap.String("token", token))
		return &Resolution{Err: fmt.Errorf("%w: %s", ErrUnknownToken, token), Mapping: mapping}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tenant lookup failed: %w", err)
	}
	if !tenant.Active {
		return &Resolution{NeedsLink: true, Mapping: mapping}, nil
	}
	return r.attach(ctx, mapping, tenant.ID, true)
}

// resolveSwitchboard handles contacts linked to several tenants.
func (r *DefaultResolver) resolveSwitchboard(ctx context.Context, mapping *models.ContactMapping, messageText string) (*Resolution, error) {
	if link := mapping.Link(mapping.LastActiveTenantID); link != nil {
		if r.now().Sub(link.LastInteraction) < utils.StickinessWindow {
			ok, err := r.tenantActive(ctx, link.TenantID)
			if err != nil {
				return nil, err
			}
			if ok {
				return r.attach(ctx, mapping, link.TenantID, false)
			}
			// Sticky tenant gone; fall through to the menu.
		}
	}

	choices, err := r.menu(ctx, mapping)
	if err != nil {
		return nil, err
	}

	if m := menuPickRe.FindStringSubmatch(messageText); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= len(choices) {
			return r.attach(ctx, mapping, choices[n-1].TenantID, false)
		}
	}

	return &Resolution{NeedsChoice: true, Choices: choices, Mapping: mapping}, nil
}

// menu builds the numbered tenant menu, sorted by display name so numbering
// is stable across turns.
func (r *DefaultResolver) menu(ctx context.Context, mapping *models.ContactMapping) ([]Choice, error) {
	choices := make([]Choice, 0, len(mapping.Tenants))
	for tenantID := range mapping.Tenants {
		tenant, err := r.Tenants.GetByID(ctx, tenantID)
		if errors.Is(err, tenantRepo.ErrNotFound) {
			continue // tenant deleted since linking
		}
		if err != nil {
			return nil, fmt.Errorf("tenant lookup failed: %w", err)
		}
		if !tenant.Active {
			continue
		}
		choices = append(choices, Choice{TenantID: tenant.ID, Name: tenant.Name})
	}
	sort.Slice(choices, func(i, j int) bool { return choices[i].Name < choices[j].Name })
	for i := range choices {
		choices[i].Number = i + 1
	}
	return choices, nil
}

// tenantActive reports whether tenantID still resolves to an active tenant.
// Links can outlive the tenant they point at.
func (r *DefaultResolver) tenantActive(ctx context.Context, tenantID string) (bool, error) {
	tenant, err := r.Tenants.GetByID(ctx, tenantID)
	if errors.Is(err, tenantRepo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("tenant lookup failed: %w", err)
	}
	return tenant.Active, nil
}

// attach persists the tenant link touch and returns a resolved result.
func (r *DefaultResolver) attach(ctx context.Context, mapping *models.ContactMapping, tenantID string, initial bool) (*Resolution, error) {
	now := r.now()
	if err := r.Contacts.TouchTenant(ctx, mapping.Identity, tenantID, now); err != nil {
		return nil, fmt.Errorf("contact touch failed: %w", err)
	}
	link := mapping.Link(tenantID)
	if link == nil {
		link = &models.TenantLink{TenantID: tenantID, Status: models.ContactActive}
		mapping.Tenants[tenantID] = link
	}
	link.LastInteraction = now
	mapping.LastActiveTenantID = tenantID
	return &Resolution{TenantID: tenantID, IsInitial: initial, Mapping: mapping}, nil
}

func extractToken(messageText string) string {
	if m := refTagRe.FindStringSubmatch(messageText); m != nil {
		return strings.ToLower(m[1])
	}
	if m := startCmdRe.FindStringSubmatch(messageText); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}
