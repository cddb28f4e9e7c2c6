package switchboard

import (
	"context"
	"testing"
	"time"

	contactRepo "bookline/database/repository/contact"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/models"
	"bookline/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resolverNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type stubContacts struct {
	mappings map[string]*models.ContactMapping
	touches  []string
}

func (s *stubContacts) Get(_ context.Context, identity string) (*models.ContactMapping, error) {
	if m, ok := s.mappings[identity]; ok {
		return m, nil
	}
	return nil, contactRepo.ErrNotFound
}

func (s *stubContacts) Upsert(_ context.Context, m *models.ContactMapping) error {
	s.mappings[m.Identity] = m
	return nil
}

func (s *stubContacts) TouchTenant(_ context.Context, identity, tenantID string, _ time.Time) error {
	s.touches = append(s.touches, identity+"/"+tenantID)
	return nil
}

func (s *stubContacts) IncrementInteraction(context.Context, string, string) (int, error) {
	return 0, nil
}
func (s *stubContacts) SetStatus(context.Context, string, string, string, string) error { return nil }
func (s *stubContacts) ResetGovernor(context.Context, string, string) error             { return nil }
func (s *stubContacts) SetName(context.Context, string, string) error                   { return nil }
func (s *stubContacts) SetNotes(context.Context, string, string) error                  { return nil }

type stubTenants struct {
	tenants []*models.Tenant
}

func (s *stubTenants) GetByID(_ context.Context, id string) (*models.Tenant, error) {
	for _, t := range s.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, tenantRepo.ErrNotFound
}

func (s *stubTenants) GetBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	for _, t := range s.tenants {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, tenantRepo.ErrNotFound
}

func (s *stubTenants) GetByOperatorEmail(context.Context, string) (*models.Tenant, error) {
	return nil, tenantRepo.ErrNotFound
}
func (s *stubTenants) UpdateFCMToken(context.Context, string, string) error { return nil }

func newResolver(contacts *stubContacts, tenants *stubTenants) *DefaultResolver {
	return &DefaultResolver{
		Contacts: contacts,
		Tenants:  tenants,
		Now:      func() time.Time { return resolverNow },
	}
}

func activeTenant(id, slug, name string) *models.Tenant {
	return &models.Tenant{ID: id, Slug: slug, Name: name, Active: true}
}

func TestResolveOnboardingToken(t *testing.T) {
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{}}
	tenants := &stubTenants{tenants: []*models.Tenant{activeTenant("t1", "bella-salon", "Bella Salon")}}
	r := newResolver(contacts, tenants)

	cases := []struct {
		name string
		text string
	}{
		{"inline ref tag", "Hola! [ref:bella-salon]"},
		{"uppercase ref tag", "[REF:BELLA-SALON]"},
		{"start command", "start bella-salon"},
		{"tenant id as token", "[ref:t1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), "+34600111222", tc.text)
			require.NoError(t, err)
			assert.Equal(t, "t1", res.TenantID)
			assert.True(t, res.IsInitial)
		})
	}
}

func TestResolveUnknownToken(t *testing.T) {
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{}}
	r := newResolver(contacts, &stubTenants{})

	res, err := r.Resolve(context.Background(), "+34600111222", "[ref:no-such-place]")
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, ErrUnknownToken)
	assert.Empty(t, res.TenantID)
}

func TestResolveInactiveTenantToken(t *testing.T) {
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{}}
	tenants := &stubTenants{tenants: []*models.Tenant{{ID: "t1", Slug: "closed-shop", Active: false}}}
	r := newResolver(contacts, tenants)

	res, err := r.Resolve(context.Background(), "+34600111222", "start closed-shop")
	require.NoError(t, err)
	assert.True(t, res.NeedsLink)
}

func TestResolveUnknownContactNeedsLink(t *testing.T) {
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{}}
	r := newResolver(contacts, &stubTenants{})

	res, err := r.Resolve(context.Background(), "+34600111222", "hi there")
	require.NoError(t, err)
	assert.True(t, res.NeedsLink)
	assert.Empty(t, contacts.touches)
}

func TestResolveDefaultTenantFallback(t *testing.T) {
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{}}
	tenants := &stubTenants{tenants: []*models.Tenant{activeTenant("t1", "bella-salon", "Bella Salon")}}
	r := newResolver(contacts, tenants)
	r.DefaultTenantID = "t1"

	res, err := r.Resolve(context.Background(), "+34600111222", "hi there")
	require.NoError(t, err)
	assert.Equal(t, "t1", res.TenantID)
	assert.True(t, res.IsInitial)
}

func TestResolveSingleLinkFastPath(t *testing.T) {
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{
		"+34600111222": {
			Identity: "+34600111222",
			Tenants:  map[string]*models.TenantLink{"t1": {TenantID: "t1"}},
		},
	}}
	tenants := &stubTenants{tenants: []*models.Tenant{activeTenant("t1", "bella-salon", "Bella Salon")}}
	r := newResolver(contacts, tenants)

	res, err := r.Resolve(context.Background(), "+34600111222", "can I book a haircut?")
	require.NoError(t, err)
	assert.Equal(t, "t1", res.TenantID)
	assert.False(t, res.IsInitial)
	assert.Equal(t, []string{"+34600111222/t1"}, contacts.touches)
}

func TestResolveSingleLinkToDeletedTenant(t *testing.T) {
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{
		"+34600111222": {
			Identity: "+34600111222",
			Tenants:  map[string]*models.TenantLink{"gone": {TenantID: "gone"}},
		},
	}}
	r := newResolver(contacts, &stubTenants{})

	res, err := r.Resolve(context.Background(), "+34600111222", "hello?")
	require.NoError(t, err)
	assert.True(t, res.NeedsLink, "a link to a deleted tenant is no link at all")
	assert.Empty(t, contacts.touches)
}

func TestResolveSingleLinkToDeactivatedTenant(t *testing.T) {
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{
		"+34600111222": {
			Identity: "+34600111222",
			Tenants:  map[string]*models.TenantLink{"t1": {TenantID: "t1"}},
		},
	}}
	tenants := &stubTenants{tenants: []*models.Tenant{{ID: "t1", Slug: "closed-shop", Active: false}}}
	r := newResolver(contacts, tenants)

	res, err := r.Resolve(context.Background(), "+34600111222", "hello?")
	require.NoError(t, err)
	assert.True(t, res.NeedsLink)
}

func TestResolveStickyTenantDeletedFallsToMenu(t *testing.T) {
	mapping := multiTenantMapping("t1", resolverNow.Add(-time.Minute))
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{mapping.Identity: mapping}}
	// t1 was deleted; only t2 survives.
	tenants := &stubTenants{tenants: []*models.Tenant{activeTenant("t2", "acme-barbers", "Acme Barbers")}}
	r := newResolver(contacts, tenants)

	res, err := r.Resolve(context.Background(), mapping.Identity, "hello again")
	require.NoError(t, err)
	assert.True(t, res.NeedsChoice)
	require.Len(t, res.Choices, 1)
	assert.Equal(t, "Acme Barbers", res.Choices[0].Name)
}

func multiTenantMapping(lastActive string, lastInteraction time.Time) *models.ContactMapping {
	return &models.ContactMapping{
		Identity: "+34600111222",
		Tenants: map[string]*models.TenantLink{
			"t1": {TenantID: "t1", LastInteraction: lastInteraction},
			"t2": {TenantID: "t2"},
		},
		LastActiveTenantID: lastActive,
	}
}

func multiTenants() *stubTenants {
	return &stubTenants{tenants: []*models.Tenant{
		activeTenant("t1", "bella-salon", "Bella Salon"),
		activeTenant("t2", "acme-barbers", "Acme Barbers"),
	}}
}

func TestResolveStickinessInsideWindow(t *testing.T) {
	mapping := multiTenantMapping("t1", resolverNow.Add(-10*time.Minute))
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{mapping.Identity: mapping}}
	r := newResolver(contacts, multiTenants())

	res, err := r.Resolve(context.Background(), mapping.Identity, "what time tomorrow?")
	require.NoError(t, err)
	assert.Equal(t, "t1", res.TenantID)
}

func TestResolveStickinessExpired(t *testing.T) {
	mapping := multiTenantMapping("t1", resolverNow.Add(-utils.StickinessWindow))
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{mapping.Identity: mapping}}
	r := newResolver(contacts, multiTenants())

	res, err := r.Resolve(context.Background(), mapping.Identity, "hello again")
	require.NoError(t, err)
	assert.True(t, res.NeedsChoice)
	require.Len(t, res.Choices, 2)
	// Sorted by display name for stable numbering.
	assert.Equal(t, "Acme Barbers", res.Choices[0].Name)
	assert.Equal(t, 1, res.Choices[0].Number)
	assert.Equal(t, "Bella Salon", res.Choices[1].Name)
}

func TestResolveMenuSelection(t *testing.T) {
	mapping := multiTenantMapping("", time.Time{})
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{mapping.Identity: mapping}}
	r := newResolver(contacts, multiTenants())

	res, err := r.Resolve(context.Background(), mapping.Identity, " 2 ")
	require.NoError(t, err)
	assert.Equal(t, "t1", res.TenantID, "choice 2 is Bella Salon alphabetically")
}

func TestResolveMenuSelectionOutOfRange(t *testing.T) {
	mapping := multiTenantMapping("", time.Time{})
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{mapping.Identity: mapping}}
	r := newResolver(contacts, multiTenants())

	res, err := r.Resolve(context.Background(), mapping.Identity, "7")
	require.NoError(t, err)
	assert.True(t, res.NeedsChoice, "out-of-range picks re-present the menu")
}

func TestTokenBeatsStickiness(t *testing.T) {
	mapping := multiTenantMapping("t1", resolverNow.Add(-time.Minute))
	contacts := &stubContacts{mappings: map[string]*models.ContactMapping{mapping.Identity: mapping}}
	r := newResolver(contacts, multiTenants())

	res, err := r.Resolve(context.Background(), mapping.Identity, "start acme-barbers")
	require.NoError(t, err)
	assert.Equal(t, "t2", res.TenantID)
	assert.True(t, res.IsInitial)
}
