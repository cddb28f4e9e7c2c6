package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apptRepo "bookline/database/repository/appointment"
	contactRepo "bookline/database/repository/contact"
	tenantRepo "bookline/database/repository/tenant"
	"bookline/models"
)

// memApptRepo is an in-memory appointment store honoring the transactional
// contract of the mongo implementation: idempotency lookup, overlap scan and
// insert happen under one lock.
type memApptRepo struct {
	mu    sync.Mutex
	appts []*models.Appointment
}

func (r *memApptRepo) CreateTx(_ context.Context, appt *models.Appointment) (*models.Appointment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appts {
		if a.TenantID == appt.TenantID && a.ClientPhone == appt.ClientPhone &&
			a.StartTime.Equal(appt.StartTime) && a.Active() {
			return a, false, nil
		}
	}
	for _, a := range r.appts {
		if a.TenantID == appt.TenantID && a.Status != models.StatusCancelled && a.Overlaps(appt) {
			return nil, false, apptRepo.ErrSlotOccupied
		}
	}
	cp := *appt
	r.appts = append(r.appts, &cp)
	return &cp, true, nil
}

func (r *memApptRepo) RescheduleTx(_ context.Context, tenantID, apptID string, newStart, newEnd time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	probe := &models.Appointment{StartTime: newStart, EndTime: newEnd}
	for _, a := range r.appts {
		if a.TenantID == tenantID && a.ID != apptID && a.Status != models.StatusCancelled && a.Overlaps(probe) {
			return apptRepo.ErrSlotOccupied
		}
	}
	for _, a := range r.appts {
		if a.TenantID == tenantID && a.ID == apptID && a.Active() {
			a.StartTime = newStart
			a.EndTime = newEnd
			return nil
		}
	}
	return apptRepo.ErrNotFound
}

func (r *memApptRepo) UpdateStatus(_ context.Context, tenantID, apptID, fromStatus, toStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appts {
		if a.TenantID == tenantID && a.ID == apptID && a.Status == fromStatus {
			a.Status = toStatus
			return nil
		}
	}
	return apptRepo.ErrNotFound
}

func (r *memApptRepo) GetByID(_ context.Context, tenantID, apptID string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.appts {
		if a.TenantID == tenantID && a.ID == apptID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apptRepo.ErrNotFound
}

func (r *memApptRepo) FindActiveByPhone(_ context.Context, tenantID, phone string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, a := range r.appts {
		if a.TenantID == tenantID && a.ClientPhone == phone && a.Active() {
			out = append(out, *a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *memApptRepo) FindActiveByClientName(_ context.Context, tenantID, name string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, a := range r.appts {
		if a.TenantID == tenantID && strings.EqualFold(a.ClientName, name) && a.Active() {
			out = append(out, *a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *memApptRepo) ListBetween(_ context.Context, tenantID string, from, to time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Appointment
	for _, a := range r.appts {
		if a.TenantID == tenantID && a.Status != models.StatusCancelled &&
			!a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, *a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *memApptRepo) DeleteByID(_ context.Context, tenantID, apptID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.appts {
		if a.TenantID == tenantID && a.ID == apptID {
			r.appts = append(r.appts[:i], r.appts[i+1:]...)
			return nil
		}
	}
	return apptRepo.ErrNotFound
}

func sortByStart(appts []models.Appointment) {
	sort.Slice(appts, func(i, j int) bool { return appts[i].StartTime.Before(appts[j].StartTime) })
}

// memContactRepo records the CRM writes the engine performs after booking
// operations.
type memContactRepo struct {
	mu            sync.Mutex
	mappings      map[string]*models.ContactMapping
	governorReset int
	names         map[string]string
}

func newMemContactRepo() *memContactRepo {
	return &memContactRepo{
		mappings: make(map[string]*models.ContactMapping),
		names:    make(map[string]string),
	}
}

// link fetches or creates the tenant link, caller holds the lock.
func (r *memContactRepo) link(identity, tenantID string) *models.TenantLink {
	m, ok := r.mappings[identity]
	if !ok {
		m = &models.ContactMapping{Identity: identity, Tenants: map[string]*models.TenantLink{}}
		r.mappings[identity] = m
	}
	l, ok := m.Tenants[tenantID]
	if !ok {
		l = &models.TenantLink{TenantID: tenantID, Status: models.ContactActive}
		m.Tenants[tenantID] = l
	}
	return l
}

func (r *memContactRepo) Get(_ context.Context, identity string) (*models.ContactMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.mappings[identity]; ok {
		return m, nil
	}
	return nil, contactRepo.ErrNotFound
}

func (r *memContactRepo) Upsert(_ context.Context, m *models.ContactMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[m.Identity] = m
	return nil
}

func (r *memContactRepo) TouchTenant(_ context.Context, identity, tenantID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.link(identity, tenantID).LastInteraction = at
	r.mappings[identity].LastActiveTenantID = tenantID
	return nil
}

func (r *memContactRepo) IncrementInteraction(_ context.Context, identity, tenantID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link := r.link(identity, tenantID)
	link.InteractionCount++
	return link.InteractionCount, nil
}

func (r *memContactRepo) SetStatus(_ context.Context, identity, tenantID, status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link := r.link(identity, tenantID)
	link.Status = status
	link.PausedReason = reason
	return nil
}

func (r *memContactRepo) ResetGovernor(_ context.Context, identity, tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.governorReset++
	link := r.link(identity, tenantID)
	link.InteractionCount = 0
	link.Status = models.ContactActive
	link.PausedReason = ""
	return nil
}

func (r *memContactRepo) SetName(_ context.Context, identity, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[identity] = name
	if m, ok := r.mappings[identity]; ok {
		m.Name = name
	}
	return nil
}

func (r *memContactRepo) SetNotes(_ context.Context, identity, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.mappings[identity]; ok {
		m.Notes = notes
	}
	return nil
}

// memTenantRepo serves a fixed tenant set.
type memTenantRepo struct {
	tenants map[string]*models.Tenant
}

func (r *memTenantRepo) GetByID(_ context.Context, id string) (*models.Tenant, error) {
	if t, ok := r.tenants[id]; ok {
		return t, nil
	}
	return nil, tenantRepo.ErrNotFound
}

func (r *memTenantRepo) GetBySlug(_ context.Context, slug string) (*models.Tenant, error) {
	for _, t := range r.tenants {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, tenantRepo.ErrNotFound
}

func (r *memTenantRepo) GetByOperatorEmail(_ context.Context, email string) (*models.Tenant, error) {
	for _, t := range r.tenants {
		if t.OperatorEmail == email {
			return t, nil
		}
	}
	return nil, tenantRepo.ErrNotFound
}

func (r *memTenantRepo) UpdateFCMToken(_ context.Context, id, token string) error {
	if t, ok := r.tenants[id]; ok {
		t.FCMToken = token
		return nil
	}
	return tenantRepo.ErrNotFound
}

// memReminders records every scheduled reminder.
type memReminders struct {
	mu       sync.Mutex
	payloads []models.ReminderPayload
}

func (r *memReminders) ScheduleReminder(_ context.Context, p models.ReminderPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	return nil
}

func (r *memReminders) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}
