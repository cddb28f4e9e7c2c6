package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookline/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2 March 2026, 10:00 UTC.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

const testTenantID = "tenant-1"

func testTenant() *models.Tenant {
	return &models.Tenant{
		ID:       testTenantID,
		Slug:     "bella-salon",
		Name:     "Bella Salon",
		Timezone: "UTC",
		Tier:     models.TierPro,
		Active:   true,
		Hours: models.OperatingHours{
			Open:       "09:00",
			Close:      "18:00",
			BreakStart: "13:00",
			BreakEnd:   "14:00",
			Weekdays:   []int{1, 2, 3, 4, 5, 6},
		},
		Services: []models.ServiceOffering{
			{Name: "Haircut", Price: 15, DurationMinutes: 30},
			{Name: "Massage", Price: 40, DurationMinutes: 60},
		},
	}
}

func newTestEngine() (*DefaultEngine, *memApptRepo, *memContactRepo, *memReminders) {
	appts := &memApptRepo{}
	contacts := newMemContactRepo()
	reminders := &memReminders{}
	engine := &DefaultEngine{
		Appointments: appts,
		Contacts:     contacts,
		Tenants:      &memTenantRepo{tenants: map[string]*models.Tenant{testTenantID: testTenant()}},
		Reminders:    reminders,
		Now:          func() time.Time { return testNow },
	}
	return engine, appts, contacts, reminders
}

func TestCreateBooksAppointment(t *testing.T) {
	engine, _, contacts, reminders := newTestEngine()
	ctx := context.Background()

	start := testNow.Add(5 * time.Hour) // Monday 15:00
	appt, created, err := engine.Create(ctx, testTenantID, CreateRequest{
		ClientName:  "Maria",
		ClientPhone: "+34600111222",
		ServiceName: "haircut",
		StartTime:   start,
	})
	require.NoError(t, err)
	require.True(t, created)

	assert.Equal(t, models.StatusConfirmed, appt.Status)
	assert.Equal(t, "Haircut", appt.ServiceName, "catalog spelling wins over the caller's")
	assert.Equal(t, start.Add(30*time.Minute), appt.EndTime)
	assert.Equal(t, models.SourceAI, appt.Source)
	assert.NotEmpty(t, appt.ID)

	assert.Equal(t, 1, contacts.governorReset, "a successful booking clears the interaction budget")
	assert.Equal(t, "Maria", contacts.names["+34600111222"])

	require.Equal(t, 1, reminders.count())
	assert.Equal(t, start.Add(-time.Hour), reminders.payloads[0].FireAt)
}

func TestCreateIsIdempotent(t *testing.T) {
	engine, appts, _, reminders := newTestEngine()
	ctx := context.Background()

	req := CreateRequest{
		ClientName:  "Maria",
		ClientPhone: "+34600111222",
		ServiceName: "Haircut",
		StartTime:   testNow.Add(5 * time.Hour),
	}
	first, created, err := engine.Create(ctx, testTenantID, req)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := engine.Create(ctx, testTenantID, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	assert.Len(t, appts.appts, 1)
	assert.Equal(t, 1, reminders.count(), "replays must not enqueue a second reminder")
}

func TestCreateRejectsOverlap(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	ctx := context.Background()

	start := testNow.Add(5 * time.Hour)
	_, _, err := engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+34600111222", ServiceName: "Massage", StartTime: start,
	})
	require.NoError(t, err)

	// A different contact asking for a slot inside the first booking's hour.
	_, _, err = engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+34600333444", ServiceName: "Haircut", StartTime: start.Add(15 * time.Minute),
	})
	assert.Equal(t, CodeSlotOccupied, CodeOf(err))
}

func TestCreateValidation(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	ctx := context.Background()

	cases := []struct {
		name     string
		req      CreateRequest
		wantCode string
	}{
		{
			name:     "past start",
			req:      CreateRequest{ClientPhone: "+1", ServiceName: "Haircut", StartTime: testNow.Add(-time.Hour)},
			wantCode: CodePastDate,
		},
		{
			name:     "unknown service",
			req:      CreateRequest{ClientPhone: "+1", ServiceName: "Tarot Reading", StartTime: testNow.Add(5 * time.Hour)},
			wantCode: CodeUnknownService,
		},
		{
			name:     "closed weekday",
			req:      CreateRequest{ClientPhone: "+1", ServiceName: "Haircut", StartTime: testNow.Add(6 * 24 * time.Hour)}, // Sunday
			wantCode: CodeBusinessClosed,
		},
		{
			name:     "after closing",
			req:      CreateRequest{ClientPhone: "+1", ServiceName: "Haircut", StartTime: testNow.Add(10 * time.Hour)}, // 20:00
			wantCode: CodeBusinessClosed,
		},
		{
			name:     "lunch break",
			req:      CreateRequest{ClientPhone: "+1", ServiceName: "Haircut", StartTime: testNow.Add(3*time.Hour + 30*time.Minute)}, // 13:30
			wantCode: CodeBusinessClosed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := engine.Create(ctx, testTenantID, tc.req)
			assert.Equal(t, tc.wantCode, CodeOf(err))
		})
	}
}

func TestConcurrentCreateOneWinner(t *testing.T) {
	engine, appts, _, _ := newTestEngine()
	ctx := context.Background()
	start := testNow.Add(5 * time.Hour)

	const writers = 8
	var wg sync.WaitGroup
	results := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			phone := "+3460000000" + string(rune('0'+n))
			_, _, results[n] = engine.Create(ctx, testTenantID, CreateRequest{
				ClientPhone: phone, ServiceName: "Haircut", StartTime: start,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.Equal(t, CodeSlotOccupied, CodeOf(err))
		}
	}
	assert.Equal(t, 1, winners)
	assert.Len(t, appts.appts, 1)
}

func TestUpdateReschedules(t *testing.T) {
	engine, _, _, reminders := newTestEngine()
	ctx := context.Background()

	start := testNow.Add(5 * time.Hour)
	_, _, err := engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+34600111222", ServiceName: "Haircut", StartTime: start,
	})
	require.NoError(t, err)

	newStart := testNow.Add(6 * time.Hour)
	appt, err := engine.Update(ctx, testTenantID, UpdateRequest{
		ClientPhone: "+34600111222", NewStart: newStart,
	})
	require.NoError(t, err)
	assert.Equal(t, newStart, appt.StartTime)
	assert.Equal(t, newStart.Add(30*time.Minute), appt.EndTime, "duration is preserved")
	assert.Equal(t, 2, reminders.count())
}

func TestUpdateErrors(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := engine.Update(ctx, testTenantID, UpdateRequest{
		ClientPhone: "+34600999888", NewStart: testNow.Add(5 * time.Hour),
	})
	assert.Equal(t, CodeNotFound, CodeOf(err))

	// Two bookings; moving the second onto the first must fail.
	start := testNow.Add(5 * time.Hour)
	_, _, err = engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+34600111222", ServiceName: "Massage", StartTime: start,
	})
	require.NoError(t, err)
	_, _, err = engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+34600333444", ServiceName: "Haircut", StartTime: testNow.Add(7 * time.Hour),
	})
	require.NoError(t, err)

	_, err = engine.Update(ctx, testTenantID, UpdateRequest{
		ClientPhone: "+34600333444", NewStart: start.Add(30 * time.Minute),
	})
	assert.Equal(t, CodeSlotOccupied, CodeOf(err))
}

func TestCancel(t *testing.T) {
	engine, appts, contacts, _ := newTestEngine()
	ctx := context.Background()

	_, _, err := engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+34600111222", ServiceName: "Haircut", StartTime: testNow.Add(5 * time.Hour),
	})
	require.NoError(t, err)
	contacts.governorReset = 0

	n, err := engine.Cancel(ctx, testTenantID, "+34600111222")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, models.StatusCancelled, appts.appts[0].Status)
	assert.Equal(t, 1, contacts.governorReset)

	// Cancelling again is a quiet no-op.
	n, err = engine.Cancel(ctx, testTenantID, "+34600111222")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCancelAfterCancellationFreesSlot(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	ctx := context.Background()
	start := testNow.Add(5 * time.Hour)

	_, _, err := engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+34600111222", ServiceName: "Haircut", StartTime: start,
	})
	require.NoError(t, err)
	_, err = engine.Cancel(ctx, testTenantID, "+34600111222")
	require.NoError(t, err)

	_, created, err := engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+34600333444", ServiceName: "Haircut", StartTime: start,
	})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCompleteTransitions(t *testing.T) {
	engine, appts, _, _ := newTestEngine()
	ctx := context.Background()

	created, _, err := engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+34600111222", ServiceName: "Haircut", StartTime: testNow.Add(5 * time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, engine.Complete(ctx, testTenantID, created.ID))
	assert.Equal(t, models.StatusCompleted, appts.appts[0].Status)

	err = engine.Complete(ctx, testTenantID, created.ID)
	assert.Equal(t, CodeForbiddenTransition, CodeOf(err), "completed is terminal")
}

func TestCheckStatus(t *testing.T) {
	engine, appts, _, _ := newTestEngine()
	ctx := context.Background()

	res, err := engine.CheckStatus(ctx, testTenantID, "+34600111222", "")
	require.NoError(t, err)
	assert.False(t, res.Exists)

	_, _, err = engine.Create(ctx, testTenantID, CreateRequest{
		ClientName: "Maria", ClientPhone: "+34600111222", ServiceName: "Haircut",
		StartTime: testNow.Add(5 * time.Hour),
	})
	require.NoError(t, err)

	res, err = engine.CheckStatus(ctx, testTenantID, "+34600111222", "")
	require.NoError(t, err)
	require.True(t, res.Exists)
	assert.Equal(t, models.StatusConfirmed, res.State)

	// Manually entered booking with no phone: the name fallback finds it.
	appts.appts = append(appts.appts, &models.Appointment{
		ID: "manual-1", TenantID: testTenantID, ClientName: "Carlos",
		ServiceName: "Massage", Status: models.StatusConfirmed,
		StartTime: testNow.Add(24 * time.Hour), EndTime: testNow.Add(25 * time.Hour),
	})
	res, err = engine.CheckStatus(ctx, testTenantID, "+34600999888", "carlos")
	require.NoError(t, err)
	require.True(t, res.Exists)
	assert.Equal(t, "manual-1", res.Appointment.ID)
}

func TestCheckStatusIgnoresPastAppointments(t *testing.T) {
	engine, appts, _, _ := newTestEngine()
	ctx := context.Background()

	appts.appts = append(appts.appts, &models.Appointment{
		ID: "old-1", TenantID: testTenantID, ClientPhone: "+34600111222",
		Status:    models.StatusConfirmed,
		StartTime: testNow.Add(-48 * time.Hour), EndTime: testNow.Add(-47 * time.Hour),
	})

	res, err := engine.CheckStatus(ctx, testTenantID, "+34600111222", "")
	require.NoError(t, err)
	assert.False(t, res.Exists)
}

func TestAgendaListsDay(t *testing.T) {
	engine, _, _, _ := newTestEngine()
	ctx := context.Background()

	_, _, err := engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+1", ServiceName: "Haircut", StartTime: testNow.Add(5 * time.Hour),
	})
	require.NoError(t, err)
	_, _, err = engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+2", ServiceName: "Haircut", StartTime: testNow.Add(29 * time.Hour), // Tuesday
	})
	require.NoError(t, err)

	appts, err := engine.Agenda(ctx, testTenantID, testNow)
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestReminderSkippedInsideLeadWindow(t *testing.T) {
	engine, _, _, reminders := newTestEngine()
	ctx := context.Background()

	// 10:30 start is less than the lead away from the fixed clock.
	_, _, err := engine.Create(ctx, testTenantID, CreateRequest{
		ClientPhone: "+1", ServiceName: "Haircut", StartTime: testNow.Add(30 * time.Minute),
	})
	require.NoError(t, err)
	assert.Zero(t, reminders.count())
}
