package booking

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/turnoapp/turno/internal/domain/identity"
	"github.com/turnoapp/turno/internal/domain/offering"
	"github.com/turnoapp/turno/internal/domain/schedule"
	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/pkg/wallclock"
)

// -- Mock Repositories --

type mockAppointments struct {
	mu        sync.Mutex
	items     map[uuid.UUID]*Appointment
	createErr error
}

func newMockAppointments() *mockAppointments {
	return &mockAppointments{items: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointments) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockAppointments) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("appointment")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointments) Update(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[a.ID]; !ok {
		return apperr.NotFound("appointment")
	}
	cp := *a
	m.items[a.ID] = &cp
	return nil
}

func (m *mockAppointments) filter(keep func(*Appointment) bool) []*Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Appointment
	for _, a := range m.items {
		if keep(a) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func page(items []*Appointment, limit, offset int) ([]*Appointment, int, error) {
	// newest first
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return items[offset:end], total, nil
}

func (m *mockAppointments) ListByProfessional(_ context.Context, pid uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return page(m.filter(func(a *Appointment) bool { return a.ProfessionalID == pid }), limit, offset)
}

func (m *mockAppointments) ListByClient(_ context.Context, cid uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return page(m.filter(func(a *Appointment) bool { return a.ClientID == cid }), limit, offset)
}

func (m *mockAppointments) ListByDate(_ context.Context, pid uuid.UUID, date time.Time, excluding Status) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool {
		return a.ProfessionalID == pid && a.Date.Equal(date) && a.Status != excluding
	}), nil
}

func (m *mockAppointments) ListByDateRange(_ context.Context, pid uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool {
		return a.ProfessionalID == pid && !a.Date.Before(from) && !a.Date.After(to)
	}), nil
}

func (m *mockAppointments) FindOverlapping(_ context.Context, pid uuid.UUID, date time.Time, start, end wallclock.Time, excludeID uuid.UUID) ([]*Appointment, error) {
	return m.filter(func(a *Appointment) bool {
		return a.ProfessionalID == pid && a.Date.Equal(date) && a.Status != StatusCancelled &&
			a.ID != excludeID && wallclock.Overlaps(a.StartTime, a.EndTime, start, end)
	}), nil
}

type mockBlocks struct {
	blocks []*schedule.Block
	calls  int
}

func (m *mockBlocks) ListActive(_ context.Context, pid uuid.UUID) ([]*schedule.Block, error) {
	m.calls++
	var out []*schedule.Block
	for _, b := range m.blocks {
		if b.ProfessionalID == pid && b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBlocks) ListActiveByDay(_ context.Context, pid uuid.UUID, day int) ([]*schedule.Block, error) {
	m.calls++
	var out []*schedule.Block
	for _, b := range m.blocks {
		if b.ProfessionalID == pid && b.Active && b.DayOfWeek == day {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockOfferings map[uuid.UUID]*offering.Offering

func (m mockOfferings) GetOffering(_ context.Context, id uuid.UUID) (*offering.Offering, error) {
	o, ok := m[id]
	if !ok {
		return nil, apperr.NotFound("service")
	}
	return o, nil
}

func (m mockOfferings) GetBookable(ctx context.Context, id, pid uuid.UUID) (*offering.Offering, error) {
	o, err := m.GetOffering(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Active || (pid != uuid.Nil && o.ProfessionalID != pid) {
		return nil, apperr.NotFound("service")
	}
	return o, nil
}

type mockClients map[uuid.UUID]bool

func (m mockClients) GetClient(_ context.Context, id uuid.UUID) (*identity.Client, error) {
	if !m[id] {
		return nil, apperr.NotFound("client")
	}
	return &identity.Client{ID: id}, nil
}

// -- Fixture --

// 2024-01-01 is a Monday.
var (
	fixedNow  = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	monday    = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	tuesday   = time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	lastWeek  = time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)
	testToday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc          *Service
	appts        *mockAppointments
	blocks       *mockBlocks
	offerings    mockOfferings
	professional uuid.UUID
	client       uuid.UUID
	service      *offering.Offering
	events       *recordingPublisher
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, _ uuid.UUID, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		appts:        newMockAppointments(),
		blocks:       &mockBlocks{},
		professional: uuid.New(),
		client:       uuid.New(),
		events:       &recordingPublisher{},
	}
	f.service = &offering.Offering{ID: uuid.New(), ProfessionalID: f.professional, Name: "Corte", DurationMinutes: 60, PriceCents: 500000, Active: true}
	f.offerings = mockOfferings{f.service.ID: f.service}
	f.svc = NewService(f.appts, f.blocks, f.offerings, mockClients{f.client: true}, NewKeyedMutex(), zerolog.Nop(),
		WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC), WithPublisher(f.events))
	return f
}

func (f *fixture) addBlock(day int, start, end string) *schedule.Block {
	b := &schedule.Block{
		ID:             uuid.New(),
		ProfessionalID: f.professional,
		DayOfWeek:      day,
		StartTime:      wallclock.MustParse(start),
		EndTime:        wallclock.MustParse(end),
		Active:         true,
	}
	f.blocks.blocks = append(f.blocks.blocks, b)
	return b
}

func (f *fixture) book(t *testing.T, date time.Time, start string) *Appointment {
	t.Helper()
	a, err := f.svc.CreateAppointment(context.Background(), CreateRequest{
		ServiceID: f.service.ID,
		Date:      date,
		StartTime: wallclock.MustParse(start),
	}, f.client)
	if err != nil {
		t.Fatalf("book %s %s: %v", dateKey(date), start, err)
	}
	return a
}

func (f *fixture) professionalActor() Actor {
	return Actor{ID: f.professional, IsProfessional: true}
}

func (f *fixture) clientActor() Actor {
	return Actor{ID: f.client}
}
