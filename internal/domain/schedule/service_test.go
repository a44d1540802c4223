package schedule

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/turnoapp/turno/internal/domain/identity"
	"github.com/turnoapp/turno/internal/platform/apperr"
	"github.com/turnoapp/turno/pkg/wallclock"
)

// -- Mock Repository --

type mockRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Block
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Block)}
}

func (m *mockRepo) Create(_ context.Context, b *Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("schedule block")
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, b *Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[b.ID]; !ok {
		return apperr.NotFound("schedule block")
	}
	cp := *b
	m.items[b.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("schedule block")
	}
	delete(m.items, id)
	return nil
}

func (m *mockRepo) filter(keep func(*Block) bool) []*Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Block
	for _, b := range m.items {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (m *mockRepo) ListByProfessional(_ context.Context, pid uuid.UUID) ([]*Block, error) {
	return m.filter(func(b *Block) bool { return b.ProfessionalID == pid }), nil
}

func (m *mockRepo) ListActive(_ context.Context, pid uuid.UUID) ([]*Block, error) {
	return m.filter(func(b *Block) bool { return b.ProfessionalID == pid && b.Active }), nil
}

func (m *mockRepo) ListActiveByDay(_ context.Context, pid uuid.UUID, day int) ([]*Block, error) {
	return m.filter(func(b *Block) bool { return b.ProfessionalID == pid && b.Active && b.DayOfWeek == day }), nil
}

func (m *mockRepo) FindOverlapping(_ context.Context, pid uuid.UUID, day int, start, end wallclock.Time, excludeID uuid.UUID) ([]*Block, error) {
	return m.filter(func(b *Block) bool {
		return b.ProfessionalID == pid && b.DayOfWeek == day && b.Active && b.ID != excludeID &&
			wallclock.Overlaps(b.StartTime, b.EndTime, start, end)
	}), nil
}

type mockProfessionals map[uuid.UUID]bool

func (m mockProfessionals) GetProfessional(_ context.Context, id uuid.UUID) (*identity.Professional, error) {
	if !m[id] {
		return nil, apperr.NotFound("professional")
	}
	return &identity.Professional{ID: id, Active: true}, nil
}

// mutexLocker serializes every weekday behind one mutex.
type mutexLocker struct{ mu sync.Mutex }

func (l *mutexLocker) WithinWeekday(ctx context.Context, _ uuid.UUID, _ int, fn func(context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

func newTestService(t *testing.T) (*Service, *mockRepo, uuid.UUID) {
	t.Helper()
	pro := uuid.New()
	repo := newMockRepo()
	return NewService(repo, mockProfessionals{pro: true}, &mutexLocker{}, zerolog.Nop()), repo, pro
}

func block(day int, start, end string) *Block {
	return &Block{DayOfWeek: day, StartTime: wallclock.MustParse(start), EndTime: wallclock.MustParse(end)}
}

func TestCreateBlock(t *testing.T) {
	svc, _, pro := newTestService(t)
	b := block(1, "09:00", "13:00")
	b.Active = false
	if err := svc.CreateBlock(context.Background(), pro, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID == uuid.Nil || b.ProfessionalID != pro {
		t.Errorf("unexpected block %+v", b)
	}
	if !b.Active {
		t.Error("new blocks must be active")
	}
}

func TestCreateBlock_Validation(t *testing.T) {
	svc, _, pro := newTestService(t)
	tests := []struct {
		name string
		b    *Block
	}{
		{"start equals end", block(1, "10:00", "10:00")},
		{"start after end", block(1, "14:00", "10:00")},
		{"negative weekday", block(-1, "09:00", "10:00")},
		{"weekday out of range", block(7, "09:00", "10:00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CreateBlock(context.Background(), pro, tt.b)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateBlock_UnknownProfessional(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.CreateBlock(context.Background(), uuid.New(), block(1, "09:00", "10:00"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCreateBlock_Overlap(t *testing.T) {
	svc, _, pro := newTestService(t)
	ctx := context.Background()
	if err := svc.CreateBlock(ctx, pro, block(1, "09:00", "13:00")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		b       *Block
		overlap bool
	}{
		{"partial", block(1, "12:00", "14:00"), true},
		{"contained", block(1, "10:00", "11:00"), true},
		{"touching end", block(1, "13:00", "15:00"), false},
		{"touching start", block(1, "08:00", "09:00"), false},
		{"other weekday", block(2, "09:00", "13:00"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CreateBlock(ctx, pro, tt.b)
			if tt.overlap && !errors.Is(err, ErrBlockOverlap) {
				t.Errorf("expected overlap, got %v", err)
			}
			if !tt.overlap && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateBlock_OtherProfessionalDoesNotOverlap(t *testing.T) {
	svc, repo, pro := newTestService(t)
	other := uuid.New()
	svc.professionals = mockProfessionals{pro: true, other: true}
	ctx := context.Background()

	if err := svc.CreateBlock(ctx, pro, block(3, "09:00", "17:00")); err != nil {
		t.Fatal(err)
	}
	if err := svc.CreateBlock(ctx, other, block(3, "09:00", "17:00")); err != nil {
		t.Fatalf("blocks of different professionals must not collide: %v", err)
	}
	if len(repo.items) != 2 {
		t.Errorf("expected 2 blocks, got %d", len(repo.items))
	}
}

func TestCreateBlock_ConcurrentOnlyOneWins(t *testing.T) {
	svc, repo, pro := newTestService(t)
	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.CreateBlock(context.Background(), pro, block(4, "09:00", "12:00"))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, ErrBlockOverlap) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || len(repo.items) != 1 {
		t.Errorf("expected exactly one block, got %d successes and %d stored", ok, len(repo.items))
	}
}

func TestUpdateBlock(t *testing.T) {
	svc, _, pro := newTestService(t)
	ctx := context.Background()
	b := block(1, "09:00", "12:00")
	if err := svc.CreateBlock(ctx, pro, b); err != nil {
		t.Fatal(err)
	}

	end := wallclock.MustParse("14:00")
	got, err := svc.UpdateBlock(ctx, b.ID, pro, Patch{EndTime: &end})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.EndTime != end || got.StartTime != b.StartTime {
		t.Errorf("unexpected block %+v", got)
	}
}

func TestUpdateBlock_OverlapIgnoresSelf(t *testing.T) {
	svc, _, pro := newTestService(t)
	ctx := context.Background()
	b := block(1, "09:00", "12:00")
	if err := svc.CreateBlock(ctx, pro, b); err != nil {
		t.Fatal(err)
	}
	start := wallclock.MustParse("10:00")
	if _, err := svc.UpdateBlock(ctx, b.ID, pro, Patch{StartTime: &start}); err != nil {
		t.Errorf("shrinking a block must not collide with itself: %v", err)
	}
}

func TestUpdateBlock_Overlap(t *testing.T) {
	svc, _, pro := newTestService(t)
	ctx := context.Background()
	morning, afternoon := block(1, "09:00", "12:00"), block(1, "14:00", "18:00")
	for _, b := range []*Block{morning, afternoon} {
		if err := svc.CreateBlock(ctx, pro, b); err != nil {
			t.Fatal(err)
		}
	}
	end := wallclock.MustParse("15:00")
	if _, err := svc.UpdateBlock(ctx, morning.ID, pro, Patch{EndTime: &end}); !errors.Is(err, ErrBlockOverlap) {
		t.Errorf("expected overlap, got %v", err)
	}
}

func TestUpdateBlock_ReactivationChecksOverlap(t *testing.T) {
	svc, _, pro := newTestService(t)
	ctx := context.Background()
	first := block(2, "09:00", "12:00")
	if err := svc.CreateBlock(ctx, pro, first); err != nil {
		t.Fatal(err)
	}
	off := false
	if _, err := svc.UpdateBlock(ctx, first.ID, pro, Patch{Active: &off}); err != nil {
		t.Fatal(err)
	}
	if err := svc.CreateBlock(ctx, pro, block(2, "10:00", "11:00")); err != nil {
		t.Fatalf("inactive blocks must not block new ones: %v", err)
	}

	on := true
	if _, err := svc.UpdateBlock(ctx, first.ID, pro, Patch{Active: &on}); !errors.Is(err, ErrBlockOverlap) {
		t.Errorf("expected overlap on re-activation, got %v", err)
	}
}

func TestUpdateBlock_InvalidRange(t *testing.T) {
	svc, _, pro := newTestService(t)
	ctx := context.Background()
	b := block(1, "09:00", "12:00")
	if err := svc.CreateBlock(ctx, pro, b); err != nil {
		t.Fatal(err)
	}
	start := wallclock.MustParse("13:00")
	if _, err := svc.UpdateBlock(ctx, b.ID, pro, Patch{StartTime: &start}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateBlock_OtherProfessional(t *testing.T) {
	svc, _, pro := newTestService(t)
	ctx := context.Background()
	b := block(1, "09:00", "12:00")
	if err := svc.CreateBlock(ctx, pro, b); err != nil {
		t.Fatal(err)
	}
	off := false
	if _, err := svc.UpdateBlock(ctx, b.ID, uuid.New(), Patch{Active: &off}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeleteBlock(t *testing.T) {
	svc, repo, pro := newTestService(t)
	ctx := context.Background()
	b := block(5, "09:00", "12:00")
	if err := svc.CreateBlock(ctx, pro, b); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteBlock(ctx, b.ID, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found for other professional, got %v", err)
	}
	if err := svc.DeleteBlock(ctx, b.ID, pro); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.items) != 0 {
		t.Error("expected hard delete")
	}
}

func TestWeeklySchedule(t *testing.T) {
	svc, _, pro := newTestService(t)
	ctx := context.Background()
	for _, b := range []*Block{block(1, "14:00", "18:00"), block(1, "09:00", "12:00"), block(3, "10:00", "11:00")} {
		if err := svc.CreateBlock(ctx, pro, b); err != nil {
			t.Fatal(err)
		}
	}
	week, err := svc.WeeklySchedule(ctx, pro)
	if err != nil {
		t.Fatal(err)
	}
	if len(week[1]) != 2 || len(week[3]) != 1 || len(week[0]) != 0 {
		t.Errorf("unexpected week %v", week)
	}
	if week[1][0].StartTime != wallclock.MustParse("09:00") {
		t.Errorf("expected blocks ordered by start, got %s first", week[1][0].StartTime)
	}

	monday, err := svc.ActiveBlocks(ctx, pro, 1)
	if err != nil || len(monday) != 2 {
		t.Errorf("expected 2 monday blocks, got %d (%v)", len(monday), err)
	}
}
