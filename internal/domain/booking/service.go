package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/turnoapp/turno/internal/domain/identity"
	"github.com/turnoapp/turno/internal/domain/offering"
	"github.com/turnoapp/turno/internal/domain/schedule"
	"github.com/turnoapp/turno/internal/platform/apperr"
)

// BlockSource reads active schedule blocks.
type BlockSource interface {
	ListActive(ctx context.Context, professionalID uuid.UUID) ([]*schedule.Block, error)
	ListActiveByDay(ctx context.Context, professionalID uuid.UUID, day int) ([]*schedule.Block, error)
}

// OfferingSource resolves the service being booked.
type OfferingSource interface {
	GetBookable(ctx context.Context, id, professionalID uuid.UUID) (*offering.Offering, error)
	GetOffering(ctx context.Context, id uuid.UUID) (*offering.Offering, error)
}

type ClientLookup interface {
	GetClient(ctx context.Context, id uuid.UUID) (*identity.Client, error)
}

// Publisher receives appointment lifecycle events after they are committed.
type Publisher interface {
	Publish(eventType string, resourceID uuid.UUID, payload any)
}

const (
	EventCreated       = "appointment.created"
	EventRescheduled   = "appointment.rescheduled"
	EventStatusChanged = "appointment.status_changed"
)

type nopPublisher struct{}

func (nopPublisher) Publish(string, uuid.UUID, any) {}

type Service struct {
	appts     AppointmentRepository
	blocks    BlockSource
	offerings OfferingSource
	clients   ClientLookup
	locker    Locker
	logger    zerolog.Logger
	now       func() time.Time
	loc       *time.Location
	events    Publisher
}

type Option func(*Service)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone whose calendar decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

func NewService(appts AppointmentRepository, blocks BlockSource, offerings OfferingSource, clients ClientLookup, locker Locker, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		appts:     appts,
		blocks:    blocks,
		offerings: offerings,
		clients:   clients,
		locker:    locker,
		logger:    logger,
		now:       time.Now,
		loc:       time.Local,
		events:    nopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today is the current local calendar date as UTC midnight, comparable
// with dates from ParseDate.
func (s *Service) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Viewer identifies who is reading appointments.
type Viewer struct {
	ID             uuid.UUID
	IsProfessional bool
	IsAdmin        bool
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID, v Viewer) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.IsAdmin {
		return a, nil
	}
	actor := Actor{ID: v.ID, IsProfessional: v.IsProfessional}
	if !actor.ownsAsProfessional(a) && !actor.ownsAsClient(a) {
		return nil, apperr.NotFound("appointment")
	}
	return a, nil
}

func (s *Service) ListForProfessional(ctx context.Context, professionalID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.ListByProfessional(ctx, professionalID, limit, offset)
}

func (s *Service) ListForClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appts.ListByClient(ctx, clientID, limit, offset)
}

// Upcoming returns the non-cancelled appointments dated from today through
// today plus days.
func (s *Service) Upcoming(ctx context.Context, professionalID uuid.UUID, days int) ([]*Appointment, error) {
	from := s.today()
	all, err := s.appts.ListByDateRange(ctx, professionalID, from, from.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if a.Status != StatusCancelled {
			out = append(out, a)
		}
	}
	return out, nil
}
