package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turnoapp/turno/pkg/wallclock"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	// ListByProfessional and ListByClient order by date then start, newest first.
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// ListByDate returns the appointments of one date whose status is not excluding.
	ListByDate(ctx context.Context, professionalID uuid.UUID, date time.Time, excluding Status) ([]*Appointment, error)
	// ListByDateRange returns every appointment, any status, with from <= date <= to.
	ListByDateRange(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	// FindOverlapping returns non-cancelled appointments of the date that
	// overlap [start, end), ignoring excludeID.
	FindOverlapping(ctx context.Context, professionalID uuid.UUID, date time.Time, start, end wallclock.Time, excludeID uuid.UUID) ([]*Appointment, error)
}

// Locker runs fn with exclusive access to one professional's date.
type Locker interface {
	WithinDay(ctx context.Context, professionalID uuid.UUID, date time.Time, fn func(context.Context) error) error
}
